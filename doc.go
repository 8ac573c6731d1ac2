// Package aoi resolves areas of interest by name and by spatial
// containment over a unified catalog of administrative and thematic
// boundaries (GADM, KBA, WDPA, Landmark).
//
// The package is split into two halves with the same lifecycle as the
// data they serve:
//
//   - Ingestion (the ingest package) rebuilds the catalog and geometry
//     store from source datasets into an immutable generation.
//   - Serving (this package plus flight) opens the active generation
//     and answers fuzzy name search, subregion expansion, and geometry
//     lookups, optionally over Arrow Flight RPC.
//
// Basic serving example:
//
//	resolver, err := aoi.Open(aoi.Config{Dir: "/var/lib/aoi"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer resolver.Close()
//
//	matches, err := resolver.Search(ctx, "Lisboa", search.Options{})
//
// To expose the resolver over Arrow Flight:
//
//	grpcServer := grpc.NewServer(aoi.ServerOptions(config)...)
//	if err := aoi.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
package aoi
