// Command aoi-server serves the AOI resolver over Arrow Flight. SIGHUP
// reloads the active generation after an ingestion run commits a new one.
package main

import (
	"context"
	"crypto/subtle"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	aoi "github.com/project-zeno/aoi-go"
	"github.com/project-zeno/aoi-go/auth"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", os.Getenv("AOI_STORE_DIR"), "store directory")
	addr := flag.String("addr", envOr("AOI_LISTEN_ADDR", ":50051"), "listen address")
	token := flag.String("token", os.Getenv("AOI_BEARER_TOKEN"), "static bearer token; empty disables auth")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*dir, *addr, *token, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(dir, addr, token string, logger *slog.Logger) error {
	resolver, err := aoi.Open(aoi.Config{Dir: dir, Logger: logger})
	if err != nil {
		return err
	}
	defer resolver.Close()

	config := aoi.ServerConfig{
		Resolver:       resolver,
		Logger:         logger,
		Address:        addr,
		MaxMessageSize: 16 << 20,
	}
	if token != "" {
		config.Auth = staticTokenAuth(token)
	}

	grpcServer := grpc.NewServer(aoi.ServerOptions(config)...)
	if err := aoi.NewServer(grpcServer, config); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			if err := resolver.Reload(context.Background()); err != nil {
				logger.Error("reload failed", "error", err)
			}
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("shutting down")
		grpcServer.GracefulStop()
	}()

	logger.Info("serving", "addr", addr, "generation", resolver.Generation())
	return grpcServer.Serve(lis)
}

// staticTokenAuth accepts exactly one preconfigured token.
func staticTokenAuth(token string) aoi.Authenticator {
	return aoi.BearerAuth(func(got string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return "", auth.ErrUnauthenticated
		}
		return "client", nil
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
