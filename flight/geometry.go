package flight

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// GeometryExtensionType is the Arrow extension type for geometry columns.
// Geometries are WKB (Well-Known Binary) in a Binary column; the extension
// name "geoarrow.wkb" keeps the stream readable by GeoArrow-aware clients
// and the DuckDB spatial extension.
type GeometryExtensionType struct {
	arrow.ExtensionBase
}

func init() {
	// Registration lets Arrow IPC readers in the same process resolve
	// geometry columns to the extension type.
	if arrow.GetExtensionType("geoarrow.wkb") == nil {
		_ = arrow.RegisterExtensionType(NewGeometryExtensionType())
	}
}

// NewGeometryExtensionType creates the geometry extension type over
// Binary storage.
func NewGeometryExtensionType() *GeometryExtensionType {
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{
			Storage: arrow.BinaryTypes.Binary,
		},
	}
}

// ArrayType returns the Go array type for geometry columns.
func (g *GeometryExtensionType) ArrayType() reflect.Type {
	return reflect.TypeOf((*array.Binary)(nil))
}

// ExtensionName returns the extension type identifier.
func (g *GeometryExtensionType) ExtensionName() string {
	return "geoarrow.wkb"
}

// String returns a string representation of the type.
func (g *GeometryExtensionType) String() string {
	return "extension<geoarrow.wkb>"
}

// Serialize returns the extension metadata. Empty: plain WKB, no options.
func (g *GeometryExtensionType) Serialize() string {
	return ""
}

// Deserialize reconstructs the extension type from storage and metadata.
func (g *GeometryExtensionType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	if !arrow.TypeEqual(storageType, arrow.BinaryTypes.Binary) &&
		!arrow.TypeEqual(storageType, arrow.BinaryTypes.LargeBinary) {
		return nil, fmt.Errorf("invalid storage type for geometry: %s", storageType)
	}
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{Storage: storageType},
	}, nil
}

// ExtensionEquals checks equality with another extension type.
func (g *GeometryExtensionType) ExtensionEquals(other arrow.ExtensionType) bool {
	o, ok := other.(*GeometryExtensionType)
	if !ok {
		return false
	}
	return arrow.TypeEqual(g.StorageType(), o.StorageType())
}

// NewGeometryField creates an Arrow field carrying WKB geometry. The
// field uses Binary storage with the extension name in metadata, so
// record builders hand out a plain BinaryBuilder. All catalog geometries
// are EPSG:4326, recorded alongside.
func NewGeometryField(name string, nullable bool) arrow.Field {
	return arrow.Field{
		Name:     name,
		Type:     arrow.BinaryTypes.Binary,
		Nullable: nullable,
		Metadata: arrow.MetadataFrom(map[string]string{
			"ARROW:extension:name": "geoarrow.wkb",
			"srid":                 "4326",
			"dimension":            "XY",
		}),
	}
}
