// Package artifact implements the typed file-artifact layer: artifact
// kinds, column schemas, and the bound Artifact instances Steps read and
// write. Every artifact class declares a relative path under the
// Configuration's main directory plus a kind; tabular and geo-tabular
// kinds additionally declare a column schema enforced on write.
package artifact

import "fmt"

// Kind enumerates the artifact storage kinds. Tabular and GeoTabular are
// schema-validated on write; Text, Plot, and Opaque are raw byte read/write.
type Kind int

const (
	KindTabular Kind = iota
	KindGeoTabular
	KindText
	KindPlot
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindTabular:
		return "tabular"
	case KindGeoTabular:
		return "geospatial-tabular"
	case KindText:
		return "text"
	case KindPlot:
		return "plot"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// DataType enumerates the semantic column types a ColumnSpec may declare.
type DataType int

const (
	DataTypeID DataType = iota
	DataTypeBool
	DataTypeInt
	DataTypeUint
	DataTypeFloat
	DataTypeString
	DataTypeTime
	DataTypeDuration
	DataTypeListOfIDs
	DataTypeListOfFloats
	DataTypeListOfTimes
)

// String renders a human-readable name for the data type, used in schema
// error messages and generated documentation.
func (d DataType) String() string {
	switch d {
	case DataTypeID:
		return "ID"
	case DataTypeBool:
		return "boolean"
	case DataTypeInt:
		return "integer"
	case DataTypeUint:
		return "unsigned integer"
	case DataTypeFloat:
		return "float"
	case DataTypeString:
		return "string"
	case DataTypeTime:
		return "time of day"
	case DataTypeDuration:
		return "duration"
	case DataTypeListOfIDs:
		return "list of IDs"
	case DataTypeListOfFloats:
		return "list of floats"
	case DataTypeListOfTimes:
		return "list of times"
	default:
		return fmt.Sprintf("unknown(%d)", int(d))
	}
}

// temporal reports whether the type is forbidden on geo-tabular schemas:
// time and duration columns are not permitted alongside a geometry column.
func (d DataType) temporal() bool {
	return d == DataTypeTime || d == DataTypeDuration
}
