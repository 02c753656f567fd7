package artifact

import "fmt"

// ColumnSpec declares one column of a tabular or geo-tabular artifact's
// schema: its semantic type plus the optional/nullable/unique flags write
// validation enforces.
type ColumnSpec struct {
	Name        string
	Type        DataType
	Optional    bool
	Nullable    bool
	Unique      bool
	Description string
}

// Schema is an ordered set of ColumnSpecs. Column order is preserved on
// write so artifacts round-trip with a stable column order.
type Schema []ColumnSpec

// Validate checks the schema itself is well-formed for the given kind:
// no duplicate column names, and (for GeoTabular) no TIME/DURATION column.
func (s Schema) Validate(kind Kind) error {
	seen := make(map[string]bool, len(s))
	for _, col := range s {
		if seen[col.Name] {
			return fmt.Errorf("duplicate column %q in schema", col.Name)
		}
		seen[col.Name] = true
		if kind == KindGeoTabular && col.Type.temporal() {
			return fmt.Errorf("column %q: %s columns are not permitted on geo-tabular artifacts", col.Name, col.Type)
		}
	}
	return nil
}

// names returns the declared column names in schema order.
func (s Schema) names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// jsonSchema renders the Schema as a parquet-go JSON schema string, the
// format xitongsys/parquet-go's JSONWriter expects. Used because the
// column set is only known at Step-class registration time, not at Go
// compile time, so a generated struct per artifact isn't an option.
func (s Schema) jsonSchema(geometry bool) string {
	tags := make([]string, 0, len(s)+1)
	for _, col := range s {
		tags = append(tags, columnTag(col))
	}
	if geometry {
		tags = append(tags, `name=geometry, type=BYTE_ARRAY, convertedtype=UTF8`)
	}

	out := `{"Tag":"name=root, repetitiontype=REQUIRED","Fields":[`
	for i, tag := range tags {
		if i > 0 {
			out += ","
		}
		out += `{"Tag":"` + tag + `"}`
	}
	out += `]}`
	return out
}

func columnTag(col ColumnSpec) string {
	ptype, converted := parquetType(col.Type)
	rep := "REQUIRED"
	if col.Optional || col.Nullable {
		rep = "OPTIONAL"
	}
	tag := fmt.Sprintf("name=%s, type=%s", col.Name, ptype)
	if converted != "" {
		tag += ", convertedtype=" + converted
	}
	tag += ", repetitiontype=" + rep
	return tag
}

func parquetType(t DataType) (physical string, converted string) {
	switch t {
	case DataTypeID, DataTypeInt:
		return "INT64", ""
	case DataTypeUint:
		return "INT64", "UINT_64"
	case DataTypeBool:
		return "BOOLEAN", ""
	case DataTypeFloat:
		return "DOUBLE", ""
	case DataTypeString:
		return "BYTE_ARRAY", "UTF8"
	case DataTypeTime, DataTypeDuration:
		return "INT64", ""
	case DataTypeListOfIDs, DataTypeListOfFloats, DataTypeListOfTimes:
		return "BYTE_ARRAY", "UTF8"
	default:
		return "BYTE_ARRAY", "UTF8"
	}
}
