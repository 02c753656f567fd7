package artifact

import (
	"fmt"
	"strings"

	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// Row is one record of a tabular or geo-tabular artifact.
type Row = map[string]interface{}

// validateRows enforces the column schema against rows: presence (unless
// optional), nullability, uniqueness, and the max-row cap.
// Extra columns not in the schema are dropped, each producing one warning.
// The returned rows carry exactly the declared columns (an absent optional
// column as nil); column order on disk comes from the schema at write time.
func validateRows(artifactName string, schema Schema, maxRows *int, rows []Row) ([]Row, []string, error) {
	if maxRows != nil && len(rows) > *maxRows {
		return nil, nil, metroerrors.NewSchemaError(artifactName,
			fmt.Sprintf("row count %d exceeds max_rows %d", len(rows), *maxRows), nil)
	}

	var warnings []string
	seenExtra := make(map[string]bool)
	seenUnique := make(map[string]map[interface{}]bool)
	for _, col := range schema {
		if col.Unique {
			seenUnique[col.Name] = make(map[interface{}]bool, len(rows))
		}
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		clean := make(Row, len(schema))
		for _, col := range schema {
			value, present := row[col.Name]
			if !present || value == nil {
				if value == nil && present && !col.Nullable {
					return nil, nil, metroerrors.NewSchemaError(artifactName,
						fmt.Sprintf("column %q at row %d: null value in non-nullable column", col.Name, i), nil)
				}
				if !present && !col.Optional {
					return nil, nil, metroerrors.NewSchemaError(artifactName,
						fmt.Sprintf("missing required column %q at row %d", col.Name, i), nil)
				}
				clean[col.Name] = nil
				continue
			}
			if err := checkColumnType(col, value); err != nil {
				return nil, nil, metroerrors.NewSchemaError(artifactName,
					fmt.Sprintf("column %q at row %d: %v", col.Name, i, err), nil)
			}
			if col.Unique {
				if seenUnique[col.Name][value] {
					return nil, nil, metroerrors.NewSchemaError(artifactName,
						fmt.Sprintf("column %q at row %d: duplicate value %v violates uniqueness", col.Name, i, value), nil)
				}
				seenUnique[col.Name][value] = true
			}
			clean[col.Name] = value
		}
		for key := range row {
			if _, declared := findColumn(schema, key); !declared && !seenExtra[key] {
				seenExtra[key] = true
				warnings = append(warnings, fmt.Sprintf("dropping undeclared column %q", key))
			}
		}
		out[i] = clean
	}
	return out, warnings, nil
}

// remapKeys renames row keys back to the declared column names after a
// Parquet read: parquet-go exposes rows through generated structs whose
// exported field names differ from the column names in case only.
func remapKeys(rows []Row, schema Schema, extra ...string) []Row {
	declared := append(schema.names(), extra...)
	for i, row := range rows {
		clean := make(Row, len(declared))
		for key, value := range row {
			matched := key
			for _, name := range declared {
				if strings.EqualFold(key, name) {
					matched = name
					break
				}
			}
			clean[matched] = value
		}
		rows[i] = clean
	}
	return rows
}

func findColumn(schema Schema, name string) (ColumnSpec, bool) {
	for _, c := range schema {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

func checkColumnType(col ColumnSpec, value interface{}) error {
	switch col.Type {
	case DataTypeID, DataTypeInt:
		switch value.(type) {
		case int, int64:
		default:
			return fmt.Errorf("expected %s, got %T", col.Type, value)
		}
	case DataTypeUint:
		switch v := value.(type) {
		case int:
			if v < 0 {
				return fmt.Errorf("expected non-negative integer, got %v", v)
			}
		case int64:
			if v < 0 {
				return fmt.Errorf("expected non-negative integer, got %v", v)
			}
		default:
			return fmt.Errorf("expected %s, got %T", col.Type, value)
		}
	case DataTypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected %s, got %T", col.Type, value)
		}
	case DataTypeFloat:
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return fmt.Errorf("expected %s, got %T", col.Type, value)
		}
	case DataTypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected %s, got %T", col.Type, value)
		}
	case DataTypeTime, DataTypeDuration:
		switch value.(type) {
		case int64, float64:
		default:
			return fmt.Errorf("expected %s (as seconds), got %T", col.Type, value)
		}
	case DataTypeListOfIDs, DataTypeListOfFloats, DataTypeListOfTimes:
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected %s, got %T", col.Type, value)
		}
	}
	return nil
}
