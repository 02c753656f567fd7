package artifact

import (
	"encoding/json"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// parquetParallelism is the number of goroutines parquet-go uses to encode
// row groups; a single small value is plenty for the data sizes this
// pipeline produces and keeps write order deterministic.
const parquetParallelism = 4

// Tabular is a column-schema-enforced artifact persisted as Parquet via
// xitongsys/parquet-go's JSON-schema writer, chosen because the column set
// is only known at Step-class registration time, not at Go compile time.
type Tabular struct {
	base
}

// Write validates rows against the declared schema and persists them as
// Parquet, creating parent directories lazily. Returns non-terminating
// warnings for any dropped, undeclared columns.
func (t *Tabular) Write(rows []Row) ([]string, error) {
	clean, warnings, err := validateRows(t.class.Name, t.class.Schema, t.class.MaxRows, rows)
	if err != nil {
		return nil, err
	}
	if err := t.ensureParentDir(); err != nil {
		return nil, err
	}

	fw, err := local.NewLocalFileWriter(t.path)
	if err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}
	defer fw.Close()

	pw, err := writer.NewJSONWriter(t.class.Schema.jsonSchema(false), fw, parquetParallelism)
	if err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}

	for _, row := range clean {
		encoded, err := json.Marshal(row)
		if err != nil {
			return nil, metroerrors.NewSchemaError(t.class.Name, "row is not JSON-encodable", err)
		}
		if err := pw.Write(string(encoded)); err != nil {
			return nil, metroerrors.NewIOError(t.path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}
	return warnings, nil
}

// Read loads every row of the Parquet file, keyed by the declared column
// names.
func (t *Tabular) Read() ([]Row, error) {
	fr, err := local.NewLocalFileReader(t.path)
	if err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, parquetParallelism)
	if err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	raw, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}
	var rows []Row
	if err := json.Unmarshal(encoded, &rows); err != nil {
		return nil, metroerrors.NewIOError(t.path, err)
	}
	return remapKeys(rows, t.class.Schema), nil
}

// ReadIfExists returns (nil, nil) instead of an error when the artifact
// does not yet exist, so Steps can merge into a partially-existing output.
func (t *Tabular) ReadIfExists() ([]Row, error) {
	if !t.Exists() {
		return nil, nil
	}
	return t.Read()
}
