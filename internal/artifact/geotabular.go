package artifact

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// geometryColumn is the always-present, always-preserved geometry column
// every geo-tabular artifact carries alongside its declared schema.
const geometryColumn = "geometry"

// GeoRow is a Row plus its geometry value (orb.Geometry), kept out of the
// generic Row map since geometry is encoded separately as WKB bytes rather
// than through the schema-driven column validation.
type GeoRow struct {
	Row
	Geometry orb.Geometry
}

// GeoTabular is a Tabular artifact that additionally carries a geometry
// column WKB-encoded with paulmach/orb. TIME/DURATION columns are rejected
// at schema-declaration time for this kind (see Schema.Validate).
type GeoTabular struct {
	base
}

// Write validates rows against the declared schema (geometry excluded from
// that validation) and persists them, WKB-encoding each row's geometry
// into the always-present "geometry" column.
func (g *GeoTabular) Write(rows []GeoRow) ([]string, error) {
	plain := make([]Row, len(rows))
	for i, r := range rows {
		plain[i] = r.Row
	}
	clean, warnings, err := validateRows(g.class.Name, g.class.Schema, g.class.MaxRows, plain)
	if err != nil {
		return nil, err
	}
	if err := g.ensureParentDir(); err != nil {
		return nil, err
	}

	fw, err := local.NewLocalFileWriter(g.path)
	if err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}
	defer fw.Close()

	pw, err := writer.NewJSONWriter(g.class.Schema.jsonSchema(true), fw, parquetParallelism)
	if err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}

	for i, row := range clean {
		wkbBytes, err := wkb.Marshal(rows[i].Geometry, binary.LittleEndian)
		if err != nil {
			return nil, metroerrors.NewSchemaError(g.class.Name, "geometry could not be WKB-encoded", err)
		}
		// Hex keeps the WKB bytes intact through the JSON row encoding.
		row[geometryColumn] = hex.EncodeToString(wkbBytes)
		encoded, err := json.Marshal(row)
		if err != nil {
			return nil, metroerrors.NewSchemaError(g.class.Name, "row is not JSON-encodable", err)
		}
		if err := pw.Write(string(encoded)); err != nil {
			return nil, metroerrors.NewIOError(g.path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}
	return warnings, nil
}

// Read loads every row, decoding the geometry column back into an
// orb.Geometry alongside the declared attribute columns.
func (g *GeoTabular) Read() ([]GeoRow, error) {
	fr, err := local.NewLocalFileReader(g.path)
	if err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, parquetParallelism)
	if err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	raw, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}
	var rows []Row
	if err := json.Unmarshal(encoded, &rows); err != nil {
		return nil, metroerrors.NewIOError(g.path, err)
	}
	rows = remapKeys(rows, g.class.Schema, geometryColumn)

	out := make([]GeoRow, len(rows))
	for i, row := range rows {
		var geom orb.Geometry
		if raw, ok := row[geometryColumn].(string); ok && raw != "" {
			wkbBytes, err := hex.DecodeString(raw)
			if err != nil {
				return nil, metroerrors.NewSchemaError(g.class.Name, "geometry column is not hex-encoded WKB", err)
			}
			geom, err = wkb.Unmarshal(wkbBytes)
			if err != nil {
				return nil, metroerrors.NewSchemaError(g.class.Name, "geometry could not be WKB-decoded", err)
			}
		}
		delete(row, geometryColumn)
		out[i] = GeoRow{Row: row, Geometry: geom}
	}
	return out, nil
}

// ReadIfExists mirrors Tabular.ReadIfExists for geo-tabular artifacts.
func (g *GeoTabular) ReadIfExists() ([]GeoRow, error) {
	if !g.Exists() {
		return nil, nil
	}
	return g.Read()
}
