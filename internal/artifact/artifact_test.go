package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidateRejectsTemporalOnGeoTabular(t *testing.T) {
	schema := Schema{{Name: "started_at", Type: DataTypeTime}}
	err := schema.Validate(KindGeoTabular)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time of day")
}

func TestSchemaValidateRejectsDuplicateColumns(t *testing.T) {
	schema := Schema{{Name: "id", Type: DataTypeID}, {Name: "id", Type: DataTypeInt}}
	err := schema.Validate(KindTabular)
	require.Error(t, err)
}

func TestValidateRowsDropsExtraColumnsWithWarning(t *testing.T) {
	schema := Schema{{Name: "id", Type: DataTypeID}}
	rows := []Row{{"id": 1, "extra": "nope"}}
	clean, warnings, err := validateRows("demo", schema, nil, rows)
	require.NoError(t, err)
	require.Len(t, clean, 1)
	assert.NotContains(t, clean[0], "extra")
	assert.Len(t, warnings, 1)
}

func TestValidateRowsEnforcesUniqueness(t *testing.T) {
	schema := Schema{{Name: "id", Type: DataTypeID, Unique: true}}
	rows := []Row{{"id": 1}, {"id": 1}}
	_, _, err := validateRows("demo", schema, nil, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uniqueness")
}

func TestValidateRowsEnforcesMaxRows(t *testing.T) {
	schema := Schema{{Name: "id", Type: DataTypeID}}
	maxRows := 1
	rows := []Row{{"id": 1}, {"id": 2}}
	_, _, err := validateRows("demo", schema, &maxRows, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_rows")
}

func TestValidateRowsRejectsMissingRequiredColumn(t *testing.T) {
	schema := Schema{{Name: "id", Type: DataTypeID}}
	rows := []Row{{}}
	_, _, err := validateRows("demo", schema, nil, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestValidateRowsRejectsNullInNonNullableColumn(t *testing.T) {
	schema := Schema{{Name: "id", Type: DataTypeID, Nullable: false}}
	rows := []Row{{"id": nil}}
	_, _, err := validateRows("demo", schema, nil, rows)
	require.Error(t, err)
}

func TestTextArtifactWriteReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	class := Class{Name: "notes", RelPath: "notes.txt", Kind: KindText}
	art := Bind(class, root).(*Text)

	require.False(t, art.Exists())
	require.NoError(t, art.Write([]byte("hello")))
	require.True(t, art.Exists())

	data, err := art.Read()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestTextArtifactReadIfExists(t *testing.T) {
	root := t.TempDir()
	class := Class{Name: "notes", RelPath: "notes.txt", Kind: KindText}
	art := Bind(class, root).(*Text)

	data, err := art.ReadIfExists()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestBindSelectsConcreteKind(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		kind Kind
		typ  interface{}
	}{
		{KindTabular, &Tabular{}},
		{KindGeoTabular, &GeoTabular{}},
		{KindText, &Text{}},
		{KindPlot, &Plot{}},
		{KindOpaque, &Opaque{}},
	}
	for _, c := range cases {
		art := Bind(Class{Name: "x", RelPath: "x.bin", Kind: c.kind}, root)
		assert.IsType(t, c.typ, art)
	}
}
