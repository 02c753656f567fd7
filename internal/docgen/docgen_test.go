package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/step"
)

type docStep struct {
	step.Base
}

func (docStep) Name() string { return "DocStep" }

func (docStep) Parameters() map[string]step.ParamBinder {
	return map[string]step.ParamBinder{
		"lanes": step.ParameterDescriptor[int]{
			Key:             "road_network.lanes",
			Valid:           config.IntValidator{},
			DescriptionText: "Number of lanes per edge.",
			NoteText:        "Applied uniformly.",
			ExampleText:     "lanes = 2",
		},
	}
}

func (docStep) InputFiles() map[string]step.InputSpec {
	return map[string]step.InputSpec{
		"raw": {Class: artifact.Class{Name: "raw", RelPath: "raw.txt", Kind: artifact.KindText}},
	}
}

func (docStep) OutputFiles() map[string]artifact.Class {
	return map[string]artifact.Class{
		"table": {
			Name:    "table",
			RelPath: "out/table.parquet",
			Kind:    artifact.KindTabular,
			Schema: artifact.Schema{
				{Name: "id", Type: artifact.DataTypeID, Unique: true, Description: "Row identifier."},
			},
		},
	}
}

func (docStep) Run(*step.Instance) error { return nil }

func TestStepsRendersDeclarations(t *testing.T) {
	t.Parallel()

	doc := Steps([]step.Class{docStep{}})
	assert.Contains(t, doc, "## DocStep")
	assert.Contains(t, doc, "`road_network.lanes` (integer)")
	assert.Contains(t, doc, "Note: Applied uniformly.")
	assert.Contains(t, doc, "Example: `lanes = 2`")
	assert.Contains(t, doc, "### Inputs")
	assert.Contains(t, doc, "### Outputs")
}

func TestArtifactsRendersSchemas(t *testing.T) {
	t.Parallel()

	doc := Artifacts([]step.Class{docStep{}})
	assert.Contains(t, doc, "## table")
	assert.Contains(t, doc, "| id | ID |")
	assert.Contains(t, doc, "Kind: tabular")
	assert.Contains(t, doc, "## raw")
}
