package steps

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/sample"
	"github.com/metropipe/metropipe/internal/step"
)

// RoadNetworkStep synthesizes the geo-tabular road network from a
// user-supplied edge CSV. The step folds itself out of the plan when no
// edges file is configured.
type RoadNetworkStep struct {
	step.RandomBase
}

func (s *RoadNetworkStep) Name() string { return "RoadNetworkStep" }

func (s *RoadNetworkStep) Parameters() map[string]step.ParamBinder {
	return map[string]step.ParamBinder{
		"edges_file": step.ParameterDescriptor[string]{
			Key:             "road_network.edges_file",
			Valid:           config.PathValidator{CheckFileExists: true, AllowedExt: []string{".csv"}},
			DescriptionText: "CSV of raw edges with a header row: source, target, one coordinate pair per endpoint, speed, and lanes.",
			ExampleText:     `edges_file = "data/edges.csv"`,
		},
		"capacities": step.ParameterDescriptor[config.Distribution]{
			Key: "road_network.capacities",
			Valid: config.DistributionValidator{
				Inner:     config.FloatValidator{},
				InnerMean: config.FloatValidator{},
				InnerStd:  config.FloatValidator{},
			},
			DescriptionText: "Hourly edge capacity, constant or sampled per edge.",
			ExampleText:     `capacities = {mean = 1800.0, std = 200.0, distribution = "Normal"}`,
		},
		"random_seed": step.SeedParameter(),
	}
}

func (s *RoadNetworkStep) InputFiles() map[string]step.InputSpec { return nil }

func (s *RoadNetworkStep) OutputFiles() map[string]artifact.Class {
	return map[string]artifact.Class{"road_network": RoadNetworkClass}
}

func (s *RoadNetworkStep) IsDefined(inst *step.Instance) bool {
	return inst.HasParam("edges_file")
}

func (s *RoadNetworkStep) Run(inst *step.Instance) error {
	path, err := inst.Param("edges_file")
	if err != nil {
		return err
	}

	records, err := readEdgeCSV(path.(string))
	if err != nil {
		return err
	}

	rows := make([]artifact.GeoRow, 0, len(records))
	for i, rec := range records {
		rows = append(rows, artifact.GeoRow{
			Row: artifact.Row{
				"edge_id":     int64(i),
				"source":      rec.source,
				"target":      rec.target,
				"length":      rec.geometryLength(),
				"speed_limit": rec.speed,
				"lanes":       rec.lanes,
			},
			Geometry: orb.LineString{{rec.sx, rec.sy}, {rec.tx, rec.ty}},
		})
	}

	if inst.HasParam("capacities") {
		value, err := inst.Param("capacities")
		if err != nil {
			return err
		}
		capacities, err := sample.Floats(value.(config.Distribution), len(rows), s.Rng(inst))
		if err != nil {
			return err
		}
		for i := range rows {
			rows[i].Row["capacity"] = capacities[i]
		}
	}

	out, err := inst.Output("road_network")
	if err != nil {
		return err
	}
	_, err = out.(*artifact.GeoTabular).Write(rows)
	return err
}

type edgeRecord struct {
	source, target int64
	sx, sy, tx, ty float64
	speed          float64
	lanes          int64
}

// geometryLength is the straight-line edge length; the raw CSV carries
// planar coordinates in meters.
func (r edgeRecord) geometryLength() float64 {
	return math.Hypot(r.tx-r.sx, r.ty-r.sy)
}

// readEdgeCSV parses "source,target,sx,sy,tx,ty,speed,lanes" rows, header
// included.
func readEdgeCSV(path string) ([]edgeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("edges file %s is empty", path)
	}

	out := make([]edgeRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 8 {
			return nil, fmt.Errorf("edges file %s: row %d has %d fields, expected 8", path, i+2, len(rec))
		}
		parsed := edgeRecord{}
		fields := []struct {
			raw string
			dst interface{}
		}{
			{rec[0], &parsed.source}, {rec[1], &parsed.target},
			{rec[2], &parsed.sx}, {rec[3], &parsed.sy},
			{rec[4], &parsed.tx}, {rec[5], &parsed.ty},
			{rec[6], &parsed.speed}, {rec[7], &parsed.lanes},
		}
		for _, field := range fields {
			var err error
			switch dst := field.dst.(type) {
			case *int64:
				*dst, err = strconv.ParseInt(field.raw, 10, 64)
			case *float64:
				*dst, err = strconv.ParseFloat(field.raw, 64)
			}
			if err != nil {
				return nil, fmt.Errorf("edges file %s: row %d: %w", path, i+2, err)
			}
		}
		out = append(out, parsed)
	}
	return out, nil
}
