package steps

import (
	"sort"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/sample"
	"github.com/metropipe/metropipe/internal/step"
)

// ODMatrixStep samples an origin-destination trip matrix over the road
// network's node set.
type ODMatrixStep struct {
	step.RandomBase
}

func (s *ODMatrixStep) Name() string { return "ODMatrixStep" }

func (s *ODMatrixStep) Parameters() map[string]step.ParamBinder {
	return map[string]step.ParamBinder{
		"trip_count": step.ParameterDescriptor[config.Distribution]{
			Key: "od_matrix.trip_count",
			Valid: config.DistributionValidator{
				Inner:     config.IntValidator{},
				InnerMean: config.FloatValidator{},
				InnerStd:  config.FloatValidator{},
			},
			DescriptionText: "Trips per origin-destination pair, constant or sampled.",
			ExampleText:     `trip_count = {mean = 40.0, std = 10.0, distribution = "Lognormal"}`,
		},
		"random_seed": step.SeedParameter(),
	}
}

func (s *ODMatrixStep) InputFiles() map[string]step.InputSpec {
	return map[string]step.InputSpec{
		"road_network": {Class: RoadNetworkClass},
	}
}

func (s *ODMatrixStep) OutputFiles() map[string]artifact.Class {
	return map[string]artifact.Class{"od_matrix": ODMatrixClass}
}

func (s *ODMatrixStep) IsDefined(inst *step.Instance) bool {
	return inst.HasParam("trip_count")
}

func (s *ODMatrixStep) Run(inst *step.Instance) error {
	in, err := inst.Input("road_network")
	if err != nil {
		return err
	}
	edges, err := in.(*artifact.GeoTabular).Read()
	if err != nil {
		return err
	}

	nodes := nodeIDs(edges)
	pairs := make([][2]int64, 0, len(nodes)*(len(nodes)-1))
	for _, origin := range nodes {
		for _, destination := range nodes {
			if origin != destination {
				pairs = append(pairs, [2]int64{origin, destination})
			}
		}
	}

	value, err := inst.Param("trip_count")
	if err != nil {
		return err
	}
	counts, err := sample.Ints(value.(config.Distribution), len(pairs), s.Rng(inst))
	if err != nil {
		return err
	}

	rows := make([]artifact.Row, 0, len(pairs))
	for i, pair := range pairs {
		count := counts[i]
		if count < 0 {
			count = 0
		}
		rows = append(rows, artifact.Row{
			"origin":      pair[0],
			"destination": pair[1],
			"count":       int64(count),
		})
	}

	out, err := inst.Output("od_matrix")
	if err != nil {
		return err
	}
	_, err = out.(*artifact.Tabular).Write(rows)
	return err
}

// nodeIDs collects the distinct node identifiers of the network, sorted so
// the pair enumeration is deterministic.
func nodeIDs(edges []artifact.GeoRow) []int64 {
	seen := make(map[int64]bool)
	for _, edge := range edges {
		for _, key := range []string{"source", "target"} {
			switch v := edge.Row[key].(type) {
			case int64:
				seen[v] = true
			case float64:
				seen[int64(v)] = true
			}
		}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
