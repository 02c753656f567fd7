package steps

import (
	"time"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/sample"
	"github.com/metropipe/metropipe/internal/step"
)

var defaultModes = []interface{}{"car"}

// PopulationStep expands the OD matrix into individual agents with
// sampled departure times and a travel mode drawn uniformly from the
// configured mode set.
type PopulationStep struct {
	step.RandomBase
}

func (s *PopulationStep) Name() string { return "PopulationStep" }

func (s *PopulationStep) Parameters() map[string]step.ParamBinder {
	return map[string]step.ParamBinder{
		"departure_time": step.ParameterDescriptor[config.Distribution]{
			Key: "population.departure_time",
			Valid: config.DistributionValidator{
				Inner:     config.TimeValidator{},
				InnerMean: config.TimeValidator{},
				InnerStd:  config.DurationValidator{},
			},
			DescriptionText: "Agent departure time, constant or sampled around a mean time of day.",
			ExampleText:     `departure_time = {mean = "08:00:00", std = 1800, distribution = "Normal"}`,
		},
		"modes": step.ParameterDescriptor[[]interface{}]{
			Key:             "population.modes",
			Valid:           config.ListValidator{Inner: config.StringValidator{}, MinLength: intPtr(1)},
			Default:         &defaultModes,
			DescriptionText: "Travel modes agents draw from, uniformly.",
			ExampleText:     `modes = ["car", "bike"]`,
		},
		"random_seed": step.SeedParameter(),
	}
}

func (s *PopulationStep) InputFiles() map[string]step.InputSpec {
	return map[string]step.InputSpec{
		"od_matrix": {Class: ODMatrixClass},
	}
}

func (s *PopulationStep) OutputFiles() map[string]artifact.Class {
	return map[string]artifact.Class{"population": PopulationClass}
}

func (s *PopulationStep) IsDefined(inst *step.Instance) bool {
	return inst.HasParam("departure_time")
}

func (s *PopulationStep) Run(inst *step.Instance) error {
	in, err := inst.Input("od_matrix")
	if err != nil {
		return err
	}
	matrix, err := in.(*artifact.Tabular).Read()
	if err != nil {
		return err
	}

	total := 0
	for _, pair := range matrix {
		total += asInt(pair["count"])
	}

	value, err := inst.Param("departure_time")
	if err != nil {
		return err
	}
	rng := s.Rng(inst)
	departures, err := sample.Times(value.(config.Distribution), total, rng)
	if err != nil {
		return err
	}

	modesValue, err := inst.Param("modes")
	if err != nil {
		return err
	}
	modes := modesValue.([]interface{})

	rows := make([]artifact.Row, 0, total)
	agent := int64(0)
	for _, pair := range matrix {
		for i := 0; i < asInt(pair["count"]); i++ {
			rows = append(rows, artifact.Row{
				"agent_id":       agent,
				"origin":         asInt64(pair["origin"]),
				"destination":    asInt64(pair["destination"]),
				"departure_time": int64(time.Duration(departures[agent]) / time.Second),
				"mode":           modes[rng.Intn(len(modes))].(string),
			})
			agent++
		}
	}

	out, err := inst.Output("population")
	if err != nil {
		return err
	}
	_, err = out.(*artifact.Tabular).Write(rows)
	return err
}

func intPtr(v int) *int { return &v }

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asInt64(v interface{}) int64 {
	return int64(asInt(v))
}
