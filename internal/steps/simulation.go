package steps

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/step"
)

// SimulationStep shells out to the external simulator: it writes the JSON
// parameters file, invokes the executable with that file's path as its
// single argument, and checks every declared output exists when the
// process returns. A non-zero exit code is fatal.
type SimulationStep struct {
	step.Base
}

func (s *SimulationStep) Name() string { return "SimulationStep" }

func (s *SimulationStep) Parameters() map[string]step.ParamBinder {
	return map[string]step.ParamBinder{
		"simulator": step.ParameterDescriptor[string]{
			Key:             "simulation.simulator",
			Valid:           config.PathValidator{CheckFileExists: true},
			DescriptionText: "Path to the simulation executable.",
			ExampleText:     `simulator = "/opt/metrosim/bin/metrosim"`,
		},
		"period": step.ParameterDescriptor[time.Duration]{
			Key:             "simulation.period",
			Valid:           config.DurationValidator{},
			DescriptionText: "Simulated time horizon.",
			NoteText:        "Accepts seconds or an ISO 8601 duration string.",
			ExampleText:     `period = "PT24H"`,
		},
	}
}

func (s *SimulationStep) InputFiles() map[string]step.InputSpec {
	return map[string]step.InputSpec{
		"road_network": {Class: RoadNetworkClass},
		"population":   {Class: PopulationClass},
	}
}

func (s *SimulationStep) OutputFiles() map[string]artifact.Class {
	return map[string]artifact.Class{
		"simulation_input":   SimulationInputClass,
		"simulation_results": SimulationResultClass,
	}
}

func (s *SimulationStep) IsDefined(inst *step.Instance) bool {
	return inst.HasParam("simulator")
}

func (s *SimulationStep) Run(inst *step.Instance) error {
	simulator, err := inst.Param("simulator")
	if err != nil {
		return err
	}

	network, err := inst.Input("road_network")
	if err != nil {
		return err
	}
	population, err := inst.Input("population")
	if err != nil {
		return err
	}
	input, err := inst.Output("simulation_input")
	if err != nil {
		return err
	}
	results, err := inst.Output("simulation_results")
	if err != nil {
		return err
	}

	params := map[string]interface{}{
		"road_network": network.Path(),
		"population":   population.Path(),
		"results":      results.Path(),
	}
	if inst.HasParam("period") {
		period, err := inst.Param("period")
		if err != nil {
			return err
		}
		params["period"] = period.(time.Duration).Seconds()
	}

	encoded, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	if err := input.(*artifact.Text).Write(encoded); err != nil {
		return err
	}

	cmd := exec.Command(simulator.(string), input.Path())
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("simulator failed: %w: %s", err, output)
	}

	for name, out := range inst.Outputs() {
		if !out.Exists() {
			return fmt.Errorf("simulator did not produce output %q (%s)", name, out.Path())
		}
	}
	return nil
}
