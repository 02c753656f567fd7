// Package steps is the domain Step library: road-network synthesis, OD
// matrix generation, population generation, the external simulation
// runner, and result plotting. These are applications of the pipeline
// core behind the Step contract; the engine itself knows nothing about
// transport.
package steps

import (
	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/step"
)

// RoadNetworkClass is the synthesized road network with one edge per row.
var RoadNetworkClass = artifact.Class{
	Name:    "road_network",
	RelPath: "road_network/edges.parquet",
	Kind:    artifact.KindGeoTabular,
	Schema: artifact.Schema{
		{Name: "edge_id", Type: artifact.DataTypeID, Unique: true, Description: "Edge identifier."},
		{Name: "source", Type: artifact.DataTypeID, Description: "Source node identifier."},
		{Name: "target", Type: artifact.DataTypeID, Description: "Target node identifier."},
		{Name: "length", Type: artifact.DataTypeFloat, Description: "Edge length in meters."},
		{Name: "speed_limit", Type: artifact.DataTypeFloat, Description: "Speed limit in km/h."},
		{Name: "lanes", Type: artifact.DataTypeInt, Description: "Number of lanes."},
		{Name: "capacity", Type: artifact.DataTypeFloat, Optional: true, Nullable: true, Description: "Hourly vehicle capacity."},
	},
}

// ODMatrixClass holds one origin-destination pair per row.
var ODMatrixClass = artifact.Class{
	Name:    "od_matrix",
	RelPath: "demand/od_matrix.parquet",
	Kind:    artifact.KindTabular,
	Schema: artifact.Schema{
		{Name: "origin", Type: artifact.DataTypeID, Description: "Origin node identifier."},
		{Name: "destination", Type: artifact.DataTypeID, Description: "Destination node identifier."},
		{Name: "count", Type: artifact.DataTypeUint, Description: "Number of trips for the pair."},
	},
}

// PopulationClass is the synthetic travel demand, one agent per row.
var PopulationClass = artifact.Class{
	Name:    "population",
	RelPath: "demand/population.parquet",
	Kind:    artifact.KindTabular,
	Schema: artifact.Schema{
		{Name: "agent_id", Type: artifact.DataTypeID, Unique: true, Description: "Agent identifier."},
		{Name: "origin", Type: artifact.DataTypeID, Description: "Origin node identifier."},
		{Name: "destination", Type: artifact.DataTypeID, Description: "Destination node identifier."},
		{Name: "departure_time", Type: artifact.DataTypeTime, Description: "Departure time, seconds after midnight."},
		{Name: "mode", Type: artifact.DataTypeString, Description: "Travel mode."},
	},
}

// SimulationInputClass is the JSON parameters file handed to the external
// simulator as its single argument.
var SimulationInputClass = artifact.Class{
	Name:    "simulation_input",
	RelPath: "simulation/parameters.json",
	Kind:    artifact.KindText,
}

// SimulationResultClass is produced by the external simulator; the runner
// only checks its presence after the process returns.
var SimulationResultClass = artifact.Class{
	Name:    "simulation_results",
	RelPath: "simulation/results.parquet",
	Kind:    artifact.KindTabular,
	Schema: artifact.Schema{
		{Name: "agent_id", Type: artifact.DataTypeID, Unique: true, Description: "Agent identifier."},
		{Name: "travel_time", Type: artifact.DataTypeDuration, Description: "Door-to-door travel time in seconds."},
		{Name: "distance", Type: artifact.DataTypeFloat, Description: "Traveled distance in meters."},
	},
}

// TravelTimePlotClass is the rendered travel-time histogram.
var TravelTimePlotClass = artifact.Class{
	Name:    "travel_time_plot",
	RelPath: "plots/travel_times.png",
	Kind:    artifact.KindPlot,
}

// RegisterAll registers the domain Steps in pipeline order.
func RegisterAll() error {
	for _, class := range []step.Class{
		&RoadNetworkStep{},
		&ODMatrixStep{},
		&PopulationStep{},
		&SimulationStep{},
		&TravelTimePlotStep{},
	} {
		if err := step.Register(class); err != nil {
			return err
		}
	}
	return nil
}
