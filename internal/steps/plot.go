package steps

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/step"
)

var defaultBins = 20

// TravelTimePlotStep renders a travel-time histogram of the simulation
// results as a PNG plot artifact.
type TravelTimePlotStep struct {
	step.Base
}

func (s *TravelTimePlotStep) Name() string { return "TravelTimePlotStep" }

func (s *TravelTimePlotStep) Parameters() map[string]step.ParamBinder {
	return map[string]step.ParamBinder{
		"bins": step.ParameterDescriptor[int]{
			Key:             "plots.travel_time_bins",
			Valid:           config.IntValidator{},
			Default:         &defaultBins,
			DescriptionText: "Number of histogram bins.",
			ExampleText:     "travel_time_bins = 30",
		},
		"enabled": step.ParameterDescriptor[bool]{
			Key:             "plots.enabled",
			Valid:           config.BoolValidator{},
			DescriptionText: "Whether result plots are rendered.",
			ExampleText:     "enabled = true",
		},
	}
}

func (s *TravelTimePlotStep) InputFiles() map[string]step.InputSpec {
	return map[string]step.InputSpec{
		"simulation_results": {Class: SimulationResultClass},
	}
}

func (s *TravelTimePlotStep) OutputFiles() map[string]artifact.Class {
	return map[string]artifact.Class{"travel_time_plot": TravelTimePlotClass}
}

func (s *TravelTimePlotStep) IsDefined(inst *step.Instance) bool {
	value, err := inst.Param("enabled")
	return err == nil && value.(bool)
}

func (s *TravelTimePlotStep) Run(inst *step.Instance) error {
	in, err := inst.Input("simulation_results")
	if err != nil {
		return err
	}
	results, err := in.(*artifact.Tabular).Read()
	if err != nil {
		return err
	}

	binsValue, err := inst.Param("bins")
	if err != nil {
		return err
	}
	bins := binsValue.(int)

	times := make([]float64, 0, len(results))
	for _, row := range results {
		switch v := row["travel_time"].(type) {
		case float64:
			times = append(times, v)
		case int64:
			times = append(times, float64(v))
		}
	}

	img := renderHistogram(times, bins)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}

	out, err := inst.Output("travel_time_plot")
	if err != nil {
		return err
	}
	return out.(*artifact.Plot).Write(buf.Bytes())
}

const (
	plotWidth  = 640
	plotHeight = 400
	plotMargin = 20
)

// renderHistogram draws a plain bar chart: white canvas, one dark bar per
// bin, height proportional to the bin count.
func renderHistogram(values []float64, bins int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, plotWidth, plotHeight))
	for x := 0; x < plotWidth; x++ {
		for y := 0; y < plotHeight; y++ {
			img.Set(x, y, color.White)
		}
	}
	if len(values) == 0 || bins <= 0 {
		return img
	}

	low, high := values[0], values[0]
	for _, v := range values {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	span := high - low
	if span == 0 {
		span = 1
	}

	counts := make([]int, bins)
	for _, v := range values {
		bin := int(float64(bins) * (v - low) / span)
		if bin >= bins {
			bin = bins - 1
		}
		counts[bin]++
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}

	barWidth := (plotWidth - 2*plotMargin) / bins
	bar := color.RGBA{R: 40, G: 80, B: 160, A: 255}
	for i, c := range counts {
		height := (plotHeight - 2*plotMargin) * c / max
		x0 := plotMargin + i*barWidth
		for x := x0; x < x0+barWidth-1; x++ {
			for y := plotHeight - plotMargin - height; y < plotHeight-plotMargin; y++ {
				img.Set(x, y, bar)
			}
		}
	}
	return img
}
