package main

import (
	"github.com/spf13/cobra"

	"github.com/seisarray/fkbeam/algorithms/geometry"
	"github.com/seisarray/fkbeam/algorithms/slowness"
	"github.com/seisarray/fkbeam/beamform"
)

var (
	arfMinFreq   float64
	arfMaxFreq   float64
	arfFreqStep  float64
	arfSlowLimit float64
	arfSlowStep  float64
)

// arfCmd evaluates the theoretical array transfer function
var arfCmd = &cobra.Command{
	Use:   "arf",
	Short: "Evaluate the array response function of a synthetic array",
	Long: `Evaluate the theoretical array transfer function of a synthetic array
layout over a slowness grid, integrated over a frequency range. The map
is normalized to a maximum of 1; strong sidelobes indicate spatial
aliasing at the chosen grid and band.`,
	RunE: runARF,
}

func init() {
	rootCmd.AddCommand(arfCmd)

	arfCmd.Flags().StringVar(&simArrayShape, "array", "rect", "array shape (rect, circle)")
	arfCmd.Flags().Float64Var(&simArraySpacing, "spacing", 1.0, "station spacing in km")
	arfCmd.Flags().Float64Var(&simArrayExtent, "extent", 2.0, "array extent (side length or radius) in km")

	arfCmd.Flags().Float64Var(&arfMinFreq, "min-freq", 0.1, "integration band lower bound in Hz")
	arfCmd.Flags().Float64Var(&arfMaxFreq, "max-freq", 1.0, "integration band upper bound in Hz")
	arfCmd.Flags().Float64Var(&arfFreqStep, "freq-step", 0.05, "integration frequency step in Hz")
	arfCmd.Flags().Float64Var(&arfSlowLimit, "slowness-limit", 0.5, "symmetric slowness grid limit in s/km")
	arfCmd.Flags().Float64Var(&arfSlowStep, "slowness-step", 0.02, "slowness grid step in s/km")
}

func runARF(cmd *cobra.Command, args []string) error {
	stations, err := synthStations()
	if err != nil {
		return err
	}

	geom, err := geometry.Reduce(stations, geometry.CoordXY)
	if err != nil {
		return err
	}

	grid := slowness.SymmetricGrid(arfSlowLimit, arfSlowStep)
	transff, err := beamform.ArrayResponse(geom, grid, arfMinFreq, arfMaxFreq, arfFreqStep)
	if err != nil {
		return err
	}

	report := struct {
		Stations int                `json:"stations" yaml:"stations"`
		Aperture float64            `json:"aperture_km" yaml:"aperture_km"`
		XAxis    []float64          `json:"x_axis" yaml:"x_axis"`
		YAxis    []float64          `json:"y_axis" yaml:"y_axis"`
		Response *beamform.PowerMap `json:"response" yaml:"response"`
	}{
		Stations: geom.NumStations(),
		Aperture: geom.Aperture(),
		XAxis:    grid.XAxis(),
		YAxis:    grid.YAxis(),
		Response: transff,
	}

	return emit(report)
}
