package beamform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisarray/fkbeam/algorithms/slowness"
)

func TestDefaultParamsAreValid(t *testing.T) {
	params := DefaultParams()
	assert.NoError(t, params.Validate())
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"inverted band", func(p *Params) { p.MinFreq, p.MaxFreq = 1.0, 0.1 }},
		{"zero window", func(p *Params) { p.WindowLength = 0 }},
		{"step fraction above one", func(p *Params) { p.WindowStepFraction = 1.5 }},
		{"unknown method", func(p *Params) { p.Method = "music" }},
		{"min channels below two", func(p *Params) { p.MinChannelCount = 1 }},
		{"zero slowness step", func(p *Params) { p.SlownessStep = 0 }},
		{"bad arf ratio", func(p *Params) { p.SaveARF = true; p.ARFEnlargeRatio = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			assert.Error(t, params.Validate())
		})
	}
}

func TestParamsSlownessGrid(t *testing.T) {
	params := DefaultParams()
	params.SlownessLimit = 0.4
	params.SlownessStep = 0.1

	grid := params.SlownessGrid()
	assert.InDelta(t, -0.4, grid.MinX, 1e-12)
	assert.InDelta(t, 0.4, grid.MaxX, 1e-12)
	assert.Equal(t, 0.1, grid.Step)

	// an explicit grid wins over the symmetric shorthand
	params.Grid = &slowness.Grid{MinX: 0, MaxX: 0.2, MinY: -0.1, MaxY: 0.1, Step: 0.05}
	grid = params.SlownessGrid()
	assert.Equal(t, 0.0, grid.MinX)
	assert.Equal(t, 0.05, grid.Step)

	require.NoError(t, params.Validate())
}
