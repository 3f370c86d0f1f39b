package gpsins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialFixConvergesToKnownPosition(t *testing.T) {
	assert := assert.New(t)

	truePos := PosXYZ{X: -3.9e6, Y: 3.3e6, Z: 3.7e6}
	trueBias := 1234.5

	sats := []OrbitState{
		{Pos: PosXYZ{X: 1.5e7, Y: 1.0e7, Z: 2.0e7}},
		{Pos: PosXYZ{X: -1.0e7, Y: 2.0e7, Z: 1.5e7}},
		{Pos: PosXYZ{X: 2.0e7, Y: -1.0e7, Z: 1.0e7}},
		{Pos: PosXYZ{X: -1.5e7, Y: -1.5e7, Z: 1.8e7}},
		{Pos: PosXYZ{X: 5.0e6, Y: 2.2e7, Z: -1.0e7}},
	}
	pr := make([]float64, len(sats))
	for i, s := range sats {
		pr[i] = EucDist(&truePos, &s.Pos) + trueBias
	}

	pos, bias, err := InitialFix(sats, pr, nil)
	assert.NoError(err)
	assert.InDelta(truePos.X, pos.X, 1.0)
	assert.InDelta(truePos.Y, pos.Y, 1.0)
	assert.InDelta(truePos.Z, pos.Z, 1.0)
	assert.InDelta(trueBias, bias, 1.0)
}

func TestInitialFixRejectsTooFewMeasurements(t *testing.T) {
	assert := assert.New(t)
	_, _, err := InitialFix(make([]OrbitState, 3), make([]float64, 3), nil)
	assert.Error(err)
}

func TestEpochDedupSatellitesKeepsFirstOccurrence(t *testing.T) {
	assert := assert.New(t)
	epoch := Epoch{Measurements: []Measurement{
		{PRN: 3, PseudoRange: 1},
		{PRN: 5, PseudoRange: 2},
		{PRN: 3, PseudoRange: 3},
	}}
	deduped := epoch.DedupSatellites()
	assert.Len(deduped.Measurements, 2)
	assert.Equal(1.0, deduped.Measurements[0].PseudoRange)
	assert.Equal(2.0, deduped.Measurements[1].PseudoRange)
}
