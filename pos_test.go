package gpsins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosLLHToXYZRoundTrip(t *testing.T) {
	assert := assert.New(t)
	want := PosLLH{Lat: ToRad(35.6), Lon: ToRad(139.7), Hei: 120}

	xyz := want.ToXYZ()
	got := xyz.ToLLH()

	assert.InDelta(want.Lat, got.Lat, 1e-12)
	assert.InDelta(want.Lon, got.Lon, 1e-12)
	assert.InDelta(want.Hei, got.Hei, 1e-6)
}

func TestPosXYZToNEDRoundTrip(t *testing.T) {
	assert := assert.New(t)
	baseLLH := PosLLH{Lat: ToRad(35.6), Lon: ToRad(139.7), Hei: 0}
	base := baseLLH.ToXYZ()
	targetLLH := PosLLH{Lat: ToRad(35.61), Lon: ToRad(139.71), Hei: 50}
	target := targetLLH.ToXYZ()

	ned := target.ToNED(base)
	got := ned.ToXYZ(base)

	assert.InDelta(target.X, got.X, 1e-6)
	assert.InDelta(target.Y, got.Y, 1e-6)
	assert.InDelta(target.Z, got.Z, 1e-6)
}

func TestPosNEDElevationDirectlyOverheadIsZenith(t *testing.T) {
	assert := assert.New(t)
	ned := PosNED{N: 0, E: 0, D: -1000}
	assert.InDelta(math.Pi/2, ned.Elevation(), 1e-12)
}

func TestPosNEDAzimuthNorthIsZero(t *testing.T) {
	assert := assert.New(t)
	ned := PosNED{N: 1000, E: 0, D: 0}
	assert.InDelta(0, ned.Azimuth(), 1e-12)
}

func TestPosXYZElevationMatchesNEDConvention(t *testing.T) {
	assert := assert.New(t)
	usrLLH := PosLLH{Lat: ToRad(35.6), Lon: ToRad(139.7), Hei: 0}
	usr := usrLLH.ToXYZ()
	satLLH := PosLLH{Lat: ToRad(35.6), Lon: ToRad(139.7), Hei: 20200e3}
	sat := satLLH.ToXYZ()

	el := usr.Elevation(sat)
	assert.InDelta(math.Pi/2, el, 1e-6)
}
