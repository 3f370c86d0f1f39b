package gpsins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleEphemerisForOrbit() Ephemeris {
	toe := NewGPSTime(2300, 3600 * 4)
	return Ephemeris{
		WN: 2300, IODC: 1, IODE: 1, Toc: toe, Toe: toe,
		SqrtA: 5153.6, Ecc: 0.01, M0: 0.2, Omega0: -1.5,
		I0: 0.96, Omega: 0.4, DeltaN: 4e-9, OmegaDot: -8e-9,
		IDot: 1e-10, Af0: 1e-5, Af1: 1e-11, Af2: 0,
		FitIntervalSec: 4 * 3600,
	}
}

func TestEccentricAnomalyConverges(t *testing.T) {
	assert := assert.New(t)
	ek := eccentricAnomaly(0.5, 0.01)
	residual := ek - 0.01*math.Sin(ek) - 0.5
	assert.InDelta(0, residual, 1e-9)
}

func TestPropagateProducesFiniteOrbit(t *testing.T) {
	assert := assert.New(t)
	e := sampleEphemerisForOrbit()
	state := Propagate(&e, e.Toe.Add(1800), 0.075*C)

	rng := math.Sqrt(state.Pos.X*state.Pos.X + state.Pos.Y*state.Pos.Y + state.Pos.Z*state.Pos.Z)
	// With Crs/Crc zero the orbital radius is a*(1 - e*cos(Ek)): about
	// 26,322 km here, within the +-265 km that e = 0.01 allows around the
	// 26,560 km semi-major axis.
	a := e.SqrtA * e.SqrtA
	n := math.Sqrt(Mue/(a*a*a)) + e.DeltaN
	ek := eccentricAnomaly(e.M0+n*(1800-0.075), e.Ecc)
	assert.InDelta(a*(1-e.Ecc*math.Cos(ek)), rng, 1.0)
	assert.False(math.IsNaN(state.ClockBias))
	assert.False(math.IsNaN(state.Vel[0]))
}

func TestPropagateClockBiasIncludesGroupDelay(t *testing.T) {
	assert := assert.New(t)
	e := sampleEphemerisForOrbit()
	withoutTgd := Propagate(&e, e.Toe.Add(1800), 0)

	e.Tgd = 5e-9
	withTgd := Propagate(&e, e.Toe.Add(1800), 0)

	assert.InDelta(-GammaL1L2*e.Tgd, withTgd.ClockBias-withoutTgd.ClockBias, 1e-15)
}

func TestPropagateVelocityIsConsistentWithPositionDerivative(t *testing.T) {
	assert := assert.New(t)
	e := sampleEphemerisForOrbit()
	t0 := e.Toe.Add(1800)
	const dt = 0.1

	s0 := Propagate(&e, t0, 0)
	s1 := Propagate(&e, t0.Add(dt), 0)

	approxVx := (s1.Pos.X - s0.Pos.X) / dt
	assert.InDelta(approxVx, s0.Vel[0], 5.0)
}
