// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import "math"

// keplerMaxIter/keplerTol bound the eccentric anomaly iteration. The
// loop silently stops after keplerMaxIter regardless of whether it
// converged - orbit APIs never fail, they just return whatever
// estimate the iteration produced (callers needing a quality gate
// should consult Ephemeris.IsValid separately).
const (
	keplerMaxIter = 10
	keplerTol     = 1e-12
)

// eccentricAnomaly solves Kepler's equation Ek = Mk + e*sin(Ek) for Ek.
func eccentricAnomaly(mk, ecc float64) float64 {
	ek := mk
	for i := 0; i < keplerMaxIter; i++ {
		next := mk + ecc*math.Sin(ek)
		if math.Abs(next-ek) < keplerTol {
			ek = next
			break
		}
		ek = next
	}
	return ek
}

// OrbitState is the satellite position, velocity, and clock correction
// computed by the orbit propagator at a given receive time.
type OrbitState struct {
	Pos       PosXYZ
	Vel       [3]float64 // ECEF velocity, m/s
	ClockBias float64    // seconds, dtsv (includes relativistic term and group delay)
	ClockRate float64    // seconds/second
}

// Propagate computes the GPS satellite position/velocity/clock state
// at receive time rcvt, given a one-way range estimate psr used to
// back out the signal transmit time (light-time iteration is not
// performed here; callers pass their own iterated psr if precision
// beyond one light-time correction matters).
func Propagate(e *Ephemeris, rcvt GPSTime, psr float64) OrbitState {
	tk0 := rcvt.Sub(e.Toe) - psr/C

	a := e.SqrtA * e.SqrtA
	n0 := math.Sqrt(Mue / (a * a * a))
	n := n0 + e.DeltaN
	mk := e.M0 + n*tk0

	ek := eccentricAnomaly(mk, e.Ecc)
	ekDot := n / (1 - e.Ecc*math.Cos(ek))

	sinEk, cosEk := math.Sin(ek), math.Cos(ek)
	vk := math.Atan2(math.Sqrt(1-e.Ecc*e.Ecc)*sinEk, cosEk-e.Ecc)
	vkDot := ekDot * math.Sqrt(1-e.Ecc*e.Ecc) / (1 - e.Ecc*cosEk)

	phik := vk + e.Omega
	phikDot := vkDot

	sin2phi, cos2phi := math.Sin(2*phik), math.Cos(2*phik)
	duk := e.Cus*sin2phi + e.Cuc*cos2phi
	drk := e.Crs*sin2phi + e.Crc*cos2phi
	dik := e.Cis*sin2phi + e.Cic*cos2phi
	dukDot := 2 * phikDot * (e.Cus*cos2phi - e.Cuc*sin2phi)
	drkDot := 2 * phikDot * (e.Crs*cos2phi - e.Crc*sin2phi)
	dikDot := 2 * phikDot * (e.Cis*cos2phi - e.Cic*sin2phi)

	uk := phik + duk
	rk := a*(1-e.Ecc*cosEk) + drk
	ik := e.I0 + e.IDot*tk0 + dik

	ukDot := phikDot + dukDot
	rkDot := a*e.Ecc*sinEk*ekDot + drkDot
	ikDot := e.IDot + dikDot

	xkp := rk * math.Cos(uk)
	ykp := rk * math.Sin(uk)
	xkpDot := rkDot*math.Cos(uk) - rk*math.Sin(uk)*ukDot
	ykpDot := rkDot*math.Sin(uk) + rk*math.Cos(uk)*ukDot

	// Receive-time form: the nodal rate term uses the transit-corrected
	// tk0, while the Earth-rotation (Sagnac) term turns through the full
	// elapsed time since Toe as observed at the receiver, Toe.Sec plus
	// both tk0 and the transit time psr/C. Dropping the psr/C part (or
	// anchoring the rotation to e.Toe.Sec alone) under-rotates by
	// OmegaE*psr/C, tens of meters for a typical transit time.
	omegak := e.Omega0 + (e.OmegaDot-OmegaE)*tk0 - OmegaE*(e.Toe.Sec+psr/C)
	omegakDot := e.OmegaDot - OmegaE

	sinOmk, cosOmk := math.Sin(omegak), math.Cos(omegak)
	sinIk, cosIk := math.Sin(ik), math.Cos(ik)

	x := xkp*cosOmk - ykp*cosIk*sinOmk
	y := xkp*sinOmk + ykp*cosIk*cosOmk
	z := ykp * sinIk

	xDot := xkpDot*cosOmk - ykpDot*cosIk*sinOmk + ykp*sinIk*sinOmk*ikDot - y*omegakDot
	yDot := xkpDot*sinOmk + ykpDot*cosIk*cosOmk - ykp*sinIk*cosOmk*ikDot + x*omegakDot
	zDot := ykpDot*sinIk + ykp*cosIk*ikDot

	dtr := F_reltv * e.Ecc * e.SqrtA * sinEk
	dtrDot := F_reltv * e.Ecc * e.SqrtA * cosEk * ekDot

	tkClock := rcvt.Sub(e.Toc) - psr/C
	dtsv := e.Af0 + e.Af1*tkClock + e.Af2*tkClock*tkClock + dtr - GammaL1L2*e.Tgd
	dtsvDot := e.Af1 + 2*e.Af2*tkClock + dtrDot

	return OrbitState{
		Pos:       PosXYZ{X: x, Y: y, Z: z},
		Vel:       [3]float64{xDot, yDot, zDot},
		ClockBias: dtsv,
		ClockRate: dtsvDot,
	}
}
