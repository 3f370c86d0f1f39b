// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// NavState is the inertial state a TightlyCoupledUpdate linearizes
// against. Position/velocity are the current ECEF estimates; Quat is
// the quaternion rotating the local-navigation (NED) frame into ECEF,
// used to express each measurement's line of sight in the nav frame
// the error state is carried in.
type NavState struct {
	Pos  PosXYZ
	Vel  [3]float64 // ECEF, m/s
	Quat Quaternion // q_e2n: NED -> ECEF
}

// Error-state layout that TightlyCoupledUpdate's Jacobians assume:
//
//	[0:3]         position error, NED, meters
//	[3:6]         velocity error, NED, m/s
//	[6:10]        q_e2n component error (direct delta-quaternion, unitless)
//	[10+2i:12+2i] clock i's (bias, drift) error, meters / meters-per-second
const (
	errPosOffset = 0
	errVelOffset = 3
	errAttOffset = 6
	errAttWidth  = 4
	errClockBase = errAttOffset + errAttWidth
)

// TightlyCoupledUpdate carries the configuration and recent-residual
// bookkeeping a tightly-coupled GNSS/INS measurement update needs
// across calls: the per-clock Gauss-Markov extension, a rolling
// estimate of each clock's unmodeled range-residual mean (used to
// detect and correct hardware-induced millisecond clock jumps), and the
// last ephemeris resolved per PRN so Correct can skip a re-select pass
// when SpaceNode.RefreshSelection judges one isn't likely to matter.
type TightlyCoupledUpdate struct {
	Clocks *INSClockExtension
	Logger Logger

	residualMean []float64         // meters, running mean per clock index
	cachedEph    map[int]Ephemeris // last ephemeris used per PRN, for RefreshSelection
}

// NewTightlyCoupledUpdate returns an update context tracking the given
// clock extension.
func NewTightlyCoupledUpdate(clocks *INSClockExtension, logger Logger) *TightlyCoupledUpdate {
	return &TightlyCoupledUpdate{
		Clocks:       clocks,
		Logger:       orDefaultLogger(logger),
		residualMean: make([]float64, len(clocks.States)),
		cachedEph:    make(map[int]Ephemeris),
	}
}

func unitVector(from, to PosXYZ) (los [3]float64, rng float64) {
	dx, dy, dz := to.X-from.X, to.Y-from.Y, to.Z-from.Z
	rng = math.Sqrt(dx*dx + dy*dy + dz*dz)
	return [3]float64{dx / rng, dy / rng, dz / rng}, rng
}

func matVec3(m *mat.Dense, v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = m.At(i, 0)*v[0] + m.At(i, 1)*v[1] + m.At(i, 2)*v[2]
	}
	return out
}

// losToNED expresses an ECEF line-of-sight vector in the NED frame,
// i.e. DCM(q_e2n)^T . losECEF, with no sign change.
func losToNED(quat Quaternion, losECEF [3]float64) [3]float64 {
	dcmT := quat.DCM().T()
	var dense mat.Dense
	dense.CloneFrom(dcmT)
	return matVec3(&dense, losECEF)
}

// attitudeHeightJacobian returns H_uh, the 3x4 sensitivity of the
// receiver's ECEF position to its q_e2n quaternion components, at the
// given height above the WGS-84 ellipsoid. q_alpha/q_beta/q_gamma
// parameterize latitude/longitude through the quaternion; n is the
// prime-vertical radius of curvature and eccEarth is the WGS-84 first
// eccentricity, so H_uh[2] (the "up" row) folds the curvature and
// eccentricity correction directly into the quaternion partial rather
// than needing a separate height row.
func attitudeHeightJacobian(quat Quaternion, height float64) [3][4]float64 {
	qAlpha := (quat.Q0*quat.Q0+quat.Q3*quat.Q3)*2 - 1
	qBeta := (quat.Q0*quat.Q1 - quat.Q2*quat.Q3) * 2
	qGamma := (quat.Q0*quat.Q2 + quat.Q1*quat.Q3) * 2

	eccEarth := math.Sqrt(Fe * (2 - Fe))
	ecc2 := eccEarth * eccEarth
	n := Re / math.Sqrt(1-ecc2*qAlpha*qAlpha)
	sf := n * ecc2 * qAlpha * -2 / (1 - ecc2*qAlpha*qAlpha)
	nH := (n + height) * 2

	var h [3][4]float64
	h[0][0] = -qGamma * qBeta * sf
	h[0][1] = -qGamma*qGamma*sf - nH*qAlpha
	h[0][2] = -nH * qBeta
	h[0][3] = -qGamma

	h[1][0] = qBeta*qBeta*sf + nH*qAlpha
	h[1][1] = qBeta * qGamma * sf
	h[1][2] = -nH * qGamma
	h[1][3] = qBeta

	sf2 := sf * -(1 - ecc2)
	nH2 := (n*(1-ecc2) + height) * 2
	h[2][0] = qAlpha*qBeta*sf2 + nH2*qBeta
	h[2][1] = qAlpha*qGamma*sf2 + nH2*qGamma
	h[2][3] = -qAlpha

	return h
}

// predictedPseudorange is the geometric range plus receiver clock bias,
// minus satellite clock bias, plus the ionospheric and tropospheric
// group delays (both already in meters of one-way range). This is the
// full predicted observable the EKF's pseudorange residual is built
// against.
func predictedPseudorange(state NavState, clock ClockState, orbit OrbitState, ionoDelay, tropoDelay float64) float64 {
	_, rng := unitVector(state.Pos, orbit.Pos)
	return rng + clock.Bias - orbit.ClockBias*C + ionoDelay + tropoDelay
}

// assignZHR builds the innovation, design-matrix row(s), and
// measurement-noise diagonal entries for one satellite's observation,
// following the same quaternion-derived line-of-sight construction for
// both the pseudorange and (if present) range-rate rows. ionoDelay and
// tropoDelay are the atmospheric corrections already resolved for this
// satellite/epoch, in meters of one-way range.
func (tc *TightlyCoupledUpdate) assignZHR(stateDim int, state NavState, clock ClockState, clockIdx int, m Measurement, orbit OrbitState, ionoDelay, tropoDelay float64) (z []float64, H *mat.Dense, Rdiag []float64) {
	losECEF, rng := unitVector(state.Pos, orbit.Pos)
	losNED := losToNED(state.Quat, losECEF)

	predictedRange := rng + clock.Bias - orbit.ClockBias*C + ionoDelay + tropoDelay
	rangeResidual := m.PseudoRange - predictedRange

	nRows := 1
	if m.HasRate {
		nRows = 2
	}
	H = mat.NewDense(nRows, stateDim, nil)
	z = make([]float64, nRows)
	Rdiag = make([]float64, nRows)

	z[0] = rangeResidual
	for i := 0; i < 3; i++ {
		H.Set(0, errPosOffset+i, -losNED[i])
	}
	huh := attitudeHeightJacobian(state.Quat, state.Pos.ToLLH().Hei)
	for j := 0; j < errAttWidth; j++ {
		var col float64
		for i := 0; i < 3; i++ {
			col -= losECEF[i] * huh[i][j]
		}
		H.Set(0, errAttOffset+j, col)
	}
	H.Set(0, errClockBase+2*clockIdx, 1)
	if m.Sigma > 0 {
		Rdiag[0] = m.Sigma * m.Sigma
	} else {
		w := m.Weight
		if w < 0.1 {
			w = 0.1
		}
		Rdiag[0] = 1 / (w * w)
	}

	if m.HasRate {
		relVel := [3]float64{orbit.Vel[0] - state.Vel[0], orbit.Vel[1] - state.Vel[1], orbit.Vel[2] - state.Vel[2]}
		var predictedRate float64
		for i := 0; i < 3; i++ {
			predictedRate += losECEF[i] * relVel[i]
		}
		predictedRate = -predictedRate + clock.Drift
		z[1] = m.RangeRate - predictedRate

		for i := 0; i < 3; i++ {
			H.Set(1, errVelOffset+i, -losNED[i])
		}

		// Position-error term from the line-of-sight direction's own
		// dependence on receiver position: d(los)/d(pos) projected
		// onto the relative velocity, (I - los⊗los)/range * relVel.
		var crossTerm [3]float64
		var dot float64
		for i := 0; i < 3; i++ {
			dot += losECEF[i] * relVel[i]
		}
		for i := 0; i < 3; i++ {
			crossTerm[i] = (relVel[i] - losECEF[i]*dot) / rng
		}
		crossNED := losToNED(state.Quat, crossTerm)
		for i := 0; i < 3; i++ {
			H.Set(1, errPosOffset+i, -crossNED[i])
		}
		H.Set(1, errClockBase+2*clockIdx+1, 1)

		if m.RateSigma > 0 {
			Rdiag[1] = m.RateSigma * m.RateSigma
		} else {
			Rdiag[1] = Rdiag[0] * 1e-3
		}
	}

	return z, H, Rdiag
}

// makeK is the Kalman gain K = P H^T (H P H^T + R)^-1.
func makeK(P, H, R *mat.Dense) *mat.Dense {
	var A, B, C, D, K mat.Dense
	A.Mul(H, P)
	B.Mul(&A, H.T())
	C.Add(&B, R)
	C.Inverse(&C)
	D.Mul(P, H.T())
	K.Mul(&D, &C)
	return &K
}

func updateX(x *mat.VecDense, K *mat.Dense, dy *mat.VecDense) *mat.VecDense {
	var correction mat.VecDense
	correction.MulVec(K, dy)
	var out mat.VecDense
	out.AddVec(x, &correction)
	return &out
}

func updateP(K, H, P *mat.Dense) *mat.Dense {
	n, _ := P.Dims()
	var KH, IKH, newP mat.Dense
	KH.Mul(K, H)
	I := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		I.Set(i, i, 1)
	}
	IKH.Sub(I, &KH)
	newP.Mul(&IKH, P)
	return &newP
}

// rangeResidualInClockUnits converts a pseudorange residual into
// milliseconds of clock-jump-equivalent shift.
func rangeResidualInClockUnits(residual float64) float64 {
	return residual / C / 1e-3
}

// checkClockJump inspects the running residual mean for clockIdx and,
// if it looks like the receiver clock jumped by a whole number of
// milliseconds (the way some receivers periodically reset their clock
// to keep the measured pseudoranges bounded), shifts the clock state
// to absorb it. It reports whether this measurement's residual is
// usable: false means a jump was detected but the residual did not
// resolve to within tolerance afterward, and the caller must drop the
// measurement rather than feed the unresolved offset into the filter.
func (tc *TightlyCoupledUpdate) checkClockJump(clockIdx int, clock *ClockState, rangeResidual float64) bool {
	const alpha = 0.1
	tc.residualMean[clockIdx] = (1-alpha)*tc.residualMean[clockIdx] + alpha*rangeResidual

	deltaMs := rangeResidualInClockUnits(tc.residualMean[clockIdx])
	if deltaMs < 0.9 && deltaMs > -0.9 {
		return true
	}

	shift := C * 1e-3 * math.Floor(deltaMs+0.5)
	newResidual := rangeResidual - shift
	newDeltaMs := rangeResidualInClockUnits(newResidual)
	if newDeltaMs >= 0.9 || newDeltaMs <= -0.9 {
		tc.Logger.Warnf("clock %d: jump of %.1f ms detected but residual did not resolve, skipped", clockIdx, deltaMs)
		return false
	}

	clock.Bias += shift
	tc.residualMean[clockIdx] = newResidual
	tc.Logger.Warnf("clock %d: detected %.0f ms jump, corrected", clockIdx, math.Floor(deltaMs+0.5))
	return true
}

// Correct performs one EKF measurement update for a batch of
// simultaneous measurements (an Epoch), stacking each satellite's
// range (and optional rate) rows, applying the automatic clock-jump
// check per clock before linearizing, and returning the updated state
// vector and covariance. For each measurement it resolves the
// satellite's ephemeris from sn, propagates it to the transmit time
// implied by the measured pseudorange minus the receiver clock's
// current bias estimate, and folds the Klobuchar ionospheric and
// Saastamoinen tropospheric delays into the predicted range before
// forming the residual.
func (tc *TightlyCoupledUpdate) Correct(x *mat.VecDense, P *mat.Dense, state NavState, epoch Epoch, sn *SpaceNode) (*mat.VecDense, *mat.Dense) {
	stateDim, _ := P.Dims()
	usrLLH := state.Pos.ToLLH()
	iono, haveIono := sn.CurrentIonoUTC(epoch.Time)
	epoch = epoch.DedupSatellites()

	var zRows []float64
	var hRows [][]float64
	var rDiag []float64

	for _, m := range epoch.Measurements {
		cached, hasCached := tc.cachedEph[m.PRN]
		eph, ok := sn.RefreshSelection(m.PRN, cached, hasCached, epoch.Time)
		if !ok {
			continue
		}
		tc.cachedEph[m.PRN] = eph
		clock := &tc.Clocks.States[m.ClockIndex]

		psr := m.PseudoRange - clock.Bias
		orbit := Propagate(&eph, epoch.Time, psr)

		el := usrLLH.Elevation(orbit.Pos)
		var ionoDelay float64
		if haveIono {
			az := usrLLH.Azimuth(orbit.Pos)
			// KlobucharDelay already returns the signed (−c·t_iono)
			// correction; negate it back into a positive range delay
			// to add to the predicted (not corrected) pseudorange.
			ionoDelay = -iono.KlobucharDelay(&usrLLH, el, az, epoch.Time)
		}
		tropoDelay := TropModel(&state.Pos) * TropMapf(epoch.Time, &state.Pos, el)

		predicted := predictedPseudorange(state, *clock, orbit, ionoDelay, tropoDelay)
		if !tc.checkClockJump(m.ClockIndex, clock, m.PseudoRange-predicted) {
			continue
		}

		z, H, Rd := tc.assignZHR(stateDim, state, *clock, m.ClockIndex, m, orbit, ionoDelay, tropoDelay)
		for r := 0; r < len(z); r++ {
			zRows = append(zRows, z[r])
			row := make([]float64, stateDim)
			for c := 0; c < stateDim; c++ {
				row[c] = H.At(r, c)
			}
			hRows = append(hRows, row)
			rDiag = append(rDiag, Rd[r])
		}
	}

	if len(zRows) == 0 {
		return x, P
	}

	n := len(zRows)
	dy := mat.NewVecDense(n, zRows)
	Hmat := mat.NewDense(n, stateDim, nil)
	for r := 0; r < n; r++ {
		for c := 0; c < stateDim; c++ {
			Hmat.Set(r, c, hRows[r][c])
		}
	}
	Rmat := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		Rmat.Set(i, i, rDiag[i])
	}

	K := makeK(P, Hmat, Rmat)
	newX := updateX(x, K, dy)
	newP := updateP(K, Hmat, P)

	tc.Clocks.Correct(newX, errClockBase)

	return newX, newP
}
