// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RealtimeMode selects how RealtimeDelayedRing rolls a delayed
// measurement's H/R forward through the stored transition history.
type RealtimeMode int

const (
	// RTNormal walks every stored snapshot individually: exact, but
	// O(depth) work per correction.
	RTNormal RealtimeMode = iota
	// RTLightWeight replaces the per-snapshot walk with a single
	// averaged approximation across all stored snapshots, trading
	// some accuracy for O(1) work per correction.
	RTLightWeight
)

// snapshot is one propagation step's worth of bookkeeping kept around
// so a measurement that arrives late can still be applied against the
// state as it stood when the measurement was actually taken.
type snapshot struct {
	X        *mat.VecDense
	P        *mat.Dense
	A        *mat.Dense // continuous-time transition matrix used for this step
	Phi      *mat.Dense // I + A*elapsedT
	GQGt     *mat.Dense // propagated process noise contribution for this step
	ElapsedT float64
}

func identity(n int) *mat.Dense {
	I := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		I.Set(i, i, 1)
	}
	return I
}

func phiFromA(A *mat.Dense, elapsedT float64) *mat.Dense {
	n, _ := A.Dims()
	var scaled mat.Dense
	scaled.Scale(elapsedT, A)
	var phi mat.Dense
	phi.Add(identity(n), &scaled)
	return &phi
}

// BackPropagationRing reconciles a delayed measurement by reapplying
// the correction at the earlier stored state, then discarding the
// snapshots newer than the one corrected: the caller is expected to
// re-propagate and re-correct from that point forward using its own
// replayed input log, which this type does not retain.
type BackPropagationRing struct {
	Depth     int
	snapshots []snapshot
}

// NewBackPropagationRing returns a ring retaining up to depth prior
// propagation steps.
func NewBackPropagationRing(depth int) *BackPropagationRing {
	return &BackPropagationRing{Depth: depth}
}

// BeforeUpdate records the transition used for one propagation step,
// to be called right before the base INS state is advanced by it.
func (r *BackPropagationRing) BeforeUpdate(x *mat.VecDense, P *mat.Dense, A *mat.Dense, Q *mat.Dense, B *mat.Dense, elapsedT float64) {
	phi := phiFromA(A, elapsedT)

	var gamma mat.Dense
	gamma.Scale(elapsedT, B)
	var gq, gqgt mat.Dense
	gq.Mul(&gamma, Q)
	gqgt.Mul(&gq, gamma.T())

	r.snapshots = append(r.snapshots, snapshot{X: x, P: P, A: A, Phi: phi, GQGt: &gqgt, ElapsedT: elapsedT})
	if len(r.snapshots) > r.Depth {
		r.snapshots = r.snapshots[len(r.snapshots)-r.Depth:]
	}
}

// CorrectDelayed applies (H, R, innovation) against the stored state
// backPropagateDepth steps before the most recent, rather than the
// current state, and returns the corrected earlier state/covariance.
// It reports ok=false if fewer than backPropagateDepth+1 snapshots are
// available (the measurement is older than anything retained).
func (r *BackPropagationRing) CorrectDelayed(H *mat.Dense, R *mat.Dense, dy *mat.VecDense, backPropagateDepth int) (x *mat.VecDense, P *mat.Dense, ok bool) {
	idx := len(r.snapshots) - 1 - backPropagateDepth
	if idx < 0 {
		return nil, nil, false
	}
	snap := r.snapshots[idx]

	var HPhi mat.Dense
	HPhi.Mul(H, snap.Phi)
	var HGQGt, HGQGtHt, Rdash mat.Dense
	HGQGt.Mul(H, snap.GQGt)
	HGQGtHt.Mul(&HGQGt, H.T())
	Rdash.Add(R, &HGQGtHt)

	K := makeK(snap.P, &HPhi, &Rdash)
	newX := updateX(snap.X, K, dy)
	newP := updateP(K, &HPhi, snap.P)

	r.snapshots = r.snapshots[:idx]
	return newX, newP, true
}

// RealtimeDelayedRing reconciles a delayed measurement by rolling H
// and R forward through the stored transition matrices up to the
// current state, rather than rewinding the state itself.
type RealtimeDelayedRing struct {
	Mode      RealtimeMode
	MaxAgeSec float64
	snapshots []snapshot // PhiInv stored in Phi field (inverse of the forward transition)
}

// NewRealtimeDelayedRing returns a ring in the given mode, storing
// maxAgeSec as MaxAgeSec. Snapshots are not pruned by age; only
// SetupCorrect drops them.
func NewRealtimeDelayedRing(mode RealtimeMode, maxAgeSec float64) *RealtimeDelayedRing {
	return &RealtimeDelayedRing{Mode: mode, MaxAgeSec: maxAgeSec}
}

// BeforeUpdate records the transition used for one propagation step.
// Rolling H forward through stored history needs Phi^-1, so a singular
// Phi (a degenerate transition) can't be recorded; the
// caller should skip the snapshot and keep propagating on the error.
func (r *RealtimeDelayedRing) BeforeUpdate(x *mat.VecDense, P *mat.Dense, A *mat.Dense, Q *mat.Dense, B *mat.Dense, elapsedT float64) error {
	phi := phiFromA(A, elapsedT)
	var phiInv mat.Dense
	if err := phiInv.Inverse(phi); err != nil {
		return fmt.Errorf("snapshot: singular transition matrix: %w", err)
	}

	var gamma mat.Dense
	gamma.Scale(elapsedT, B)
	var gq, gqgt mat.Dense
	gq.Mul(&gamma, Q)
	gqgt.Mul(&gq, gamma.T())

	r.snapshots = append(r.snapshots, snapshot{X: x, P: P, A: A, Phi: &phiInv, GQGt: &gqgt, ElapsedT: elapsedT})
	return nil
}

// SetupCorrect walks backward from the most recent snapshot,
// accumulating elapsed time, until it has retained enough history to
// cover advanceT seconds into the past (advanceT must be <= 0). It
// drops snapshots older than that, keeping at least one, and reports
// ok=false if the requested delay runs off the end of what's retained
// (too old to reconcile).
func (r *RealtimeDelayedRing) SetupCorrect(advanceT float64) (ok bool) {
	if advanceT > 0 {
		advanceT = 0
	}
	elapsed := 0.0
	keepFrom := len(r.snapshots) - 1
	for keepFrom > 0 && elapsed > advanceT+0.005 {
		elapsed -= r.snapshots[keepFrom].ElapsedT
		keepFrom--
	}
	if keepFrom == 0 && elapsed > advanceT+0.005 {
		return false
	}
	r.snapshots = r.snapshots[keepFrom:]
	return true
}

// CorrectWithInfo rolls (H, R) forward from the oldest retained
// snapshot to the present and applies the Kalman update against the
// current state x/P.
func (r *RealtimeDelayedRing) CorrectWithInfo(x *mat.VecDense, P *mat.Dense, H *mat.Dense, R *mat.Dense, dy *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	if len(r.snapshots) == 0 {
		K := makeK(P, H, R)
		return updateX(x, K, dy), updateP(K, H, P)
	}

	switch r.Mode {
	case RTLightWeight:
		n, _ := H.Dims()
		_ = n
		var sumA, sumGQGt mat.Dense
		rows, cols := r.snapshots[0].A.Dims()
		sumA = *mat.NewDense(rows, cols, nil)
		sumGQGt = *mat.NewDense(rows, cols, nil)
		barDeltaT := 0.0
		count := float64(len(r.snapshots))
		for _, s := range r.snapshots {
			sumA.Add(&sumA, s.A)
			sumGQGt.Add(&sumGQGt, s.GQGt)
			barDeltaT += s.ElapsedT
		}
		barDeltaT /= count

		var sumAGQGt, sumAGQGtT, crossTerm, inflation, Rdash mat.Dense
		sumAGQGt.Mul(&sumA, &sumGQGt)
		sumAGQGtT.CloneFrom(sumAGQGt.T())
		crossTerm.Add(&sumAGQGt, &sumAGQGtT)
		crossTerm.Scale(barDeltaT*(count-1)/(2*count), &crossTerm)
		inflation.Sub(&sumGQGt, &crossTerm)

		var HInfl, HInflHt mat.Dense
		HInfl.Mul(H, &inflation)
		HInflHt.Mul(&HInfl, H.T())
		Rdash.Add(R, &HInflHt)

		var scaledSumA, IminusA mat.Dense
		scaledSumA.Scale(barDeltaT, &sumA)
		IminusA.Sub(identity(rows), &scaledSumA)
		var Hdash mat.Dense
		Hdash.Mul(H, &IminusA)

		K := makeK(P, &Hdash, &Rdash)
		return updateX(x, K, dy), updateP(K, &Hdash, P)

	default: // RTNormal
		Hcur := mat.DenseCopyOf(H)
		Rcur := mat.DenseCopyOf(R)
		for _, s := range r.snapshots {
			var Hnext mat.Dense
			Hnext.Mul(Hcur, s.Phi) // s.Phi holds Phi^-1 for realtime rolling
			var HG, HGHt, Rnext mat.Dense
			HG.Mul(Hcur, s.GQGt)
			HGHt.Mul(&HG, Hcur.T())
			Rnext.Add(Rcur, &HGHt)
			Hcur = &Hnext
			Rcur = &Rnext
		}
		K := makeK(P, Hcur, Rcur)
		return updateX(x, K, dy), updateP(K, Hcur, P)
	}
}
