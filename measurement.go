// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// Measurement is one satellite's pseudorange (and, optionally, range
// rate / Doppler) observation at a single epoch, tagged with the
// receiver clock it was timestamped against.
type Measurement struct {
	PRN        int
	ClockIndex int // which receiver clock (ClockState) this was timed by

	PseudoRange float64 // meters
	HasRate     bool
	RangeRate   float64 // meters/second, positive away from the satellite

	// Sigma, if > 0, is the 1-sigma measurement noise directly; Weight
	// is used instead (as 1/weight with weight floored at 0.1, squared
	// into variance) when Sigma is zero, matching the two ways elevation-dependent
	// weighting schemes hand a quality estimate to the filter.
	Sigma     float64
	RateSigma float64
	Weight    float64
}

// Epoch groups all measurements available at one receive time.
type Epoch struct {
	Time         GPSTime
	Measurements []Measurement
}

// DedupSatellites returns epoch with at most one measurement per PRN,
// keeping the first occurrence seen. Some receiver logs carry a
// duplicate observation for a satellite across a dual-channel capture;
// the correction step assumes a single row per PRN/clock pair.
func (epoch Epoch) DedupSatellites() Epoch {
	out := Epoch{Time: epoch.Time}
	var seen []int
	for _, m := range epoch.Measurements {
		if slices.Contains(seen, m.PRN) {
			continue
		}
		seen = append(seen, m.PRN)
		out.Measurements = append(out.Measurements, m)
	}
	return out
}

// InitialFix computes a rough single-point position/clock-bias estimate
// from a set of pseudoranges via ordinary weighted least squares. This
// is the bootstrap fix an EKF-based tightly-coupled filter needs before
// it has anything to linearize around; it is not used once the filter
// is running.
func InitialFix(sats []OrbitState, pr []float64, sigma []float64) (pos PosXYZ, clockBias float64, err error) {
	n := len(sats)
	if n < 4 {
		return PosXYZ{}, 0, fmt.Errorf("initial fix needs at least 4 measurements, got %d", n)
	}

	x := PosXYZ{} // start at the origin; a handful of Gauss-Newton steps converge regardless
	b := 0.0

	for iter := 0; iter < 8; iter++ {
		G := mat.NewDense(n, 4, nil)
		dr := mat.NewVecDense(n, nil)
		W := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			rng := EucDist(&x, &sats[i].Pos)
			G.Set(i, 0, DistDx(&sats[i].Pos, &x))
			G.Set(i, 1, DistDy(&sats[i].Pos, &x))
			G.Set(i, 2, DistDz(&sats[i].Pos, &x))
			G.Set(i, 3, 1)
			dr.SetVec(i, pr[i]-(rng+b))
			s := 1.0
			if i < len(sigma) && sigma[i] > 0 {
				s = sigma[i]
			}
			W.Set(i, i, 1/(s*s))
		}
		dx, _, solveErr := weightedLeastSquares(G, dr, W)
		if solveErr != nil {
			return PosXYZ{}, 0, solveErr
		}
		x.X += dx.AtVec(0)
		x.Y += dx.AtVec(1)
		x.Z += dx.AtVec(2)
		b += dx.AtVec(3)
	}
	return x, b, nil
}

// weightedLeastSquares solves the linearized observation equation
// dx = (G^T W G)^-1 G^T W dr and hands back (G^T W G)^-1 as the
// solution's error covariance.
func weightedLeastSquares(G mat.Matrix, dr mat.Vector, W mat.Matrix) (dx mat.Vector, cov mat.Matrix, err error) {
	rows, cols := G.Dims()
	wrows, wcols := W.Dims()
	if rows != wrows {
		return nil, nil, fmt.Errorf("weightedLeastSquares: G is %dx%d, W is %dx%d", rows, cols, wrows, wcols)
	}
	if dr.Len() != wcols {
		return nil, nil, fmt.Errorf("weightedLeastSquares: W is %dx%d, dr has %d rows", wrows, wcols, dr.Len())
	}

	var WG mat.Dense
	WG.Mul(W, G)
	var normal mat.Dense
	normal.Mul(G.T(), &WG)

	var GtW mat.Dense
	GtW.Mul(G.T(), W)
	var rhs mat.VecDense
	rhs.MulVec(&GtW, dr)

	var x mat.VecDense
	if err := x.SolveVec(&normal, &rhs); err != nil {
		return nil, nil, fmt.Errorf("weightedLeastSquares: %w", err)
	}

	var covDense mat.Dense
	if err := covDense.Inverse(&normal); err != nil {
		return nil, nil, fmt.Errorf("weightedLeastSquares: normal matrix is singular: %w", err)
	}

	return &x, &covDense, nil
}
