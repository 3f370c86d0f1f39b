// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import "gonum.org/v1/gonum/mat"

// ClockState is one receiver clock's estimated bias and drift,
// expressed in range units (meters, meters/second) rather than seconds,
// so it combines directly with the pseudorange/range-rate residuals.
type ClockState struct {
	Bias  float64
	Drift float64
}

// ClockModel is the first-order Gauss-Markov time constant pair driving
// one receiver clock's process model: d(bias)/dt = drift - beta_bias*bias,
// d(drift)/dt = -beta_drift*drift (plus process noise, carried in Q).
type ClockModel struct {
	BetaBias  float64
	BetaDrift float64
}

// INSClockExtension augments a base inertial state vector with one
// (bias, drift) pair per tracked receiver clock, following the clock's
// own Gauss-Markov dynamics independent of the inertial propagation.
type INSClockExtension struct {
	States []ClockState
	Models []ClockModel
}

// NewINSClockExtension allocates one clock per entry of models, each
// starting at zero bias and drift.
func NewINSClockExtension(models []ClockModel) *INSClockExtension {
	states := make([]ClockState, len(models))
	return &INSClockExtension{States: states, Models: models}
}

// Update propagates each clock's bias by its drift over deltaT. This
// runs before (and independent of) the base inertial propagator's own
// update, matching the order the base state's accel/gyro-driven update
// is composed with the clock model.
func (c *INSClockExtension) Update(deltaT float64) {
	for i := range c.States {
		c.States[i].Bias += c.States[i].Drift * deltaT
	}
}

// Dim returns the number of augmented state components (2 per clock).
func (c *INSClockExtension) Dim() int {
	return 2 * len(c.States)
}

// AugmentAB extends a base n x n transition matrix A and a base n x m
// noise-input matrix B with the clock block, returning new matrices of
// size (n+2k) x (n+2k) and (n+2k) x (m+2k) respectively, with the base
// block copied into the top-left corner and the clock block appended
// along the diagonal:
//
//	A' = [ A        0 ]      B' = [ B  0 ]
//	     [ 0  clockA  ]           [ 0  I ]
//
// where clockA has, for clock i at offset o=2i: clockA[o][o]=-beta_bias,
// clockA[o][o+1]=1 (bias' = drift - beta_bias*bias), clockA[o+1][o+1]=-beta_drift.
func (c *INSClockExtension) AugmentAB(A, B *mat.Dense) (*mat.Dense, *mat.Dense) {
	n, _ := A.Dims()
	_, m := B.Dims()
	k := c.Dim()

	aug := mat.NewDense(n+k, n+k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, A.At(i, j))
		}
	}
	for i, model := range c.Models {
		o := n + 2*i
		aug.Set(o, o, -model.BetaBias)
		aug.Set(o, o+1, 1)
		aug.Set(o+1, o+1, -model.BetaDrift)
	}

	bug := mat.NewDense(n+k, m+k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			bug.Set(i, j, B.At(i, j))
		}
	}
	for i := 0; i < k; i++ {
		bug.Set(n+i, m+i, 1)
	}

	return aug, bug
}

// Correct subtracts the clock rows of an EKF error-state estimate
// xHat (starting at baseDim) from the clock states, the same way the
// base inertial correction subtracts its own rows from position/
// velocity/attitude.
func (c *INSClockExtension) Correct(xHat mat.Vector, baseDim int) {
	for i := range c.States {
		o := baseDim + 2*i
		c.States[i].Bias -= xHat.AtVec(o)
		c.States[i].Drift -= xHat.AtVec(o + 1)
	}
}
