// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Quaternion rotates the local-navigation (NED/ENU-style) frame into
// ECEF: X_e = Q * X_n * conj(Q). Component naming follows the aviation
// AHRS convention of a scalar-first quaternion (Q0 is the scalar part).
type Quaternion struct {
	Q0, Q1, Q2, Q3 float64
}

func (q Quaternion) Normalize() Quaternion {
	n := math.Sqrt(q.Q0*q.Q0 + q.Q1*q.Q1 + q.Q2*q.Q2 + q.Q3*q.Q3)
	return Quaternion{q.Q0 / n, q.Q1 / n, q.Q2 / n, q.Q3 / n}
}

func (q Quaternion) Conj() Quaternion {
	return Quaternion{q.Q0, -q.Q1, -q.Q2, -q.Q3}
}

// DCM returns the 3x3 direction cosine matrix equivalent to q, rotating
// a vector expressed in the frame q rotates *from* into the frame it
// rotates *to*.
func (q Quaternion) DCM() *mat.Dense {
	q0, q1, q2, q3 := q.Q0, q.Q1, q.Q2, q.Q3
	return mat.NewDense(3, 3, []float64{
		q0*q0 + q1*q1 - q2*q2 - q3*q3, 2 * (q1*q2 - q0*q3), 2 * (q1*q3 + q0*q2),
		2 * (q1*q2 + q0*q3), q0*q0 - q1*q1 + q2*q2 - q3*q3, 2 * (q2*q3 - q0*q1),
		2 * (q1*q3 - q0*q2), 2 * (q2*q3 + q0*q1), q0*q0 - q1*q1 - q2*q2 + q3*q3,
	})
}
