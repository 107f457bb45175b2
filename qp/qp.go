// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package qp solves convex quadratic programs in standard form:
//
//	minimize   (1/2) x'Px + q'x
//	subject to Gx <= h
//	           Ax = b
//
// P must be positive semi-definite. G/h and A/b may be nil when the
// program has no inequality or equality constraints.
package qp

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("problem dimensions do not agree")
	ErrSingularKKT       = errors.New("kkt system is singular")
)

// Status describes the disposition of a solve
type Status int

const (
	// StatusUnknown indicates the solver stopped before reaching an
	// optimal point; the returned solution is the last iterate and may be
	// far from optimal
	StatusUnknown Status = iota

	// StatusOptimal indicates the solution satisfies the optimality
	// conditions within tolerance
	StatusOptimal
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	default:
		return "unknown"
	}
}

// Problem is a quadratic program in standard form
type Problem struct {
	P *mat.Dense    // n x n quadratic cost
	Q *mat.VecDense // n linear cost
	G *mat.Dense    // m x n inequality lhs; nil if m == 0
	H *mat.VecDense // m inequality rhs; nil if m == 0
	A *mat.Dense    // p x n equality lhs; nil if p == 0
	B *mat.VecDense // p equality rhs; nil if p == 0
}

// Dims returns the number of variables n, inequality constraints m, and
// equality constraints p. An error is returned if the problem blocks do
// not agree on dimensions
func (prob *Problem) Dims() (n, m, p int, err error) {
	if prob.P == nil || prob.Q == nil {
		return 0, 0, 0, ErrDimensionMismatch
	}

	n = prob.Q.Len()
	rows, cols := prob.P.Dims()
	if rows != n || cols != n {
		return 0, 0, 0, ErrDimensionMismatch
	}

	if (prob.G == nil) != (prob.H == nil) {
		return 0, 0, 0, ErrDimensionMismatch
	}
	if prob.G != nil {
		m = prob.H.Len()
		rows, cols = prob.G.Dims()
		if rows != m || cols != n {
			return 0, 0, 0, ErrDimensionMismatch
		}
	}

	if (prob.A == nil) != (prob.B == nil) {
		return 0, 0, 0, ErrDimensionMismatch
	}
	if prob.A != nil {
		p = prob.B.Len()
		rows, cols = prob.A.Dims()
		if rows != p || cols != n {
			return 0, 0, 0, ErrDimensionMismatch
		}
	}

	return n, m, p, nil
}

// Result holds the solution of a quadratic program
type Result struct {
	Status     Status
	X          []float64
	Iterations int
}

// Config holds solver settings
type Config struct {
	// MaxIterations caps the number of interior-point iterations
	MaxIterations int

	// FeasTol is the tolerance on primal and dual residuals
	FeasTol float64

	// GapTol is the tolerance on the average complementarity gap
	GapTol float64

	// Polish refines the interior-point solution with an exact
	// active-set solve
	Polish bool
}

// DefaultConfig returns the recommended solver settings
func DefaultConfig() Config {
	return Config{
		MaxIterations: 100,
		FeasTol:       1e-9,
		GapTol:        1e-10,
		Polish:        true,
	}
}

// Solver computes the solution of a quadratic program
type Solver interface {
	Solve(prob *Problem) (*Result, error)
}
