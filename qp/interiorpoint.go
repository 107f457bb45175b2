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

package qp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// InteriorPoint solves convex quadratic programs with a Mehrotra
// predictor-corrector primal-dual interior-point iteration
type InteriorPoint struct {
	cfg Config
}

// NewInteriorPoint creates a solver with the given settings. Zero values
// in cfg are replaced with the defaults
func NewInteriorPoint(cfg Config) *InteriorPoint {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.FeasTol <= 0 {
		cfg.FeasTol = def.FeasTol
	}
	if cfg.GapTol <= 0 {
		cfg.GapTol = def.GapTol
	}
	return &InteriorPoint{cfg: cfg}
}

// Solve computes the solution of the quadratic program. When the program
// has no inequality constraints the KKT conditions are linear and are
// solved directly. Otherwise the interior-point iteration runs until the
// complementarity gap and residual norms fall below tolerance, then the
// solution is polished with an exact active-set solve
func (ip *InteriorPoint) Solve(prob *Problem) (*Result, error) {
	n, m, p, err := prob.Dims()
	if err != nil {
		return nil, err
	}

	if m == 0 {
		return ip.solveEquality(prob, n, p)
	}

	x := make([]float64, n)
	y := make([]float64, p)
	s := make([]float64, m)
	z := make([]float64, m)
	for k := 0; k < m; k++ {
		s[k] = 1.0
		z[k] = 1.0
	}

	prevX := make([]float64, n)
	prevY := make([]float64, p)
	prevS := make([]float64, m)
	prevZ := make([]float64, m)

	rd := make([]float64, n)
	rp := make([]float64, p)
	rg := make([]float64, m)

	var it int
	for it = 0; it < ip.cfg.MaxIterations; it++ {
		// residuals: dual, primal equality, primal inequality
		gx := matVec(prob.G, x)
		for i := 0; i < n; i++ {
			v := prob.Q.AtVec(i)
			for j := 0; j < n; j++ {
				v += prob.P.At(i, j) * x[j]
			}
			for k := 0; k < m; k++ {
				v += prob.G.At(k, i) * z[k]
			}
			for k := 0; k < p; k++ {
				v += prob.A.At(k, i) * y[k]
			}
			rd[i] = v
		}
		for k := 0; k < p; k++ {
			v := -prob.B.AtVec(k)
			for j := 0; j < n; j++ {
				v += prob.A.At(k, j) * x[j]
			}
			rp[k] = v
		}
		for k := 0; k < m; k++ {
			rg[k] = gx[k] + s[k] - prob.H.AtVec(k)
		}

		mu := 0.0
		for k := 0; k < m; k++ {
			mu += s[k] * z[k]
		}
		mu /= float64(m)

		if mu < ip.cfg.GapTol && maxAbs(rd) < ip.cfg.FeasTol &&
			maxAbs(rp) < ip.cfg.FeasTol && maxAbs(rg) < ip.cfg.FeasTol {
			if ip.cfg.Polish {
				if xp := polish(prob, n, m, p, z, s); xp != nil {
					return &Result{Status: StatusOptimal, X: xp, Iterations: it}, nil
				}
			}
			return &Result{Status: StatusOptimal, X: x, Iterations: it}, nil
		}

		// reduced KKT system: [P + G' D G, A'; A, 0] with D = diag(z/s)
		dim := n + p
		kkt := mat.NewDense(dim, dim, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := prob.P.At(i, j)
				for k := 0; k < m; k++ {
					v += prob.G.At(k, i) * (z[k] / s[k]) * prob.G.At(k, j)
				}
				kkt.Set(i, j, v)
			}
			for k := 0; k < p; k++ {
				kkt.Set(i, n+k, prob.A.At(k, i))
				kkt.Set(n+k, i, prob.A.At(k, i))
			}
		}

		var lu mat.LU
		lu.Factorize(kkt)

		newton := func(rc []float64) (dx, dy, dz, ds []float64, err error) {
			rhs := mat.NewVecDense(dim, nil)
			for i := 0; i < n; i++ {
				acc := -rd[i]
				for k := 0; k < m; k++ {
					acc -= prob.G.At(k, i) * ((z[k]/s[k])*rg[k] - rc[k]/s[k])
				}
				rhs.SetVec(i, acc)
			}
			for k := 0; k < p; k++ {
				rhs.SetVec(n+k, -rp[k])
			}

			sol := mat.NewVecDense(dim, nil)
			if err := lu.SolveVecTo(sol, false, rhs); err != nil {
				if cond, ok := err.(mat.Condition); !ok || math.IsInf(float64(cond), 0) {
					return nil, nil, nil, nil, ErrSingularKKT
				}
			}

			dx = make([]float64, n)
			dy = make([]float64, p)
			for i := 0; i < n; i++ {
				dx[i] = sol.AtVec(i)
			}
			for k := 0; k < p; k++ {
				dy[k] = sol.AtVec(n + k)
			}

			gdx := matVec(prob.G, dx)
			dz = make([]float64, m)
			ds = make([]float64, m)
			for k := 0; k < m; k++ {
				dz[k] = (z[k]/s[k])*(gdx[k]+rg[k]) - rc[k]/s[k]
				ds[k] = -rg[k] - gdx[k]
			}
			return dx, dy, dz, ds, nil
		}

		// affine (predictor) direction
		rcAff := make([]float64, m)
		for k := 0; k < m; k++ {
			rcAff[k] = s[k] * z[k]
		}
		_, _, dzA, dsA, err := newton(rcAff)
		if err != nil {
			return nil, err
		}

		alphaAff := math.Min(maxStep(s, dsA), maxStep(z, dzA))
		muAff := 0.0
		for k := 0; k < m; k++ {
			muAff += (s[k] + alphaAff*dsA[k]) * (z[k] + alphaAff*dzA[k])
		}
		muAff /= float64(m)

		sigma := 0.0
		if mu > 0 {
			ratio := muAff / mu
			sigma = ratio * ratio * ratio
		}

		// corrector direction
		rc := make([]float64, m)
		for k := 0; k < m; k++ {
			rc[k] = s[k]*z[k] + dsA[k]*dzA[k] - sigma*mu
		}
		dx, dy, dz, ds, err := newton(rc)
		if err != nil {
			return nil, err
		}

		alpha := math.Min(1.0, 0.99*math.Min(maxStep(s, ds), maxStep(z, dz)))

		copy(prevX, x)
		copy(prevY, y)
		copy(prevS, s)
		copy(prevZ, z)

		for i := 0; i < n; i++ {
			x[i] += alpha * dx[i]
		}
		for k := 0; k < p; k++ {
			y[k] += alpha * dy[k]
		}
		for k := 0; k < m; k++ {
			s[k] += alpha * ds[k]
			z[k] += alpha * dz[k]
		}

		// infeasible problems diverge; keep the last finite iterate
		if !allFinite(x) || !allFinite(y) || !allFinite(s) || !allFinite(z) {
			copy(x, prevX)
			copy(y, prevY)
			copy(s, prevS)
			copy(z, prevZ)
			break
		}
	}

	if ip.cfg.Polish {
		if xp := polish(prob, n, m, p, z, s); xp != nil {
			return &Result{Status: StatusOptimal, X: xp, Iterations: it}, nil
		}
	}

	return &Result{Status: StatusUnknown, X: x, Iterations: it}, nil
}

// solveEquality handles programs without inequality constraints; the KKT
// conditions reduce to the linear system [P A'; A 0] [x; y] = [-q; b]
func (ip *InteriorPoint) solveEquality(prob *Problem, n, p int) (*Result, error) {
	dim := n + p
	kkt := mat.NewDense(dim, dim, nil)
	rhs := mat.NewVecDense(dim, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kkt.Set(i, j, prob.P.At(i, j))
		}
		rhs.SetVec(i, -prob.Q.AtVec(i))
	}
	for k := 0; k < p; k++ {
		for i := 0; i < n; i++ {
			kkt.Set(i, n+k, prob.A.At(k, i))
			kkt.Set(n+k, i, prob.A.At(k, i))
		}
		rhs.SetVec(n+k, prob.B.AtVec(k))
	}

	sol, err := solveLU(kkt, rhs)
	if err != nil {
		return nil, err
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = sol.AtVec(i)
	}

	return &Result{Status: StatusOptimal, X: x, Iterations: 0}, nil
}

// solveLU factorizes kkt and solves kkt * x = rhs. Ill-conditioned
// systems are tolerated; exactly singular ones are not
func solveLU(kkt *mat.Dense, rhs *mat.VecDense) (*mat.VecDense, error) {
	var lu mat.LU
	lu.Factorize(kkt)
	sol := mat.NewVecDense(rhs.Len(), nil)
	if err := lu.SolveVecTo(sol, false, rhs); err != nil {
		if cond, ok := err.(mat.Condition); !ok || math.IsInf(float64(cond), 0) {
			return nil, ErrSingularKKT
		}
	}
	if !allFinite(sol.RawVector().Data) {
		return nil, ErrSingularKKT
	}
	return sol, nil
}

// matVec computes M * v for an r x len(v) matrix; returns an empty slice
// when M is nil
func matVec(m *mat.Dense, v []float64) []float64 {
	if m == nil {
		return nil
	}
	rows, cols := m.Dims()
	res := make([]float64, rows)
	for i := 0; i < rows; i++ {
		acc := 0.0
		for j := 0; j < cols; j++ {
			acc += m.At(i, j) * v[j]
		}
		res[i] = acc
	}
	return res
}

// maxStep returns the largest step size in [0, 1] that keeps
// vec + step*dvec non-negative
func maxStep(vec, dvec []float64) float64 {
	alpha := 1.0
	for k := range vec {
		if dvec[k] < 0 {
			alpha = math.Min(alpha, -vec[k]/dvec[k])
		}
	}
	return alpha
}

func maxAbs(vals []float64) float64 {
	res := 0.0
	for _, v := range vals {
		if a := math.Abs(v); a > res {
			res = a
		}
	}
	return res
}

func allFinite(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
