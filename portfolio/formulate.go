// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package portfolio

import (
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/qp"
	"gonum.org/v1/gonum/mat"
)

// minVarProblem builds the minimum variance program:
//
//	minimize   w' Sigma w
//	subject to sum(w) = 1
//	           w >= 0 when short selling is not allowed
func minVarProblem(cov *dataframe.Matrix, allowShort bool) *qp.Problem {
	n := cov.Dim()

	prob := &qp.Problem{
		P: cov.Dense(),
		Q: mat.NewVecDense(n, nil),
		A: ones(1, n),
		B: mat.NewVecDense(1, []float64{1}),
	}

	if !allowShort {
		prob.G = negIdentity(n)
		prob.H = mat.NewVecDense(n, nil)
	}

	return prob
}

// markowitzProblem builds the target-return program:
//
//	minimize   w' Sigma w
//	subject to rets . w >= targetRet
//	           sum(w) = 1, or 0 for a market neutral portfolio
//	           w >= 0 when short selling is not allowed
func markowitzProblem(cov *dataframe.Matrix, rets *dataframe.Vector, targetRet float64, allowShort, marketNeutral bool) *qp.Problem {
	n := cov.Dim()

	budget := 1.0
	if marketNeutral {
		budget = 0.0
	}

	prob := &qp.Problem{
		P: cov.Dense(),
		Q: mat.NewVecDense(n, nil),
		A: ones(1, n),
		B: mat.NewVecDense(1, []float64{budget}),
	}

	prob.G, prob.H = returnFloor(rets, targetRet, allowShort)
	return prob
}

// tangencyProblem builds the maximum Sharpe ratio program:
//
//	minimize   w' Sigma w
//	subject to rets . w >= 1
//	           w >= 0 when short selling is not allowed
//
// There is no budget constraint; the return floor of 1 is an arbitrary
// normalizing constant and the solution is rescaled to sum to 1 afterward
func tangencyProblem(cov *dataframe.Matrix, rets *dataframe.Vector, allowShort bool) *qp.Problem {
	n := cov.Dim()

	prob := &qp.Problem{
		P: cov.Dense(),
		Q: mat.NewVecDense(n, nil),
	}

	prob.G, prob.H = returnFloor(rets, 1.0, allowShort)
	return prob
}

// returnFloor builds the inequality block enforcing rets . w >= floor.
// When short selling is not allowed a negated identity block enforcing
// w >= 0 is stacked below the return row
func returnFloor(rets *dataframe.Vector, floor float64, allowShort bool) (*mat.Dense, *mat.VecDense) {
	n := rets.Len()

	if allowShort {
		g := mat.NewDense(1, n, nil)
		for j := 0; j < n; j++ {
			g.Set(0, j, -rets.Vals[j])
		}
		return g, mat.NewVecDense(1, []float64{-floor})
	}

	g := mat.NewDense(n+1, n, nil)
	h := mat.NewVecDense(n+1, nil)
	for j := 0; j < n; j++ {
		g.Set(0, j, -rets.Vals[j])
		g.Set(j+1, j, -1.0)
	}
	h.SetVec(0, -floor)
	return g, h
}

func ones(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, 1.0)
		}
	}
	return m
}

func negIdentity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, -1.0)
	}
	return m
}
