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

// Package portfolio computes asset allocation weights from return
// statistics. Each objective translates a covariance matrix and expected
// return vector into a standard-form quadratic program whose solution is
// post-processed into a labeled weight vector
package portfolio

import (
	"math"

	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/qp"
)

// Optimizer computes portfolio weights. The zero value is not usable;
// construct with NewOptimizer
type Optimizer struct {
	solver qp.Solver
}

// NewOptimizer creates an optimizer backed by the given solver. Passing
// nil selects the interior-point solver with default settings
func NewOptimizer(solver qp.Solver) *Optimizer {
	if solver == nil {
		solver = qp.NewInteriorPoint(qp.DefaultConfig())
	}
	return &Optimizer{solver: solver}
}

// MinimumVariance computes the fully invested portfolio with the lowest
// variance. When allowShort is false no weight may be negative
func (opt *Optimizer) MinimumVariance(cov *dataframe.Matrix, allowShort bool) (*Weights, error) {
	if err := ValidateInputs(cov, nil); err != nil {
		return nil, err
	}

	prob := minVarProblem(cov, allowShort)
	return opt.solve(prob, cov.Assets, nil)
}

// Markowitz computes the minimum variance portfolio whose expected return
// is at least targetRet. A market neutral portfolio nets to zero instead
// of summing to one; requesting one without allowShort enables shorting
// and attaches an advisory because weights cannot net to zero otherwise
func (opt *Optimizer) Markowitz(cov *dataframe.Matrix, rets *dataframe.Vector, targetRet float64, allowShort, marketNeutral bool) (*Weights, error) {
	if rets == nil {
		return nil, ErrExpectedReturnsMalformed
	}
	if err := ValidateInputs(cov, rets); err != nil {
		return nil, err
	}

	if math.IsNaN(targetRet) || math.IsInf(targetRet, 0) {
		return nil, ErrTargetReturnMalformed
	}

	var advisories []Advisory
	if marketNeutral && !allowShort {
		advisories = append(advisories, AdvisoryShortingCoerced)
		allowShort = true
	}

	prob := markowitzProblem(cov, rets, targetRet, allowShort, marketNeutral)
	return opt.solve(prob, cov.Assets, advisories)
}

// Tangency computes the portfolio with the highest Sharpe ratio. The
// program is solved without a budget constraint against an arbitrary
// return floor and the solution rescaled to sum to one
func (opt *Optimizer) Tangency(cov *dataframe.Matrix, rets *dataframe.Vector, allowShort bool) (*Weights, error) {
	if rets == nil {
		return nil, ErrExpectedReturnsMalformed
	}
	if err := ValidateInputs(cov, rets); err != nil {
		return nil, err
	}

	prob := tangencyProblem(cov, rets, allowShort)
	weights, err := opt.solve(prob, cov.Assets, nil)
	if err != nil {
		return nil, err
	}

	return weights.Rescale()
}

// MaxReturn computes the portfolio that maximizes expected return with no
// regard for variance. The solution is closed form: equal weight across
// every asset whose expected return exactly ties the maximum, zero
// elsewhere
func (opt *Optimizer) MaxReturn(rets *dataframe.Vector) (*Weights, error) {
	if err := validateReturns(rets); err != nil {
		return nil, err
	}

	max := rets.Vals[0]
	for _, v := range rets.Vals[1:] {
		if v > max {
			max = v
		}
	}

	assets := make([]string, len(rets.Assets))
	copy(assets, rets.Assets)

	vals := make([]float64, len(rets.Vals))
	for idx, v := range rets.Vals {
		if v == max {
			vals[idx] = 1.0
		}
	}

	weights := &Weights{Vector: &dataframe.Vector{Assets: assets, Vals: vals}}
	return weights.Rescale()
}

func (opt *Optimizer) solve(prob *qp.Problem, assets []string, advisories []Advisory) (*Weights, error) {
	res, err := opt.solver.Solve(prob)
	if err != nil {
		return nil, err
	}

	if res.Status != qp.StatusOptimal {
		advisories = append(advisories, AdvisoryConvergence)
	}

	labels := make([]string, len(assets))
	copy(labels, assets)

	return &Weights{
		Vector:     &dataframe.Vector{Assets: labels, Vals: res.X},
		Advisories: advisories,
	}, nil
}
