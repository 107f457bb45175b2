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
	"math"

	"github.com/penny-vault/pv-optimize/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Metrics summarizes a weight vector against the statistics it was
// optimized over. Values are in the periodicity of the input returns;
// no annualization is applied
type Metrics struct {
	ExpectedReturn float64 `json:"expectedReturn"`
	Variance       float64 `json:"variance"`
	StdDev         float64 `json:"stdDev"`
	Sharpe         float64 `json:"sharpe"`
}

// Metrics computes the expected return, variance, standard deviation and
// Sharpe ratio of the allocation under the given covariance matrix and
// expected returns. The risk-free rate is taken as zero; callers that
// want an excess-return Sharpe should subtract the rate from rets first
func (w *Weights) Metrics(cov *dataframe.Matrix, rets *dataframe.Vector) (*Metrics, error) {
	if rets == nil {
		return nil, ErrExpectedReturnsMalformed
	}
	if err := ValidateInputs(cov, rets); err != nil {
		return nil, err
	}

	if !w.AlignedWith(cov) {
		return nil, ErrIndicesDoNotMatch
	}

	wVec := w.Dense()
	variance := mat.Inner(wVec, cov.Dense(), wVec)
	stdDev := math.Sqrt(variance)
	expRet := floats.Dot(w.Vals, rets.Vals)

	return &Metrics{
		ExpectedReturn: expRet,
		Variance:       variance,
		StdDev:         stdDev,
		Sharpe:         expRet / stdDev,
	}, nil
}
