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
	"gonum.org/v1/gonum/mat"
)

// symmetryTol bounds the acceptable asymmetry in a covariance matrix;
// sample covariance estimators produce tiny asymmetries in floating point
const symmetryTol = 1e-8

// ValidateInputs checks a covariance matrix and, when non-nil, an
// expected-return vector before any program is formulated. The covariance
// matrix must be square, labeled, symmetric, and positive definite; the
// return vector must be labeled with the same assets in the same order
func ValidateInputs(cov *dataframe.Matrix, rets *dataframe.Vector) error {
	if err := validateCovariance(cov); err != nil {
		return err
	}

	if rets != nil {
		if err := validateReturns(rets); err != nil {
			return err
		}
		if !rets.AlignedWith(cov) {
			return ErrIndicesDoNotMatch
		}
	}

	return nil
}

func validateCovariance(cov *dataframe.Matrix) error {
	if cov == nil || cov.Dim() == 0 {
		return ErrCovarianceMalformed
	}

	if !cov.Square() {
		return ErrCovarianceMalformed
	}

	if hasDuplicates(cov.Assets) {
		return ErrCovarianceMalformed
	}

	// NaN entries are never symmetric so a covariance estimated from too
	// few observations also fails here
	if !cov.Symmetric(symmetryTol) {
		return ErrCovarianceMalformed
	}

	n := cov.Dim()
	sym := mat.NewSymDense(n, nil)
	for ii := 0; ii < n; ii++ {
		for jj := ii; jj < n; jj++ {
			sym.SetSym(ii, jj, cov.Vals[ii][jj])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return ErrCovarianceNotPosDef
	}

	return nil
}

func validateReturns(rets *dataframe.Vector) error {
	if rets == nil || rets.Len() == 0 {
		return ErrExpectedReturnsMalformed
	}

	if len(rets.Vals) != len(rets.Assets) {
		return ErrExpectedReturnsMalformed
	}

	if hasDuplicates(rets.Assets) {
		return ErrExpectedReturnsMalformed
	}

	for _, v := range rets.Vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrExpectedReturnsMalformed
		}
	}

	return nil
}

func hasDuplicates(assets []string) bool {
	seen := make(map[string]bool, len(assets))
	for _, asset := range assets {
		if seen[asset] {
			return true
		}
		seen[asset] = true
	}
	return false
}
