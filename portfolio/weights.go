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
)

// Weights is a labeled allocation produced by an optimization objective.
// Advisories carry non-fatal warnings raised while computing the weights,
// e.g. that an assumption was adjusted or the solver did not fully
// converge
type Weights struct {
	*dataframe.Vector
	Advisories []Advisory
}

// Rescale divides every weight by their sum so the result sums to one.
// Weights that sum to zero (or to a non-finite value) cannot be rescaled
// and return ErrDegenerateResult
func (w *Weights) Rescale() (*Weights, error) {
	sum := w.Sum()
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, ErrDegenerateResult
	}

	vec := w.Vector.Copy()
	for idx := range vec.Vals {
		vec.Vals[idx] /= sum
	}

	return &Weights{Vector: vec, Advisories: copyAdvisories(w.Advisories)}, nil
}

// Truncate zeros every weight whose magnitude is below minWeight, removing
// dust positions that cost more to trade than they contribute. When
// rescale is true the surviving weights are renormalized to sum to one
func (w *Weights) Truncate(minWeight float64, rescale bool) (*Weights, error) {
	vec := w.Vector.Copy()
	for idx := range vec.Vals {
		if math.Abs(vec.Vals[idx]) < minWeight {
			vec.Vals[idx] = 0
		}
	}

	res := &Weights{Vector: vec, Advisories: copyAdvisories(w.Advisories)}
	if rescale {
		return res.Rescale()
	}

	return res, nil
}

func copyAdvisories(advisories []Advisory) []Advisory {
	if len(advisories) == 0 {
		return nil
	}

	res := make([]Advisory, len(advisories))
	copy(res, advisories)
	return res
}
