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

import "errors"

var (
	ErrCovarianceMalformed      = errors.New("covariance matrix malformed")
	ErrExpectedReturnsMalformed = errors.New("expected-returns malformed")
	ErrIndicesDoNotMatch        = errors.New("indices do not match")
	ErrTargetReturnMalformed    = errors.New("target-return malformed")
	ErrCovarianceNotPosDef      = errors.New("covariance matrix is not positive definite")
	ErrDegenerateResult         = errors.New("cannot rescale weights that sum to zero")
)

// Advisory flags a non-fatal condition attached to an otherwise usable
// result. Callers decide whether to surface or act on advisories
type Advisory string

const (
	// AdvisoryConvergence indicates the solver stopped before reaching an
	// optimal solution; the returned weights are the best available
	AdvisoryConvergence Advisory = "convergence problem"

	// AdvisoryShortingCoerced indicates a market neutral portfolio was
	// requested without allowing short positions; shorting was enabled
	// because weights cannot net to zero without it
	AdvisoryShortingCoerced Advisory = "market neutral portfolio implies shorting; allowing short positions"
)
