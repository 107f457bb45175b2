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

/*
 * Markowitz v1.0
 * https://en.wikipedia.org/wiki/Markowitz_model
 *
 * Harry Markowitz's classic mean-variance program: minimize portfolio
 * variance subject to the expected return meeting a target. When no
 * target is given the 70th percentile of the expected returns is used,
 * which keeps the constraint binding without making it unattainable.
 * The market neutral variant nets the portfolio to zero instead of
 * fully investing it.
 */

package markowitz

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/objectives/objective"
	"github.com/penny-vault/pv-optimize/observability/opentelemetry"
	"github.com/penny-vault/pv-optimize/portfolio"
	"go.opentelemetry.io/otel"
)

const defaultTargetQuantile = 0.7

type Markowitz struct {
	allowShort    bool
	marketNeutral bool
	targetReturn  float64
	hasTarget     bool
	optimizer     *portfolio.Optimizer
}

// New Construct a new Markowitz objective
func New(args map[string]json.RawMessage) (objective.Objective, error) {
	markowitz := &Markowitz{
		optimizer: portfolio.NewOptimizer(nil),
	}

	if raw, ok := args["allowShort"]; ok {
		if err := json.Unmarshal(raw, &markowitz.allowShort); err != nil {
			return nil, err
		}
	}

	if raw, ok := args["marketNeutral"]; ok {
		if err := json.Unmarshal(raw, &markowitz.marketNeutral); err != nil {
			return nil, err
		}
	}

	if raw, ok := args["targetReturn"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &markowitz.targetReturn); err != nil {
			return nil, err
		}
		markowitz.hasTarget = true
	}

	return markowitz, nil
}

func (m *Markowitz) Compute(ctx context.Context, cov *dataframe.Matrix, rets *dataframe.Vector) (*portfolio.Weights, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "markowitz.Compute")
	defer span.End()

	targetReturn := m.targetReturn
	if !m.hasTarget {
		if rets == nil {
			return nil, portfolio.ErrExpectedReturnsMalformed
		}
		targetReturn = rets.Quantile(defaultTargetQuantile)
	}

	return m.optimizer.Markowitz(cov, rets, targetReturn, m.allowShort, m.marketNeutral)
}
