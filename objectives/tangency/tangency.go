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
 * Tangency v1.0
 * https://en.wikipedia.org/wiki/Capital_market_line
 *
 * Finds the portfolio on the efficient frontier with the highest Sharpe
 * ratio, i.e. the point where the capital market line touches the
 * frontier. Investors who can lend or borrow at the risk free rate hold
 * this portfolio regardless of their risk appetite.
 */

package tangency

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/objectives/objective"
	"github.com/penny-vault/pv-optimize/observability/opentelemetry"
	"github.com/penny-vault/pv-optimize/portfolio"
	"go.opentelemetry.io/otel"
)

type Tangency struct {
	allowShort bool
	optimizer  *portfolio.Optimizer
}

// New Construct a new Tangency objective
func New(args map[string]json.RawMessage) (objective.Objective, error) {
	var allowShort bool
	if raw, ok := args["allowShort"]; ok {
		if err := json.Unmarshal(raw, &allowShort); err != nil {
			return nil, err
		}
	}

	var tangency objective.Objective = &Tangency{
		allowShort: allowShort,
		optimizer:  portfolio.NewOptimizer(nil),
	}

	return tangency, nil
}

func (t *Tangency) Compute(ctx context.Context, cov *dataframe.Matrix, rets *dataframe.Vector) (*portfolio.Weights, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tangency.Compute")
	defer span.End()

	return t.optimizer.Tangency(cov, rets, t.allowShort)
}
