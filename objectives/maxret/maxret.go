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
 * Max Return v1.0
 * https://en.wikipedia.org/wiki/Modern_portfolio_theory
 *
 * Chases expected return with no regard for risk. The answer is closed
 * form: put everything in the asset with the highest expected return,
 * splitting equally when several assets tie exactly. Mostly useful as an
 * upper bound when comparing objectives.
 */

package maxret

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/objectives/objective"
	"github.com/penny-vault/pv-optimize/observability/opentelemetry"
	"github.com/penny-vault/pv-optimize/portfolio"
	"go.opentelemetry.io/otel"
)

type MaxReturn struct {
	optimizer *portfolio.Optimizer
}

// New Construct a new Max Return objective
func New(_ map[string]json.RawMessage) (objective.Objective, error) {
	var maxRet objective.Objective = &MaxReturn{
		optimizer: portfolio.NewOptimizer(nil),
	}

	return maxRet, nil
}

func (mr *MaxReturn) Compute(ctx context.Context, _ *dataframe.Matrix, rets *dataframe.Vector) (*portfolio.Weights, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "maxret.Compute")
	defer span.End()

	return mr.optimizer.MaxReturn(rets)
}
