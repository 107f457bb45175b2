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

package objective

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/portfolio"
)

// ObjectiveFactory factory method to create an objective from request
// arguments
type ObjectiveFactory func(map[string]json.RawMessage) (Objective, error)

// Argument an argument to an objective
type Argument struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Typecode    string   `json:"typecode"`
	Default     string   `json:"default"`
	Advanced    bool     `json:"advanced"`
	Options     []string `json:"options"`
}

// ObjectiveInfo information about an optimization objective
type ObjectiveInfo struct {
	Name            string              `json:"name"`
	Shortcode       string              `json:"shortcode"`
	Description     string              `json:"description"`
	LongDescription string              `json:"longDescription"`
	Source          string              `json:"source"`
	Version         string              `json:"version"`
	Arguments       map[string]Argument `json:"arguments"`
	Factory         ObjectiveFactory    `json:"-"`
}

// Objective computes portfolio weights from return statistics
type Objective interface {
	Compute(ctx context.Context, cov *dataframe.Matrix, rets *dataframe.Vector) (*portfolio.Weights, error)
}
