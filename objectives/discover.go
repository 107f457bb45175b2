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

// Package objectives is the registry of optimization objectives. Each
// objective lives in its own sub-package and carries an embedded toml
// file describing its shortcode and arguments plus a markdown long
// description
package objectives

import (
	"embed"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-optimize/objectives/markowitz"
	"github.com/penny-vault/pv-optimize/objectives/maxret"
	"github.com/penny-vault/pv-optimize/objectives/minvar"
	"github.com/penny-vault/pv-optimize/objectives/objective"
	"github.com/penny-vault/pv-optimize/objectives/tangency"
)

//go:embed **/*.md **/*.toml
var resources embed.FS

var ErrObjectiveNotFound = errors.New("objective not found")

// ObjectiveList List of all objectives
var ObjectiveList = []objective.ObjectiveInfo{}

// ObjectiveMap Map of objectives keyed by shortcode
var ObjectiveMap = make(map[string]*objective.ObjectiveInfo)

// InitializeObjectiveMap configure the objective map
func InitializeObjectiveMap() {
	Register("minvar", minvar.New)
	Register("markowitz", markowitz.New)
	Register("tangency", tangency.New)
	Register("maxret", maxret.New)
}

// Register loads the embedded metadata for the named objective package
// and adds it to the registry
func Register(objectivePkg string, factory objective.ObjectiveFactory) {
	fn := fmt.Sprintf("%s/description.md", objectivePkg)
	longDescription, err := resources.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("File", fn).Msg("failed to read description")
	}

	fn = fmt.Sprintf("%s/objective.toml", objectivePkg)
	doc, err := resources.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("File", fn).Msg("failed to read objective config")
	}

	var info objective.ObjectiveInfo
	if err := toml.Unmarshal(doc, &info); err != nil {
		log.Error().Err(err).Str("File", fn).Msg("failed to parse objective config")
	}

	info.LongDescription = string(longDescription)
	info.Factory = factory

	ObjectiveList = append(ObjectiveList, info)
	ObjectiveMap[info.Shortcode] = &info
}

// Build looks up an objective by shortcode and constructs it with the
// given arguments
func Build(shortcode string, args map[string]json.RawMessage) (objective.Objective, error) {
	info, ok := ObjectiveMap[shortcode]
	if !ok {
		return nil, ErrObjectiveNotFound
	}

	return info.Factory(args)
}
