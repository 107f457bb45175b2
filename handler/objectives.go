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

package handler

import (
	"github.com/penny-vault/pv-optimize/objectives"

	"github.com/gofiber/fiber/v2"
)

// ListObjectives gets a list of all registered optimization objectives
func ListObjectives(c *fiber.Ctx) error {
	return c.JSON(objectives.ObjectiveList)
}

// GetObjective gets the configuration for a specific objective
func GetObjective(c *fiber.Ctx) error {
	shortcode := c.Params("shortcode")
	if obj, ok := objectives.ObjectiveMap[shortcode]; ok {
		return c.JSON(obj)
	}
	return fiber.ErrNotFound
}
