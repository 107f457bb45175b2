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

package router

import (
	"github.com/penny-vault/pv-optimize/handler"
	"github.com/penny-vault/pv-optimize/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/jwk"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App, jwksAutoRefresh *jwk.AutoRefresh, jwksURL string) {
	api := app.Group("/v1")
	api.Get("/", handler.Ping)

	// Objective registry
	objectives := api.Group("/objectives")
	objectives.Get("/", handler.ListObjectives)
	objectives.Get("/:shortcode", handler.GetObjective)

	// Portfolio optimization; authentication only applies when a JWKS
	// endpoint is configured
	portfolio := api.Group("/portfolio")
	if jwksURL != "" {
		portfolio.Use(middleware.PVAuth(jwksAutoRefresh, jwksURL))
	}
	portfolio.Post("/:shortcode", handler.OptimizePortfolio)
}
