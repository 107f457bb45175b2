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
	"encoding/hex"
	"runtime/debug"

	"github.com/penny-vault/pv-optimize/common"
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/objectives"
	"github.com/penny-vault/pv-optimize/observability/opentelemetry"
	"github.com/penny-vault/pv-optimize/portfolio"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
)

// OptimizeRequest is the body of a portfolio optimization call. Covariance
// is row major; both it and ExpectedReturns are labeled by Assets
type OptimizeRequest struct {
	Assets          []string                   `json:"assets"`
	Covariance      [][]float64                `json:"covariance"`
	ExpectedReturns []float64                  `json:"expectedReturns"`
	Arguments       map[string]json.RawMessage `json:"arguments"`
	MinWeight       float64                    `json:"minWeight"`
	Rescale         bool                       `json:"rescale"`
}

type OptimizeResponse struct {
	Objective  string               `json:"objective"`
	Assets     []string             `json:"assets"`
	Weights    []float64            `json:"weights"`
	Advisories []portfolio.Advisory `json:"advisories,omitempty"`
	Metrics    *portfolio.Metrics   `json:"metrics,omitempty"`
}

// OptimizePortfolio computes portfolio weights for the requested objective
func OptimizePortfolio(c *fiber.Ctx) (resp error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.OptimizePortfolio")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	shortcode := c.Params("shortcode")
	if _, ok := objectives.ObjectiveMap[shortcode]; !ok {
		return fiber.ErrNotFound
	}

	defer func() {
		if err := recover(); err != nil {
			log.Error().Str("Shortcode", shortcode).Msgf("caught panic in optimize handler: %v", err)
			debug.PrintStack()
			resp = fiber.ErrInternalServerError
		}
	}()

	var req OptimizeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Str("Shortcode", shortcode).Msg("could not unmarshal optimize request")
		return fiber.ErrBadRequest
	}

	cacheKey, err := requestDigest(shortcode, &req)
	if err != nil {
		log.Warn().Err(err).Msg("could not compute request digest; skipping cache")
	} else if cached, _ := common.CacheGet(cacheKey); len(cached) > 0 {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(cached)
	}

	var cov *dataframe.Matrix
	if len(req.Covariance) > 0 {
		cov = &dataframe.Matrix{
			Assets: req.Assets,
			Vals:   req.Covariance,
		}
	}

	var rets *dataframe.Vector
	if len(req.ExpectedReturns) > 0 {
		rets = &dataframe.Vector{
			Assets: req.Assets,
			Vals:   req.ExpectedReturns,
		}
	}

	obj, err := objectives.Build(shortcode, req.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("Shortcode", shortcode).Msg("could not build objective")
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	weights, err := obj.Compute(ctx, cov, rets)
	if err != nil {
		log.Warn().Err(err).Str("Shortcode", shortcode).Msg("optimization failed")
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	if req.MinWeight > 0 || req.Rescale {
		weights, err = weights.Truncate(req.MinWeight, req.Rescale)
		if err != nil {
			log.Warn().Err(err).Str("Shortcode", shortcode).Msg("truncation failed")
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
	}

	response := OptimizeResponse{
		Objective:  shortcode,
		Assets:     weights.Assets,
		Weights:    weights.Vals,
		Advisories: weights.Advisories,
	}

	if cov != nil && rets != nil {
		metrics, err := weights.Metrics(cov, rets)
		if err != nil {
			log.Debug().Err(err).Str("Shortcode", shortcode).Msg("could not compute portfolio metrics")
		} else {
			response.Metrics = metrics
		}
	}

	serialized, err := json.Marshal(response)
	if err != nil {
		log.Error().Err(err).Str("Shortcode", shortcode).Msg("serialization failed for optimize response")
		return fiber.ErrInternalServerError
	}

	if cacheKey != "" {
		if err := common.CacheSet(cacheKey, serialized); err != nil {
			log.Warn().Err(err).Str("CacheKey", cacheKey).Msg("caching failed for optimize response")
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(serialized)
}

// requestDigest computes a stable cache key covering the objective shortcode
// and every field of the request. The request is re-marshaled before hashing
// so formatting differences in the submitted body do not defeat the cache
func requestDigest(shortcode string, req *OptimizeRequest) (string, error) {
	normalized, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	h := blake3.New()
	if _, err := h.Write([]byte(shortcode)); err != nil {
		return "", err
	}
	if _, err := h.Write(normalized); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
