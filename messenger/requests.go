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

package messenger

import (
	"errors"
	"time"

	"github.com/penny-vault/pv-optimize/portfolio"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// OptimizationRequest asks the worker to compute portfolio weights for the
// named tickers over the begin/end date range (2006-01-02 format)
type OptimizationRequest struct {
	RequestID   string                     `json:"request_id"`
	Tickers     []string                   `json:"tickers"`
	Begin       string                     `json:"begin"`
	End         string                     `json:"end"`
	Objective   string                     `json:"objective"`
	Arguments   map[string]json.RawMessage `json:"arguments"`
	RequestTime string                     `json:"request_time"`
}

// OptimizationResult carries computed weights back to the requester
type OptimizationResult struct {
	RequestID  string               `json:"request_id"`
	Objective  string               `json:"objective"`
	Assets     []string             `json:"assets"`
	Weights    []float64            `json:"weights"`
	Advisories []portfolio.Advisory `json:"advisories,omitempty"`
	Metrics    *portfolio.Metrics   `json:"metrics,omitempty"`
	Error      string               `json:"error,omitempty"`
	ComputedAt string               `json:"computed_at"`
}

// GetOptimizationRequest returns a single optimization request message; a
// nil message with nil error means the queue is currently empty
func GetOptimizationRequest() (*nats.Msg, error) {
	sub, err := jetStream.PullSubscribe(viper.GetString("nats.requests_subject"), viper.GetString("nats.requests_consumer"))
	if err != nil {
		log.Error().Err(err).Msg("could not connect to durable consumer (note: make sure the consumer already exists)")
		return nil, err
	}

	msgs, err := sub.Fetch(1)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			log.Info().Msg("no optimization requests in queue")
			return nil, nil
		}
		log.Error().Err(err).Msg("could not fetch new messages")
		return nil, err
	}

	if len(msgs) == 0 {
		log.Info().Msg("no optimization requests in queue")
		return nil, nil
	}

	return msgs[0], nil
}

// CreateOptimizationRequest publishes a request to the requests subject,
// assigning a request id if the caller did not provide one
func CreateOptimizationRequest(req *OptimizationRequest) (string, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	req.RequestTime = time.Now().Format(time.RFC3339)

	jsonReq, err := json.Marshal(req)
	if err != nil {
		log.Error().Err(err).Msg("could not serialize request to JSON")
		return "", err
	}

	if _, err := jetStream.Publish(viper.GetString("nats.requests_subject"), jsonReq); err != nil {
		log.Error().Err(err).Msg("could not publish an optimization request")
		return "", err
	}

	return req.RequestID, nil
}

// PublishWeights publishes an optimization result to the weights subject
func PublishWeights(result *OptimizationResult) error {
	result.ComputedAt = time.Now().Format(time.RFC3339)

	jsonResult, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("RequestID", result.RequestID).Msg("could not serialize result to JSON")
		return err
	}

	if _, err := jetStream.Publish(viper.GetString("nats.weights_subject"), jsonResult); err != nil {
		log.Error().Err(err).Str("RequestID", result.RequestID).Msg("could not publish optimization weights")
		return err
	}

	return nil
}
