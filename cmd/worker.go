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

package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penny-vault/pv-optimize/common"
	"github.com/penny-vault/pv-optimize/data"
	"github.com/penny-vault/pv-optimize/data/database"
	"github.com/penny-vault/pv-optimize/messenger"
	"github.com/penny-vault/pv-optimize/objectives"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var workerOnce bool

func init() {
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "process pending requests and exit instead of polling")
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process portfolio optimization requests from the queue",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		// setup database
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		if err := messenger.Initialize(); err != nil {
			log.Fatal().Err(err).Msg("could not connect to NATS server")
		}

		objectives.InitializeObjectiveMap()

		// exit cleanly on interrupt
		halt := make(chan os.Signal, 1)
		signal.Notify(halt, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case sig := <-halt:
				log.Info().Str("Signal", sig.String()).Msg("received signal; shutting down")
				return
			default:
			}

			msg, err := messenger.GetOptimizationRequest()
			if err != nil {
				log.Error().Err(err).Msg("could not fetch optimization request")
				time.Sleep(5 * time.Second)
				continue
			}
			if msg == nil {
				if workerOnce {
					return
				}
				continue
			}

			processOptimizationRequest(ctx, msg)
		}
	},
}

func processOptimizationRequest(ctx context.Context, msg *nats.Msg) {
	var req messenger.OptimizationRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Error().Err(err).Msg("could not unmarshal optimization request; discarding")
		if err := msg.Ack(); err != nil {
			log.Error().Err(err).Msg("could not ack message")
		}
		return
	}

	subLog := log.With().Str("RequestID", req.RequestID).Str("Objective", req.Objective).Logger()
	subLog.Info().Strs("Tickers", req.Tickers).Msg("processing optimization request")

	result := computeOptimizationRequest(ctx, &req)
	if result.Error != "" {
		subLog.Warn().Str("Error", result.Error).Msg("optimization request failed")
	}

	if err := messenger.PublishWeights(result); err != nil {
		// leave the message unacked so it is redelivered
		subLog.Error().Err(err).Msg("could not publish result")
		return
	}

	if err := msg.Ack(); err != nil {
		subLog.Error().Err(err).Msg("could not ack message")
	}
}

func computeOptimizationRequest(ctx context.Context, req *messenger.OptimizationRequest) *messenger.OptimizationResult {
	result := &messenger.OptimizationResult{
		RequestID: req.RequestID,
		Objective: req.Objective,
	}

	begin := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Now()

	var err error
	if req.Begin != "" {
		if begin, err = time.Parse("2006-01-02", req.Begin); err != nil {
			result.Error = fmt.Sprintf("could not parse begin date %q: %s", req.Begin, err)
			return result
		}
	}
	if req.End != "" {
		if end, err = time.Parse("2006-01-02", req.End); err != nil {
			result.Error = fmt.Sprintf("could not parse end date %q: %s", req.End, err)
			return result
		}
	}

	tickers := make([]string, len(req.Tickers))
	copy(tickers, req.Tickers)
	common.ArrToUpper(tickers)

	df, err := data.Returns(ctx, tickers, begin, end)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	// estimate only over complete observations
	df = df.Drop(math.NaN())
	if df.Len() < 2 {
		result.Error = "not enough observations to estimate expected returns and covariance"
		return result
	}

	rets := df.Means()
	cov := df.Covariance()

	obj, err := objectives.Build(req.Objective, req.Arguments)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	weights, err := obj.Compute(ctx, cov, rets)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Assets = weights.Assets
	result.Weights = weights.Vals
	result.Advisories = weights.Advisories

	if metrics, err := weights.Metrics(cov, rets); err == nil {
		result.Metrics = metrics
	}

	return result
}
