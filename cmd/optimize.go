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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pv-optimize/common"
	"github.com/penny-vault/pv-optimize/data"
	"github.com/penny-vault/pv-optimize/data/database"
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/objectives"
	"github.com/penny-vault/pv-optimize/portfolio"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	optimizeReturns       string
	optimizeTickers       string
	optimizeBegin         string
	optimizeEnd           string
	optimizeObjective     string
	optimizeTargetReturn  string
	optimizeAllowShort    bool
	optimizeMarketNeutral bool
	optimizeMinWeight     float64
	optimizeNoRescale     bool
	optimizeJSON          bool
)

func init() {
	optimizeCmd.Flags().StringVar(&optimizeReturns, "returns", "", "CSV file or URL with historical returns; a date column plus one column per asset")
	optimizeCmd.Flags().StringVar(&optimizeTickers, "tickers", "", "comma separated tickers to load from the returns database")
	optimizeCmd.Flags().StringVar(&optimizeBegin, "begin", "", "start of the observation window 2006-01-02")
	optimizeCmd.Flags().StringVar(&optimizeEnd, "end", "", "end of the observation window 2006-01-02")
	optimizeCmd.Flags().StringVarP(&optimizeObjective, "objective", "o", "minvar", "objective shortcode; one of minvar, markowitz, tangency, maxret")
	optimizeCmd.Flags().StringVar(&optimizeTargetReturn, "target-return", "q70", "markowitz target return; a float or a qNN percentile of the asset means")
	optimizeCmd.Flags().BoolVar(&optimizeAllowShort, "allow-short", false, "allow short positions")
	optimizeCmd.Flags().BoolVar(&optimizeMarketNeutral, "market-neutral", false, "construct a market neutral portfolio whose weights net to zero")
	optimizeCmd.Flags().Float64Var(&optimizeMinWeight, "min-weight", 0, "zero out weights with magnitude below this value")
	optimizeCmd.Flags().BoolVar(&optimizeNoRescale, "no-rescale", false, "do not rescale weights to sum to 1 after truncation")
	optimizeCmd.Flags().BoolVar(&optimizeJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(optimizeCmd)
}

type optimizeOutput struct {
	Objective  string               `json:"objective"`
	Assets     []string             `json:"assets"`
	Weights    []float64            `json:"weights"`
	Advisories []portfolio.Advisory `json:"advisories,omitempty"`
	Metrics    *portfolio.Metrics   `json:"metrics,omitempty"`
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compute optimal portfolio weights from historical returns",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		df, err := loadReturns(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load returns")
		}

		// estimate only over complete observations
		df = df.Drop(math.NaN())
		if df.Len() < 2 {
			log.Fatal().Int("NumRows", df.Len()).Msg("not enough observations to estimate expected returns and covariance")
		}

		rets := df.Means()
		cov := df.Covariance()

		objArgs := map[string]json.RawMessage{
			"allowShort": boolArg(optimizeAllowShort),
		}
		if optimizeObjective == "markowitz" {
			objArgs["marketNeutral"] = boolArg(optimizeMarketNeutral)

			target, err := resolveTargetReturn(rets)
			if err != nil {
				log.Fatal().Err(err).Str("TargetReturn", optimizeTargetReturn).Msg("could not resolve target return")
			}
			objArgs["targetReturn"] = json.RawMessage(strconv.FormatFloat(target, 'g', -1, 64))
		}

		objectives.InitializeObjectiveMap()
		obj, err := objectives.Build(optimizeObjective, objArgs)
		if err != nil {
			log.Fatal().Err(err).Str("Objective", optimizeObjective).Msg("could not build objective")
		}

		weights, err := obj.Compute(ctx, cov, rets)
		if err != nil {
			log.Fatal().Err(err).Str("Objective", optimizeObjective).Msg("optimization failed")
		}

		if optimizeMinWeight > 0 {
			if weights, err = weights.Truncate(optimizeMinWeight, !optimizeNoRescale); err != nil {
				log.Fatal().Err(err).Float64("MinWeight", optimizeMinWeight).Msg("could not truncate weights")
			}
		}

		metrics, err := weights.Metrics(cov, rets)
		if err != nil {
			log.Warn().Err(err).Msg("could not compute portfolio metrics")
			metrics = nil
		}

		if optimizeJSON {
			printOptimizeJSON(weights, metrics)
			return
		}
		printOptimizeTable(weights, metrics)
	},
}

// loadReturns reads historical returns from a CSV file, a URL, or the
// returns database depending on which flags were provided
func loadReturns(ctx context.Context) (*dataframe.DataFrame, error) {
	switch {
	case optimizeReturns != "":
		var df *dataframe.DataFrame
		var err error
		if strings.HasPrefix(optimizeReturns, "http://") || strings.HasPrefix(optimizeReturns, "https://") {
			df, err = data.ReturnsFromURL(ctx, optimizeReturns)
		} else {
			df, err = data.ReturnsFromCSV(optimizeReturns)
		}
		if err != nil {
			return nil, err
		}
		if optimizeBegin != "" || optimizeEnd != "" {
			begin, end, err := observationWindow()
			if err != nil {
				return nil, err
			}
			df = df.Trim(begin, end)
		}
		return df, nil
	case optimizeTickers != "":
		begin, end, err := observationWindow()
		if err != nil {
			return nil, err
		}
		if err := database.Connect(ctx); err != nil {
			return nil, err
		}
		tickers := common.SplitTickers(optimizeTickers)
		common.ArrToUpper(tickers)
		return data.Returns(ctx, tickers, begin, end)
	}
	return nil, errors.New("one of --returns or --tickers is required")
}

func observationWindow() (time.Time, time.Time, error) {
	begin := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Now()

	var err error
	if optimizeBegin != "" {
		if begin, err = time.Parse("2006-01-02", optimizeBegin); err != nil {
			return begin, end, fmt.Errorf("could not parse begin date %q: %w", optimizeBegin, err)
		}
	}
	if optimizeEnd != "" {
		if end, err = time.Parse("2006-01-02", optimizeEnd); err != nil {
			return begin, end, fmt.Errorf("could not parse end date %q: %w", optimizeEnd, err)
		}
	}

	return begin, end, nil
}

// resolveTargetReturn interprets the target-return flag; qNN selects the
// NNth percentile of the asset expected returns, anything else must parse
// as a float
func resolveTargetReturn(rets *dataframe.Vector) (float64, error) {
	s := strings.TrimSpace(optimizeTargetReturn)
	if strings.HasPrefix(s, "q") {
		pct, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid target return %q: %w", s, err)
		}
		if pct < 0 || pct > 100 {
			return 0, fmt.Errorf("target return percentile out of range: %s", s)
		}
		return rets.Quantile(pct / 100), nil
	}
	return strconv.ParseFloat(s, 64)
}

func boolArg(v bool) json.RawMessage {
	return json.RawMessage(strconv.FormatBool(v))
}

func printOptimizeJSON(weights *portfolio.Weights, metrics *portfolio.Metrics) {
	out := optimizeOutput{
		Objective:  optimizeObjective,
		Assets:     weights.Assets,
		Weights:    weights.Vals,
		Advisories: weights.Advisories,
		Metrics:    metrics,
	}

	serialized, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("could not serialize results")
	}
	fmt.Println(string(serialized))
}

func printOptimizeTable(weights *portfolio.Weights, metrics *portfolio.Metrics) {
	fmt.Println(weights.Table())

	for _, advisory := range weights.Advisories {
		fmt.Printf("NOTE: %s\n", advisory)
	}

	if metrics != nil {
		fmt.Printf("Expected Return: %8.4f\n", metrics.ExpectedReturn)
		fmt.Printf("Variance:        %8.4f\n", metrics.Variance)
		fmt.Printf("Std Dev:         %8.4f\n", metrics.StdDev)
		fmt.Printf("Sharpe Ratio:    %8.4f\n", metrics.Sharpe)
	}
}
