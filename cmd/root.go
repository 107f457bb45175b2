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
	"fmt"
	"os"

	"github.com/penny-vault/pv-optimize/pkginfo"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Database
	if err := viper.BindEnv("database.url", "DATABASE_URL"); err != nil {
		log.Panic().Err(err).Msg("could not bind database.url")
	}
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	if err := viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url")); err != nil {
		log.Panic().Err(err).Msg("could not bind database.url")
	}

	// Logging configuration
	if err := viper.BindEnv("log.level", "PV_LOG_LEVEL"); err != nil {
		log.Panic().Err(err).Msg("could not bind log.level")
	}
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.level")
	}

	if err := viper.BindEnv("log.output", "PV_LOG_OUTPUT"); err != nil {
		log.Panic().Err(err).Msg("could not bind log.output")
	}
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	if err := viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.output")
	}

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	if err := viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.report_caller")
	}

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print colorized logs for humans")
	if err := viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.pretty")
	}

	// Tracing
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP trace collector endpoint; tracing disabled when blank")
	if err := viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint")); err != nil {
		log.Panic().Err(err).Msg("could not bind otlp.endpoint")
	}

	// Result cache
	viper.SetDefault("cache.local_size", 1000)
	viper.SetDefault("cache.ttl", 3600)

	// NATS queue
	viper.SetDefault("nats.server", "nats://127.0.0.1:4222")
	viper.SetDefault("nats.requests_subject", "pvopt.requests")
	viper.SetDefault("nats.requests_consumer", "pvopt-worker")
	viper.SetDefault("nats.weights_subject", "pvopt.weights")
}

var rootCmd = &cobra.Command{
	Use:     "pvopt",
	Version: "v" + pkginfo.Version,
	Short:   "pvopt computes optimal portfolio weights",
	Long: `A portfolio construction toolkit that computes asset weights with convex
optimization. Supports minimum variance, Markowitz mean/variance, tangency
(maximum Sharpe ratio), and maximum return objectives over historical returns.`,
}

// Execute runs the requested command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
