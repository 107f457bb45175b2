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

// Package data loads asset return histories from the eod_returns store
// or from csv files and shapes them into dated frames ready for
// statistics estimation
package data

import (
	"context"
	"sort"
	"time"

	"github.com/penny-vault/pv-optimize/data/database"
	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// Returns loads daily returns for the requested tickers between begin and
// end (inclusive) and pivots them into a frame with one column per
// ticker. Days where a ticker has no observation hold NaN; callers
// typically drop those rows before estimating statistics
func Returns(ctx context.Context, tickers []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.Returns")
	defer span.End()

	subLog := log.With().Strs("Tickers", tickers).Time("Begin", begin).Time("End", end).Logger()

	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}

	if end.Before(begin) {
		subLog.Warn().Stack().Msg("end before begin in call to Returns")
		return nil, ErrInvalidTimeRange
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction when querying returns")
		return nil, err
	}

	sql := "SELECT event_date, ticker, ret FROM eod_returns WHERE ticker = ANY($1) AND event_date BETWEEN $2 AND $3 ORDER BY event_date"
	rows, err := trx.Query(ctx, sql, tickers, begin, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		subLog.Error().Stack().Err(err).Msg("could not query returns")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	samples := make(map[time.Time]map[string]float64)
	for rows.Next() {
		var (
			eventDate time.Time
			ticker    string
			ret       float64
		)
		if err := rows.Scan(&eventDate, &ticker, &ret); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			subLog.Error().Stack().Err(err).Msg("could not scan return row")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		day, ok := samples[eventDate]
		if !ok {
			day = make(map[string]float64, len(tickers))
			samples[eventDate] = day
		}
		day[ticker] = ret
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query read failed")
		subLog.Error().Stack().Err(err).Msg("could not read return rows")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not commit transaction")
	}

	if len(samples) == 0 {
		subLog.Warn().Msg("no return observations in range")
		return nil, ErrNoObservations
	}

	dates := make([]time.Time, 0, len(samples))
	for dt := range samples {
		dates = append(dates, dt)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	colNames := make([]string, len(tickers))
	copy(colNames, tickers)

	df := &dataframe.DataFrame{ColNames: colNames}
	for _, dt := range dates {
		df.InsertMap(dt, samples[dt])
	}

	return df, nil
}
