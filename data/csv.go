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

package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// ParseReturnsCSV parses a wide returns file into a frame. The first
// column holds dates formatted 2006-01-02 and every other column holds
// the daily returns of one asset. Empty cells become NaN. Rows may
// appear in any order; the frame is always sorted by date
func ParseReturnsCSV(raw []byte) (*dataframe.DataFrame, error) {
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		log.Error().Err(err).Msg("could not parse returns csv")
		return nil, ErrMalformedCSV
	}

	if len(records) < 2 || len(records[0]) < 2 {
		log.Error().Int("NumRecords", len(records)).Msg("returns csv needs a header row, a date column and at least one asset column")
		return nil, ErrMalformedCSV
	}

	header := records[0]
	colNames := make([]string, len(header)-1)
	copy(colNames, header[1:])

	type observation struct {
		date time.Time
		vals []float64
	}

	observations := make([]observation, 0, len(records)-1)
	for _, record := range records[1:] {
		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			log.Error().Err(err).Str("Val", record[0]).Msg("could not parse date in returns csv")
			return nil, ErrMalformedCSV
		}

		vals := make([]float64, len(colNames))
		for idx, field := range record[1:] {
			if field == "" {
				vals[idx] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				log.Error().Err(err).Str("Val", field).Msg("could not parse return in returns csv")
				return nil, ErrMalformedCSV
			}
			vals[idx] = v
		}

		observations = append(observations, observation{date: date, vals: vals})
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].date.Before(observations[j].date)
	})

	df := &dataframe.DataFrame{ColNames: colNames}
	for idx, obs := range observations {
		if idx > 0 && obs.date.Equal(observations[idx-1].date) {
			log.Error().Time("Date", obs.date).Msg("duplicate date in returns csv")
			return nil, ErrMalformedCSV
		}
		df.InsertRow(obs.date, obs.vals...)
	}

	return df, nil
}

// ReturnsFromCSV loads a wide returns file from disk
func ReturnsFromCSV(fn string) (*dataframe.DataFrame, error) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not read returns file")
		return nil, err
	}

	return ParseReturnsCSV(raw)
}

// ReturnsFromURL downloads a wide returns file over http(s)
func ReturnsFromURL(ctx context.Context, url string) (*dataframe.DataFrame, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.ReturnsFromURL")
	defer span.End()

	subLog := log.With().Str("Url", url).Logger()

	resp, err := http.Get(url)
	if err != nil {
		span.RecordError(err)
		msg := "returns http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := "returns host returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg(msg)
		return nil, ErrInvalidStatusCode
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read returns body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	return ParseReturnsCSV(raw)
}
