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

package data_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/penny-vault/pv-optimize/data"
	"github.com/penny-vault/pv-optimize/data/database"
	"github.com/penny-vault/pv-optimize/pgxmockhelper"
)

var _ = Describe("Returns store", func() {
	var (
		ctx    context.Context
		dbPool pgxmock.PgxConnIface
		begin  time.Time
		end    time.Time
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)
		ctx = context.Background()
		begin = time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
		end = time.Date(2021, 1, 7, 23, 59, 59, 999999999, time.UTC)
	})

	It("pivots long rows into a wide frame", func() {
		pgxmockhelper.MockReturnsQuery(dbPool, "testdata/eod_returns.csv", begin, end)

		df, err := data.Returns(ctx, []string{"VFINX", "PRIDX"}, begin, end)
		Expect(err).To(BeNil())
		Expect(df.ColNames).To(Equal([]string{"VFINX", "PRIDX"}))
		Expect(df.Len()).To(Equal(4))
		Expect(df.Dates[0]).To(Equal(time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)))
		Expect(df.Dates[3]).To(Equal(time.Date(2021, 1, 7, 0, 0, 0, 0, time.UTC)))
		Expect(df.Vals[0]).To(Equal([]float64{0.01, -0.015, 0.02, 0.0}))
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("marks missing observations as NaN", func() {
		pgxmockhelper.MockReturnsQuery(dbPool, "testdata/eod_returns.csv", begin, end)

		df, err := data.Returns(ctx, []string{"VFINX", "PRIDX"}, begin, end)
		Expect(err).To(BeNil())
		Expect(df.Vals[1][0]).To(Equal(0.02))
		Expect(df.Vals[1][1]).To(Equal(0.005))
		Expect(math.IsNaN(df.Vals[1][2])).To(BeTrue())
		Expect(df.Vals[1][3]).To(Equal(-0.01))
	})

	It("drops incomplete rows before estimation", func() {
		pgxmockhelper.MockReturnsQuery(dbPool, "testdata/eod_returns.csv", begin, end)

		df, err := data.Returns(ctx, []string{"VFINX", "PRIDX"}, begin, end)
		Expect(err).To(BeNil())

		complete := df.Drop(math.NaN())
		Expect(complete.Len()).To(Equal(3))
		Expect(complete.Vals[0]).To(Equal([]float64{0.01, -0.015, 0.0}))
	})

	It("restricts observations to the requested range", func() {
		rangeBegin := time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC)
		pgxmockhelper.MockReturnsQuery(dbPool, "testdata/eod_returns.csv", rangeBegin, end)

		df, err := data.Returns(ctx, []string{"VFINX", "PRIDX"}, rangeBegin, end)
		Expect(err).To(BeNil())
		Expect(df.Len()).To(Equal(3))
		Expect(df.Vals[0]).To(Equal([]float64{-0.015, 0.02, 0.0}))
	})

	It("fails when no tickers are requested", func() {
		_, err := data.Returns(ctx, []string{}, begin, end)
		Expect(err).To(MatchError(data.ErrNoTickers))
	})

	It("fails when the range is inverted", func() {
		_, err := data.Returns(ctx, []string{"VFINX"}, end, begin)
		Expect(err).To(MatchError(data.ErrInvalidTimeRange))
	})

	It("fails when the range holds no observations", func() {
		emptyBegin := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
		emptyEnd := time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)
		pgxmockhelper.MockReturnsQuery(dbPool, "testdata/eod_returns.csv", emptyBegin, emptyEnd)

		_, err := data.Returns(ctx, []string{"VFINX", "PRIDX"}, emptyBegin, emptyEnd)
		Expect(err).To(MatchError(data.ErrNoObservations))
	})

	It("propagates query errors", func() {
		queryErr := errors.New("relation eod_returns does not exist")
		pgxmockhelper.MockReturnsQueryError(dbPool, queryErr)

		_, err := data.Returns(ctx, []string{"VFINX", "PRIDX"}, begin, end)
		Expect(err).To(MatchError(queryErr))
	})

	It("fails when the pool is not connected", func() {
		database.SetPool(nil)
		_, err := data.Returns(ctx, []string{"VFINX"}, begin, end)
		Expect(err).To(MatchError(database.ErrNotConnected))
	})
})
