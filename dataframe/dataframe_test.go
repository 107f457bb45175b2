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

package dataframe_test

import (
	"math"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-optimize/dataframe"
)

var _ = Describe("DataFrame", func() {
	Context("with no values", func() {
		var df *dataframe.DataFrame

		BeforeEach(func() {
			df = &dataframe.DataFrame{}
		})

		It("has zero length", func() {
			Expect(df.Len()).To(Equal(0))
		})

		It("has zero columns", func() {
			Expect(df.ColCount()).To(Equal(0))
		})

		It("has a zero start and end date", func() {
			Expect(df.Start()).To(Equal(time.Time{}))
			Expect(df.End()).To(Equal(time.Time{}))
		})

		It("renders a placeholder table", func() {
			Expect(df.Table()).To(Equal("<NO DATA>"))
		})
	})

	Context("with a 4x2 dataframe", func() {
		var df *dataframe.DataFrame

		BeforeEach(func() {
			df = &dataframe.DataFrame{
				Dates: []time.Time{
					time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 6, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 7, 0, 0, 0, 0, time.UTC),
				},
				ColNames: []string{"VFINX", "PRIDX"},
				Vals: [][]float64{
					{1.0, 2.0, 3.0, 4.0},
					{5.0, 6.0, 7.0, 8.0},
				},
			}
		})

		It("knows its shape", func() {
			Expect(df.Len()).To(Equal(4))
			Expect(df.ColCount()).To(Equal(2))
		})

		It("finds columns by name", func() {
			Expect(df.ColIndex("PRIDX")).To(Equal(1))
			Expect(df.ColIndex("missing")).To(Equal(-1))
		})

		It("reports its date range", func() {
			Expect(df.Start()).To(Equal(time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC)))
			Expect(df.End()).To(Equal(time.Date(2021, time.January, 7, 0, 0, 0, 0, time.UTC)))
		})

		It("copies without sharing values", func() {
			df2 := df.Copy()
			df2.Vals[0][0] = 99.0
			Expect(df.Vals[0][0]).To(Equal(1.0))
			Expect(df2.ColNames).To(Equal(df.ColNames))
			Expect(df2.Dates).To(Equal(df.Dates))
		})

		It("renders a table with each column", func() {
			rendered := df.Table()
			Expect(strings.Contains(rendered, "VFINX")).To(BeTrue())
			Expect(strings.Contains(rendered, "PRIDX")).To(BeTrue())
			Expect(strings.Contains(rendered, "2021-01-04")).To(BeTrue())
			Expect(strings.Contains(rendered, "3.0000")).To(BeTrue())
		})

		Context("when trimming", func() {
			It("keeps rows inside the range", func() {
				df2 := df.Trim(
					time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 6, 0, 0, 0, 0, time.UTC))
				Expect(df2.Len()).To(Equal(2))
				Expect(df2.Vals[0]).To(Equal([]float64{2.0, 3.0}))
				Expect(df2.Vals[1]).To(Equal([]float64{6.0, 7.0}))
			})

			It("is inclusive of both endpoints", func() {
				df2 := df.Trim(
					time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 7, 0, 0, 0, 0, time.UTC))
				Expect(df2.Len()).To(Equal(4))
			})

			It("excludes dates after the end date even when the end date is absent", func() {
				df2 := df.Trim(
					time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 6, 12, 0, 0, 0, time.UTC))
				Expect(df2.Len()).To(Equal(3))
			})

			It("returns an empty frame for an inverted range", func() {
				df2 := df.Trim(
					time.Date(2021, time.January, 7, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC))
				Expect(df2.Len()).To(Equal(0))
			})

			It("returns an empty frame when the range is fully before the data", func() {
				df2 := df.Trim(
					time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC))
				Expect(df2.Len()).To(Equal(0))
			})

			It("does not modify the original frame", func() {
				_ = df.Trim(
					time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 6, 0, 0, 0, 0, time.UTC))
				Expect(df.Len()).To(Equal(4))
				Expect(df.Vals[0]).To(Equal([]float64{1.0, 2.0, 3.0, 4.0}))
			})
		})

		Context("when dropping values", func() {
			It("removes rows containing NaN", func() {
				df.Vals[1][2] = math.NaN()
				df.Drop(math.NaN())
				Expect(df.Len()).To(Equal(3))
				Expect(df.Vals[0]).To(Equal([]float64{1.0, 2.0, 4.0}))
				Expect(df.Dates).To(Equal([]time.Time{
					time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.January, 7, 0, 0, 0, 0, time.UTC),
				}))
			})

			It("removes rows containing a specific value", func() {
				df.Drop(6.0)
				Expect(df.Len()).To(Equal(3))
				Expect(df.Vals[0]).To(Equal([]float64{1.0, 3.0, 4.0}))
			})
		})
	})

	Context("when inserting rows", func() {
		var df *dataframe.DataFrame

		BeforeEach(func() {
			df = &dataframe.DataFrame{
				ColNames: []string{"VFINX", "PRIDX"},
			}
		})

		It("appends rows in order", func() {
			df.InsertRow(time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC), 1.0, 5.0)
			df.InsertRow(time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC), 2.0, 6.0)
			Expect(df.Len()).To(Equal(2))
			Expect(df.Vals[0]).To(Equal([]float64{1.0, 2.0}))
			Expect(df.Vals[1]).To(Equal([]float64{5.0, 6.0}))
		})

		It("fills missing columns with NaN when inserting a map", func() {
			df.InsertMap(time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC), map[string]float64{
				"VFINX": 1.0,
			})
			Expect(df.Len()).To(Equal(1))
			Expect(df.Vals[0][0]).To(Equal(1.0))
			Expect(math.IsNaN(df.Vals[1][0])).To(BeTrue())
		})

		It("ignores extra columns when inserting a map", func() {
			df.InsertMap(time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC), map[string]float64{
				"VFINX": 1.0,
				"PRIDX": 5.0,
				"EXTRA": 9.0,
			})
			Expect(df.ColCount()).To(Equal(2))
			Expect(df.Vals[0][0]).To(Equal(1.0))
			Expect(df.Vals[1][0]).To(Equal(5.0))
		})
	})
})
