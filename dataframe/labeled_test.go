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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-optimize/dataframe"
)

var _ = Describe("Matrix", func() {
	Context("with a symmetric 2x2 matrix", func() {
		var m *dataframe.Matrix

		BeforeEach(func() {
			m = &dataframe.Matrix{
				Assets: []string{"VFINX", "PRIDX"},
				Vals: [][]float64{
					{4.0, 1.0},
					{1.0, 9.0},
				},
			}
		})

		It("knows its dimension", func() {
			Expect(m.Dim()).To(Equal(2))
		})

		It("is square", func() {
			Expect(m.Square()).To(BeTrue())
		})

		It("is symmetric", func() {
			Expect(m.Symmetric(1e-8)).To(BeTrue())
		})

		It("copies without sharing values", func() {
			m2 := m.Copy()
			m2.Vals[0][0] = 99.0
			Expect(m.Vals[0][0]).To(Equal(4.0))
		})

		It("converts to a dense matrix", func() {
			dense := m.Dense()
			rows, cols := dense.Dims()
			Expect(rows).To(Equal(2))
			Expect(cols).To(Equal(2))
			Expect(dense.At(1, 0)).To(Equal(1.0))
		})
	})

	Context("with malformed matrices", func() {
		It("detects a ragged matrix", func() {
			m := &dataframe.Matrix{
				Assets: []string{"a", "b"},
				Vals: [][]float64{
					{1.0, 2.0},
					{3.0},
				},
			}
			Expect(m.Square()).To(BeFalse())
			Expect(m.Symmetric(1e-8)).To(BeFalse())
		})

		It("detects a row count that does not match the labels", func() {
			m := &dataframe.Matrix{
				Assets: []string{"a", "b"},
				Vals: [][]float64{
					{1.0, 2.0},
				},
			}
			Expect(m.Square()).To(BeFalse())
		})

		It("detects an asymmetric matrix", func() {
			m := &dataframe.Matrix{
				Assets: []string{"a", "b"},
				Vals: [][]float64{
					{1.0, 2.0},
					{3.0, 4.0},
				},
			}
			Expect(m.Square()).To(BeTrue())
			Expect(m.Symmetric(1e-8)).To(BeFalse())
		})

		It("treats NaN values as asymmetric", func() {
			m := &dataframe.Matrix{
				Assets: []string{"a", "b"},
				Vals: [][]float64{
					{1.0, math.NaN()},
					{math.NaN(), 4.0},
				},
			}
			Expect(m.Symmetric(1e-8)).To(BeFalse())
		})

		It("accepts asymmetry within the tolerance", func() {
			m := &dataframe.Matrix{
				Assets: []string{"a", "b"},
				Vals: [][]float64{
					{1.0, 2.0 + 1e-12},
					{2.0, 4.0},
				},
			}
			Expect(m.Symmetric(1e-8)).To(BeTrue())
		})
	})
})

var _ = Describe("Vector", func() {
	Context("with a labeled vector", func() {
		var v *dataframe.Vector

		BeforeEach(func() {
			v = &dataframe.Vector{
				Assets: []string{"VFINX", "PRIDX", "VUSTX"},
				Vals:   []float64{0.25, 0.5, 0.25},
			}
		})

		It("knows its length", func() {
			Expect(v.Len()).To(Equal(3))
		})

		It("sums its values", func() {
			Expect(v.Sum()).To(Equal(1.0))
		})

		It("copies without sharing values", func() {
			v2 := v.Copy()
			v2.Vals[0] = 99.0
			Expect(v.Vals[0]).To(Equal(0.25))
		})

		It("converts to a dense vector", func() {
			dense := v.Dense()
			Expect(dense.Len()).To(Equal(3))
			Expect(dense.AtVec(1)).To(Equal(0.5))
		})

		It("renders a table with each asset", func() {
			rendered := v.Table()
			Expect(strings.Contains(rendered, "VFINX")).To(BeTrue())
			Expect(strings.Contains(rendered, "0.5000")).To(BeTrue())
		})
	})

	Context("when checking alignment", func() {
		var m *dataframe.Matrix

		BeforeEach(func() {
			m = &dataframe.Matrix{
				Assets: []string{"a", "b"},
				Vals: [][]float64{
					{1.0, 0.0},
					{0.0, 1.0},
				},
			}
		})

		It("accepts matching labels", func() {
			v := &dataframe.Vector{Assets: []string{"a", "b"}, Vals: []float64{1.0, 2.0}}
			Expect(v.AlignedWith(m)).To(BeTrue())
		})

		It("rejects re-ordered labels", func() {
			v := &dataframe.Vector{Assets: []string{"b", "a"}, Vals: []float64{1.0, 2.0}}
			Expect(v.AlignedWith(m)).To(BeFalse())
		})

		It("rejects mismatched lengths", func() {
			v := &dataframe.Vector{Assets: []string{"a"}, Vals: []float64{1.0}}
			Expect(v.AlignedWith(m)).To(BeFalse())
		})
	})
})
