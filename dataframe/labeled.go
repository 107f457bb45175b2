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

package dataframe

import (
	"fmt"
	"math"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dim returns the number of assets in the matrix
func (m *Matrix) Dim() int {
	return len(m.Assets)
}

// Square returns true if the value table is fully populated with one row and
// one column per asset
func (m *Matrix) Square() bool {
	if len(m.Vals) != len(m.Assets) {
		return false
	}

	for _, row := range m.Vals {
		if len(row) != len(m.Assets) {
			return false
		}
	}

	return true
}

// Symmetric returns true if the matrix is square and m[i][j] is within tol of
// m[j][i] for all i, j. NaN values are never symmetric
func (m *Matrix) Symmetric(tol float64) bool {
	if !m.Square() {
		return false
	}

	for ii := range m.Vals {
		for jj := ii; jj < len(m.Vals); jj++ {
			diff := math.Abs(m.Vals[ii][jj] - m.Vals[jj][ii])
			if !(diff <= tol) {
				return false
			}
		}
	}

	return true
}

// Copy creates a copy of the matrix
func (m *Matrix) Copy() *Matrix {
	m2 := &Matrix{
		Assets: make([]string, len(m.Assets)),
		Vals:   make([][]float64, len(m.Vals)),
	}

	copy(m2.Assets, m.Assets)
	for idx := range m2.Vals {
		m2.Vals[idx] = make([]float64, len(m.Vals[idx]))
		copy(m2.Vals[idx], m.Vals[idx])
	}

	return m2
}

// Dense converts the matrix into an unlabeled gonum dense matrix. Panics if
// the matrix is not square
func (m *Matrix) Dense() *mat.Dense {
	n := m.Dim()
	dense := mat.NewDense(n, n, nil)
	for ii, row := range m.Vals {
		dense.SetRow(ii, row)
	}
	return dense
}

// Len returns the number of assets in the vector
func (v *Vector) Len() int {
	return len(v.Assets)
}

// Copy creates a copy of the vector
func (v *Vector) Copy() *Vector {
	v2 := &Vector{
		Assets: make([]string, len(v.Assets)),
		Vals:   make([]float64, len(v.Vals)),
	}

	copy(v2.Assets, v.Assets)
	copy(v2.Vals, v.Vals)
	return v2
}

// Sum returns the sum of all values in the vector
func (v *Vector) Sum() float64 {
	return floats.Sum(v.Vals)
}

// Dense converts the vector into an unlabeled gonum column vector
func (v *Vector) Dense() *mat.VecDense {
	vals := make([]float64, len(v.Vals))
	copy(vals, v.Vals)
	return mat.NewVecDense(len(vals), vals)
}

// AlignedWith returns true if the vector's assets exactly match the assets of
// the matrix, in the same order
func (v *Vector) AlignedWith(m *Matrix) bool {
	if len(v.Assets) != len(m.Assets) {
		return false
	}

	for idx, asset := range v.Assets {
		if m.Assets[idx] != asset {
			return false
		}
	}

	return true
}

// Table returns an ASCII formatted table of the vector
func (v *Vector) Table() string {
	if len(v.Assets) == 0 {
		return "<NO DATA>"
	}

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Asset", "Value"})
	table.SetFooter([]string{"Num Assets", fmt.Sprintf("%d", v.Len())})
	table.SetBorder(false)

	for idx, asset := range v.Assets {
		table.Append([]string{asset, fmt.Sprintf("%.4f", v.Vals[idx])})
	}

	table.Render()
	return s.String()
}
