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
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Means computes the mean of each column and returns a new vector labeled by
// column name. Columns with no rows have a NaN mean
func (df *DataFrame) Means() *Vector {
	v := &Vector{
		Assets: make([]string, len(df.ColNames)),
		Vals:   make([]float64, len(df.ColNames)),
	}

	copy(v.Assets, df.ColNames)
	for colIdx := range df.ColNames {
		v.Vals[colIdx] = stat.Mean(df.Vals[colIdx], nil)
	}

	return v
}

// Covariance computes the sample covariance of the dataframe's columns,
// normalized by N-1, and returns a new matrix labeled by column name. If the
// dataframe has fewer than 2 rows every entry of the matrix is NaN
func (df *DataFrame) Covariance() *Matrix {
	nCols := df.ColCount()
	nRows := df.Len()

	covMat := &Matrix{
		Assets: make([]string, nCols),
		Vals:   make([][]float64, nCols),
	}
	copy(covMat.Assets, df.ColNames)

	if nRows < 2 {
		for ii := range covMat.Vals {
			covMat.Vals[ii] = make([]float64, nCols)
			for jj := range covMat.Vals[ii] {
				covMat.Vals[ii][jj] = math.NaN()
			}
		}
		return covMat
	}

	x := mat.NewDense(nRows, nCols, nil)
	for colIdx := range df.Vals {
		for rowIdx, val := range df.Vals[colIdx] {
			x.Set(rowIdx, colIdx, val)
		}
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)

	for ii := range covMat.Vals {
		covMat.Vals[ii] = make([]float64, nCols)
		for jj := range covMat.Vals[ii] {
			covMat.Vals[ii][jj] = cov.At(ii, jj)
		}
	}

	return covMat
}

// Quantile computes the p'th quantile (0 <= p <= 1) of the vector's values
// using linear interpolation between closest ranks. An empty vector has a NaN
// quantile
func (v *Vector) Quantile(p float64) float64 {
	n := len(v.Vals)
	if n == 0 {
		return math.NaN()
	}

	vals := make([]float64, n)
	copy(vals, v.Vals)
	sort.Float64s(vals)

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return vals[n-1]
	}
	if lo < 0 {
		return vals[0]
	}

	return vals[lo] + (h-float64(lo))*(vals[lo+1]-vals[lo])
}
