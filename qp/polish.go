// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qp

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

const polishTol = 1e-9

// polish refines an interior-point solution to machine precision. The
// inequality rows the iterate identifies as active (dual dominates slack)
// are treated as equalities and the reduced KKT system is solved exactly.
// Rows with negative multipliers are dropped and violated inactive rows
// are added until the active set is consistent. Returns nil when no
// consistent active set can be found; callers should fall back to the
// unpolished iterate
func polish(prob *Problem, n, m, p int, z, s []float64) []float64 {
	active := make([]int, 0, m)
	isActive := make([]bool, m)
	for k := 0; k < m; k++ {
		if z[k] > s[k] {
			active = append(active, k)
			isActive[k] = true
		}
	}

	for pass := 0; pass < 2*m+2; pass++ {
		a := len(active)
		if p+a > n {
			return nil
		}

		dim := n + p + a
		kkt := mat.NewDense(dim, dim, nil)
		rhs := mat.NewVecDense(dim, nil)

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				kkt.Set(i, j, prob.P.At(i, j))
			}
			rhs.SetVec(i, -prob.Q.AtVec(i))
		}
		for k := 0; k < p; k++ {
			for i := 0; i < n; i++ {
				kkt.Set(i, n+k, prob.A.At(k, i))
				kkt.Set(n+k, i, prob.A.At(k, i))
			}
			rhs.SetVec(n+k, prob.B.AtVec(k))
		}
		for idx, row := range active {
			for i := 0; i < n; i++ {
				kkt.Set(i, n+p+idx, prob.G.At(row, i))
				kkt.Set(n+p+idx, i, prob.G.At(row, i))
			}
			rhs.SetVec(n+p+idx, prob.H.AtVec(row))
		}

		sol, err := solveLU(kkt, rhs)
		if err != nil {
			return nil
		}

		xp := make([]float64, n)
		for i := 0; i < n; i++ {
			xp[i] = sol.AtVec(i)
		}

		// drop the active row with the most negative multiplier
		worstDrop := -polishTol
		dropIdx := -1
		for idx := range active {
			if zp := sol.AtVec(n + p + idx); zp < worstDrop {
				worstDrop = zp
				dropIdx = idx
			}
		}
		if dropIdx >= 0 {
			isActive[active[dropIdx]] = false
			active = append(active[:dropIdx], active[dropIdx+1:]...)
			continue
		}

		// add the most violated inactive row
		gx := matVec(prob.G, xp)
		worstAdd := polishTol
		addRow := -1
		for k := 0; k < m; k++ {
			if isActive[k] {
				continue
			}
			if v := gx[k] - prob.H.AtVec(k); v > worstAdd {
				worstAdd = v
				addRow = k
			}
		}
		if addRow >= 0 {
			isActive[addRow] = true
			active = append(active, addRow)
			sort.Ints(active)
			continue
		}

		return xp
	}

	return nil
}
