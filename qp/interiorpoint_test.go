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

package qp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-optimize/qp"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("When solving quadratic programs", func() {
	var solver *qp.InteriorPoint

	BeforeEach(func() {
		solver = qp.NewInteriorPoint(qp.DefaultConfig())
	})

	Context("with only equality constraints", func() {
		It("solves the KKT system directly", func() {
			// minimize (1/2)||x||^2 subject to x1 + x2 = 1
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{0, 0}),
				A: mat.NewDense(1, 2, []float64{1, 1}),
				B: mat.NewVecDense(1, []float64{1}),
			}

			res, err := solver.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusOptimal))
			Expect(res.Iterations).To(Equal(0))
			Expect(res.X[0]).To(BeNumerically("~", 0.5, 1e-12))
			Expect(res.X[1]).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("solves unconstrained programs", func() {
			// minimize (1/2)x'Px + q'x with P = 2I, q = (-2, -4)
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{2, 0, 0, 2}),
				Q: mat.NewVecDense(2, []float64{-2, -4}),
			}

			res, err := solver.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusOptimal))
			Expect(res.X[0]).To(BeNumerically("~", 1.0, 1e-12))
			Expect(res.X[1]).To(BeNumerically("~", 2.0, 1e-12))
		})

		It("reports a singular KKT system", func() {
			// equality rows are linearly dependent and inconsistent
			prob := &qp.Problem{
				P: mat.NewDense(1, 1, []float64{0}),
				Q: mat.NewVecDense(1, []float64{0}),
				A: mat.NewDense(2, 1, []float64{1, 1}),
				B: mat.NewVecDense(2, []float64{1, 2}),
			}

			_, err := solver.Solve(prob)
			Expect(err).To(MatchError(qp.ErrSingularKKT))
		})
	})

	Context("with inequality constraints", func() {
		It("finds the constrained optimum when the constraint binds", func() {
			// minimize (1/2)||x||^2 subject to x1 + x2 = 1 and x2 <= 0.2
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{0, 0}),
				G: mat.NewDense(1, 2, []float64{0, 1}),
				H: mat.NewVecDense(1, []float64{0.2}),
				A: mat.NewDense(1, 2, []float64{1, 1}),
				B: mat.NewVecDense(1, []float64{1}),
			}

			res, err := solver.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusOptimal))
			Expect(res.X[0]).To(BeNumerically("~", 0.8, 1e-8))
			Expect(res.X[1]).To(BeNumerically("~", 0.2, 1e-8))
		})

		It("ignores the constraint when it does not bind", func() {
			// same program but the bound sits above the unconstrained optimum
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{0, 0}),
				G: mat.NewDense(1, 2, []float64{0, 1}),
				H: mat.NewVecDense(1, []float64{0.9}),
				A: mat.NewDense(1, 2, []float64{1, 1}),
				B: mat.NewVecDense(1, []float64{1}),
			}

			res, err := solver.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusOptimal))
			Expect(res.X[0]).To(BeNumerically("~", 0.5, 1e-8))
			Expect(res.X[1]).To(BeNumerically("~", 0.5, 1e-8))
		})

		It("lands exactly on box corners", func() {
			// minimize (1/2)||x||^2 - 2 x1 + x2 subject to 0 <= x <= 1
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{-2, 1}),
				G: mat.NewDense(4, 2, []float64{
					-1, 0,
					0, -1,
					1, 0,
					0, 1,
				}),
				H: mat.NewVecDense(4, []float64{0, 0, 1, 1}),
			}

			res, err := solver.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusOptimal))
			Expect(res.X[0]).To(BeNumerically("~", 1.0, 1e-8))
			Expect(res.X[1]).To(BeNumerically("~", 0.0, 1e-8))
		})

		It("converges without polish", func() {
			cfg := qp.DefaultConfig()
			cfg.Polish = false
			noPolish := qp.NewInteriorPoint(cfg)

			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{0, 0}),
				G: mat.NewDense(1, 2, []float64{0, 1}),
				H: mat.NewVecDense(1, []float64{0.2}),
				A: mat.NewDense(1, 2, []float64{1, 1}),
				B: mat.NewVecDense(1, []float64{1}),
			}

			res, err := noPolish.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusOptimal))
			Expect(res.X[0]).To(BeNumerically("~", 0.8, 1e-5))
			Expect(res.X[1]).To(BeNumerically("~", 0.2, 1e-5))
		})

		It("applies defaults for a zero config", func() {
			zeroCfg := qp.NewInteriorPoint(qp.Config{})

			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{0, 0}),
				G: mat.NewDense(1, 2, []float64{0, 1}),
				H: mat.NewVecDense(1, []float64{0.2}),
				A: mat.NewDense(1, 2, []float64{1, 1}),
				B: mat.NewVecDense(1, []float64{1}),
			}

			res, err := zeroCfg.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusOptimal))
			Expect(res.X[0]).To(BeNumerically("~", 0.8, 1e-8))
		})
	})

	Context("with an infeasible program", func() {
		It("stops with an unknown status", func() {
			// x1 >= 1 and x1 <= 0 cannot both hold
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{0, 0}),
				G: mat.NewDense(2, 2, []float64{
					-1, 0,
					1, 0,
				}),
				H: mat.NewVecDense(2, []float64{-1, 0}),
			}

			res, err := solver.Solve(prob)
			Expect(err).To(BeNil())
			Expect(res.Status).To(Equal(qp.StatusUnknown))
		})
	})

	Context("with malformed problems", func() {
		It("rejects mismatched dimensions", func() {
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(3, []float64{0, 0, 0}),
			}

			_, err := solver.Solve(prob)
			Expect(err).To(MatchError(qp.ErrDimensionMismatch))
		})

		It("rejects an inequality lhs without a rhs", func() {
			prob := &qp.Problem{
				P: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
				Q: mat.NewVecDense(2, []float64{0, 0}),
				G: mat.NewDense(1, 2, []float64{0, 1}),
			}

			_, err := solver.Solve(prob)
			Expect(err).To(MatchError(qp.ErrDimensionMismatch))
		})

		It("rejects a missing quadratic cost", func() {
			prob := &qp.Problem{
				Q: mat.NewVecDense(2, []float64{0, 0}),
			}

			_, err := solver.Solve(prob)
			Expect(err).To(MatchError(qp.ErrDimensionMismatch))
		})
	})
})
