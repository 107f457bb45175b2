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

package portfolio_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/penny-vault/pv-optimize/dataframe"
	"github.com/penny-vault/pv-optimize/portfolio"
	"github.com/penny-vault/pv-optimize/qp"
)

const weightTol = 1e-8

// fixtureTargetReturn is the 70th percentile of the fixture expected
// returns
const fixtureTargetReturn = 0.0037561489539440895

// fixture statistics computed from testdata/returns.csv in the data
// package; duplicated here as literals so the optimizer specs stand alone
func fixtureCovariance() *dataframe.Matrix {
	return &dataframe.Matrix{
		Assets: []string{"asset_a", "asset_b", "asset_c", "asset_d", "asset_e"},
		Vals: [][]float64{
			{0.0020265855590146857, -0.00036202240212416365, 9.936710891705892e-05, -0.0002199418346386456, -0.0003047028903798423},
			{-0.00036202240212416365, 0.0024211818124573975, 0.0002971842633511494, 9.021640422768367e-05, 0.00015085586881835602},
			{9.936710891705892e-05, 0.0002971842633511494, 0.0024203620005440714, 2.012115991951788e-05, 0.00011299829691045066},
			{-0.0002199418346386456, 9.021640422768367e-05, 2.012115991951788e-05, 0.002301867335577757, 4.724630889745011e-05},
			{-0.0003047028903798423, 0.00015085586881835602, 0.00011299829691045066, 4.724630889745011e-05, 0.002877282196624104},
		},
	}
}

func fixtureReturns() *dataframe.Vector {
	return &dataframe.Vector{
		Assets: []string{"asset_a", "asset_b", "asset_c", "asset_d", "asset_e"},
		Vals:   []float64{-0.0012373592771993734, 0.0048477115745670955, -0.0036936755663779953, 0.007402923444720102, -0.0006101015285479357},
	}
}

func expectWeights(weights *portfolio.Weights, expected []float64) {
	ExpectWithOffset(1, weights.Vals).To(HaveLen(len(expected)))
	for idx, exp := range expected {
		ExpectWithOffset(1, weights.Vals[idx]).To(BeNumerically("~", exp, weightTol), "weight for %s", weights.Assets[idx])
	}
}

// recordingSolver satisfies qp.Solver and captures the program it was
// asked to solve
type recordingSolver struct {
	result *qp.Result
	err    error
	prob   *qp.Problem
}

func (rs *recordingSolver) Solve(prob *qp.Problem) (*qp.Result, error) {
	rs.prob = prob
	if rs.err != nil {
		return nil, rs.err
	}
	return rs.result, nil
}

var _ = Describe("Optimizer", func() {
	var (
		opt  *portfolio.Optimizer
		cov  *dataframe.Matrix
		rets *dataframe.Vector
	)

	BeforeEach(func() {
		opt = portfolio.NewOptimizer(nil)
		cov = fixtureCovariance()
		rets = fixtureReturns()
	})

	Describe("minimum variance portfolio", func() {
		Context("when long only", func() {
			It("reproduces the reference weights", func() {
				weights, err := opt.MinimumVariance(cov, false)
				Expect(err).To(BeNil())
				expectWeights(weights, []float64{
					0.2942840146331246,
					0.19221716939564482,
					0.13820233202108606,
					0.20879490895467367,
					0.16650157499547094,
				})
			})

			It("is fully invested", func() {
				weights, err := opt.MinimumVariance(cov, false)
				Expect(err).To(BeNil())
				Expect(weights.Sum()).To(BeNumerically("~", 1.0, weightTol))
			})

			It("holds no short positions", func() {
				weights, err := opt.MinimumVariance(cov, false)
				Expect(err).To(BeNil())
				for idx, w := range weights.Vals {
					Expect(w).To(BeNumerically(">=", -weightTol), "weight for %s", weights.Assets[idx])
				}
			})

			It("raises no advisories", func() {
				weights, err := opt.MinimumVariance(cov, false)
				Expect(err).To(BeNil())
				Expect(weights.Advisories).To(BeEmpty())
			})
		})

		Context("when shorting is allowed", func() {
			It("finds the same weights because the unconstrained optimum is long", func() {
				weights, err := opt.MinimumVariance(cov, true)
				Expect(err).To(BeNil())
				expectWeights(weights, []float64{
					0.2942840146331246,
					0.19221716939564482,
					0.13820233202108606,
					0.20879490895467367,
					0.16650157499547094,
				})
				Expect(weights.Sum()).To(BeNumerically("~", 1.0, weightTol))
			})
		})

		Context("with invalid inputs", func() {
			It("rejects an indefinite covariance matrix", func() {
				cov.Vals = [][]float64{
					{1.0, 2.0},
					{2.0, 1.0},
				}
				cov.Assets = []string{"asset_a", "asset_b"}
				_, err := opt.MinimumVariance(cov, false)
				Expect(err).To(MatchError(portfolio.ErrCovarianceNotPosDef))
			})
		})
	})

	Describe("markowitz portfolio", func() {
		Context("when long only", func() {
			It("reproduces the reference weights", func() {
				weights, err := opt.Markowitz(cov, rets, fixtureTargetReturn, false, false)
				Expect(err).To(BeNil())
				expectWeights(weights, []float64{
					0.23626109825249897,
					0.2869599489787186,
					0.0,
					0.36793512154350694,
					0.10884383122527541,
				})
			})

			It("is fully invested and meets the target return", func() {
				weights, err := opt.Markowitz(cov, rets, fixtureTargetReturn, false, false)
				Expect(err).To(BeNil())
				Expect(weights.Sum()).To(BeNumerically("~", 1.0, weightTol))
				expRet := floats.Dot(weights.Vals, rets.Vals)
				Expect(expRet).To(BeNumerically(">=", fixtureTargetReturn-weightTol))
			})

			It("holds no short positions", func() {
				weights, err := opt.Markowitz(cov, rets, fixtureTargetReturn, false, false)
				Expect(err).To(BeNil())
				for idx, w := range weights.Vals {
					Expect(w).To(BeNumerically(">=", -weightTol), "weight for %s", weights.Assets[idx])
				}
			})
		})

		Context("when shorting is allowed", func() {
			It("reproduces the reference weights", func() {
				weights, err := opt.Markowitz(cov, rets, fixtureTargetReturn, true, false)
				Expect(err).To(BeNil())
				expectWeights(weights, []float64{
					0.2413217069956286,
					0.28750499267347623,
					-0.006593861254760475,
					0.36542257478202855,
					0.11234458680362701,
				})
				Expect(weights.Sum()).To(BeNumerically("~", 1.0, weightTol))
			})
		})

		Context("when market neutral", func() {
			It("reproduces the reference weights", func() {
				weights, err := opt.Markowitz(cov, rets, fixtureTargetReturn, true, true)
				Expect(err).To(BeNil())
				expectWeights(weights, []float64{
					-0.08822565174553527,
					0.15873232657536734,
					-0.24120434119811443,
					0.26091344043357206,
					-0.0902157740652897,
				})
			})

			It("nets to zero", func() {
				weights, err := opt.Markowitz(cov, rets, fixtureTargetReturn, true, true)
				Expect(err).To(BeNil())
				Expect(weights.Sum()).To(BeNumerically("~", 0.0, weightTol))
			})

			It("coerces shorting on and raises an advisory when long only is requested", func() {
				weights, err := opt.Markowitz(cov, rets, fixtureTargetReturn, false, true)
				Expect(err).To(BeNil())
				Expect(weights.Advisories).To(ContainElement(portfolio.AdvisoryShortingCoerced))
				expectWeights(weights, []float64{
					-0.08822565174553527,
					0.15873232657536734,
					-0.24120434119811443,
					0.26091344043357206,
					-0.0902157740652897,
				})
			})
		})

		Context("with an invalid target return", func() {
			It("rejects NaN", func() {
				_, err := opt.Markowitz(cov, rets, math.NaN(), false, false)
				Expect(err).To(MatchError(portfolio.ErrTargetReturnMalformed))
			})

			It("rejects infinity", func() {
				_, err := opt.Markowitz(cov, rets, math.Inf(1), false, false)
				Expect(err).To(MatchError(portfolio.ErrTargetReturnMalformed))
			})
		})

		Context("with mismatched indices", func() {
			It("fails before formulating a program", func() {
				rets.Assets = []string{"asset_a", "asset_b", "asset_c", "asset_d", "asset_x"}
				_, err := opt.Markowitz(cov, rets, fixtureTargetReturn, false, false)
				Expect(err).To(MatchError(portfolio.ErrIndicesDoNotMatch))
			})
		})
	})

	Describe("tangency portfolio", func() {
		Context("when long only", func() {
			It("reproduces the reference weights", func() {
				weights, err := opt.Tangency(cov, rets, false)
				Expect(err).To(BeNil())
				expectWeights(weights, []float64{
					0.013631295328898492,
					0.3706533000389298,
					0.0,
					0.6157154046321717,
					0.0,
				})
			})

			It("is fully invested after rescaling", func() {
				weights, err := opt.Tangency(cov, rets, false)
				Expect(err).To(BeNil())
				Expect(weights.Sum()).To(BeNumerically("~", 1.0, weightTol))
			})

			It("holds no short positions", func() {
				weights, err := opt.Tangency(cov, rets, false)
				Expect(err).To(BeNil())
				for idx, w := range weights.Vals {
					Expect(w).To(BeNumerically(">=", -weightTol), "weight for %s", weights.Assets[idx])
				}
			})
		})

		Context("when shorting is allowed", func() {
			It("reproduces the reference weights", func() {
				weights, err := opt.Tangency(cov, rets, true)
				Expect(err).To(BeNil())
				expectWeights(weights, []float64{
					0.048052417309504915,
					0.6352279439975458,
					-0.5349820428124908,
					0.9369859954479582,
					-0.08528431394251813,
				})
				Expect(weights.Sum()).To(BeNumerically("~", 1.0, weightTol))
			})
		})
	})

	Describe("max return portfolio", func() {
		It("puts everything in the asset with the highest expected return", func() {
			weights, err := opt.MaxReturn(rets)
			Expect(err).To(BeNil())
			Expect(weights.Vals).To(Equal([]float64{0, 0, 0, 1, 0}))
			Expect(weights.Assets).To(Equal(rets.Assets))
		})

		It("splits equally across exact ties", func() {
			tied := &dataframe.Vector{
				Assets: []string{"asset_a", "asset_b", "asset_c", "asset_d", "asset_e"},
				Vals:   []float64{0.05, 0.11, 0.11, 0.11, 0.02},
			}
			weights, err := opt.MaxReturn(tied)
			Expect(err).To(BeNil())
			expected := []float64{0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0, 0}
			for idx, exp := range expected {
				Expect(weights.Vals[idx]).To(BeNumerically("~", exp, 1e-12))
			}
		})

		It("rejects malformed returns", func() {
			rets.Vals[2] = math.NaN()
			_, err := opt.MaxReturn(rets)
			Expect(err).To(MatchError(portfolio.ErrExpectedReturnsMalformed))
		})
	})

	Describe("solver interaction", func() {
		var solver *recordingSolver

		BeforeEach(func() {
			solver = &recordingSolver{
				result: &qp.Result{
					Status: qp.StatusOptimal,
					X:      []float64{0.2, 0.2, 0.2, 0.2, 0.2},
				},
			}
			opt = portfolio.NewOptimizer(solver)
		})

		It("attaches a convergence advisory when the solver does not reach optimal", func() {
			solver.result.Status = qp.StatusUnknown
			weights, err := opt.MinimumVariance(cov, false)
			Expect(err).To(BeNil())
			Expect(weights.Advisories).To(ContainElement(portfolio.AdvisoryConvergence))
		})

		It("propagates solver errors", func() {
			solver.err = errors.New("solver exploded")
			_, err := opt.MinimumVariance(cov, false)
			Expect(err).To(MatchError("solver exploded"))
		})

		It("formulates the long only minimum variance program", func() {
			_, err := opt.MinimumVariance(cov, false)
			Expect(err).To(BeNil())

			rows, cols := solver.prob.P.Dims()
			Expect(rows).To(Equal(5))
			Expect(cols).To(Equal(5))
			Expect(solver.prob.P.At(0, 0)).To(Equal(cov.Vals[0][0]))

			gRows, gCols := solver.prob.G.Dims()
			Expect(gRows).To(Equal(5))
			Expect(gCols).To(Equal(5))
			Expect(solver.prob.G.At(2, 2)).To(Equal(-1.0))
			Expect(solver.prob.H.AtVec(2)).To(Equal(0.0))

			aRows, aCols := solver.prob.A.Dims()
			Expect(aRows).To(Equal(1))
			Expect(aCols).To(Equal(5))
			Expect(solver.prob.A.At(0, 3)).To(Equal(1.0))
			Expect(solver.prob.B.AtVec(0)).To(Equal(1.0))
		})

		It("omits the inequality block for unconstrained minimum variance", func() {
			_, err := opt.MinimumVariance(cov, true)
			Expect(err).To(BeNil())
			Expect(solver.prob.G).To(BeNil())
			Expect(solver.prob.H).To(BeNil())
		})

		It("stacks the return floor above the non-negativity block for long only markowitz", func() {
			_, err := opt.Markowitz(cov, rets, fixtureTargetReturn, false, false)
			Expect(err).To(BeNil())

			gRows, gCols := solver.prob.G.Dims()
			Expect(gRows).To(Equal(6))
			Expect(gCols).To(Equal(5))
			Expect(solver.prob.G.At(0, 1)).To(Equal(-rets.Vals[1]))
			Expect(solver.prob.G.At(3, 2)).To(Equal(-1.0))
			Expect(solver.prob.H.AtVec(0)).To(Equal(-fixtureTargetReturn))
			Expect(solver.prob.B.AtVec(0)).To(Equal(1.0))
		})

		It("sets the budget to zero for market neutral markowitz", func() {
			_, err := opt.Markowitz(cov, rets, fixtureTargetReturn, false, true)
			Expect(err).To(BeNil())

			gRows, _ := solver.prob.G.Dims()
			Expect(gRows).To(Equal(1))
			Expect(solver.prob.B.AtVec(0)).To(Equal(0.0))
		})

		It("drops the budget constraint and floors the return at one for tangency", func() {
			_, err := opt.Tangency(cov, rets, true)
			Expect(err).To(BeNil())
			Expect(solver.prob.A).To(BeNil())
			Expect(solver.prob.B).To(BeNil())
			Expect(solver.prob.H.AtVec(0)).To(Equal(-1.0))
		})
	})
})
