/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/meliao/ha-hps/hps"
	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
)

// ConvergenceCmd represents the convergence command
var ConvergenceCmd = &cobra.Command{
	Use:   "convergence",
	Short: "Runs a depth sweep against a manufactured solution and reports observed orders",
	Long: `
Solves the same two dimensional problem on uniform trees of increasing
depth and reports the RMS and MAX errors at the collocation points, with
the observed order of convergence between consecutive depths,

hahps convergence -m helmholtz -w 20 -n 8`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("convergence called")
		problem, _ := cmd.Flags().GetString("problem")
		n, _ := cmd.Flags().GetInt("n")
		q, _ := cmd.Flags().GetInt("q")
		maxDepth, _ := cmd.Flags().GetInt("maxDepth")
		w, _ := cmd.Flags().GetFloat64("wavenumber")
		RunConvergence(problem, n, q, maxDepth, w)
	},
}

func init() {
	rootCmd.AddCommand(ConvergenceCmd)
	ConvergenceCmd.Flags().StringP("problem", "m", "laplace", "problem to sweep: laplace or helmholtz")
	ConvergenceCmd.Flags().IntP("n", "n", 8, "polynomial order per patch")
	ConvergenceCmd.Flags().IntP("q", "q", 6, "Gauss panel order per face")
	ConvergenceCmd.Flags().IntP("maxDepth", "D", 4, "deepest uniform tree in the sweep")
	ConvergenceCmd.Flags().Float64P("wavenumber", "w", 10., "wavenumber for the helmholtz sweep")
}

// ConvergenceStudy accumulates one error series over a depth sweep.
type ConvergenceStudy struct {
	title          string
	order          int
	numPTS         []int
	rmsErr, maxErr []float64
}

func NewConvergenceStudy(title string, order int) *ConvergenceStudy {
	return &ConvergenceStudy{
		title: title,
		order: order,
	}
}

func (cs *ConvergenceStudy) Add(numPTS int, rms, max float64) {
	cs.numPTS = append(cs.numPTS, numPTS)
	cs.rmsErr = append(cs.rmsErr, rms)
	cs.maxErr = append(cs.maxErr, max)
}

// Print reports the series with the observed order between consecutive
// rows, each depth halving the patch size.
func (cs *ConvergenceStudy) Print() {
	fmt.Printf("Title = %s, Order = %d\n", cs.title, cs.order)
	fmt.Printf("npts, rmsErr, maxErr, observedOrder\n")
	for i := range cs.numPTS {
		order := 0.
		if i > 0 && cs.maxErr[i] != 0 {
			order = math.Log2(cs.maxErr[i-1] / cs.maxErr[i])
		}
		fmt.Printf("%d, %.3e, %.3e, %5.2f\n", cs.numPTS[i], cs.rmsErr[i], cs.maxErr[i], order)
	}
}

func RunConvergence(problem string, n, q, maxDepth int, w float64) {
	var (
		pb    *pde.Problem
		exact func(x, y, z float64) float64
	)
	switch problem {
	case "laplace":
		// harmonic, zero source
		exact = func(x, y, z float64) float64 {
			return math.Sin(math.Pi*x) * math.Sinh(math.Pi*y) / math.Sinh(math.Pi)
		}
		pb = pde.Laplace(2, nil)
	case "helmholtz":
		exact = func(x, y, z float64) float64 {
			return math.Sin(w * x)
		}
		pb = pde.Helmholtz(2, w, nil, nil)
	default:
		panic(fmt.Errorf("unknown problem %q", problem))
	}

	cs := NewConvergenceStudy(problem, n)
	for depth := 1; depth <= maxDepth; depth++ {
		tr, err := tree.NewUniform(2, depth, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
		if err != nil {
			panic(err)
		}
		s, err := hps.New(hps.Config{P: n, Q: q, RetainOperators: true}, tr, pb)
		if err != nil {
			panic(err)
		}
		if err = s.Build(); err != nil {
			panic(err)
		}
		sol, err := s.Solve(s.SampleBoundary(tr.Root, exact))
		if err != nil {
			panic(err)
		}
		var (
			rms, max float64
			npts     int
		)
		for id, u := range sol.Leaves {
			for i, pt := range s.GridPoints(id) {
				e := u.AtVec(i) - exact(pt[0], pt[1], pt[2])
				rms += e * e
				max = math.Max(max, math.Abs(e))
				npts++
			}
		}
		rms = math.Sqrt(rms / float64(npts))
		cs.Add(npts, rms, max)
	}
	cs.Print()
}
