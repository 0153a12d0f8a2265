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
	"io/ioutil"
	"math"
	"math/cmplx"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/meliao/ha-hps/hps"
	"github.com/meliao/ha-hps/pde"
	"github.com/meliao/ha-hps/tree"
	"github.com/meliao/ha-hps/utils"
)

type SolveModel struct {
	ICFile  string
	Profile bool
}

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Builds the solution operator for a problem read from a YAML file and applies it",
	Long:  `Builds the solution operator for a problem read from a YAML file and applies it`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("solve called")
		ms := &SolveModel{}
		if ms.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		ms.Profile, _ = cmd.Flags().GetBool("profile")
		ip := processInput(ms)
		RunSolve(ms, ip)
	},
}

func processInput(ms *SolveModel) (ip *pde.InputParameters) {
	var (
		err error
	)
	if len(ms.ICFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Test Case"
Dimension: 2
PolynomialOrder: 8
PanelOrder: 6
Depth: 3
Problem: helmholtz # Can be "laplace" or "helmholtz-iti"
Wavenumber: 20.
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(ms.ICFile); err != nil {
		panic(err)
	}
	ip = &pde.InputParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- PolynomialOrder\n\t- Depth\n\t- Wavenumber")
	SolveCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the run to the current directory")
}

func RunSolve(ms *SolveModel, ip *pde.InputParameters) {
	var (
		err error
		pb  *pde.Problem
		tr  *tree.Tree
		s   *hps.Solver
	)
	if ms.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	ip.Print()
	if pb, err = ip.BuildProblem(); err != nil {
		panic(err)
	}
	if tr, err = tree.NewUniform(ip.Dimension, ip.Depth, ip.DomainLo, ip.DomainHi); err != nil {
		panic(err)
	}
	cfg := hps.Config{
		P:               ip.PolynomialOrder,
		Q:               ip.PanelOrder,
		Workers:         ip.Workers,
		CondLimit:       ip.ConditionLimit,
		RetainOperators: ip.RetainOperators && !ip.DtNOnly,
	}
	if s, err = hps.New(cfg, tr, pb); err != nil {
		panic(err)
	}
	start := time.Now()
	if err = s.Build(); err != nil {
		panic(err)
	}
	fmt.Printf("Build time: %v, %d leaves\n", time.Since(start), len(tr.Leaves()))

	n := s.RootLayout().N
	switch {
	case ip.DtNOnly:
		T, h, errRM := s.RootMap()
		if errRM != nil {
			panic(errRM)
		}
		nr, nc := T.Dims()
		fmt.Printf("Root DtN map: %dx%d, flux offset norm %.3e\n", nr, nc, h.Norm2())
	case pb.Variant == pde.ItI:
		sol, errS := s.SolveItI(utils.NewCVector(n))
		if errS != nil {
			panic(errS)
		}
		reportC(sol)
	default:
		sol, errS := s.Solve(utils.NewVector(n))
		if errS != nil {
			panic(errS)
		}
		report(sol)
	}
	fmt.Printf("Total time: %v\n", time.Since(start))
}

func report(sol *hps.Solution) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, u := range sol.Leaves {
		for i := 0; i < u.Len(); i++ {
			min = math.Min(min, u.AtVec(i))
			max = math.Max(max, u.AtVec(i))
		}
	}
	fmt.Printf("Solution range: [%9.6f, %9.6f] over %d leaves\n", min, max, len(sol.Leaves))
}

func reportC(sol *hps.CSolution) {
	max := 0.
	for _, u := range sol.Leaves {
		for i := range u {
			max = math.Max(max, cmplx.Abs(u[i]))
		}
	}
	fmt.Printf("Solution max magnitude: %9.6f over %d leaves\n", max, len(sol.Leaves))
}
