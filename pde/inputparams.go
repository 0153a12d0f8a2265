package pde

import (
	"fmt"
	"math"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title           string     `yaml:"Title"`
	Dimension       int        `yaml:"Dimension"`
	PolynomialOrder int        `yaml:"PolynomialOrder"`
	PanelOrder      int        `yaml:"PanelOrder"`
	Depth           int        `yaml:"Depth"`
	Problem         string     `yaml:"Problem"`
	Wavenumber      float64    `yaml:"Wavenumber"`
	Eta             float64    `yaml:"Eta"`
	DomainLo        [3]float64 `yaml:"DomainLo"`
	DomainHi        [3]float64 `yaml:"DomainHi"`
	Workers         int        `yaml:"Workers"`
	ConditionLimit  float64    `yaml:"ConditionLimit"`
	RetainOperators bool       `yaml:"RetainOperators"`
	DtNOnly         bool       `yaml:"DtNOnly"`
}

func (ip *InputParameters) Parse(data []byte) (err error) {
	// defaults a file may override
	ip.Dimension = 2
	ip.PolynomialOrder = 8
	ip.PanelOrder = 6
	ip.Depth = 3
	ip.Problem = "laplace"
	ip.DomainHi = [3]float64{1, 1, 1}
	ip.RetainOperators = true
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	if ip.Problem == "" {
		ip.Problem = "laplace"
	}
	return
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t= Problem\n", ip.Problem)
	fmt.Printf("[%d]\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("[%d]\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Printf("[%d]\t\t\t= Panel Order\n", ip.PanelOrder)
	fmt.Printf("[%d]\t\t\t= Tree Depth\n", ip.Depth)
	if ip.Wavenumber != 0 {
		fmt.Printf("%8.5f\t\t= Wavenumber\n", ip.Wavenumber)
	}
	fmt.Printf("%v -> %v\t= Domain\n", ip.DomainLo, ip.DomainHi)
}

// BuildProblem maps the named preset onto a Problem. The presets carry a
// smooth manufactured source so a run produces a nontrivial solve without
// further input.
func (ip *InputParameters) BuildProblem() (pb *Problem, err error) {
	f := func(x, y, z float64) float64 {
		return math.Exp(-10 * (x*x + y*y + z*z))
	}
	switch ip.Problem {
	case "laplace":
		pb = Laplace(ip.Dimension, f)
	case "helmholtz":
		pb = Helmholtz(ip.Dimension, ip.Wavenumber, nil, f)
	case "helmholtz-iti":
		pb = ItIHelmholtz(ip.Wavenumber, nil, f)
	default:
		err = fmt.Errorf("unknown problem %q", ip.Problem)
		return
	}
	if ip.Eta != 0 {
		pb.Eta = ip.Eta
	}
	err = pb.Check(ip.Dimension)
	return
}
