package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/meliao/ha-hps/pde"
)

func TestSolveInput(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Test Case
Dimension: 2
PolynomialOrder: 10
PanelOrder: 7
Depth: 2
Problem: helmholtz # Can be "laplace" or "helmholtz-iti"
Wavenumber: 20.
`)
	var input pde.InputParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, input.PolynomialOrder, 10)
	assert.Equal(t, input.Wavenumber, 20.)
	// defaults survive a partial file
	assert.Equal(t, input.DomainHi, [3]float64{1, 1, 1})
	assert.Equal(t, input.RetainOperators, true)
	input.Print()

	pb, err := input.BuildProblem()
	if err != nil {
		panic(err)
	}
	assert.Equal(t, pb.Variant, pde.DtN)
	assert.Equal(t, pb.Eta, 20.)
}
