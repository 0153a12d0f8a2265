package pde

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meliao/ha-hps/element"
)

func TestParseYAML(t *testing.T) {
	data := `
Title: helmholtz run
Dimension: 2
PolynomialOrder: 12
PanelOrder: 8
Depth: 4
Problem: helmholtz
Wavenumber: 20.0
DomainLo: [-0.5, -0.5, 0]
DomainHi: [0.5, 0.5, 0]
Workers: 4
`
	var ip InputParameters
	assert.NoError(t, ip.Parse([]byte(data)))
	assert.Equal(t, 12, ip.PolynomialOrder)
	assert.Equal(t, 8, ip.PanelOrder)
	assert.Equal(t, 20., ip.Wavenumber)
	assert.Equal(t, [3]float64{-0.5, -0.5, 0}, ip.DomainLo)
	// defaults survive when unset
	assert.True(t, ip.RetainOperators)

	pb, err := ip.BuildProblem()
	assert.NoError(t, err)
	assert.Equal(t, DtN, pb.Variant)
	assert.NotNil(t, pb.Coef[element.TermI])

	var bad InputParameters
	assert.NoError(t, bad.Parse([]byte("Problem: gravity\n")))
	_, err = bad.BuildProblem()
	assert.Error(t, err)
}

func TestProblemCheck(t *testing.T) {
	pb := ItIHelmholtz(10, nil, nil)
	assert.NoError(t, pb.Check(2))
	assert.Error(t, pb.Check(3))
	assert.Equal(t, 10., pb.EtaOr([3]float64{}))

	lp := Laplace(3, nil)
	assert.NoError(t, lp.Check(3))
	assert.Equal(t, 4., lp.EtaOr([3]float64{}))
}

func TestSampleLeaf(t *testing.T) {
	ref, err := element.New(2, 6, 4)
	assert.NoError(t, err)
	pb := Helmholtz(2, 5, func(x, y, z float64) float64 { return x + 2*y }, nil)
	s := pb.SampleLeaf(ref, [3]float64{0.5, 0.5, 0}, [3]float64{1, 1, 0})
	assert.Equal(t, ref.Npts, len(s.Coef[element.TermI]))
	// boundary-first position 0 is the Xmin/Ymin corner of the cell
	assert.InDelta(t, -25*(0+2*0), s.Coef[element.TermI][0], 1.e-12)
	// last position is the interior point nearest the far corner
	p := ref.P
	n := ref.Npts - 1
	x := 0.5 + ref.R[p-2]/2
	y := x
	assert.InDelta(t, -25*(x+2*y), s.Coef[element.TermI][n], 1.e-12)
	assert.Nil(t, s.Source)
}
