package anymeta

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestSplitDist(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	packed := anydiff.NewConst(c.MakeVectorData([]float64{
		0.5, -1.25, 0, 2,
		3, 0.75, -2, 0,
	}))
	mean, std := SplitDist(packed, 2)

	expectedMean := c.MakeVectorData([]float64{0.5, -1.25, 3, 0.75})
	expectedStd := c.MakeVectorData([]float64{
		1, math.Exp(1), math.Exp(-1), 1,
	})
	assertSimilar(t, mean.Output(), expectedMean)
	assertSimilar(t, std.Output(), expectedStd)
}

func TestSplitDistBounds(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	packed := anydiff.NewConst(c.MakeVectorData([]float64{
		0, 0, -1000, 1000,
	}))
	_, std := SplitDist(packed, 1)
	expected := c.MakeVectorData([]float64{
		math.Exp(LogVarMin / 2.0), math.Exp(LogVarMax / 2.0),
	})
	assertSimilar(t, std.Output(), expected)
}

func TestSplitDistGrad(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	packed := c.MakeVectorData([]float64{
		0.5, -1.25, 0.3, -0.7,
		1.5, 0.75, -0.2, 0.9,
	})
	inVar := anydiff.NewVar(packed)
	ch := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			mean, std := SplitDist(inVar, 2)
			return anydiff.Add(mean, std)
		},
		V: []*anydiff.Var{inVar},
	}
	ch.FullCheck(t)
}

func TestSampleDistMean(t *testing.T) {
	c := anyvec64.DefaultCreator{}

	// Zero log-variance, so the samples are mean plus unit
	// Gaussian noise.
	packed := anydiff.NewConst(c.MakeVectorData([]float64{0.5, -1.2, 0, 0}))

	sum := c.MakeVector(2)
	const numSamples = 100000
	for i := 0; i < numSamples; i++ {
		sum.Add(SampleDist(packed, 1).Output())
	}
	sum.Scale(c.MakeNumeric(1.0 / numSamples))

	assertSimilar(t, sum, c.MakeVectorData([]float64{0.5, -1.2}))
}
