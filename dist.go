package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// Bounds applied to predicted log-variances before they
// are exponentiated.
const (
	LogVarMin = -20
	LogVarMax = 2
)

// SplitDist splits a batch of n packed mean/log-variance
// rows into a mean and a standard deviation.
//
// The log-variance half of each row is clamped to
// [LogVarMin, LogVarMax] before exponentiation, so the
// standard deviations are strictly positive and bounded.
func SplitDist(muLogvar anydiff.Res, n int) (mean, std anydiff.Res) {
	c := muLogvar.Output().Creator()
	cols := muLogvar.Output().Len() / n
	half := cols / 2
	mean = mapOut(colsMapper(c, n, cols, 0, half), muLogvar)
	logVar := mapOut(colsMapper(c, n, cols, half, cols), muLogvar)
	logVar = anydiff.ClipRange(logVar, c.MakeNumeric(LogVarMin),
		c.MakeNumeric(LogVarMax))
	std = anydiff.Exp(anydiff.Scale(logVar, c.MakeNumeric(0.5)))
	return
}

// SampleDist draws one reparameterized sample per row of
// a batch of n packed mean/log-variance rows.
//
// The result is differentiable with respect to the means
// and log-variances; the standard-normal noise itself
// carries no gradient.
func SampleDist(muLogvar anydiff.Res, n int) anydiff.Res {
	mean, std := SplitDist(muLogvar, n)
	c := mean.Output().Creator()
	noise := c.MakeVector(mean.Output().Len())
	anyvec.Rand(noise, anyvec.Normal, nil)
	return anydiff.Add(anydiff.Mul(anydiff.NewConst(noise), std), mean)
}
