package anymeta

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// DefaultFastWeightDim is the default size of the latent
// vector behind a fast-weight layer.
const DefaultFastWeightDim = 100

// Defaults for mixture layers.
const (
	DefaultMixDepth = 3
	DefaultMixCount = 5
)

// An Adapter exposes the subset of a module's learnable
// parameters meant for rapid per-task adaptation, as
// opposed to the full set used for slow learning.
type Adapter interface {
	AdaptParameters() []*anydiff.Var
}

// AdaptParameters collects the adaptation parameters of
// every argument, falling back to the full parameter set
// for objects without a distinguished fast subset.
func AdaptParameters(objs ...interface{}) []*anydiff.Var {
	var res []*anydiff.Var
	for _, obj := range objs {
		if a, ok := obj.(Adapter); ok {
			res = append(res, a.AdaptParameters()...)
		} else {
			res = append(res, anynet.AllParameters(obj)...)
		}
	}
	return res
}

// WLinear is a linear layer whose weight matrix and bias
// are generated from a small latent vector by a shared
// linear map.
// Adapting the layer to a new task only requires updating
// the latent, while the generating map is shared across
// tasks.
type WLinear struct {
	InCount  int
	OutCount int

	// Z is the per-instance latent vector.
	Z *anydiff.Var

	// Gen transforms Z into a flat parameter vector of
	// size InCount*OutCount+OutCount.
	Gen *anynet.FC
}

// NewWLinear creates a WLinear with a latent of size dim.
// If dim is 0, DefaultFastWeightDim is used.
// The latent is initialized from N(0, 1/out).
func NewWLinear(c anyvec.Creator, in, out, dim int) *WLinear {
	if dim <= 0 {
		dim = DefaultFastWeightDim
	}
	z := c.MakeVector(dim)
	anyvec.Rand(z, anyvec.Normal, nil)
	z.Scale(c.MakeNumeric(1 / float64(out)))
	return &WLinear{
		InCount:  in,
		OutCount: out,
		Z:        anydiff.NewVar(z),
		Gen:      anynet.NewFC(c, dim, in*out+out),
	}
}

// Apply generates the layer parameters from Z and applies
// the resulting affine transform to a batch of n inputs.
func (w *WLinear) Apply(in anydiff.Res, n int) anydiff.Res {
	theta := w.Gen.Apply(w.Z, 1)
	return anydiff.Pool(theta, func(theta anydiff.Res) anydiff.Res {
		return applyFlat(theta, in, w.InCount, w.OutCount, n)
	})
}

// Parameters returns the full learnable parameter set.
func (w *WLinear) Parameters() []*anydiff.Var {
	return append([]*anydiff.Var{w.Z}, w.Gen.Parameters()...)
}

// AdaptParameters returns just the latent vector.
func (w *WLinear) AdaptParameters() []*anydiff.Var {
	return []*anydiff.Var{w.Z}
}

// WLinearMix generates parameters for several linear
// experts from one shared latent and averages the expert
// outputs.
// There is no distinguished adaptation subset; the full
// parameter set is the fast set.
type WLinearMix struct {
	InCount  int
	OutCount int
	MixCount int

	// Z is the shared latent vector.
	Z *anydiff.Var

	// Hidden contains the hidden latent transforms, each
	// followed by a rectification.
	Hidden anynet.Net

	// Out maps the transformed latent to the stacked
	// expert parameters, bounded by tanh.
	Out *anynet.FC

	// Scales is learnable but currently unapplied: the
	// expert outputs are averaged, not weighted.
	Scales *anydiff.Var
}

// NewWLinearMix creates a mixture layer with the given
// number of experts.
// Zero values for depth, nMix and dim select the package
// defaults.
func NewWLinearMix(c anyvec.Creator, in, out, depth, nMix, dim int) *WLinearMix {
	if depth <= 0 {
		depth = DefaultMixDepth
	}
	if nMix <= 0 {
		nMix = DefaultMixCount
	}
	if dim <= 0 {
		dim = DefaultFastWeightDim
	}
	larger := in
	if out > larger {
		larger = out
	}
	z := c.MakeVector(dim)
	anyvec.Rand(z, anyvec.Normal, nil)
	z.Scale(c.MakeNumeric(1 / float64(larger*nMix)))
	var hidden anynet.Net
	for i := 0; i < depth-1; i++ {
		hidden = append(hidden, anynet.NewFC(c, dim, dim), anynet.ReLU)
	}
	return &WLinearMix{
		InCount:  in,
		OutCount: out,
		MixCount: nMix,
		Z:        anydiff.NewVar(z),
		Hidden:   hidden,
		Out:      anynet.NewFC(c, dim, nMix*(in*out+out)),
		Scales:   anydiff.NewVar(anyvec.Ones(c, nMix)),
	}
}

// Apply runs every expert on a batch of n inputs and
// returns the mean of the expert outputs.
func (w *WLinearMix) Apply(in anydiff.Res, n int) anydiff.Res {
	c := in.Output().Creator()
	perExpert := w.InCount*w.OutCount + w.OutCount
	theta := anydiff.Tanh(w.Out.Apply(w.Hidden.Apply(w.Z, 1), 1))
	return anydiff.Pool(theta, func(theta anydiff.Res) anydiff.Res {
		return anydiff.Pool(in, func(in anydiff.Res) anydiff.Res {
			var sum anydiff.Res
			for i := 0; i < w.MixCount; i++ {
				params := sliceOut(theta, i*perExpert, (i+1)*perExpert)
				out := applyFlat(params, in, w.InCount, w.OutCount, n)
				if sum == nil {
					sum = out
				} else {
					sum = anydiff.Add(sum, out)
				}
			}
			return anydiff.Scale(sum, c.MakeNumeric(1/float64(w.MixCount)))
		})
	})
}

// Parameters returns the full learnable parameter set,
// including the unapplied scales.
func (w *WLinearMix) Parameters() []*anydiff.Var {
	res := []*anydiff.Var{w.Z}
	res = append(res, w.Hidden.Parameters()...)
	res = append(res, w.Out.Parameters()...)
	return append(res, w.Scales)
}

// BiasLinear is a standard affine transform plus a
// learned low-rank additive correction: a small bias
// vector pushed through a projection matrix.
type BiasLinear struct {
	Linear *anynet.FC

	// Bias is the correction input, of size BiasCount.
	Bias *anydiff.Var

	// Proj is the BiasCount x output projection.
	Proj *anydiff.Var

	BiasCount int
}

// NewBiasLinear creates a BiasLinear.
// If biasSize is 0, the output size is used.
func NewBiasLinear(c anyvec.Creator, in, out, biasSize int) *BiasLinear {
	if biasSize <= 0 {
		biasSize = out
	}
	bias := c.MakeVector(biasSize)
	anyvec.Rand(bias, anyvec.Normal, nil)
	bias.Scale(c.MakeNumeric(1 / float64(biasSize)))
	proj := c.MakeVector(biasSize * out)
	anyvec.Rand(proj, anyvec.Normal, nil)
	proj.Scale(c.MakeNumeric(math.Sqrt(2 / float64(biasSize+out))))
	return &BiasLinear{
		Linear:    anynet.NewFC(c, in, out),
		Bias:      anydiff.NewVar(bias),
		Proj:      anydiff.NewVar(proj),
		BiasCount: biasSize,
	}
}

// Apply applies the affine transform plus the correction
// to a batch of n inputs.
func (b *BiasLinear) Apply(in anydiff.Res, n int) anydiff.Res {
	correction := anydiff.MatMul(false, false,
		&anydiff.Matrix{Data: b.Bias, Rows: 1, Cols: b.BiasCount},
		&anydiff.Matrix{Data: b.Proj, Rows: b.BiasCount, Cols: b.Linear.OutCount})
	return addRepeated(b.Linear.Apply(in, n), correction.Data, n)
}

// Parameters returns the full learnable parameter set.
func (b *BiasLinear) Parameters() []*anydiff.Var {
	return append(b.Linear.Parameters(), b.Bias, b.Proj)
}

// AdaptParameters returns the full parameter set; the
// correction term itself is the fast-adapting component.
func (b *BiasLinear) AdaptParameters() []*anydiff.Var {
	return b.Parameters()
}

// A LinearFactory chooses the linear primitive used at
// each layer of a built network.
type LinearFactory interface {
	NewLayer(c anyvec.Creator, in, out int) anynet.Layer
}

// FCFactory builds standard fully-connected layers.
type FCFactory struct{}

// NewLayer creates an anynet.FC.
func (FCFactory) NewLayer(c anyvec.Creator, in, out int) anynet.Layer {
	return anynet.NewFC(c, in, out)
}

// BiasFactory builds BiasLinear layers.
type BiasFactory struct {
	// BiasSize is the correction size.
	// If 0, each layer's output size is used.
	BiasSize int
}

// NewLayer creates a BiasLinear.
func (b BiasFactory) NewLayer(c anyvec.Creator, in, out int) anynet.Layer {
	return NewBiasLinear(c, in, out, b.BiasSize)
}

// FastWeightFactory builds WLinear layers.
type FastWeightFactory struct {
	// Dim is the latent size.
	// If 0, DefaultFastWeightDim is used.
	Dim int
}

// NewLayer creates a WLinear.
func (f FastWeightFactory) NewLayer(c anyvec.Creator, in, out int) anynet.Layer {
	return NewWLinear(c, in, out, f.Dim)
}
