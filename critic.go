package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// Defaults for twin value functions.
const (
	DefaultCriticHidden = 100
	DefaultCriticDepth  = 3
)

// TwinConfig configures NewTwinValueFunction.
type TwinConfig struct {
	ObservationDim int

	// ActionDim may be 0 for a state value function.
	ActionDim int

	// HiddenDim defaults to DefaultCriticHidden.
	HiddenDim int

	// Depth is the number of linear layers per stack and
	// defaults to DefaultCriticDepth.
	Depth int

	// Dim is the fast-weight latent size.
	// If 0, DefaultFastWeightDim is used.
	Dim int

	// MixCount, if non-zero, builds the stacks from
	// mixture layers with that many experts instead of
	// plain fast-weight layers.
	MixCount int
}

// TwinValueFunction is a pair of independently
// initialized fast-weight value networks.
// The minimum of the two estimates counteracts the
// overestimation bias of a single learned critic.
type TwinValueFunction struct {
	V1 anynet.Net
	V2 anynet.Net
}

// NewTwinValueFunction creates a twin critic over
// observation(+action) inputs.
func NewTwinValueFunction(c anyvec.Creator, cfg TwinConfig) *TwinValueFunction {
	hidden := cfg.HiddenDim
	if hidden == 0 {
		hidden = DefaultCriticHidden
	}
	depth := cfg.Depth
	if depth == 0 {
		depth = DefaultCriticDepth
	}
	linear := func(in, out int) anynet.Layer {
		if cfg.MixCount > 0 {
			return NewWLinearMix(c, in, out, 0, cfg.MixCount, cfg.Dim)
		}
		return NewWLinear(c, in, out, cfg.Dim)
	}
	build := func() anynet.Net {
		net := anynet.Net{
			linear(cfg.ObservationDim+cfg.ActionDim, hidden),
			anynet.ReLU,
		}
		for i := 0; i < depth-2; i++ {
			net = append(net, linear(hidden, hidden), anynet.ReLU)
		}
		return append(net, linear(hidden, 1))
	}
	return &TwinValueFunction{V1: build(), V2: build()}
}

// Apply returns the element-wise minimum of both value
// estimates for a batch of n inputs.
func (t *TwinValueFunction) Apply(x anydiff.Res, n int) anydiff.Res {
	v1, v2 := t.ApplyBoth(x, n)
	return anydiff.ElemMin(v1, v2)
}

// ApplyBoth returns both raw value estimates.
func (t *TwinValueFunction) ApplyBoth(x anydiff.Res, n int) (anydiff.Res, anydiff.Res) {
	return t.V1.Apply(x, n), t.V2.Apply(x, n)
}

// Parameters returns both stacks' parameters.
func (t *TwinValueFunction) Parameters() []*anydiff.Var {
	return append(t.V1.Parameters(), t.V2.Parameters()...)
}

// AdaptParameters returns the full parameter set.
func (t *TwinValueFunction) AdaptParameters() []*anydiff.Var {
	return t.Parameters()
}
