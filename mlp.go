package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// MLPConfig configures NewMLP.
type MLPConfig struct {
	// Widths are the layer dimensions, input first.
	// At least an input and an output width are required.
	Widths []int

	// Linear chooses the linear primitive.
	// If nil, standard fully-connected layers are used.
	Linear LinearFactory

	// FinalActivation is applied after the last linear.
	// If nil, the output is left as-is.
	FinalActivation anynet.Layer

	// HeadWidths, if non-empty, adds an auxiliary head fed
	// by the trunk output concatenated with a caller
	// supplied input of size Widths[len(Widths)-1].
	HeadWidths []int

	// Deterministic selects a point-estimate output.
	// Otherwise the final layer's width is doubled and the
	// network emits packed mean/log-variance rows.
	Deterministic bool
}

// MLP is a feed-forward stack built from named stages: a
// trunk of linear+ReLU pairs, a final (post) linear with
// an optional caller-supplied activation, and an optional
// auxiliary head.
type MLP struct {
	Trunk anynet.Net
	Post  anynet.Net
	Head  anynet.Net

	// Deterministic mirrors MLPConfig.Deterministic.
	Deterministic bool

	firstLinear anynet.Layer
}

// NewMLP builds a feed-forward network.
//
// It panics if cfg.Widths has fewer than two entries.
func NewMLP(c anyvec.Creator, cfg MLPConfig) *MLP {
	if len(cfg.Widths) < 2 {
		panic("anymeta: layer widths need at least an in-dimension and out-dimension")
	}
	factory := cfg.Linear
	if factory == nil {
		factory = FCFactory{}
	}

	widths := append([]int{}, cfg.Widths...)
	if !cfg.Deterministic {
		widths[len(widths)-1] *= 2
	}

	res := &MLP{Deterministic: cfg.Deterministic}
	for i := 0; i < len(widths)-2; i++ {
		layer := factory.NewLayer(c, widths[i], widths[i+1])
		if res.firstLinear == nil {
			res.firstLinear = layer
		}
		res.Trunk = append(res.Trunk, layer, anynet.ReLU)
	}
	last := factory.NewLayer(c, widths[len(widths)-2], widths[len(widths)-1])
	if res.firstLinear == nil {
		res.firstLinear = last
	}
	res.Post = anynet.Net{last}
	if cfg.FinalActivation != nil {
		res.Post = append(res.Post, cfg.FinalActivation)
	}

	if len(cfg.HeadWidths) > 0 {
		headWidths := append([]int{cfg.Widths[len(cfg.Widths)-2] +
			cfg.Widths[len(cfg.Widths)-1]}, cfg.HeadWidths...)
		for i := 0; i < len(headWidths)-1; i++ {
			res.Head = append(res.Head, anynet.ReLU,
				factory.NewLayer(c, headWidths[i], headWidths[i+1]))
		}
	}

	return res
}

// Apply runs the network on a batch of n inputs.
//
// In probabilistic mode the result is the packed
// mean/log-variance output; use ApplyDist or SplitDist
// for the distribution pair.
func (m *MLP) Apply(in anydiff.Res, n int) anydiff.Res {
	return m.Post.Apply(m.Trunk.Apply(in, n), n)
}

// ApplyDist runs the network and splits its output into a
// mean and a bounded standard deviation.
func (m *MLP) ApplyDist(in anydiff.Res, n int) (mean, std anydiff.Res) {
	return SplitDist(m.Apply(in, n), n)
}

// ApplyWithHead runs the trunk once and feeds it to both
// the primary output stage and the auxiliary head, whose
// input is the trunk output concatenated with aux.
//
// In probabilistic mode the primary result is packed, as
// with Apply.
func (m *MLP) ApplyWithHead(in, aux anydiff.Res, n int) (primary, head anydiff.Res) {
	if m.Head == nil {
		panic("anymeta: network has no auxiliary head")
	}
	hidden := m.Trunk.Apply(in, n)
	primary = m.Post.Apply(hidden, n)
	headIn := anynet.ConcatMixer{}.Mix(hidden, aux, n)
	head = m.Head.Apply(headIn, n)
	return
}

// Parameters returns all learnable parameters.
func (m *MLP) Parameters() []*anydiff.Var {
	res := append(m.Trunk.Parameters(), m.Post.Parameters()...)
	return append(res, m.Head.Parameters()...)
}

// AdaptParameters aggregates the adaptation parameters of
// every constituent layer.
func (m *MLP) AdaptParameters() []*anydiff.Var {
	var res []*anydiff.Var
	for _, net := range []anynet.Net{m.Trunk, m.Post, m.Head} {
		for _, layer := range net {
			res = append(res, AdaptParameters(layer)...)
		}
	}
	return res
}

// BiasParameters returns the first linear's bias, for
// selective fine-tuning.
// For a fast-weight first layer this is the generator's
// bias.
func (m *MLP) BiasParameters() []*anydiff.Var {
	switch l := m.firstLinear.(type) {
	case *anynet.FC:
		return []*anydiff.Var{l.Biases}
	case *BiasLinear:
		return []*anydiff.Var{l.Linear.Biases}
	case *WLinear:
		return []*anydiff.Var{l.Gen.Biases}
	}
	return nil
}
