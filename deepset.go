package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// An Aggregator reduces per-element encodings to one
// vector per set.
type Aggregator interface {
	// Aggregate reduces an (n*setSize)-row batch of
	// encodings to an n-row batch.
	Aggregate(encodings anydiff.Res, n, setSize int) anydiff.Res
}

// MeanAggregator averages across the element axis, making
// the reduction invariant to element order and applicable
// to sets of any size.
type MeanAggregator struct{}

// Aggregate computes per-set means.
func (MeanAggregator) Aggregate(encodings anydiff.Res, n, setSize int) anydiff.Res {
	c := encodings.Output().Creator()
	dim := encodings.Output().Len() / (n * setSize)
	return anydiff.Pool(encodings, func(encodings anydiff.Res) anydiff.Res {
		sums := make([]anydiff.Res, n)
		for i := range sums {
			set := sliceOut(encodings, i*setSize*dim, (i+1)*setSize*dim)
			sums[i] = anydiff.SumRows(&anydiff.Matrix{
				Data: set,
				Rows: setSize,
				Cols: dim,
			})
		}
		joined := sums[0]
		if len(sums) > 1 {
			joined = anydiff.Concat(sums...)
		}
		return anydiff.Scale(joined, c.MakeNumeric(1/float64(setSize)))
	})
}

// DeepSet is a permutation-invariant encoder over sets of
// fixed-width elements.
// A shared position-wise network encodes every element
// independently and an aggregator reduces the encodings
// to one vector per set.
type DeepSet struct {
	// Encoder is applied to each element independently.
	Encoder anynet.Net

	// Agg reduces element encodings to set encodings.
	Agg Aggregator

	ElementDim  int
	EncodingDim int
}

// NewDeepSet creates a DeepSet whose shared element
// encoder has the given hidden widths, with a rectified
// non-linearity after every stage and mean aggregation.
// A nil hidden defaults to [128, 128].
func NewDeepSet(c anyvec.Creator, elementDim, encodingDim int, hidden []int) *DeepSet {
	if hidden == nil {
		hidden = []int{128, 128}
	}
	widths := append([]int{elementDim}, hidden...)
	widths = append(widths, encodingDim)
	var enc anynet.Net
	for i := 0; i < len(widths)-1; i++ {
		enc = append(enc, anynet.NewFC(c, widths[i], widths[i+1]), anynet.ReLU)
	}
	return &DeepSet{
		Encoder:     enc,
		Agg:         MeanAggregator{},
		ElementDim:  elementDim,
		EncodingDim: encodingDim,
	}
}

// Apply encodes a rectangular batch of n sets with
// setSize elements each.
// The layout is row-major: set, then element, then
// feature.
func (d *DeepSet) Apply(sets anydiff.Res, n, setSize int) anydiff.Res {
	encodings := d.Encoder.Apply(sets, n*setSize)
	return d.Agg.Aggregate(encodings, n, setSize)
}

// ApplySets encodes variable-size sets, one Res per set,
// and concatenates the encodings into a batch.
// No padding is involved; each set is reduced over its
// own element count.
func (d *DeepSet) ApplySets(sets []anydiff.Res) anydiff.Res {
	outs := make([]anydiff.Res, len(sets))
	for i, set := range sets {
		size := set.Output().Len() / d.ElementDim
		outs[i] = d.Apply(set, 1, size)
	}
	if len(outs) == 1 {
		return outs[0]
	}
	return anydiff.Concat(outs...)
}

// Parameters returns the shared encoder's parameters.
func (d *DeepSet) Parameters() []*anydiff.Var {
	return d.Encoder.Parameters()
}
