package anymeta

import (
	"reflect"
	"testing"

	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/lazyseq"
)

func TestSetsFromTapes(t *testing.T) {
	c := anyvec64.DefaultCreator{}

	obsTape, obsWriter := lazyseq.ReferenceTape(c)
	actTape, actWriter := lazyseq.ReferenceTape(c)

	// Two sequences with observation size 2 and action
	// size 1; the second sequence ends after one step.
	obsWriter <- &anyseq.Batch{
		Present: []bool{true, true},
		Packed:  c.MakeVectorData([]float64{1, 2, 10, 20}),
	}
	actWriter <- &anyseq.Batch{
		Present: []bool{true, true},
		Packed:  c.MakeVectorData([]float64{0.25, 0.5}),
	}
	obsWriter <- &anyseq.Batch{
		Present: []bool{true, false},
		Packed:  c.MakeVectorData([]float64{3, 4}),
	}
	actWriter <- &anyseq.Batch{
		Present: []bool{true, false},
		Packed:  c.MakeVectorData([]float64{0.75}),
	}
	close(obsWriter)
	close(actWriter)

	sets := SetsFromTapes(c, obsTape, actTape)
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets but got %d", len(sets))
	}

	expected := [][]float64{
		{1, 2, 0.25, 3, 4, 0.75},
		{10, 20, 0.5},
	}
	for i, set := range sets {
		actual := set.Output().Data().([]float64)
		if !reflect.DeepEqual(actual, expected[i]) {
			t.Errorf("set %d: expected %v but got %v", i, expected[i], actual)
		}
	}
}

func TestSetsFromTapesEncode(t *testing.T) {
	c := anyvec64.DefaultCreator{}

	obsTape, obsWriter := lazyseq.ReferenceTape(c)
	actTape, actWriter := lazyseq.ReferenceTape(c)
	for i := 0; i < 3; i++ {
		obsWriter <- &anyseq.Batch{
			Present: []bool{true},
			Packed:  c.MakeVectorData([]float64{float64(i), 1, -1}),
		}
		actWriter <- &anyseq.Batch{
			Present: []bool{true},
			Packed:  c.MakeVectorData([]float64{0.5, -0.5}),
		}
	}
	close(obsWriter)
	close(actWriter)

	v := NewCVAE(c, testCVAEConfig())
	sets := SetsFromTapes(c, obsTape, actTape)
	encoded := v.EncodeSets(sets)
	if encoded.Output().Len() != 2*4 {
		t.Errorf("expected length %d but got %d", 2*4, encoded.Output().Len())
	}
}
