package anymeta

import (
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func testCVAEConfig() CVAEConfig {
	return CVAEConfig{
		ObservationDim: 3,
		ActionDim:      2,
		TrajDim:        6,
		LatentDim:      4,
		EncoderHidden:  []int{16},
		PriorHidden:    []int{16},
		DecoderHidden:  []int{16},
	}
}

func TestCVAEPriorUnconditioned(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	v := NewCVAE(c, testCVAEConfig())

	obs := c.MakeVector(2 * 3)
	anyvec.Rand(obs, anyvec.Normal, nil)
	prior := v.Prior(anydiff.NewConst(obs), 2)
	if prior.Output().Len() != 2*2*4 {
		t.Fatalf("expected length %d but got %d", 2*2*4, prior.Output().Len())
	}
	if anyvec.AbsMax(prior.Output()).(float64) != 0 {
		t.Error("unconditioned prior is not the zero vector")
	}
}

func TestCVAEConditionedPrior(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	cfg := testCVAEConfig()
	cfg.ConditionPrior = true
	v := NewCVAE(c, cfg)

	obs := c.MakeVector(2 * 3)
	anyvec.Rand(obs, anyvec.Normal, nil)
	prior := v.Prior(anydiff.NewConst(obs), 2)
	if prior.Output().Len() != 2*2*4 {
		t.Fatalf("expected length %d but got %d", 2*2*4, prior.Output().Len())
	}
}

func TestCVAEEncodeShapes(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	v := NewCVAE(c, testCVAEConfig())

	// Batch of 2 trajectories, 3 steps each, elements of
	// size obs+act = 5.
	traj := c.MakeVector(2 * 3 * 5)
	anyvec.Rand(traj, anyvec.Normal, nil)
	encoded := v.Encode(anydiff.NewConst(traj), 2, 3)
	if encoded.Output().Len() != 2*2*4 {
		t.Errorf("expected length %d but got %d", 2*2*4, encoded.Output().Len())
	}

	// Variable-length trajectories.
	short := c.MakeVector(2 * 5)
	long := c.MakeVector(6 * 5)
	anyvec.Rand(short, anyvec.Normal, nil)
	anyvec.Rand(long, anyvec.Normal, nil)
	encoded = v.EncodeSets([]anydiff.Res{
		anydiff.NewConst(short),
		anydiff.NewConst(long),
	})
	if encoded.Output().Len() != 2*2*4 {
		t.Errorf("expected length %d but got %d", 2*2*4, encoded.Output().Len())
	}
}

func TestCVAEDecodeShapes(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	for _, preprocess := range []bool{false, true} {
		cfg := testCVAEConfig()
		cfg.Preprocess = preprocess
		v := NewCVAE(c, cfg)

		latent := c.MakeVector(2 * 4)
		obs := c.MakeVector(2 * 3)
		anyvec.Rand(latent, anyvec.Normal, nil)
		anyvec.Rand(obs, anyvec.Normal, nil)
		decoded := v.Decode(anydiff.NewConst(latent), anydiff.NewConst(obs), 2)
		if decoded.Output().Len() != 2*2*2 {
			t.Errorf("preprocess=%v: expected length %d but got %d",
				preprocess, 2*2*2, decoded.Output().Len())
		}
	}
}

func TestCVAEFixedLatent(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	v := NewCVAE(c, testCVAEConfig())

	obs := anydiff.NewConst(c.MakeVectorData([]float64{0.1, -0.5, 2}))

	if v.FixedLatent() != nil {
		t.Fatal("new model should start free")
	}
	v.Fix(obs, 1)
	if v.FixedLatent() == nil {
		t.Fatal("latent not cached after Fix")
	}

	mean1, std1 := v.Apply(obs, 1)
	mean2, std2 := v.Apply(obs, 1)
	for _, pair := range [][2]anydiff.Res{{mean1, mean2}, {std1, std2}} {
		diff := pair[0].Output().Copy()
		diff.Sub(pair[1].Output())
		if anyvec.AbsMax(diff).(float64) != 0 {
			t.Error("fixed-latent decodes are not identical")
		}
	}

	v.Unfix()
	if v.FixedLatent() != nil {
		t.Fatal("latent still cached after Unfix")
	}
	mean3, _ := v.Apply(obs, 1)
	mean4, _ := v.Apply(obs, 1)
	diff := mean3.Output().Copy()
	diff.Sub(mean4.Output())
	if anyvec.AbsMax(diff).(float64) == 0 {
		t.Error("free decodes did not resample the latent")
	}
}

func TestCVAEParameterSets(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	cfg := testCVAEConfig()
	cfg.ConditionPrior = true
	cfg.Preprocess = true
	v := NewCVAE(c, cfg)

	if len(v.Parameters()) == 0 {
		t.Error("no parameters")
	}
	if len(v.AdaptParameters()) != len(v.Parameters()) {
		t.Error("plain layers should adapt their full parameter set")
	}
	if len(v.BiasParameters()) != 1 {
		t.Errorf("expected one bias parameter but got %d",
			len(v.BiasParameters()))
	}
}

func assertSimilar(t *testing.T, actual, expected anyvec.Vector) {
	diff := actual.Copy()
	diff.Sub(expected)
	if anyvec.AbsMax(diff).(float64) > 1e-2 {
		t.Errorf("expected %v but got %v", expected.Data(), actual.Data())
	}
}
