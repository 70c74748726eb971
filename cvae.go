package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// DefaultLatentDim is the default latent size of a CVAE.
const DefaultLatentDim = 32

// CVAEConfig configures NewCVAE.
type CVAEConfig struct {
	ObservationDim int
	ActionDim      int

	// TrajDim is the size of the trajectory encoding
	// produced by the set encoder.
	TrajDim int

	// LatentDim defaults to DefaultLatentDim.
	LatentDim int

	// Hidden widths for the three networks.
	// A nil list defaults to [128, 64].
	EncoderHidden []int
	PriorHidden   []int
	DecoderHidden []int

	// ConditionPrior selects a learned prior network over
	// observations instead of a standard normal prior.
	ConditionPrior bool

	// Preprocess remaps the latent and the observation to
	// latent-sized representations before the decoder
	// concatenation, instead of concatenating them raw.
	Preprocess bool
}

// CVAE is a conditional variational model over actions:
// trajectories of observation-action pairs are encoded
// into a Gaussian latent, and a latent plus an
// observation decode to an action distribution.
type CVAE struct {
	// Creator is the numeric context used for fallback
	// tensors such as the unconditioned prior.
	Creator anyvec.Creator

	TrajEncoder *DeepSet
	Encoder     *MLP

	// PriorNet is nil for a standard normal prior.
	PriorNet *MLP

	Decoder *MLP

	// StatePre and LatentPre are non-nil in preprocess
	// mode only.
	StatePre  *MLP
	LatentPre *MLP

	LatentDim int

	fixed anyvec.Vector
}

// NewCVAE creates a CVAE from a configuration.
func NewCVAE(c anyvec.Creator, cfg CVAEConfig) *CVAE {
	latentDim := cfg.LatentDim
	if latentDim == 0 {
		latentDim = DefaultLatentDim
	}
	encHidden := defaultHidden(cfg.EncoderHidden)
	priorHidden := defaultHidden(cfg.PriorHidden)
	decHidden := defaultHidden(cfg.DecoderHidden)

	res := &CVAE{
		Creator:   c,
		LatentDim: latentDim,
	}
	res.TrajEncoder = NewDeepSet(c, cfg.ObservationDim+cfg.ActionDim,
		cfg.TrajDim, nil)
	res.Encoder = NewMLP(c, MLPConfig{
		Widths:        stackWidths(cfg.TrajDim, encHidden, latentDim*2),
		Deterministic: true,
	})
	if cfg.ConditionPrior {
		res.PriorNet = NewMLP(c, MLPConfig{
			Widths:        stackWidths(cfg.ObservationDim, priorHidden, latentDim*2),
			Deterministic: true,
		})
	}
	decoderIn := latentDim + cfg.ObservationDim
	if cfg.Preprocess {
		decoderIn = latentDim * 2
		res.StatePre = NewMLP(c, MLPConfig{
			Widths:        stackWidths(cfg.ObservationDim, decHidden, latentDim),
			Deterministic: true,
		})
		res.LatentPre = NewMLP(c, MLPConfig{
			Widths:        stackWidths(latentDim, decHidden, latentDim),
			Deterministic: true,
		})
	}
	res.Decoder = NewMLP(c, MLPConfig{
		Widths:        stackWidths(decoderIn, decHidden, cfg.ActionDim*2),
		Deterministic: true,
	})
	return res
}

func defaultHidden(h []int) []int {
	if h == nil {
		return []int{128, 64}
	}
	return h
}

func stackWidths(in int, hidden []int, out int) []int {
	widths := append([]int{in}, hidden...)
	return append(widths, out)
}

// Encode runs the set encoder over a rectangular batch of
// n trajectories with setSize observation-action pairs
// each, then the encoder network, producing packed latent
// mean/log-variance rows.
func (v *CVAE) Encode(traj anydiff.Res, n, setSize int) anydiff.Res {
	return v.Encoder.Apply(v.TrajEncoder.Apply(traj, n, setSize), n)
}

// EncodeSets is Encode for variable-length trajectories,
// one Res per trajectory.
func (v *CVAE) EncodeSets(trajs []anydiff.Res) anydiff.Res {
	return v.Encoder.Apply(v.TrajEncoder.ApplySets(trajs), len(trajs))
}

// Prior returns the packed latent mean/log-variance rows
// conditioned on a batch of n observations.
//
// Without a conditioning prior network this is the
// standard normal prior: all zeros, independent of obs.
func (v *CVAE) Prior(obs anydiff.Res, n int) anydiff.Res {
	if v.PriorNet == nil {
		return anydiff.NewConst(v.Creator.MakeVector(n * v.LatentDim * 2))
	}
	return v.PriorNet.Apply(obs, n)
}

// Sample draws one reparameterized latent per row of a
// packed mean/log-variance batch.
func (v *CVAE) Sample(muLogvar anydiff.Res, n int) anydiff.Res {
	return SampleDist(muLogvar, n)
}

// Decode produces packed action mean/log-variance rows
// from a batch of n latents and observations.
func (v *CVAE) Decode(latent, obs anydiff.Res, n int) anydiff.Res {
	if v.StatePre != nil {
		obs = v.StatePre.Apply(obs, n)
		latent = v.LatentPre.Apply(latent, n)
	}
	joined := anynet.ConcatMixer{}.Mix(latent, obs, n)
	return v.Decoder.Apply(joined, n)
}

// Fix samples one latent from the prior for a batch of n
// observations, detaches it from gradient tracking, and
// caches it so that subsequent Apply calls with the same
// batch size reuse it.
//
// Fix, Apply and Unfix share the instance's cached
// latent; do not call them concurrently on the same
// instance.
// Pair every Fix with an Unfix on all exit paths so a
// stale latent does not leak into unrelated calls.
func (v *CVAE) Fix(obs anydiff.Res, n int) {
	v.fixed = v.Sample(v.Prior(obs, n), n).Output().Copy()
}

// Unfix clears the cached latent, so Apply resumes
// sampling fresh latents from the prior.
func (v *CVAE) Unfix() {
	v.fixed = nil
}

// FixedLatent returns the cached latent, or nil when no
// latent is fixed.
// Callers that prefer explicit latent threading can pass
// it to Decode directly.
func (v *CVAE) FixedLatent() anyvec.Vector {
	return v.fixed
}

// Apply decodes an action distribution for a batch of n
// observations, using the cached latent when one is fixed
// and a fresh prior sample otherwise.
//
// While a latent is fixed, repeated calls with the same
// observations are numerically identical.
func (v *CVAE) Apply(obs anydiff.Res, n int) (mean, std anydiff.Res) {
	var latent anydiff.Res
	if v.fixed != nil {
		latent = anydiff.NewConst(v.fixed)
	} else {
		latent = v.Sample(v.Prior(obs, n), n)
	}
	return SplitDist(v.Decode(latent, obs, n), n)
}

// Parameters returns the parameters of every sub-network.
func (v *CVAE) Parameters() []*anydiff.Var {
	res := append(v.TrajEncoder.Parameters(), v.Encoder.Parameters()...)
	res = append(res, v.Decoder.Parameters()...)
	for _, m := range []*MLP{v.PriorNet, v.StatePre, v.LatentPre} {
		if m != nil {
			res = append(res, m.Parameters()...)
		}
	}
	return res
}

// AdaptParameters aggregates the adaptation parameters of
// every sub-network.
func (v *CVAE) AdaptParameters() []*anydiff.Var {
	res := AdaptParameters(v.TrajEncoder.Encoder)
	for _, m := range []*MLP{v.Encoder, v.Decoder, v.PriorNet, v.StatePre, v.LatentPre} {
		if m != nil {
			res = append(res, m.AdaptParameters()...)
		}
	}
	return res
}

// BiasParameters returns the decoder's first-layer bias.
func (v *CVAE) BiasParameters() []*anydiff.Var {
	return v.Decoder.BiasParameters()
}
