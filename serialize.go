package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	serializer.RegisterTypedDeserializer((&WLinear{}).SerializerType(),
		DeserializeWLinear)
	serializer.RegisterTypedDeserializer((&WLinearMix{}).SerializerType(),
		DeserializeWLinearMix)
	serializer.RegisterTypedDeserializer((&BiasLinear{}).SerializerType(),
		DeserializeBiasLinear)
	serializer.RegisterTypedDeserializer((&MLP{}).SerializerType(),
		DeserializeMLP)
	serializer.RegisterTypedDeserializer((&DeepSet{}).SerializerType(),
		DeserializeDeepSet)
	serializer.RegisterTypedDeserializer((&CVAE{}).SerializerType(),
		DeserializeCVAE)
	serializer.RegisterTypedDeserializer((&TwinValueFunction{}).SerializerType(),
		DeserializeTwinValueFunction)
}

// SerializerType returns the unique ID used to serialize
// a WLinear.
func (w *WLinear) SerializerType() string {
	return "github.com/anymeta/anymeta.WLinear"
}

// Serialize serializes the layer.
func (w *WLinear) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		&anyvecsave.S{Vector: w.Z.Vector},
		w.Gen,
		serializer.Int(w.InCount),
		serializer.Int(w.OutCount),
	)
}

// DeserializeWLinear deserializes a WLinear.
func DeserializeWLinear(d []byte) (*WLinear, error) {
	var z *anyvecsave.S
	var gen *anynet.FC
	var in, out serializer.Int
	if err := serializer.DeserializeAny(d, &z, &gen, &in, &out); err != nil {
		return nil, essentials.AddCtx("deserialize WLinear", err)
	}
	return &WLinear{
		InCount:  int(in),
		OutCount: int(out),
		Z:        anydiff.NewVar(z.Vector),
		Gen:      gen,
	}, nil
}

// SerializerType returns the unique ID used to serialize
// a WLinearMix.
func (w *WLinearMix) SerializerType() string {
	return "github.com/anymeta/anymeta.WLinearMix"
}

// Serialize serializes the layer.
func (w *WLinearMix) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		&anyvecsave.S{Vector: w.Z.Vector},
		w.Hidden,
		w.Out,
		&anyvecsave.S{Vector: w.Scales.Vector},
		serializer.Int(w.InCount),
		serializer.Int(w.OutCount),
		serializer.Int(w.MixCount),
	)
}

// DeserializeWLinearMix deserializes a WLinearMix.
func DeserializeWLinearMix(d []byte) (*WLinearMix, error) {
	var z, scales *anyvecsave.S
	var hidden anynet.Net
	var out *anynet.FC
	var in, outCount, nMix serializer.Int
	err := serializer.DeserializeAny(d, &z, &hidden, &out, &scales, &in,
		&outCount, &nMix)
	if err != nil {
		return nil, essentials.AddCtx("deserialize WLinearMix", err)
	}
	return &WLinearMix{
		InCount:  int(in),
		OutCount: int(outCount),
		MixCount: int(nMix),
		Z:        anydiff.NewVar(z.Vector),
		Hidden:   hidden,
		Out:      out,
		Scales:   anydiff.NewVar(scales.Vector),
	}, nil
}

// SerializerType returns the unique ID used to serialize
// a BiasLinear.
func (b *BiasLinear) SerializerType() string {
	return "github.com/anymeta/anymeta.BiasLinear"
}

// Serialize serializes the layer.
func (b *BiasLinear) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		b.Linear,
		&anyvecsave.S{Vector: b.Bias.Vector},
		&anyvecsave.S{Vector: b.Proj.Vector},
		serializer.Int(b.BiasCount),
	)
}

// DeserializeBiasLinear deserializes a BiasLinear.
func DeserializeBiasLinear(d []byte) (*BiasLinear, error) {
	var linear *anynet.FC
	var bias, proj *anyvecsave.S
	var biasCount serializer.Int
	err := serializer.DeserializeAny(d, &linear, &bias, &proj, &biasCount)
	if err != nil {
		return nil, essentials.AddCtx("deserialize BiasLinear", err)
	}
	return &BiasLinear{
		Linear:    linear,
		Bias:      anydiff.NewVar(bias.Vector),
		Proj:      anydiff.NewVar(proj.Vector),
		BiasCount: int(biasCount),
	}, nil
}

// SerializerType returns the unique ID used to serialize
// an MLP.
func (m *MLP) SerializerType() string {
	return "github.com/anymeta/anymeta.MLP"
}

// Serialize serializes the network.
func (m *MLP) Serialize() ([]byte, error) {
	deterministic := serializer.Int(0)
	if m.Deterministic {
		deterministic = 1
	}
	head := m.Head
	if head == nil {
		head = anynet.Net{}
	}
	return serializer.SerializeAny(m.Trunk, m.Post, head, deterministic)
}

// DeserializeMLP deserializes an MLP.
func DeserializeMLP(d []byte) (*MLP, error) {
	var trunk, post, head anynet.Net
	var deterministic serializer.Int
	err := serializer.DeserializeAny(d, &trunk, &post, &head, &deterministic)
	if err != nil {
		return nil, essentials.AddCtx("deserialize MLP", err)
	}
	res := &MLP{
		Trunk:         trunk,
		Post:          post,
		Deterministic: deterministic != 0,
	}
	if len(head) > 0 {
		res.Head = head
	}
	if len(trunk) > 0 {
		res.firstLinear = trunk[0]
	} else {
		res.firstLinear = post[0]
	}
	return res, nil
}

// SerializerType returns the unique ID used to serialize
// a DeepSet.
func (d *DeepSet) SerializerType() string {
	return "github.com/anymeta/anymeta.DeepSet"
}

// Serialize serializes the encoder.
func (d *DeepSet) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		d.Encoder,
		serializer.Int(d.ElementDim),
		serializer.Int(d.EncodingDim),
	)
}

// DeserializeDeepSet deserializes a DeepSet.
// The aggregation strategy is restored to the mean.
func DeserializeDeepSet(d []byte) (*DeepSet, error) {
	var enc anynet.Net
	var elementDim, encodingDim serializer.Int
	err := serializer.DeserializeAny(d, &enc, &elementDim, &encodingDim)
	if err != nil {
		return nil, essentials.AddCtx("deserialize DeepSet", err)
	}
	return &DeepSet{
		Encoder:     enc,
		Agg:         MeanAggregator{},
		ElementDim:  int(elementDim),
		EncodingDim: int(encodingDim),
	}, nil
}

// SerializerType returns the unique ID used to serialize
// a CVAE.
func (v *CVAE) SerializerType() string {
	return "github.com/anymeta/anymeta.CVAE"
}

// Serialize serializes every sub-network.
// The cached latent is transient state and is not saved.
func (v *CVAE) Serialize() ([]byte, error) {
	optional := func(nets ...*MLP) anynet.Net {
		var res anynet.Net
		for _, net := range nets {
			if net != nil {
				res = append(res, net)
			}
		}
		return res
	}
	return serializer.SerializeAny(
		v.TrajEncoder,
		v.Encoder,
		v.Decoder,
		optional(v.PriorNet),
		optional(v.StatePre, v.LatentPre),
		serializer.Int(v.LatentDim),
	)
}

// DeserializeCVAE deserializes a CVAE.
// The numeric context is restored from the decoder's
// parameters.
func DeserializeCVAE(d []byte) (*CVAE, error) {
	var trajEncoder *DeepSet
	var encoder, decoder *MLP
	var prior, pre anynet.Net
	var latentDim serializer.Int
	err := serializer.DeserializeAny(d, &trajEncoder, &encoder, &decoder,
		&prior, &pre, &latentDim)
	if err != nil {
		return nil, essentials.AddCtx("deserialize CVAE", err)
	}
	res := &CVAE{
		Creator:     decoder.Parameters()[0].Vector.Creator(),
		TrajEncoder: trajEncoder,
		Encoder:     encoder,
		Decoder:     decoder,
		LatentDim:   int(latentDim),
	}
	if len(prior) > 0 {
		res.PriorNet = prior[0].(*MLP)
	}
	if len(pre) == 2 {
		res.StatePre = pre[0].(*MLP)
		res.LatentPre = pre[1].(*MLP)
	}
	return res, nil
}

// SerializerType returns the unique ID used to serialize
// a TwinValueFunction.
func (t *TwinValueFunction) SerializerType() string {
	return "github.com/anymeta/anymeta.TwinValueFunction"
}

// Serialize serializes both stacks.
func (t *TwinValueFunction) Serialize() ([]byte, error) {
	return serializer.SerializeAny(t.V1, t.V2)
}

// DeserializeTwinValueFunction deserializes a
// TwinValueFunction.
func DeserializeTwinValueFunction(d []byte) (*TwinValueFunction, error) {
	var v1, v2 anynet.Net
	if err := serializer.DeserializeAny(d, &v1, &v2); err != nil {
		return nil, essentials.AddCtx("deserialize TwinValueFunction", err)
	}
	return &TwinValueFunction{V1: v1, V2: v2}, nil
}
