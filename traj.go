package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/lazyseq"
)

// SetsFromTapes joins recorded observation and action
// tapes into one set tensor per sequence, with one
// observation-action row per timestep.
//
// The two tapes must describe the same sequences, the way
// a rollout recorder produces them.
// The results feed DeepSet.ApplySets or CVAE.EncodeSets;
// sequences with no timesteps are dropped.
func SetsFromTapes(c anyvec.Creator, obses, acts lazyseq.Tape) []anydiff.Res {
	var rows [][]anyvec.Vector
	actCh := acts.ReadTape(0, -1)
	for obsBatch := range obses.ReadTape(0, -1) {
		actBatch := <-actCh
		if rows == nil {
			rows = make([][]anyvec.Vector, len(obsBatch.Present))
		}
		obsVecs := splitBatch(obsBatch)
		actVecs := splitBatch(actBatch)
		idx := 0
		for seq, present := range obsBatch.Present {
			if !present {
				continue
			}
			rows[seq] = append(rows[seq], c.Concat(obsVecs[idx], actVecs[idx]))
			idx++
		}
	}

	var res []anydiff.Res
	for _, seqRows := range rows {
		if len(seqRows) == 0 {
			continue
		}
		res = append(res, anydiff.NewConst(c.Concat(seqRows...)))
	}
	return res
}

// splitBatch slices a packed batch into one vector per
// present sequence.
func splitBatch(b *anyseq.Batch) []anyvec.Vector {
	count := 0
	for _, p := range b.Present {
		if p {
			count++
		}
	}
	dim := b.Packed.Len() / count
	vecs := make([]anyvec.Vector, count)
	for i := range vecs {
		vecs[i] = b.Packed.Slice(i*dim, (i+1)*dim)
	}
	return vecs
}
