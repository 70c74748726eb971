package anymeta

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// mapperRes gathers entries of a vector through an
// anyvec.Mapper, scattering upstream gradients back
// through the transposed mapping.
type mapperRes struct {
	In     anydiff.Res
	Mapper anyvec.Mapper
	OutVec anyvec.Vector
}

func mapOut(m anyvec.Mapper, in anydiff.Res) anydiff.Res {
	if in.Output().Len() != m.InSize() {
		panic("anymeta: mapper input size mismatch")
	}
	out := in.Output().Creator().MakeVector(m.OutSize())
	m.Map(in.Output(), out)
	return &mapperRes{In: in, Mapper: m, OutVec: out}
}

func (m *mapperRes) Output() anyvec.Vector {
	return m.OutVec
}

func (m *mapperRes) Vars() anydiff.VarSet {
	return m.In.Vars()
}

func (m *mapperRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	down := u.Creator().MakeVector(m.Mapper.InSize())
	m.Mapper.MapTranspose(u, down)
	m.In.Propagate(down, g)
}

// colsMapper creates a gather for columns [start, end) of
// an n-row matrix with the given total number of columns.
func colsMapper(c anyvec.Creator, n, cols, start, end int) anyvec.Mapper {
	table := make([]int, 0, n*(end-start))
	for row := 0; row < n; row++ {
		for col := start; col < end; col++ {
			table = append(table, row*cols+col)
		}
	}
	return c.MakeMapper(n*cols, table)
}

// sliceOut extracts the entries [start, end) of a result.
func sliceOut(in anydiff.Res, start, end int) anydiff.Res {
	c := in.Output().Creator()
	return mapOut(colsMapper(c, 1, in.Output().Len(), start, end), in)
}

// addRepeated adds a row vector to every row of an n-row
// batch.
func addRepeated(batch, row anydiff.Res, n int) anydiff.Res {
	c := batch.Output().Creator()
	ones := &anydiff.Matrix{
		Data: anydiff.NewConst(anyvec.Ones(c, n)),
		Rows: n,
		Cols: 1,
	}
	rowMat := &anydiff.Matrix{Data: row, Rows: 1, Cols: row.Output().Len()}
	return anydiff.Add(batch, anydiff.MatMul(false, false, ones, rowMat).Data)
}

// applyFlat applies a flattened weight+bias parameter
// vector to a batch of n rows.
// The first inCount*outCount entries form the weight
// matrix and the rest form the bias.
func applyFlat(params, in anydiff.Res, inCount, outCount, n int) anydiff.Res {
	weightCount := inCount * outCount
	weights := &anydiff.Matrix{
		Data: sliceOut(params, 0, weightCount),
		Rows: inCount,
		Cols: outCount,
	}
	biases := sliceOut(params, weightCount, weightCount+outCount)
	inMat := &anydiff.Matrix{Data: in, Rows: n, Cols: inCount}
	product := anydiff.MatMul(false, false, inMat, weights)
	return addRepeated(product.Data, biases, n)
}
