package quicksilver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/quicksilver"
	"github.com/takakv/vole-zkp/r1cs"
)

// cubeSystem builds out = in*in*in over wires [1, in, in2, out], via
// constraints in*in=in2, in2*in=out.
func cubeSystem() r1cs.System {
	row := func(idx int) linalg.SparseVector {
		return linalg.SparseVector{{Index: idx, Value: field.One()}}
	}
	a := linalg.SparseMatrix{Width: 4, Rows: []linalg.SparseVector{row(1), row(2)}}
	b := linalg.SparseMatrix{Width: 4, Rows: []linalg.SparseVector{row(1), row(1)}}
	c := linalg.SparseMatrix{Width: 4, Rows: []linalg.SparseVector{row(2), row(3)}}
	return r1cs.System{A: a, B: b, C: c, NumWires: 4}
}

// cubeWitness returns [1, in, in^2, out] for in=3: out=27.
func cubeWitness() linalg.Vector {
	in := field.FromUint64(3)
	in2 := field.Mul(in, in)
	out := field.Mul(in2, in)
	return linalg.Vector{field.One(), in, in2, out}
}

func toMatrix(v linalg.Vector, rows, cols int) linalg.Matrix {
	m := linalg.NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Rows[i][j] = v[i*cols+j]
		}
	}
	return m
}

func arbitraryMatrix(rows, cols int, start uint64) linalg.Matrix {
	m := linalg.NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Rows[i][j] = field.FromUint64(start + uint64(i*cols+j)*7 + 1)
		}
	}
	return m
}

func TestProveVerifyRoundTrip(t *testing.T) {
	sys := cubeSystem()
	witness := cubeWitness()
	require.Len(t, witness, 4)

	witnessComm := arbitraryMatrix(2, 2, 11)
	u2 := arbitraryMatrix(2, 2, 101)
	witnessFlat := quicksilver.Flatten(toMatrix(witness, 2, 2))
	commFlat := quicksilver.Flatten(witnessComm)

	u1Flat := make(linalg.Vector, len(witnessFlat))
	for i := range u1Flat {
		u1Flat[i] = field.Sub(witnessFlat[i], commFlat[i])
	}
	u1 := toMatrix(u1Flat, 2, 2)

	gamma := field.FromUint64(3)
	vithDelta := field.FromUint64(5)

	proof, err := quicksilver.Prove(sys, u1, u2, witnessComm, gamma)
	require.NoError(t, err)

	u2Flat := quicksilver.Flatten(u2)
	sFlat := make(linalg.Vector, len(u1Flat))
	for i := range sFlat {
		sFlat[i] = field.Add(field.Mul(vithDelta, u1Flat[i]), u2Flat[i])
	}
	s := toMatrix(sFlat, 2, 2)

	require.NoError(t, quicksilver.Verify(sys, s, witnessComm, vithDelta, gamma, proof))
}

func TestVerifyRejectsTamperedWitness(t *testing.T) {
	sys := cubeSystem()
	witness := cubeWitness()
	// Corrupt the output wire so in*in*in != out.
	witness[3] = field.Add(witness[3], field.One())

	witnessComm := arbitraryMatrix(2, 2, 11)
	u2 := arbitraryMatrix(2, 2, 101)
	witnessFlat := quicksilver.Flatten(toMatrix(witness, 2, 2))
	commFlat := quicksilver.Flatten(witnessComm)

	u1Flat := make(linalg.Vector, len(witnessFlat))
	for i := range u1Flat {
		u1Flat[i] = field.Sub(witnessFlat[i], commFlat[i])
	}
	u1 := toMatrix(u1Flat, 2, 2)

	gamma := field.FromUint64(3)
	vithDelta := field.FromUint64(5)

	proof, err := quicksilver.Prove(sys, u1, u2, witnessComm, gamma)
	require.NoError(t, err)

	u2Flat := quicksilver.Flatten(u2)
	sFlat := make(linalg.Vector, len(u1Flat))
	for i := range sFlat {
		sFlat[i] = field.Add(field.Mul(vithDelta, u1Flat[i]), u2Flat[i])
	}
	s := toMatrix(sFlat, 2, 2)

	err = quicksilver.Verify(sys, s, witnessComm, vithDelta, gamma, proof)
	require.ErrorIs(t, err, quicksilver.ErrAggregateCheckFailed)
}

func TestPublicOpeningRoundTripAndTamper(t *testing.T) {
	witness := cubeWitness()
	witnessComm := arbitraryMatrix(2, 2, 11)
	u2 := arbitraryMatrix(2, 2, 101)
	witnessFlat := quicksilver.Flatten(toMatrix(witness, 2, 2))
	commFlat := quicksilver.Flatten(witnessComm)
	u2Flat := quicksilver.Flatten(u2)

	u1Flat := make(linalg.Vector, len(witnessFlat))
	for i := range u1Flat {
		u1Flat[i] = field.Sub(witnessFlat[i], commFlat[i])
	}

	vithDelta := field.FromUint64(5)
	sFlat := make(linalg.Vector, len(u1Flat))
	for i := range sFlat {
		sFlat[i] = field.Add(field.Mul(vithDelta, u1Flat[i]), u2Flat[i])
	}

	indices := []int{3} // the output wire
	openings, err := quicksilver.OpenPublicWires(witnessFlat, u2Flat, commFlat, vithDelta, indices)
	require.NoError(t, err)

	asserted := []field.Element{witness[3]}
	require.NoError(t, quicksilver.VerifyPublicOpenings(openings, indices, asserted, sFlat, vithDelta))

	// Asserting the wrong public value must fail.
	wrongAsserted := []field.Element{field.Add(witness[3], field.One())}
	err = quicksilver.VerifyPublicOpenings(openings, indices, wrongAsserted, sFlat, vithDelta)
	require.ErrorIs(t, err, quicksilver.ErrPublicOpeningFailed)
}
