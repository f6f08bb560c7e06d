package raaa_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/raaa"
)

func mkVec(vals ...uint64) linalg.Vector {
	v := make(linalg.Vector, len(vals))
	for i, x := range vals {
		v[i] = field.FromUint64(x)
	}
	return v
}

func randCode(t *testing.T, n uint32, q int) raaa.Code {
	t.Helper()
	code, err := raaa.RandWithParametersSeeded(n, q, [3][32]byte{{1}, {2}, {3}})
	require.NoError(t, err)
	return code
}

func requireVecEqual(t *testing.T, a, b linalg.Vector) {
	t.Helper()
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Truef(t, field.Equal(a[i], b[i]), "index %d", i)
	}
}

func TestPermutationInverse(t *testing.T) {
	perm, err := raaa.RandomInterleavePermutations(5, [32]byte{9})
	require.NoError(t, err)

	input := mkVec(1, 2, 3, 4, 5)
	permuted, err := raaa.Interleave(input, perm.Forward)
	require.NoError(t, err)
	back, err := raaa.Interleave(permuted, perm.Inverse)
	require.NoError(t, err)
	requireVecEqual(t, input, back)
}

func TestAccumulateAndInverse(t *testing.T) {
	cases := []linalg.Vector{
		mkVec(0, 0, 0, 0, 0),
		mkVec(1, 1, 1, 1, 1),
		mkVec(0, 1, 2, 3),
	}
	for _, c := range cases {
		acc := raaa.Accumulate(c)
		back := raaa.AccumulateInverse(acc)
		requireVecEqual(t, c, back)
	}

	got := raaa.Accumulate(mkVec(1, 1, 1, 1, 1))
	requireVecEqual(t, got, mkVec(1, 2, 3, 4, 5))
}

func TestRepeat(t *testing.T) {
	got := raaa.Repeat(mkVec(10, 11, 123456), 2)
	requireVecEqual(t, got, mkVec(10, 11, 123456, 10, 11, 123456))
}

func TestRepeatExtendedRoundTrip(t *testing.T) {
	in0 := mkVec(0, 1, 2, 3, 4, 5)
	out0 := raaa.RepeatExtended(in0, 2)
	back0 := raaa.RepeatExtendedInverse(out0, 2)
	requireVecEqual(t, in0, back0)

	in1 := mkVec(5, 10, 15, 20, 25, 30)
	out1 := raaa.RepeatExtended(in1, 3)
	back1 := raaa.RepeatExtendedInverse(out1, 3)
	requireVecEqual(t, in1, back1)
}

func TestExtendedEncodeRoundTrip(t *testing.T) {
	code := randCode(t, 4, 2)
	input := mkVec(1, 5, 10, 0)
	codeword, err := code.EncodeExtended(input)
	require.NoError(t, err)
	back, err := code.MulVecByExtendedInverse(codeword)
	require.NoError(t, err)
	requireVecEqual(t, input, back)
}

func TestCheckParityPositiveAndNegative(t *testing.T) {
	code := randCode(t, 6, 2)
	input := mkVec(7, 11, 13)
	codeword, err := code.Encode(input)
	require.NoError(t, err)
	require.True(t, code.CheckParity(codeword))

	tampered := codeword.Clone()
	tampered[2] = field.FromUint64(999)
	require.False(t, code.CheckParity(tampered))
}

func TestCheckParityBatch(t *testing.T) {
	code, err := raaa.RandDefault()
	require.NoError(t, err)

	rows := make([]linalg.Vector, 0, 10)
	for i := 0; i < 10; i++ {
		msg := make(linalg.Vector, code.K())
		for j := range msg {
			msg[j] = field.FromUint64(uint64(i*1000 + j))
		}
		cw, err := code.Encode(msg)
		require.NoError(t, err)
		rows = append(rows, cw)
	}
	require.NoError(t, code.CheckParityBatch(rows))

	rows[2][7] = field.FromUint64(424242)
	require.ErrorIs(t, code.CheckParityBatch(rows), raaa.ErrParityCheck)
}

func TestProverVerifierCorrectionConsistency(t *testing.T) {
	code, err := raaa.RandDefault()
	require.NoError(t, err)

	n := code.N()
	numRows := 4
	uRows := make([]linalg.Vector, numRows)
	vRows := make([]linalg.Vector, numRows)
	qRows := make([]linalg.Vector, numRows)
	deltas := make(linalg.Vector, n)

	for j := 0; j < n; j++ {
		deltaBit := j%3 == 0
		if deltaBit {
			deltas[j] = field.One()
		} else {
			deltas[j] = field.Zero()
		}
	}

	for i := 0; i < numRows; i++ {
		u := make(linalg.Vector, n)
		v := make(linalg.Vector, n)
		q := make(linalg.Vector, n)
		for j := 0; j < n; j++ {
			uVal := field.FromUint64(uint64(i*7 + j))
			vVal := field.FromUint64(uint64(i*3 + j + 1))
			u[j] = uVal
			v[j] = vVal
			if field.IsZero(deltas[j]) {
				q[j] = vVal
			} else {
				q[j] = field.Add(vVal, uVal)
			}
		}
		uRows[i] = u
		vRows[i] = v
		qRows[i] = q
	}

	newUs, correction, err := code.GetProverCorrection(linalg.Matrix{Rows: uRows})
	require.NoError(t, err)

	newQs, err := code.CorrectVerifierQs(linalg.Matrix{Rows: qRows}, deltas, correction)
	require.NoError(t, err)

	// encode(newU) * delta + v == newQ, pointwise, for each row.
	for i := 0; i < numRows; i++ {
		encoded, err := code.Encode(newUs.Rows[i])
		require.NoError(t, err)
		scaled := make(linalg.Vector, n)
		for j := 0; j < n; j++ {
			scaled[j] = field.Mul(encoded[j], deltas[j])
		}
		lhs, err := linalg.Add(scaled, vRows[i])
		require.NoError(t, err)
		requireVecEqual(t, lhs, newQs.Rows[i])
	}
}

func TestDefaultCodeIsCachedAndUsable(t *testing.T) {
	a := raaa.DefaultCode()
	b := raaa.DefaultCode()
	require.Equal(t, a.N(), raaa.NumVOLEs)
	require.Equal(t, a.Q, raaa.DefaultQ)
	require.Equal(t, a.Permutations[0].Forward, b.Permutations[0].Forward)

	msg := make(linalg.Vector, a.K())
	for i := range msg {
		msg[i] = field.FromUint64(uint64(i + 1))
	}
	codeword, err := a.Encode(msg)
	require.NoError(t, err)
	require.True(t, b.CheckParity(codeword))
}
