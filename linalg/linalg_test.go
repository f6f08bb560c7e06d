package linalg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
)

func vec(vals ...uint64) linalg.Vector {
	v := make(linalg.Vector, len(vals))
	for i, x := range vals {
		v[i] = field.FromUint64(x)
	}
	return v
}

func TestAddSubRoundTrip(t *testing.T) {
	a := vec(1, 2, 3)
	b := vec(4, 5, 6)

	sum, err := linalg.Add(a, b)
	require.NoError(t, err)

	back, err := linalg.Sub(sum, b)
	require.NoError(t, err)

	for i := range a {
		require.True(t, field.Equal(a[i], back[i]))
	}
}

func TestLengthMismatch(t *testing.T) {
	_, err := linalg.Add(vec(1, 2), vec(1, 2, 3))
	require.ErrorIs(t, err, linalg.ErrLengthMismatch)
}

func TestDotProduct(t *testing.T) {
	a := vec(1, 2, 3)
	b := vec(4, 5, 6)
	got, err := linalg.Dot(a, b)
	require.NoError(t, err)
	require.True(t, field.Equal(got, field.FromUint64(1*4+2*5+3*6)))
}

func TestDotSparseTouchesOnlyNonZero(t *testing.T) {
	dense := vec(10, 20, 30, 40)
	sparse := linalg.SparseVector{
		{Index: 1, Value: field.FromUint64(2)},
		{Index: 3, Value: field.FromUint64(5)},
	}
	got, err := linalg.DotSparse(dense, sparse)
	require.NoError(t, err)
	require.True(t, field.Equal(got, field.FromUint64(20*2+40*5)))
}

func TestSparseMatrixMulVec(t *testing.T) {
	m := linalg.SparseMatrix{
		Width: 3,
		Rows: []linalg.SparseVector{
			{{Index: 0, Value: field.One()}, {Index: 2, Value: field.FromUint64(2)}},
			{{Index: 1, Value: field.FromUint64(3)}},
		},
	}
	v := vec(1, 1, 1)
	out, err := m.MulVec(v)
	require.NoError(t, err)
	require.True(t, field.Equal(out[0], field.FromUint64(3)))
	require.True(t, field.Equal(out[1], field.FromUint64(3)))
}

func TestTransposeInvolution(t *testing.T) {
	m := linalg.Matrix{Rows: []linalg.Vector{vec(1, 2), vec(3, 4), vec(5, 6)}}
	tt := m.Transpose().Transpose()
	nr, nc := m.Dim()
	gotR, gotC := tt.Dim()
	require.Equal(t, nr, gotR)
	require.Equal(t, nc, gotC)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			require.True(t, field.Equal(m.Rows[i][j], tt.Rows[i][j]))
		}
	}
}

func TestZeroPadRejectsShrink(t *testing.T) {
	_, err := linalg.ZeroPad(vec(1, 2, 3), 2)
	require.Error(t, err)
}

func TestSplitAndConcatRoundTrip(t *testing.T) {
	a := vec(1, 2, 3, 4, 5)
	left, right, err := linalg.Split(a, 2)
	require.NoError(t, err)
	joined := linalg.Concat(left, right)
	for i := range a {
		require.True(t, field.Equal(a[i], joined[i]))
	}
}
