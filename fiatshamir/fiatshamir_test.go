package fiatshamir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/vole-zkp/fiatshamir"
	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
)

func zeroMatrix(rows, cols int) linalg.Matrix {
	return linalg.NewMatrix(rows, cols)
}

func TestTranscriptIsDeterministic(t *testing.T) {
	d1 := fiatshamir.NewTranscript("label").Bind([]byte("hello")).BindUint64(7).Digest()
	d2 := fiatshamir.NewTranscript("label").Bind([]byte("hello")).BindUint64(7).Digest()
	require.Equal(t, d1, d2)
}

func TestTranscriptLabelSeparatesDomains(t *testing.T) {
	d1 := fiatshamir.NewTranscript("a").Bind([]byte("x")).Digest()
	d2 := fiatshamir.NewTranscript("b").Bind([]byte("x")).Digest()
	require.NotEqual(t, d1, d2)
}

func TestVOLEConsistencyChallengeLength(t *testing.T) {
	var comm [32]byte
	comm[0] = 9
	h, err := fiatshamir.VOLEConsistencyChallenge(comm, 16)
	require.NoError(t, err)
	require.Len(t, h, 16)
}

func TestExpandBitsDeterministic(t *testing.T) {
	var seed [32]byte
	seed[3] = 5
	b1, err := fiatshamir.ExpandBits(seed, 32)
	require.NoError(t, err)
	b2, err := fiatshamir.ExpandBits(seed, 32)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestQuicksilverChallengeChangesWithInput(t *testing.T) {
	var comm1, comm2 [32]byte
	comm2[0] = 1
	g1, err := fiatshamir.QuicksilverChallenge(comm1, zeroMatrix(2, 2))
	require.NoError(t, err)
	g2, err := fiatshamir.QuicksilverChallenge(comm2, zeroMatrix(2, 2))
	require.NoError(t, err)
	require.False(t, field.Equal(g1, g2))
}
