package seedcommit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/vole-zkp/seedcommit"
)

func TestCommitOpenRoundTrip(t *testing.T) {
	seed0 := []byte{5, 5, 5, 5}
	seed1 := []byte{6, 6, 6, 6}
	commitment := seedcommit.Commit(seed0, seed1)

	proof0 := seedcommit.ProofForRevealed(seed1)
	proof1 := seedcommit.ProofForRevealed(seed0)

	require.True(t, seedcommit.VerifyOpening(commitment, seed0, 0, proof0))
	require.False(t, seedcommit.VerifyOpening(commitment, seed0, 1, proof0))

	require.True(t, seedcommit.VerifyOpening(commitment, seed1, 1, proof1))
	require.False(t, seedcommit.VerifyOpening(commitment, seed1, 0, proof1))

	require.False(t, seedcommit.VerifyOpening(commitment, seed0, 1, proof1))
	require.False(t, seedcommit.VerifyOpening(commitment, seed0, 0, proof1))
}

func TestCommitManyOrderSensitive(t *testing.T) {
	a := seedcommit.Commit([]byte("a0"), []byte("a1"))
	b := seedcommit.Commit([]byte("b0"), []byte("b1"))

	folded1 := seedcommit.CommitMany([]seedcommit.Digest{a, b})
	folded2 := seedcommit.CommitMany([]seedcommit.Digest{b, a})
	require.NotEqual(t, folded1, folded2)
}
