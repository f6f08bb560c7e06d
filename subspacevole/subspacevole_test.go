package subspacevole_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/raaa"
	"github.com/takakv/vole-zkp/subspacevole"
)

func smallCode(t *testing.T) raaa.Code {
	t.Helper()
	code, err := raaa.RandWithParametersSeeded(8, 2, [3][32]byte{{1}, {2}, {3}})
	require.NoError(t, err)
	return code
}

// buildHonestState runs a full prover+verifier pass for a tiny RAAA
// code and returns whether every check passed, exercising the whole
// subspace-VOLE/VitH pipeline end to end.
func buildHonestState(t *testing.T, length int) error {
	t.Helper()
	code := smallCode(t)
	n := code.N()

	seeds, err := subspacevole.GenerateSeedPairs(n)
	require.NoError(t, err)

	proverState, seedComm, _, err := subspacevole.MakeProverState(code, seeds, length)
	require.NoError(t, err)
	_ = seedComm

	challenge := make(linalg.Vector, length)
	for i := range challenge {
		challenge[i] = field.FromUint64(uint64(i + 1))
	}
	uHash, vHash, err := subspacevole.ConsistencyCheck(challenge, proverState.U, proverState.V)
	require.NoError(t, err)

	// Verifier picks Delta=0 for every column so it can reconstruct Q
	// from seed0 deterministically without needing the prover's choice.
	deltaBits := make([]bool, n)
	openedSeeds := make([][32]byte, n)
	for i, s := range seeds {
		openedSeeds[i] = s.Seed0
	}

	q, deltas, err := subspacevole.VerifierReconstructQ(code, openedSeeds, deltaBits, length, proverState.Correction)
	require.NoError(t, err)

	return subspacevole.VerifyConsistencyCheck(code, challenge, uHash, vHash, deltas, q)
}

func TestHonestConsistencyCheckPasses(t *testing.T) {
	require.NoError(t, buildHonestState(t, 8))
}

func TestSplitRejectsOddLength(t *testing.T) {
	u := linalg.NewMatrix(3, 4)
	v := linalg.NewMatrix(3, 4)
	_, err := subspacevole.Split(u, v)
	require.Error(t, err)
}

func TestSMatrixAndVerifyRoundTrip(t *testing.T) {
	code := smallCode(t)
	n := code.N()
	length := 4

	seeds, err := subspacevole.GenerateSeedPairs(n)
	require.NoError(t, err)
	proverState, _, _, err := subspacevole.MakeProverState(code, seeds, length)
	require.NoError(t, err)

	halves, err := subspacevole.Split(proverState.U, proverState.V)
	require.NoError(t, err)

	vithDelta := field.FromUint64(7)
	sChallenge := make(linalg.Vector, length/2)
	for i := range sChallenge {
		sChallenge[i] = field.FromUint64(uint64(i + 2))
	}

	sMatrix, sCheck, err := subspacevole.SMatrixWithConsistencyProof(halves, vithDelta, sChallenge)
	require.NoError(t, err)
	require.Len(t, sMatrix.Rows, length/2)
	require.Len(t, sCheck, n)

	deltaBits := make([]bool, n)
	openedSeeds := make([][32]byte, n)
	for i, s := range seeds {
		openedSeeds[i] = s.Seed0
	}
	q, deltas, err := subspacevole.VerifierReconstructQ(code, openedSeeds, deltaBits, length, proverState.Correction)
	require.NoError(t, err)

	err = subspacevole.VerifySMatrix(code, q, deltas, vithDelta, sChallenge, sMatrix, sCheck)
	require.NoError(t, err)

	// Tamper with one entry of S; verification must now fail.
	sMatrix.Rows[0][0] = field.Add(sMatrix.Rows[0][0], field.One())
	err = subspacevole.VerifySMatrix(code, q, deltas, vithDelta, sChallenge, sMatrix, sCheck)
	require.ErrorIs(t, err, subspacevole.ErrSMatrixCheckFailed)
}
