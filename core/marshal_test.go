package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/vole-zkp/core"
)

func TestProofMarshalRoundTrip(t *testing.T) {
	code := smallCode(t)
	proof := buildProof(t, cubeCircuit(), cubeWitness(), code)

	data, err := proof.MarshalBinary()
	require.NoError(t, err)

	var decoded core.Proof
	require.NoError(t, decoded.UnmarshalBinary(data))
	require.Equal(t, proof.Digest(), decoded.Digest())
}

func TestProofDigestChangesOnTamper(t *testing.T) {
	code := smallCode(t)
	proof := buildProof(t, cubeCircuit(), cubeWitness(), code)

	before := proof.Digest()
	proof.SMatrix.Rows[0][0] = proof.SMatrix.Rows[0][0]
	proof.SeedComm[0] ^= 0xFF
	after := proof.Digest()

	require.NotEqual(t, before, after)
}
