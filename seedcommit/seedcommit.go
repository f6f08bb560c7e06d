// Package seedcommit implements the two-of-two seed commitment scheme
// that lets a VOLE-in-the-head prover commit to a pair of seeds and
// later open exactly one of them without revealing the other. Since
// the secret-sharing parameter of the underlying small VOLE is fixed at
// two (the Δ-bit has exactly two possible values), a full vector
// commitment would be wasted generality; a pairwise hash commitment is
// both simpler and cheaper.
package seedcommit

import "github.com/zeebo/blake3"

// Digest is a 32-byte BLAKE3 digest, used both as seed commitment and
// as opening proof.
type Digest [32]byte

func hash(b []byte) Digest {
	var d Digest
	sum := blake3.Sum256(b)
	copy(d[:], sum[:])
	return d
}

// Commit commits to an ordered pair of seeds. The commitment is
// H(H(seed0) || H(seed1)), so opening either seed together with its
// index in the pair and a hash of the other reconstructs the same value.
func Commit(seed0, seed1 []byte) Digest {
	h0 := hash(seed0)
	h1 := hash(seed1)
	return hash(append(append([]byte{}, h0[:]...), h1[:]...))
}

// CommitMany folds a batch of per-column seed commitments into one
// digest, used to bind every small-VOLE instance's commitment into a
// single transcript value.
func CommitMany(commitments []Digest) Digest {
	h := blake3.New()
	for _, c := range commitments {
		h.Write(c[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// ProofForRevealed returns the opening proof for a seed pair: the hash
// of the seed that stays hidden.
func ProofForRevealed(otherSeed []byte) Digest {
	return hash(otherSeed)
}

// ReconstructCommitment rebuilds the two-seed commitment from one
// revealed seed, its index (0 or 1) within the pair, and the opening
// proof (the hash of the other, still-hidden seed).
func ReconstructCommitment(revealedSeed []byte, revealedIdx int, proof Digest) Digest {
	digestRevealed := hash(revealedSeed)
	var preimage []byte
	if revealedIdx == 1 {
		preimage = append(append([]byte{}, proof[:]...), digestRevealed[:]...)
	} else {
		preimage = append(append([]byte{}, digestRevealed[:]...), proof[:]...)
	}
	return hash(preimage)
}

// VerifyOpening reports whether proof correctly opens revealedSeed (at
// revealedIdx within the committed pair) against commitment.
func VerifyOpening(commitment Digest, revealedSeed []byte, revealedIdx int, proof Digest) bool {
	return ReconstructCommitment(revealedSeed, revealedIdx, proof) == commitment
}
