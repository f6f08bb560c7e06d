// Package fiatshamir derives every verifier challenge the orchestrator
// needs from a domain-separated transcript hash: BLAKE3 over labeled,
// length-framed transcript fields, expanded into one or many field
// elements with a ChaCha20-seeded rejection sampler.
package fiatshamir

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/smallvole"
)

// Transcript accumulates domain-separated byte fields and produces a
// 32-byte digest, the seed for every downstream expansion.
type Transcript struct {
	h *blake3.Hasher
}

// NewTranscript starts a transcript bound to a fixed label, so
// challenges derived for different purposes (e.g. the subspace-VOLE
// consistency check vs. the Quicksilver challenge) never collide even
// if their other inputs happen to coincide.
func NewTranscript(label string) *Transcript {
	h := blake3.New()
	writeFramed(h, []byte(label))
	return &Transcript{h: h}
}

func writeFramed(h *blake3.Hasher, b []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(b)))
	h.Write(lenBuf[:])
	h.Write(b)
}

// Bind appends a length-framed byte field to the transcript.
func (t *Transcript) Bind(b []byte) *Transcript {
	writeFramed(t.h, b)
	return t
}

// BindUint64 appends a length-prefixed little-endian u64, used for
// binding numeric parameters like ℓ and N into the transcript.
func (t *Transcript) BindUint64(v uint64) *Transcript {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return t.Bind(b[:])
}

// Digest returns the 32-byte BLAKE3 digest of everything bound so far.
// Per hash.Hash's contract, Sum does not reset the underlying state, so
// further Bind calls are reflected in subsequent Digest calls.
func (t *Transcript) Digest() [32]byte {
	var out [32]byte
	sum := t.h.Sum(nil)
	copy(out[:], sum)
	return out
}

// ExpandFieldElements deterministically expands a 32-byte seed into n
// field elements via ChaCha20 rejection sampling, the protocol's
// uniform method for turning a hash digest into verifier randomness.
func ExpandFieldElements(seed [32]byte, n int) (linalg.Vector, error) {
	return smallvole.ExpandSeed(seed, n)
}

// ExpandBits deterministically expands a 32-byte seed into n bits,
// used to derive the per-VOLE Δ bit
// vector that selects which seed of each pair the prover opens. Bits
// come from the low bit of each rejection-sampled field element so
// that the selection is a deterministic function of the transcript and
// never branches on prover secrets.
func ExpandBits(seed [32]byte, n int) ([]bool, error) {
	elems, err := smallvole.ExpandSeed(seed, n)
	if err != nil {
		return nil, err
	}
	bits := make([]bool, n)
	for i, e := range elems {
		b := e.Bytes()
		bits[i] = b[len(b)-1]&1 == 1
	}
	return bits, nil
}

// VOLEConsistencyChallenge derives the length-L vector h used to fold
// U and V columns into the subspace-VOLE consistency check, bound to
// the seed commitment alone.
func VOLEConsistencyChallenge(seedComm [32]byte, length int) (linalg.Vector, error) {
	digest := NewTranscript("vole_consistency_check").Bind(seedComm[:]).Digest()
	return ExpandFieldElements(digest, length)
}

// QuicksilverChallenge derives the single scalar γ folding every R1CS
// constraint's (A_j,B_j) pair, bound to the seed and witness
// commitments.
func QuicksilverChallenge(seedComm [32]byte, witnessComm linalg.Matrix) (field.Element, error) {
	digest := NewTranscript("quicksilver_challenge").
		Bind(seedComm[:]).
		Bind(encodeMatrix(witnessComm)).
		Digest()
	elems, err := ExpandFieldElements(digest, 1)
	if err != nil {
		return field.Element{}, err
	}
	return elems[0], nil
}

// OtherChallenges bundles the VitH scalar Δ′, the S-challenge vector χ,
// and the per-VOLE opening-bit vector Δ, all derived from one
// transcript digest bound to every value produced before this point.
type OtherChallenges struct {
	VitHDelta  field.Element
	SChallenge linalg.Vector
	Deltas     []bool
}

// DeriveOtherChallenges derives Δ′, χ ∈ F^{halfLength}, and the N-bit Δ
// opening-selector vector from a single transcript bound to the seed
// commitment, witness commitment, Quicksilver zkp, public openings, ℓ,
// and N.
func DeriveOtherChallenges(seedComm [32]byte, witnessComm linalg.Matrix, zkpA, zkpB field.Element, publicOpenings []byte, length, numVOLEs, halfLength int) (OtherChallenges, error) {
	digest := NewTranscript("other_challenges").
		Bind(seedComm[:]).
		Bind(encodeMatrix(witnessComm)).
		Bind(elementBytes(zkpA)).
		Bind(elementBytes(zkpB)).
		Bind(publicOpenings).
		BindUint64(uint64(length)).
		BindUint64(uint64(numVOLEs)).
		Digest()

	vithDelta, err := ExpandFieldElements(digest, 1)
	if err != nil {
		return OtherChallenges{}, err
	}

	chiSeed := NewTranscript("s_challenge").Bind(digest[:]).Digest()
	chi, err := ExpandFieldElements(chiSeed, halfLength)
	if err != nil {
		return OtherChallenges{}, err
	}

	deltaSeed := NewTranscript("delta_choices").Bind(digest[:]).Digest()
	deltas, err := ExpandBits(deltaSeed, numVOLEs)
	if err != nil {
		return OtherChallenges{}, err
	}

	return OtherChallenges{VitHDelta: vithDelta[0], SChallenge: chi, Deltas: deltas}, nil
}

func elementBytes(e field.Element) []byte {
	b := e.Bytes()
	return b[:]
}

func encodeMatrix(m linalg.Matrix) []byte {
	out := make([]byte, 0, len(m.Rows)*field.Bytes)
	for _, row := range m.Rows {
		for _, e := range row {
			b := e.Bytes()
			out = append(out, b[:]...)
		}
	}
	return out
}
