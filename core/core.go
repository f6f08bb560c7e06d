// Package core orchestrates every other package into the full
// VOLE-in-the-head Quicksilver proof: a tagged-state-machine Prover
// (UncommittedProver → CommittedProver) mirroring the original
// New→mkvole→prove lifecycle, and a stateless Verifier. Illegal call
// ordering (calling Prove before MkVOLE) is a compile error here, not a
// runtime check, since CommittedProver is the only type exposing Prove.
package core

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/fiatshamir"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/quicksilver"
	"github.com/takakv/vole-zkp/r1cs"
	"github.com/takakv/vole-zkp/raaa"
	"github.com/takakv/vole-zkp/seedcommit"
	"github.com/takakv/vole-zkp/subspacevole"
)

// ErrInvalidParameters is returned when the circuit or witness fails a
// structural check at construction time (class 1 of the error taxonomy).
var ErrInvalidParameters = errors.New("core: invalid parameters")

// ErrVOLENotReady names the "Prove before MkVOLE" error class. No
// function in this package returns it, since only CommittedProver
// exposes Prove; it is kept as a sentinel for any wrapping code that
// still checks explicitly.
var ErrVOLENotReady = errors.New("core: VOLE must be completed before this step")

// ErrVerificationFailed is the sentinel every verification failure
// wraps; callers should check with errors.Is rather than branch on the
// wrapped diagnostic, which MUST NOT leak secret state.
var ErrVerificationFailed = errors.New("core: verification failed")

// MinSoundVOLEs is the VOLE count below which soundness drops under
// 128 bits; NewProver logs a warning rather than failing.
const MinSoundVOLEs = raaa.NumVOLEs

// SeedOpening is one column's revealed seed and its sibling's hash,
// letting the verifier reconstruct that column's two-seed commitment.
type SeedOpening struct {
	Seed    [32]byte
	Sibling seedcommit.Digest
}

// ConsistencyCheck is the prover's (U_hash, V_hash) pair.
type ConsistencyCheck struct {
	UHash linalg.Vector
	VHash linalg.Vector
}

// Proof is the full wire artifact a prover sends a verifier: the seed
// and witness commitments, the RAAA correction, the subspace-VOLE
// consistency check, the Quicksilver zkp, the opened seeds and public
// wires, and the VitH S-matrix with its own consistency check.
type Proof struct {
	SeedComm          seedcommit.Digest
	WitnessComm       linalg.Matrix
	Correction        linalg.Matrix
	Consistency       ConsistencyCheck
	ZKP               quicksilver.Proof
	SeedOpenings      []SeedOpening
	PublicOpenings    []quicksilver.PublicOpening
	SMatrix           linalg.Matrix
	SConsistencyCheck linalg.Vector
}

func ceilDiv(a, b int) int {
	if a == 0 {
		return 1
	}
	return (a + b - 1) / b
}

// dims computes the padded layout (halfLen, length) for a circuit of
// wireCount wires against a code with message dimension k. The witness
// itself needs only witnessRows = ceil(wireCount/k) rows, but halfLen
// carries one extra row beyond that: a row of U1/V1 that never gets
// bound to any witness value, masking the linear combination the
// subspace-VOLE consistency check exposes so that check stays
// zero-knowledge.
func dims(wireCount, k int) (halfLen, length int) {
	witnessRows := ceilDiv(wireCount, k)
	halfLen = witnessRows + 1
	return halfLen, 2 * halfLen
}

func negMatrix(m linalg.Matrix) linalg.Matrix {
	return m.ScalarMul(field.Neg(field.One()))
}

func padWitness(w linalg.Vector, total int) linalg.Vector {
	out := make(linalg.Vector, total)
	copy(out, w)
	for i := len(w); i < total; i++ {
		out[i] = field.Zero()
	}
	return out
}

func reshape(v linalg.Vector, rows, cols int) linalg.Matrix {
	m := linalg.NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		copy(m.Rows[i], v[i*cols:(i+1)*cols])
	}
	return m
}

func encodeElements(vals []field.Element) []byte {
	out := make([]byte, 0, len(vals)*field.Bytes)
	for _, v := range vals {
		b := field.ToBytes(v)
		out = append(out, b[:]...)
	}
	return out
}

func zeroizeMatrix(m linalg.Matrix) {
	for _, row := range m.Rows {
		for i := range row {
			row[i] = field.Zero()
		}
	}
}

// UncommittedProver holds a validated circuit and witness, not yet run
// through the VOLE.
type UncommittedProver struct {
	circuit     r1cs.WithMetadata
	witness     linalg.Vector
	code        raaa.Code
	witnessRows int
	halfLen     int
	length      int
	logger      *log.Logger
}

// NewProver validates the circuit/witness pair and returns an
// UncommittedProver using the process-wide default RAAA code.
func NewProver(circuit r1cs.WithMetadata, witness linalg.Vector, logger *log.Logger) (*UncommittedProver, error) {
	return NewProverWithCode(circuit, witness, raaa.DefaultCode(), logger)
}

// NewProverWithCode is NewProver with an explicit RAAA code, used by
// tests to exercise the pipeline at a tractable size.
func NewProverWithCode(circuit r1cs.WithMetadata, witness linalg.Vector, code raaa.Code, logger *log.Logger) (*UncommittedProver, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if err := circuit.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	if len(witness) != circuit.NumWires {
		return nil, fmt.Errorf("%w: witness length %d does not match circuit wire count %d", ErrInvalidParameters, len(witness), circuit.NumWires)
	}
	if code.Q <= 0 || code.N()%code.Q != 0 {
		return nil, fmt.Errorf("%w: code block length must be a positive multiple of q", ErrInvalidParameters)
	}
	if code.N() < MinSoundVOLEs {
		logger.Printf("warning: %d VOLE columns is below the %d required for 128-bit soundness", code.N(), MinSoundVOLEs)
	}

	halfLen, length := dims(circuit.NumWires, code.K())
	witnessRows := ceilDiv(circuit.NumWires, code.K())
	return &UncommittedProver{
		circuit:     circuit,
		witness:     witness,
		code:        code,
		witnessRows: witnessRows,
		halfLen:     halfLen,
		length:      length,
		logger:      logger,
	}, nil
}

// CommittedProver holds the subspace-VOLE state produced by MkVOLE: the
// public commitment and correction values plus the secret halves that
// Prove consumes and zeroizes.
type CommittedProver struct {
	circuit     r1cs.WithMetadata
	code        raaa.Code
	length      int
	halfLen     int
	witness     linalg.Matrix // witnessRows × k, secret (real witness, zero-padded)
	seeds       []subspacevole.SeedPair
	halves      subspacevole.Halves
	correction  linalg.Matrix
	witnessComm linalg.Matrix
	seedComm    seedcommit.Digest
	consistency ConsistencyCheck
}

// MkVOLE runs the subspace VOLE: draws N seed pairs, lifts them through
// the RAAA code's prover correction, commits to the witness, and
// computes the raw consistency-check hashes. p itself is not modified:
// each call draws fresh seeds and returns an independent CommittedProver.
func (p *UncommittedProver) MkVOLE() (*CommittedProver, error) {
	seeds, err := subspacevole.GenerateSeedPairs(p.code.N())
	if err != nil {
		return nil, err
	}
	proverState, seedComm, _, err := subspacevole.MakeProverState(p.code, seeds, p.length)
	if err != nil {
		return nil, err
	}
	halves, err := subspacevole.Split(proverState.U, proverState.V)
	if err != nil {
		return nil, err
	}

	witnessPadded := padWitness(p.witness, p.witnessRows*p.code.K())
	witnessMatrix := reshape(witnessPadded, p.witnessRows, p.code.K())
	// Only the first witnessRows rows of U1 ever get bound to a witness
	// value; the trailing halfLen-witnessRows row(s) of U1/U2 stay a
	// pure mask, used only in the consistency check and S-matrix.
	u1Top, _ := halves.U1.SplitRows(p.witnessRows)
	witnessComm, err := linalg.MatAdd(witnessMatrix, negMatrix(u1Top))
	if err != nil {
		return nil, err
	}

	challenge, err := fiatshamir.VOLEConsistencyChallenge(seedComm, p.length)
	if err != nil {
		return nil, err
	}
	uHash, vHash, err := subspacevole.ConsistencyCheck(challenge, proverState.U, proverState.V)
	if err != nil {
		return nil, err
	}

	return &CommittedProver{
		circuit:     p.circuit,
		code:        p.code,
		length:      p.length,
		halfLen:     p.halfLen,
		witness:     witnessMatrix,
		seeds:       seeds,
		halves:      halves,
		correction:  proverState.Correction,
		witnessComm: witnessComm,
		seedComm:    seedComm,
		consistency: ConsistencyCheck{UHash: uHash, VHash: vHash},
	}, nil
}

// Prove emits the full proof, then zeroizes every secret matrix this
// CommittedProver owned.
func (p *CommittedProver) Prove() (Proof, error) {
	gamma, err := fiatshamir.QuicksilverChallenge(p.seedComm, p.witnessComm)
	if err != nil {
		return Proof{}, err
	}
	zkp, err := quicksilver.Prove(p.circuit.System, p.halves.U1, p.halves.U2, p.witnessComm, gamma)
	if err != nil {
		return Proof{}, err
	}

	publicIndices := p.circuit.PublicIndices()
	witnessFlat := quicksilver.Flatten(p.witness)
	publicValues := make([]field.Element, len(publicIndices))
	for i, idx := range publicIndices {
		publicValues[i] = witnessFlat[idx]
	}

	other, err := fiatshamir.DeriveOtherChallenges(p.seedComm, p.witnessComm, zkp.A, zkp.B, encodeElements(publicValues), p.length, p.code.N(), p.halfLen)
	if err != nil {
		return Proof{}, err
	}

	sMatrix, sCheck, err := subspacevole.SMatrixWithConsistencyProof(p.halves, other.VitHDelta, other.SChallenge)
	if err != nil {
		return Proof{}, err
	}

	u2Flat := quicksilver.Flatten(p.halves.U2)
	commFlat := quicksilver.Flatten(p.witnessComm)
	publicOpenings, err := quicksilver.OpenPublicWires(witnessFlat, u2Flat, commFlat, other.VitHDelta, publicIndices)
	if err != nil {
		return Proof{}, err
	}

	seedOpenings := make([]SeedOpening, len(p.seeds))
	for i, pair := range p.seeds {
		if !other.Deltas[i] {
			seedOpenings[i] = SeedOpening{Seed: pair.Seed0, Sibling: seedcommit.ProofForRevealed(pair.Seed1[:])}
		} else {
			seedOpenings[i] = SeedOpening{Seed: pair.Seed1, Sibling: seedcommit.ProofForRevealed(pair.Seed0[:])}
		}
	}

	proof := Proof{
		SeedComm:          p.seedComm,
		WitnessComm:       p.witnessComm,
		Correction:        p.correction,
		Consistency:       p.consistency,
		ZKP:               zkp,
		SeedOpenings:      seedOpenings,
		PublicOpenings:    publicOpenings,
		SMatrix:           sMatrix,
		SConsistencyCheck: sCheck,
	}

	zeroizeMatrix(p.witness)
	zeroizeMatrix(p.halves.U1)
	zeroizeMatrix(p.halves.U2)
	zeroizeMatrix(p.halves.V1)
	zeroizeMatrix(p.halves.V2)
	for i := range p.seeds {
		p.seeds[i] = subspacevole.SeedPair{}
	}

	return proof, nil
}

// Verifier checks proofs against a fixed (padded) circuit and RAAA
// code. It is stateless between calls.
type Verifier struct {
	circuit r1cs.WithMetadata
	code    raaa.Code
	halfLen int
	length  int
}

// NewVerifier returns a Verifier for circuit using the process-wide
// default RAAA code.
func NewVerifier(circuit r1cs.WithMetadata) (*Verifier, error) {
	return NewVerifierWithCode(circuit, raaa.DefaultCode())
}

// NewVerifierWithCode is NewVerifier with an explicit RAAA code.
func NewVerifierWithCode(circuit r1cs.WithMetadata, code raaa.Code) (*Verifier, error) {
	if err := circuit.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	halfLen, length := dims(circuit.NumWires, code.K())
	return &Verifier{circuit: circuit, code: code, halfLen: halfLen, length: length}, nil
}

// Verify checks proof against the asserted public wire values (in the
// order WithMetadata.PublicIndices lists them: outputs then inputs).
// On success it returns those same values, echoed back for caller
// convenience; on failure it returns an error wrapping
// ErrVerificationFailed.
func (v *Verifier) Verify(proof Proof, publicValues []field.Element) ([]field.Element, error) {
	publicIndices := v.circuit.PublicIndices()
	if len(publicValues) != len(publicIndices) {
		return nil, fmt.Errorf("%w: expected %d public values, got %d", ErrVerificationFailed, len(publicIndices), len(publicValues))
	}

	gamma, err := fiatshamir.QuicksilverChallenge(proof.SeedComm, proof.WitnessComm)
	if err != nil {
		return nil, err
	}

	other, err := fiatshamir.DeriveOtherChallenges(proof.SeedComm, proof.WitnessComm, proof.ZKP.A, proof.ZKP.B, encodeElements(publicValues), v.length, v.code.N(), v.halfLen)
	if err != nil {
		return nil, err
	}

	if err := quicksilver.Verify(v.circuit.System, proof.SMatrix, proof.WitnessComm, other.VitHDelta, gamma, proof.ZKP); err != nil {
		return nil, fmt.Errorf("%w: quicksilver aggregate check: %v", ErrVerificationFailed, err)
	}

	sFlat := quicksilver.Flatten(proof.SMatrix)
	if err := quicksilver.VerifyPublicOpenings(proof.PublicOpenings, publicIndices, publicValues, sFlat, other.VitHDelta); err != nil {
		return nil, fmt.Errorf("%w: public opening check: %v", ErrVerificationFailed, err)
	}

	if len(proof.SeedOpenings) != v.code.N() || len(other.Deltas) != v.code.N() {
		return nil, fmt.Errorf("%w: seed opening count mismatch", ErrVerificationFailed)
	}
	perColumn := make([]seedcommit.Digest, v.code.N())
	openedSeeds := make([][32]byte, v.code.N())
	for i, opening := range proof.SeedOpenings {
		revealedIdx := 0
		if other.Deltas[i] {
			revealedIdx = 1
		}
		perColumn[i] = seedcommit.ReconstructCommitment(opening.Seed[:], revealedIdx, opening.Sibling)
		openedSeeds[i] = opening.Seed
	}
	if seedcommit.CommitMany(perColumn) != proof.SeedComm {
		return nil, fmt.Errorf("%w: seed commitment mismatch", ErrVerificationFailed)
	}

	q, deltas, err := subspacevole.VerifierReconstructQ(v.code, openedSeeds, other.Deltas, v.length, proof.Correction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	challenge, err := fiatshamir.VOLEConsistencyChallenge(proof.SeedComm, v.length)
	if err != nil {
		return nil, err
	}
	if err := subspacevole.VerifyConsistencyCheck(v.code, challenge, proof.Consistency.UHash, proof.Consistency.VHash, deltas, q); err != nil {
		return nil, fmt.Errorf("%w: subspace-VOLE consistency check: %v", ErrVerificationFailed, err)
	}

	if err := subspacevole.VerifySMatrix(v.code, q, deltas, other.VitHDelta, other.SChallenge, proof.SMatrix, proof.SConsistencyCheck); err != nil {
		return nil, fmt.Errorf("%w: s-matrix check: %v", ErrVerificationFailed, err)
	}

	return publicValues, nil
}
