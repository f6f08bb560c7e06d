// Package subspacevole lifts N independent small VOLEs into a single
// subspace-constrained VOLE, applies the RAAA code's prover/verifier
// corrections so the U side lands in the code's image, checks the
// resulting consistency relation, and implements the VitH halving that
// turns the subspace VOLE into one long VOLE witnessed by a scalar Δ′.
package subspacevole

import (
	"crypto/rand"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/raaa"
	"github.com/takakv/vole-zkp/seedcommit"
	"github.com/takakv/vole-zkp/smallvole"
)

// ErrConsistencyCheckFailed is returned when the subspace-VOLE
// consistency relation does not hold.
var ErrConsistencyCheckFailed = errors.New("subspacevole: consistency check failed")

// ErrSMatrixCheckFailed is returned when the VitH S-matrix check fails.
var ErrSMatrixCheckFailed = errors.New("subspacevole: s-matrix check failed")

// SeedPair is one column's pair of 32-byte small-VOLE seeds.
type SeedPair struct {
	Seed0, Seed1 [32]byte
}

// ProverState is the full prover-side subspace VOLE: the N seed pairs
// plus the corrected U matrix (narrowed into the code's message space)
// and the raw V matrix, both ℓ rows, stored row-major.
type ProverState struct {
	Seeds      []SeedPair
	U          linalg.Matrix // ℓ rows, k columns, corrected into the code's message space
	V          linalg.Matrix // ℓ rows, N columns, raw
	Correction linalg.Matrix // ℓ rows, (n-k) columns: sent to the verifier
}

// GenerateSeedPairs draws N fresh, independent seed pairs.
func GenerateSeedPairs(n int) ([]SeedPair, error) {
	pairs := make([]SeedPair, n)
	for i := range pairs {
		if _, err := rand.Read(pairs[i].Seed0[:]); err != nil {
			return nil, err
		}
		if _, err := rand.Read(pairs[i].Seed1[:]); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

// MakeProverState runs the per-column small VOLEs, transposes them into
// row-form (one row per VOLE-length index, one column per seed pair),
// and applies the RAAA code's prover correction so U lies in the code's
// image.
func MakeProverState(code raaa.Code, seeds []SeedPair, length int) (ProverState, seedcommit.Digest, []seedcommit.Digest, error) {
	n := len(seeds)
	uCols := make([]linalg.Vector, n)
	vCols := make([]linalg.Vector, n)
	commitments := make([]seedcommit.Digest, n)

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pair := range seeds {
		i, pair := i, pair
		g.Go(func() error {
			out, err := smallvole.ProverOutput(pair.Seed0, pair.Seed1, length)
			if err != nil {
				return err
			}
			uCols[i] = out.U
			vCols[i] = out.V
			commitments[i] = seedcommit.Commit(pair.Seed0[:], pair.Seed1[:])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ProverState{}, seedcommit.Digest{}, nil, err
	}
	seedComm := seedcommit.CommitMany(commitments)

	uRows := linalg.Matrix{Rows: uCols}.Transpose()
	vRows := linalg.Matrix{Rows: vCols}.Transpose()

	newUs, correction, err := code.GetProverCorrection(uRows)
	if err != nil {
		return ProverState{}, seedcommit.Digest{}, nil, err
	}

	return ProverState{
		Seeds:      seeds,
		U:          newUs,
		V:          vRows,
		Correction: correction,
	}, seedComm, commitments, nil
}

// ConsistencyCheck computes the prover's (U_hash, V_hash) = (h*U, h*V)
// halves of the subspace-VOLE consistency check for challenge vector h,
// a length-ℓ row-weighting that collapses U (ℓ×k, in the code's message
// space) down to a k-wide hash and V (ℓ×N, raw) down to an N-wide hash.
func ConsistencyCheck(challenge linalg.Vector, u, v linalg.Matrix) (uHash, vHash linalg.Vector, err error) {
	return raaa.CalcConsistencyCheck(challenge, u, v)
}

// Halves is the VitH split of U/V into top/bottom ℓ/2-row halves.
type Halves struct {
	U1, U2, V1, V2 linalg.Matrix
}

// Split divides U and V, each ℓ rows, at row ℓ/2. ℓ must be even.
func Split(u, v linalg.Matrix) (Halves, error) {
	if len(u.Rows)%2 != 0 || len(v.Rows) != len(u.Rows) {
		return Halves{}, errors.New("subspacevole: vole length must be even and U/V row counts must match")
	}
	half := len(u.Rows) / 2
	u1, u2 := u.SplitRows(half)
	v1, v2 := v.SplitRows(half)
	return Halves{U1: u1, U2: u2, V1: v1, V2: v2}, nil
}

// SMatrixWithConsistencyProof computes S = Δ′·u1+u2 and the prover's
// S-consistency vector s_check = χ·(Δ′·v1+v2)ᵀ.
func SMatrixWithConsistencyProof(h Halves, vithDelta field.Element, sChallenge linalg.Vector) (sMatrix linalg.Matrix, sCheck linalg.Vector, err error) {
	scaledU1 := h.U1.ScalarMul(vithDelta)
	sMatrix, err = linalg.MatAdd(scaledU1, h.U2)
	if err != nil {
		return linalg.Matrix{}, nil, err
	}

	scaledV1 := h.V1.ScalarMul(vithDelta)
	sumV, err := linalg.MatAdd(scaledV1, h.V2)
	if err != nil {
		return linalg.Matrix{}, nil, err
	}
	// s_check = chi * sumV^T: sumV is ℓ/2 rows by N columns, chi indexes
	// rows, result is an N-wide row vector.
	sCheckVec, err := mulRowVecByMatrixRows(sChallenge, sumV)
	if err != nil {
		return linalg.Matrix{}, nil, err
	}
	return sMatrix, sCheckVec, nil
}

func mulRowVecByMatrixRows(challenge linalg.Vector, m linalg.Matrix) (linalg.Vector, error) {
	if len(challenge) != len(m.Rows) {
		return nil, linalg.ErrLengthMismatch
	}
	if len(m.Rows) == 0 {
		return linalg.Vector{}, nil
	}
	width := len(m.Rows[0])
	out := make(linalg.Vector, width)
	for i, row := range m.Rows {
		for j, v := range row {
			out[j] = field.Add(out[j], field.Mul(challenge[i], v))
		}
	}
	return out, nil
}

// VerifierReconstructQ reconstructs this column's corrected Q matrix
// (ℓ rows by N columns) from the per-column verifier outputs (one
// revealed seed and Δ bit per column) and the prover's correction.
func VerifierReconstructQ(code raaa.Code, openedSeeds [][32]byte, deltaBits []bool, length int, correction linalg.Matrix) (linalg.Matrix, linalg.Vector, error) {
	n := len(openedSeeds)
	qCols := make([]linalg.Vector, n)
	deltas := make(linalg.Vector, n)

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			out, err := smallvole.VerifierOutput(openedSeeds[i], deltaBits[i], length)
			if err != nil {
				return err
			}
			qCols[i] = out.Q
			deltas[i] = out.Delta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return linalg.Matrix{}, nil, err
	}
	qRows := linalg.Matrix{Rows: qCols}.Transpose()
	corrected, err := code.CorrectVerifierQs(qRows, deltas, correction)
	if err != nil {
		return linalg.Matrix{}, nil, err
	}
	return corrected, deltas, nil
}

// VerifyConsistencyCheck checks the subspace-VOLE consistency relation
// the prover committed to against the verifier's reconstructed Q and Δ.
// q is ℓ rows by N columns, matching challenge's ℓ length directly (no
// transpose: mulVecByMatrixCols folds rows, it does not expect
// pre-transposed storage).
func VerifyConsistencyCheck(code raaa.Code, challenge, uHash, vHash, deltas linalg.Vector, q linalg.Matrix) error {
	if err := code.VerifyConsistencyCheck(challenge, uHash, vHash, deltas, q); err != nil {
		return ErrConsistencyCheckFailed
	}
	return nil
}

// VerifySMatrix checks the VitH S-matrix relation:
//
//	χ·(Δ′·q1+q2)ᵀ == s_check + χ·(encode_batch(S)·diag(Δ))ᵀ
func VerifySMatrix(code raaa.Code, q linalg.Matrix, deltas linalg.Vector, vithDelta field.Element, sChallenge linalg.Vector, sMatrix linalg.Matrix, sCheck linalg.Vector) error {
	half := len(q.Rows) / 2
	q1, q2 := q.SplitRows(half)

	scaledQ1 := q1.ScalarMul(vithDelta)
	sumQ, err := linalg.MatAdd(scaledQ1, q2)
	if err != nil {
		return err
	}
	lhs, err := mulRowVecByMatrixRows(sChallenge, sumQ)
	if err != nil {
		return err
	}

	sRows := make([]linalg.Vector, len(sMatrix.Rows))
	for i, row := range sMatrix.Rows {
		enc, err := code.Encode(row)
		if err != nil {
			return err
		}
		sRows[i] = enc
	}
	encodedS := linalg.Matrix{Rows: sRows}

	scaledEncodedS := make([]linalg.Vector, len(encodedS.Rows))
	for i, row := range encodedS.Rows {
		scaled := make(linalg.Vector, len(row))
		for j := range row {
			scaled[j] = field.Mul(row[j], deltas[j])
		}
		scaledEncodedS[i] = scaled
	}
	rhsCorrection, err := mulRowVecByMatrixRows(sChallenge, linalg.Matrix{Rows: scaledEncodedS})
	if err != nil {
		return err
	}
	rhs, err := linalg.Add(sCheck, rhsCorrection)
	if err != nil {
		return err
	}

	if len(lhs) != len(rhs) {
		return ErrSMatrixCheckFailed
	}
	for i := range lhs {
		if !field.Equal(lhs[i], rhs[i]) {
			return ErrSMatrixCheckFailed
		}
	}
	return nil
}
