// Package raaa implements the Repeat-Accumulate-Accumulate-Accumulate
// linear code used to turn N independent small VOLEs into one subspace
// VOLE: a repetition code whose codewords are scrambled through three
// rounds of permute-then-running-sum. The repetition stage is extended
// with extra, linearly independent rows so the whole generator matrix
// is square and invertible; this lets the prover correct a non-codeword
// U into a real codeword plus a small correction vector it sends to the
// verifier.
package raaa

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
)

// NumVOLEs is the default block length (and RAAA code dimension-inverse
// parameter) used for the VOLE-in-the-head transform.
const NumVOLEs = 1024

// DefaultQ is the default repetition factor: a rate-1/2 code.
const DefaultQ = 2

// ErrParityCheck is returned when a putative codeword fails the parity
// check implied by the repetition code's invariant.
var ErrParityCheck = errors.New("raaa: parity check failure")

// Permutation is a forward/inverse pair of index permutations applied
// between accumulation rounds.
type Permutation struct {
	Forward []uint32
	Inverse []uint32
}

// Code is an RAAA linear code instance: three interleave permutations
// and a repetition factor q.
type Code struct {
	Permutations [3]Permutation
	Q            int
}

// N returns the codeword length.
func (c Code) N() int {
	return len(c.Permutations[0].Forward)
}

// K returns the code's message dimension, n/q.
func (c Code) K() int {
	if c.N()%c.Q != 0 {
		panic("raaa: n must be a multiple of q")
	}
	return c.N() / c.Q
}

// Repeat tiles input numRepeats times.
func Repeat(input linalg.Vector, numRepeats int) linalg.Vector {
	out := make(linalg.Vector, 0, numRepeats*len(input))
	for i := 0; i < numRepeats; i++ {
		out = append(out, input...)
	}
	return out
}

// RepeatExtended applies the invertible, extended repetition matrix:
// clone the input, then let every section but the zeroth gain the
// zeroth section added in. len(input) must be divisible by q.
func RepeatExtended(input linalg.Vector, q int) linalg.Vector {
	sectionLen := len(input) / q
	zeroth := input[:sectionLen]
	out := make(linalg.Vector, 0, len(input))
	out = append(out, zeroth...)
	for i := 1; i < q; i++ {
		start := sectionLen * i
		section := input[start : start+sectionLen]
		sum, _ := linalg.Add(zeroth, section)
		out = append(out, sum...)
	}
	return out
}

// RepeatExtendedInverse inverts RepeatExtended: clone the input, then
// let every section but the zeroth have the zeroth section subtracted.
func RepeatExtendedInverse(input linalg.Vector, q int) linalg.Vector {
	sectionLen := len(input) / q
	zeroth := input[:sectionLen]
	out := make(linalg.Vector, 0, len(input))
	out = append(out, zeroth...)
	for i := 1; i < q; i++ {
		start := sectionLen * i
		section := input[start : start+sectionLen]
		diff, _ := linalg.Sub(section, zeroth)
		out = append(out, diff...)
	}
	return out
}

// Interleave scatters input according to permutation: out[permutation[i]] = input[i].
// Applying Interleave with the inverse permutation undoes it.
func Interleave(input linalg.Vector, permutation []uint32) (linalg.Vector, error) {
	if len(input) != len(permutation) {
		return nil, linalg.ErrLengthMismatch
	}
	out := make(linalg.Vector, len(input))
	for i, p := range permutation {
		out[p] = input[i]
	}
	return out, nil
}

// Accumulate returns the running prefix sum of input.
func Accumulate(input linalg.Vector) linalg.Vector {
	out := make(linalg.Vector, len(input))
	out[0] = input[0]
	for i := 1; i < len(input); i++ {
		out[i] = field.Add(input[i], out[i-1])
	}
	return out
}

// AccumulateInverse inverts Accumulate via successive differences.
func AccumulateInverse(input linalg.Vector) linalg.Vector {
	out := make(linalg.Vector, len(input))
	out[0] = input[0]
	for i := 1; i < len(input); i++ {
		out[i] = field.Sub(input[i], input[i-1])
	}
	return out
}

// chachaU32Stream draws uniform uint32 values from a ChaCha20 keystream
// seeded deterministically, used to build reproducible interleave
// permutations.
type chachaU32Stream struct {
	cipher *chacha20.Cipher
	buf    [4]byte
}

func newChaChaU32Stream(seed [32]byte) (*chachaU32Stream, error) {
	var nonce [12]byte
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &chachaU32Stream{cipher: c}, nil
}

func (s *chachaU32Stream) next() uint32 {
	var zero [4]byte
	s.cipher.XORKeyStream(s.buf[:], zero[:])
	return binary.LittleEndian.Uint32(s.buf[:])
}

// uint32n returns a uniform value in [0, n) by rejection sampling,
// avoiding the modulo bias a plain `next() % n` would introduce.
func (s *chachaU32Stream) uint32n(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	limit := (^uint32(0)) - (^uint32(0))%n
	for {
		v := s.next()
		if v < limit {
			return v % n
		}
	}
}

// RandomInterleavePermutations builds a uniform permutation of [0, n)
// and its inverse, deterministically derived from seed via Fisher-Yates
// shuffling driven by a ChaCha20 stream.
func RandomInterleavePermutations(n uint32, seed [32]byte) (Permutation, error) {
	stream, err := newChaChaU32Stream(seed)
	if err != nil {
		return Permutation{}, err
	}

	avail := make([]uint32, n)
	for i := range avail {
		avail[i] = uint32(i)
	}

	forward := make([]uint32, n)
	backward := make([]uint32, n)
	for i := uint32(0); i < n; i++ {
		idx := stream.uint32n(uint32(len(avail)))
		removed := avail[idx]
		avail = append(avail[:idx], avail[idx+1:]...)
		forward[i] = removed
		backward[removed] = i
	}
	return Permutation{Forward: forward, Inverse: backward}, nil
}

func blake3Seed(label string) [32]byte {
	return blake3.Sum256([]byte(label))
}

// RandDefault builds the default-parameter RAAA code: block length
// NumVOLEs, rate 1/2 (q=2), with interleave permutations domain-separated
// by label so the code is reproducible without any external state.
func RandDefault() (Code, error) {
	return RandWithParametersSeeded(NumVOLEs, DefaultQ, [3][32]byte{
		blake3Seed("VOLE in the head RAAA code interleave 0"),
		blake3Seed("VOLE in the head RAAA code interleave 1"),
		blake3Seed("VOLE in the head RAAA code interleave 2"),
	})
}

var defaultCodeOnce = sync.OnceValue(func() Code {
	code, err := RandDefault()
	if err != nil {
		// RandDefault's inputs are fixed constants; failure here would
		// mean the permutation generator itself is broken.
		panic("raaa: default code construction failed: " + err.Error())
	}
	return code
})

// DefaultCode returns the process-wide default RAAA code (N=NumVOLEs,
// q=DefaultQ), built once and cached. Its permutation tables are
// immutable and safe to share read-only across concurrent proofs.
func DefaultCode() Code {
	return defaultCodeOnce()
}

// RandWithParametersSeeded builds an RAAA code of the given block size
// and repetition factor from three explicit 32-byte seeds, one per
// interleave round.
func RandWithParametersSeeded(blockSize uint32, q int, seeds [3][32]byte) (Code, error) {
	var perms [3]Permutation
	for i, s := range seeds {
		p, err := RandomInterleavePermutations(blockSize, s)
		if err != nil {
			return Code{}, err
		}
		perms[i] = p
	}
	return Code{Permutations: perms, Q: q}, nil
}

// Encode converts a message vector into its RAAA codeword: repeat,
// then three rounds of interleave-then-accumulate.
func (c Code) Encode(vec linalg.Vector) (linalg.Vector, error) {
	return c.encodeVia(Repeat(vec, c.Q))
}

// EncodeExtended multiplies vec by the extended (square, invertible)
// generator matrix Tc.
func (c Code) EncodeExtended(vec linalg.Vector) (linalg.Vector, error) {
	return c.encodeVia(RepeatExtended(vec, c.Q))
}

func (c Code) encodeVia(repeated linalg.Vector) (linalg.Vector, error) {
	in0, err := Interleave(repeated, c.Permutations[0].Forward)
	if err != nil {
		return nil, err
	}
	acc0 := Accumulate(in0)
	in1, err := Interleave(acc0, c.Permutations[1].Forward)
	if err != nil {
		return nil, err
	}
	acc1 := Accumulate(in1)
	in2, err := Interleave(acc1, c.Permutations[2].Forward)
	if err != nil {
		return nil, err
	}
	return Accumulate(in2), nil
}

// MulVecByExtendedInverse multiplies u by Tc^-1, the inverse of the
// extended generator matrix.
func (c Code) MulVecByExtendedInverse(u linalg.Vector) (linalg.Vector, error) {
	acc2Inv := AccumulateInverse(u)
	in2Inv, err := Interleave(acc2Inv, c.Permutations[2].Inverse)
	if err != nil {
		return nil, err
	}
	acc1Inv := AccumulateInverse(in2Inv)
	in1Inv, err := Interleave(acc1Inv, c.Permutations[1].Inverse)
	if err != nil {
		return nil, err
	}
	acc0Inv := AccumulateInverse(in1Inv)
	in0Inv, err := Interleave(acc0Inv, c.Permutations[0].Inverse)
	if err != nil {
		return nil, err
	}
	return RepeatExtendedInverse(in0Inv, c.Q), nil
}

// CheckParity reports whether putativeCodeword decodes (via the
// extended inverse, minus the final repeat-inverse step) back to q
// equal-sized repeated sections, the repetition code's invariant.
func (c Code) CheckParity(putativeCodeword linalg.Vector) bool {
	acc2Inv := AccumulateInverse(putativeCodeword)
	in2Inv, err := Interleave(acc2Inv, c.Permutations[2].Inverse)
	if err != nil {
		return false
	}
	acc1Inv := AccumulateInverse(in2Inv)
	in1Inv, err := Interleave(acc1Inv, c.Permutations[1].Inverse)
	if err != nil {
		return false
	}
	acc0Inv := AccumulateInverse(in1Inv)
	shouldBeRepeated, err := Interleave(acc0Inv, c.Permutations[0].Inverse)
	if err != nil {
		return false
	}

	if c.Q <= 1 || len(shouldBeRepeated)%c.Q != 0 {
		return false
	}
	sectionLen := len(shouldBeRepeated) / c.Q
	zeroth := shouldBeRepeated[:sectionLen]
	for i := 1; i < c.Q; i++ {
		start := sectionLen * i
		section := shouldBeRepeated[start : start+sectionLen]
		for j := range zeroth {
			if !field.Equal(zeroth[j], section[j]) {
				return false
			}
		}
	}
	return true
}

// CheckParityBatch applies CheckParity to every codeword, returning
// ErrParityCheck if any fails.
func (c Code) CheckParityBatch(codewords []linalg.Vector) error {
	for _, cw := range codewords {
		if !c.CheckParity(cw) {
			return ErrParityCheck
		}
	}
	return nil
}

// BatchEncode encodes every row of matrix.
func (c Code) BatchEncode(matrix []linalg.Vector) ([]linalg.Vector, error) {
	out := make([]linalg.Vector, len(matrix))
	for i, row := range matrix {
		enc, err := c.Encode(row)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// BatchEncodeExtended applies EncodeExtended to every row of matrix.
func (c Code) BatchEncodeExtended(matrix []linalg.Vector) ([]linalg.Vector, error) {
	out := make([]linalg.Vector, len(matrix))
	for i, row := range matrix {
		enc, err := c.EncodeExtended(row)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// GetProverCorrection splits each row of oldUs (multiplied by Tc^-1)
// into its first k entries (the corrected codeword-subspace U) and
// remaining n-k entries (the correction C sent to the verifier).
func (c Code) GetProverCorrection(oldUs linalg.Matrix) (newUs linalg.Matrix, correction linalg.Matrix, err error) {
	k := c.K()
	full := make([]linalg.Vector, len(oldUs.Rows))
	for i, row := range oldUs.Rows {
		full[i], err = c.MulVecByExtendedInverse(row)
		if err != nil {
			return linalg.Matrix{}, linalg.Matrix{}, err
		}
	}
	newRows := make([]linalg.Vector, len(full))
	corrRows := make([]linalg.Vector, len(full))
	for i, row := range full {
		newRows[i] = row[:k].Clone()
		corrRows[i] = row[k:].Clone()
	}
	return linalg.Matrix{Rows: newRows}, linalg.Matrix{Rows: corrRows}, nil
}

// CorrectVerifierQs corrects the verifier's Q matrix given the
// prover's correction matrix and the Δ vector: concatenates a
// zero-prefix with each correction row, encodes it through the
// extended generator, scales by Δ, and subtracts from Q.
func (c Code) CorrectVerifierQs(oldQs linalg.Matrix, deltas linalg.Vector, correction linalg.Matrix) (linalg.Matrix, error) {
	if len(oldQs.Rows) == 0 {
		return linalg.Matrix{}, nil
	}
	l := len(oldQs.Rows[0])
	corrLen := 0
	if len(correction.Rows) > 0 {
		corrLen = len(correction.Rows[0])
	}
	zeroLen := l - corrLen

	zeroConsC := make([]linalg.Vector, len(oldQs.Rows))
	for i := range oldQs.Rows {
		row := make(linalg.Vector, 0, l)
		row = append(row, make(linalg.Vector, zeroLen)...)
		row = append(row, correction.Rows[i]...)
		zeroConsC[i] = row
	}

	extended, err := c.BatchEncodeExtended(zeroConsC)
	if err != nil {
		return linalg.Matrix{}, err
	}

	out := make([]linalg.Vector, len(oldQs.Rows))
	for i := range oldQs.Rows {
		scaled := make(linalg.Vector, len(extended[i]))
		for j := range extended[i] {
			scaled[j] = field.Mul(extended[i][j], deltas[j])
		}
		diff, err := linalg.Sub(oldQs.Rows[i], scaled)
		if err != nil {
			return linalg.Matrix{}, err
		}
		out[i] = diff
	}
	return linalg.Matrix{Rows: out}, nil
}

// VerifyConsistencyCheck checks v_hash == q_hash - encode(u_hash)*Δ,
// where q_hash = challengeHash * qCols.
func (c Code) VerifyConsistencyCheck(challengeHash linalg.Vector, uHash, vHash linalg.Vector, deltas linalg.Vector, qCols linalg.Matrix) error {
	qHash, err := mulVecByMatrixCols(challengeHash, qCols)
	if err != nil {
		return err
	}
	encodedUHash, err := c.Encode(uHash)
	if err != nil {
		return err
	}
	if len(encodedUHash) != len(deltas) {
		return linalg.ErrLengthMismatch
	}
	scaled := make(linalg.Vector, len(encodedUHash))
	for i := range encodedUHash {
		scaled[i] = field.Mul(encodedUHash[i], deltas[i])
	}
	rhs, err := linalg.Sub(qHash, scaled)
	if err != nil {
		return err
	}
	if len(vHash) != len(rhs) {
		return linalg.ErrLengthMismatch
	}
	for i := range vHash {
		if !field.Equal(vHash[i], rhs[i]) {
			return ErrParityCheck
		}
	}
	return nil
}

// mulVecByMatrixCols computes challenge * cols, treating cols as a
// matrix of rows (one per VOLE column) and challenge as a row vector
// indexing those rows: result[j] = sum_i challenge[i] * cols.Rows[i][j].
func mulVecByMatrixCols(challenge linalg.Vector, cols linalg.Matrix) (linalg.Vector, error) {
	if len(challenge) != len(cols.Rows) {
		return nil, linalg.ErrLengthMismatch
	}
	if len(cols.Rows) == 0 {
		return linalg.Vector{}, nil
	}
	width := len(cols.Rows[0])
	out := make(linalg.Vector, width)
	for i, row := range cols.Rows {
		for j, v := range row {
			out[j] = field.Add(out[j], field.Mul(challenge[i], v))
		}
	}
	return out, nil
}

// CalcConsistencyCheck returns (challengeHash*uCols, challengeHash*vCols),
// the prover's half of the subspace-VOLE consistency check.
func CalcConsistencyCheck(challengeHash linalg.Vector, uCols, vCols linalg.Matrix) (linalg.Vector, linalg.Vector, error) {
	u, err := mulVecByMatrixCols(challengeHash, uCols)
	if err != nil {
		return nil, nil, err
	}
	v, err := mulVecByMatrixCols(challengeHash, vCols)
	if err != nil {
		return nil, nil, err
	}
	return u, v, nil
}
