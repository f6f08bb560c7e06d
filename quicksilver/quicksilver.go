// Package quicksilver implements the R1CS multiplication-check protocol
// run over the long VOLE the VitH transform produces. Every wire w is
// authenticated as a (value, mac) pair such that the verifier's public
// tag S[w] = Δ′·value + mac; the prover aggregates, across every
// constraint and a random challenge γ, a single degree-1-in-Δ′
// polynomial (A, B) that the verifier can check against its own
// tag-only recomputation without ever learning the witness.
//
// The per-gate identity this relies on: for a multiplication constraint
// x·y = z with tags K[x] = Δ′x+m[x] (and similarly y, z),
//
//	K[x]·K[y] − Δ′·K[z] = A0 + Δ′·A1
//
// holds identically in Δ′ exactly when x·y = z, where
// A0 = m[x]·m[y] and A1 = x·m[y] + y·m[x] − m[z]. Summing A0, A1 across
// constraints with powers of a random γ preserves the identity and lets
// one (A, B) pair certify every gate at once.
package quicksilver

import (
	"errors"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/r1cs"
)

// ErrAggregateCheckFailed is returned when the Quicksilver aggregate
// identity A·Δ′+B does not match the verifier's tag recomputation.
var ErrAggregateCheckFailed = errors.New("quicksilver: aggregate check failed")

// ErrPublicOpeningFailed is returned when a public wire's opening does
// not match its tag, or does not match the asserted public value.
var ErrPublicOpeningFailed = errors.New("quicksilver: public opening check failed")

// Proof is the Quicksilver zkp: the aggregated first-order (A) and
// zero-order (B) coefficients of the error polynomial in Δ′.
type Proof struct {
	A field.Element
	B field.Element
}

// Flatten lays a row-major matrix out as a single vector, the
// representation the R1CS sparse rows index into.
func Flatten(m linalg.Matrix) linalg.Vector {
	if len(m.Rows) == 0 {
		return linalg.Vector{}
	}
	width := len(m.Rows[0])
	out := make(linalg.Vector, 0, len(m.Rows)*width)
	for _, row := range m.Rows {
		out = append(out, row...)
	}
	return out
}

// gatherLinearTerms computes, for one constraint row, (value, mac)
// where value = <row, u1flat> + <row, witnessCommFlat> (the real witness
// dot product, since W = u1+witnessComm) and mac = <row, u2flat>.
func gatherLinearTerms(row linalg.SparseVector, u1flat, u2flat, witnessCommFlat linalg.Vector) (value, mac field.Element, err error) {
	valU1, err := linalg.DotSparse(u1flat, row)
	if err != nil {
		return field.Element{}, field.Element{}, err
	}
	valComm, err := linalg.DotSparse(witnessCommFlat, row)
	if err != nil {
		return field.Element{}, field.Element{}, err
	}
	mac, err = linalg.DotSparse(u2flat, row)
	if err != nil {
		return field.Element{}, field.Element{}, err
	}
	value = field.Add(valU1, valComm)
	return value, mac, nil
}

// Prove computes the aggregated Quicksilver proof for every constraint
// in sys, using the prover's pre-Δ′ VitH halves u1, u2 and the public
// witness commitment, folded with random challenge gamma.
//
// u1 and u2 are ℓ/2×k matrices; witnessComm may have fewer rows. All
// three are flattened row by row, and every wire index used by sys must
// fall inside each flattened vector.
func Prove(sys r1cs.System, u1, u2, witnessComm linalg.Matrix, gamma field.Element) (Proof, error) {
	u1flat := Flatten(u1)
	u2flat := Flatten(u2)
	commFlat := Flatten(witnessComm)

	aggA := field.Zero()
	aggB := field.Zero()
	gammaPow := field.One()

	for j := 0; j < sys.NumConstraints(); j++ {
		valA, macA, err := gatherLinearTerms(sys.A.Rows[j], u1flat, u2flat, commFlat)
		if err != nil {
			return Proof{}, err
		}
		valB, macB, err := gatherLinearTerms(sys.B.Rows[j], u1flat, u2flat, commFlat)
		if err != nil {
			return Proof{}, err
		}
		_, macC, err := gatherLinearTerms(sys.C.Rows[j], u1flat, u2flat, commFlat)
		if err != nil {
			return Proof{}, err
		}

		a1 := field.Sub(field.Add(field.Mul(valA, macB), field.Mul(valB, macA)), macC)
		a0 := field.Mul(macA, macB)

		aggA = field.Add(aggA, field.Mul(gammaPow, a1))
		aggB = field.Add(aggB, field.Mul(gammaPow, a0))
		gammaPow = field.Mul(gammaPow, gamma)
	}

	return Proof{A: aggA, B: aggB}, nil
}

// Verify recomputes the verifier's tag-only aggregate from S (the
// public VitH S-matrix), Δ′, and witnessComm, and checks it against
// proof.
func Verify(sys r1cs.System, s, witnessComm linalg.Matrix, vithDelta, gamma field.Element, proof Proof) error {
	sFlat := Flatten(s)
	commFlat := Flatten(witnessComm)

	aggregate := field.Zero()
	gammaPow := field.One()

	for j := 0; j < sys.NumConstraints(); j++ {
		kx, err := tag(sys.A.Rows[j], sFlat, commFlat, vithDelta)
		if err != nil {
			return err
		}
		ky, err := tag(sys.B.Rows[j], sFlat, commFlat, vithDelta)
		if err != nil {
			return err
		}
		kz, err := tag(sys.C.Rows[j], sFlat, commFlat, vithDelta)
		if err != nil {
			return err
		}

		term := field.Sub(field.Mul(kx, ky), field.Mul(vithDelta, kz))
		aggregate = field.Add(aggregate, field.Mul(gammaPow, term))
		gammaPow = field.Mul(gammaPow, gamma)
	}

	want := field.Add(field.Mul(proof.A, vithDelta), proof.B)
	if !field.Equal(aggregate, want) {
		return ErrAggregateCheckFailed
	}
	return nil
}

// tag computes K[row] = <row, S> + Δ′·<row, witnessComm>, the
// verifier's public tag for the linear combination row applied to the
// witness.
func tag(row linalg.SparseVector, sFlat, commFlat linalg.Vector, vithDelta field.Element) (field.Element, error) {
	sDot, err := linalg.DotSparse(sFlat, row)
	if err != nil {
		return field.Element{}, err
	}
	commDot, err := linalg.DotSparse(commFlat, row)
	if err != nil {
		return field.Element{}, err
	}
	return field.Add(sDot, field.Mul(vithDelta, commDot)), nil
}

// PublicOpening is a revealed (value, mac) pair for one public wire.
type PublicOpening struct {
	Value field.Element
	Mac   field.Element
}

// OpenPublicWires reveals (value, mac) for every wire index in
// indices, where value is the actual witness entry and
// mac = u2[i] − Δ′·witnessComm[i] (the per-wire mac, well-defined only
// once Δ′ is known, unlike the aggregate zkp above).
func OpenPublicWires(witness, u2Flat, witnessCommFlat linalg.Vector, vithDelta field.Element, indices []int) ([]PublicOpening, error) {
	out := make([]PublicOpening, len(indices))
	for k, i := range indices {
		if i < 0 || i >= len(witness) || i >= len(u2Flat) || i >= len(witnessCommFlat) {
			return nil, errors.New("quicksilver: public wire index out of range")
		}
		mac := field.Sub(u2Flat[i], field.Mul(vithDelta, witnessCommFlat[i]))
		out[k] = PublicOpening{Value: witness[i], Mac: mac}
	}
	return out, nil
}

// VerifyPublicOpenings checks every opening against its tag (S[i]) and,
// when assertedValues is non-nil, against the publicly claimed value.
func VerifyPublicOpenings(openings []PublicOpening, indices []int, assertedValues []field.Element, sFlat linalg.Vector, vithDelta field.Element) error {
	if len(openings) != len(indices) {
		return ErrPublicOpeningFailed
	}
	for k, i := range indices {
		if i < 0 || i >= len(sFlat) {
			return ErrPublicOpeningFailed
		}
		o := openings[k]
		lhs := field.Add(field.Mul(o.Value, vithDelta), o.Mac)
		if !field.Equal(lhs, sFlat[i]) {
			return ErrPublicOpeningFailed
		}
		if assertedValues != nil && !field.Equal(o.Value, assertedValues[k]) {
			return ErrPublicOpeningFailed
		}
	}
	return nil
}
