// Package r1cs defines the rank-1 constraint system data model the
// prover and verifier operate on: three sparse matrices A, B, C plus
// the public/private wire layout metadata. No file I/O lives here —
// R1CS instances arrive already parsed (see package r1csfile).
package r1cs

import (
	"errors"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
)

// ErrMalformed is returned when an R1CS fails a structural invariant:
// mismatched row counts, a matrix width other than NumWires, or
// out-of-range column indices.
var ErrMalformed = errors.New("r1cs: malformed constraint system")

// System is a bare rank-1 constraint system: for every row j,
// <A[j],w> * <B[j],w> = <C[j],w> must hold over the witness w.
type System struct {
	A, B, C linalg.SparseMatrix
	// NumWires is the wire count n; every column index must be < NumWires.
	NumWires int
}

// NumConstraints returns the row count m.
func (s System) NumConstraints() int {
	return len(s.A.Rows)
}

// Validate checks the structural invariants: A, B, C share a row count,
// share a column width equal to NumWires, and every sparse index is in
// range.
func (s System) Validate() error {
	m := len(s.A.Rows)
	if len(s.B.Rows) != m || len(s.C.Rows) != m {
		return ErrMalformed
	}
	for _, mat := range []linalg.SparseMatrix{s.A, s.B, s.C} {
		if mat.Width != s.NumWires {
			return ErrMalformed
		}
		for _, row := range mat.Rows {
			for _, e := range row {
				if e.Index < 0 || e.Index >= s.NumWires {
					return ErrMalformed
				}
			}
		}
	}
	return nil
}

// Satisfies reports whether witness w (length NumWires) satisfies every
// constraint.
func (s System) Satisfies(w linalg.Vector) (bool, error) {
	az, err := s.A.MulVec(w)
	if err != nil {
		return false, err
	}
	bz, err := s.B.MulVec(w)
	if err != nil {
		return false, err
	}
	cz, err := s.C.MulVec(w)
	if err != nil {
		return false, err
	}
	for j := range az {
		lhs := field.Mul(az[j], bz[j])
		if !field.Equal(lhs, cz[j]) {
			return false, nil
		}
	}
	return true, nil
}

// WithMetadata pairs a System with its public wire index ranges. Both
// ranges are consecutive, starting right after the constant-1 wire
// (index 0): public outputs occupy [1, 1+NumPublicOutputs), public
// inputs occupy [1+NumPublicOutputs, 1+NumPublicOutputs+NumPublicInputs).
type WithMetadata struct {
	System
	NumPublicOutputs int
	NumPublicInputs  int
	NumPrivateInputs int
	NumLabels        uint64
}

// PublicOutputIndices returns the wire indices holding public outputs.
func (m WithMetadata) PublicOutputIndices() []int {
	out := make([]int, m.NumPublicOutputs)
	for i := range out {
		out[i] = 1 + i
	}
	return out
}

// PublicInputIndices returns the wire indices holding public inputs.
func (m WithMetadata) PublicInputIndices() []int {
	start := 1 + m.NumPublicOutputs
	out := make([]int, m.NumPublicInputs)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// PublicIndices returns outputs followed by inputs, the order the
// proof artifact's public_openings are listed in.
func (m WithMetadata) PublicIndices() []int {
	return append(m.PublicOutputIndices(), m.PublicInputIndices()...)
}
