package linalg

import "github.com/takakv/vole-zkp/field"

// SparseEntry is a single non-zero coordinate of a sparse vector or row.
type SparseEntry struct {
	Index int
	Value field.Element
}

// SparseVector is a sparse vector: only non-zero coordinates are stored.
// R1CS constraint rows are overwhelmingly sparse, so dotting against
// them must only touch their non-zero entries (see DotSparse).
type SparseVector []SparseEntry

// DotSparse computes the inner product of a dense vector dense with a
// sparse vector sparse, touching only sparse's non-zero entries. index
// values in sparse beyond len(dense) are an error.
func DotSparse(dense Vector, sparse SparseVector) (field.Element, error) {
	acc := field.Zero()
	for _, e := range sparse {
		if e.Index < 0 || e.Index >= len(dense) {
			return field.Element{}, ErrLengthMismatch
		}
		acc = field.Add(acc, field.Mul(dense[e.Index], e.Value))
	}
	return acc, nil
}

// ToDense materializes a sparse vector of the given width as a dense one.
func (sv SparseVector) ToDense(width int) Vector {
	r := make(Vector, width)
	for _, e := range sv {
		r[e.Index] = field.Add(r[e.Index], e.Value)
	}
	return r
}

// SparseMatrix is a row-major sparse matrix: each row is a SparseVector.
type SparseMatrix struct {
	Rows  []SparseVector
	Width int
}

// MulVec computes m * v for a dense column vector v of length m.Width.
func (m SparseMatrix) MulVec(v Vector) (Vector, error) {
	if len(v) != m.Width {
		return nil, ErrLengthMismatch
	}
	out := make(Vector, len(m.Rows))
	for i, row := range m.Rows {
		val, err := DotSparse(v, row)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// ToDense materializes the sparse matrix as a dense row-major Matrix.
func (m SparseMatrix) ToDense() Matrix {
	rows := make([]Vector, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = row.ToDense(m.Width)
	}
	return Matrix{Rows: rows}
}
