package linalg

import "github.com/takakv/vole-zkp/field"

// Matrix is a dense row-major matrix of field elements.
type Matrix struct {
	Rows []Vector
}

// NewMatrix allocates a zero matrix with nrows rows of ncols columns.
func NewMatrix(nrows, ncols int) Matrix {
	rows := make([]Vector, nrows)
	for i := range rows {
		rows[i] = NewVector(ncols)
	}
	return Matrix{Rows: rows}
}

// Dim returns (rows, cols). A zero-row matrix has 0 columns.
func (m Matrix) Dim() (int, int) {
	if len(m.Rows) == 0 {
		return 0, 0
	}
	return len(m.Rows), len(m.Rows[0])
}

// Transpose returns the transpose of m.
func (m Matrix) Transpose() Matrix {
	nrows, ncols := m.Dim()
	out := NewMatrix(ncols, nrows)
	for i := 0; i < nrows; i++ {
		for j := 0; j < ncols; j++ {
			out.Rows[j][i] = m.Rows[i][j]
		}
	}
	return out
}

// ScalarMul returns m with every entry scaled by s.
func (m Matrix) ScalarMul(s field.Element) Matrix {
	out := Matrix{Rows: make([]Vector, len(m.Rows))}
	for i, row := range m.Rows {
		out.Rows[i] = ScalarMul(row, s)
	}
	return out
}

// MatAdd returns the entrywise sum of two equally-shaped matrices.
func MatAdd(a, b Matrix) (Matrix, error) {
	if len(a.Rows) != len(b.Rows) {
		return Matrix{}, ErrLengthMismatch
	}
	out := Matrix{Rows: make([]Vector, len(a.Rows))}
	for i := range a.Rows {
		sum, err := Add(a.Rows[i], b.Rows[i])
		if err != nil {
			return Matrix{}, err
		}
		out.Rows[i] = sum
	}
	return out, nil
}

// HadamardRows returns a matrix whose i-th row is a.Rows[i] scaled
// entrywise by diag[i]: (diag(v) * a) for a diagonal vector diag.
func HadamardRows(a Matrix, diag Vector) (Matrix, error) {
	if len(a.Rows) != len(diag) {
		return Matrix{}, ErrLengthMismatch
	}
	out := Matrix{Rows: make([]Vector, len(a.Rows))}
	for i, row := range a.Rows {
		out.Rows[i] = ScalarMul(row, diag[i])
	}
	return out, nil
}

// SplitRows splits m at row k into (m[:k], m[k:]), sharing underlying
// row slices (no deep copy).
func (m Matrix) SplitRows(k int) (Matrix, Matrix) {
	return Matrix{Rows: m.Rows[:k]}, Matrix{Rows: m.Rows[k:]}
}
