// Package linalg implements dense and sparse vector/matrix arithmetic
// over the BN254 scalar field, the algebraic substrate the rest of this
// module is built on.
package linalg

import (
	"errors"

	"github.com/takakv/vole-zkp/field"
)

// ErrLengthMismatch is returned when two operands of a binary vector or
// matrix operation have incompatible dimensions.
var ErrLengthMismatch = errors.New("linalg: length mismatch")

// Vector is a dense vector of field elements.
type Vector []field.Element

// NewVector allocates a zero vector of length n.
func NewVector(n int) Vector {
	return make(Vector, n)
}

// Add returns the componentwise sum of a and b.
func Add(a, b Vector) (Vector, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	r := make(Vector, len(a))
	for i := range a {
		r[i] = field.Add(a[i], b[i])
	}
	return r, nil
}

// Sub returns the componentwise difference a - b.
func Sub(a, b Vector) (Vector, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	r := make(Vector, len(a))
	for i := range a {
		r[i] = field.Sub(a[i], b[i])
	}
	return r, nil
}

// ScalarMul returns a scaled by s.
func ScalarMul(a Vector, s field.Element) Vector {
	r := make(Vector, len(a))
	for i := range a {
		r[i] = field.Mul(a[i], s)
	}
	return r
}

// AddConst returns a with c added to every entry.
func AddConst(a Vector, c field.Element) Vector {
	r := make(Vector, len(a))
	for i := range a {
		r[i] = field.Add(a[i], c)
	}
	return r
}

// Dot returns the inner product of a and b.
func Dot(a, b Vector) (field.Element, error) {
	if len(a) != len(b) {
		return field.Element{}, ErrLengthMismatch
	}
	acc := field.Zero()
	for i := range a {
		acc = field.Add(acc, field.Mul(a[i], b[i]))
	}
	return acc, nil
}

// ZeroPad returns a copy of a extended to length n with zeros. It is an
// error to request n smaller than len(a).
func ZeroPad(a Vector, n int) (Vector, error) {
	if n < len(a) {
		return nil, errors.New("linalg: pad target shorter than input")
	}
	r := make(Vector, n)
	copy(r, a)
	return r, nil
}

// Concat returns a followed by b in a freshly allocated vector.
func Concat(a, b Vector) Vector {
	r := make(Vector, len(a)+len(b))
	copy(r, a)
	copy(r[len(a):], b)
	return r
}

// Split divides a at index k into (a[:k], a[k:]), both freshly copied.
func Split(a Vector, k int) (Vector, Vector, error) {
	if k < 0 || k > len(a) {
		return nil, nil, errors.New("linalg: split index out of range")
	}
	left := make(Vector, k)
	right := make(Vector, len(a)-k)
	copy(left, a[:k])
	copy(right, a[k:])
	return left, right, nil
}

// Clone returns a deep copy of a.
func (a Vector) Clone() Vector {
	r := make(Vector, len(a))
	copy(r, a)
	return r
}
