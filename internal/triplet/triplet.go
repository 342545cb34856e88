// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package triplet provides an append-only coordinate-format sparse matrix
// used to hold the (immutable, for the duration of a solve) sparse
// constraint matrix A backing the sparse Mehrotra variants.
package triplet

// Matrix stores the entries as parallel row/column/value slices, the
// layout the multiply kernels stream over. Duplicate coordinates are
// legal and sum.
type Matrix struct {
	rows, cols int

	ri  []int
	ci  []int
	val []float64
}

func New(r, c int) *Matrix {
	return &Matrix{rows: r, cols: c}
}

func (m *Matrix) Dims() (r, c int) {
	return m.rows, m.cols
}

// NNZ reports the number of stored entries, counting duplicates.
func (m *Matrix) NNZ() int {
	return len(m.val)
}

func (m *Matrix) Append(i, j int, v float64) {
	if i < 0 || m.rows <= i {
		panic("row index out of range")
	}
	if j < 0 || m.cols <= j {
		panic("column index out of range")
	}
	m.ri = append(m.ri, i)
	m.ci = append(m.ci, j)
	m.val = append(m.val, v)
}

func (m *Matrix) MulVec(dst, x []float64) {
	if m.cols != len(x) {
		panic("dimension mismatch")
	}
	if m.rows != len(dst) {
		panic("dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for t, v := range m.val {
		dst[m.ri[t]] += v * x[m.ci[t]]
	}
}

func (m *Matrix) MulTransVec(dst, x []float64) {
	if m.cols != len(dst) {
		panic("dimension mismatch")
	}
	if m.rows != len(x) {
		panic("dimension mismatch")
	}
	for j := range dst {
		dst[j] = 0
	}
	for t, v := range m.val {
		dst[m.ci[t]] += v * x[m.ri[t]]
	}
}

// Each calls f once per stored entry, in insertion order.
func (m *Matrix) Each(f func(i, j int, v float64)) {
	for t, v := range m.val {
		f(m.ri[t], m.ci[t], v)
	}
}

// ColumnIsZero reports whether column j has no stored entries. A
// structurally zero column of A leaves the corresponding x component
// unconstrained by the equality rows; problem construction logs such
// columns as likely modeling slips.
func (m *Matrix) ColumnIsZero(j int) bool {
	for _, cj := range m.ci {
		if cj == j {
			return false
		}
	}
	return true
}
