// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dok provides a dictionary-of-keys sparse matrix used to assemble
// the sparse KKT operator incrementally: entries are scattered in as each
// block (Z, A, A^T, X, regTmp diagonal) is written, then the result is
// scattered into a dense buffer (ToDense) for the numeric factorization.
package dok

type key struct {
	r, c int
}

type DOK struct {
	Rows, Cols int

	data map[key]float64
}

func New(r, c int) *DOK {
	return &DOK{
		Rows: r,
		Cols: c,
		data: make(map[key]float64),
	}
}

func (m *DOK) Dims() (r, c int) {
	return m.Rows, m.Cols
}

// NNZ reports the number of explicitly stored entries.
func (m *DOK) NNZ() int {
	return len(m.data)
}

func (m *DOK) check(i, j int) {
	if i < 0 || m.Rows <= i {
		panic("row index out of range")
	}
	if j < 0 || m.Cols <= j {
		panic("column index out of range")
	}
}

func (m *DOK) At(i, j int) float64 {
	m.check(i, j)
	return m.data[key{i, j}]
}

func (m *DOK) SetAt(i, j int, v float64) {
	m.check(i, j)
	m.data[key{i, j}] = v
}

// AddAt accumulates v into the (i,j) entry, leaving any prior value in
// place. Used to add regTmp onto an existing diagonal without clobbering
// the block that was already scattered there.
func (m *DOK) AddAt(i, j int, v float64) {
	m.check(i, j)
	m.data[key{i, j}] += v
}

func (m *DOK) MulVec(dst, x []float64) {
	if m.Cols != len(x) {
		panic("dimension mismatch")
	}
	if m.Rows != len(dst) {
		panic("dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for ij, v := range m.data {
		dst[ij.r] += v * x[ij.c]
	}
}

func (m *DOK) MulTransVec(dst, x []float64) {
	if m.Cols != len(dst) {
		panic("dimension mismatch")
	}
	if m.Rows != len(x) {
		panic("dimension mismatch")
	}
	for j := range dst {
		dst[j] = 0
	}
	for ij, v := range m.data {
		dst[ij.c] += v * x[ij.r]
	}
}

// Each calls f once per explicitly stored entry. Iteration order is
// unspecified.
func (m *DOK) Each(f func(i, j int, v float64)) {
	for ij, v := range m.data {
		f(ij.r, ij.c, v)
	}
}

// ToDense scatters the stored entries into a row-major dense buffer of
// length Rows*Cols with the given leading dimension ld.
func (m *DOK) ToDense(dst []float64, ld int) {
	for i := range dst {
		dst[i] = 0
	}
	for ij, v := range m.data {
		dst[ij.r*ld+ij.c] = v
	}
}
