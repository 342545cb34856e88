package mehrotra

import "github.com/gonum/floats"

// LUFull factors the m-by-n row-major matrix a (leading dimension n) as
//
//	P A Q^T = L U
//
// using Gaussian elimination with complete (row and column) pivot search:
// at each step the pivot is the largest-magnitude entry anywhere in the
// remaining trailing submatrix, rather than just its first column. L is
// unit lower triangular with |l_ij| <= 1 as a consequence of complete
// pivoting, and is packed into the strictly-lower part of a; U is packed
// into the upper part (including the diagonal).
//
// LUFull returns the row and column permutations P and Q as index maps
// from A to the factored matrix: entry (i, j) of A sits at
// (p.Perm[i], q.Perm[j]) of P A Q^T. They are the inverses of the vectors
// Permutation.Apply would use to gather P A Q^T from A. It
// modifies a in place and returns a *SingularMatrixError if some pivot
// candidate is exactly zero, which can only happen once every entry of the
// remaining trailing submatrix is zero.
func LUFull(a []float64, m, n int) (p, q Permutation, err error) {
	if len(a) != m*n {
		panic("mehrotra: matrix length does not match m*n")
	}
	minDim := m
	if n < minDim {
		minDim = n
	}

	pInv := NewIdentityPermutation(m)
	qInv := NewIdentityPermutation(n)

	for k := 0; k < minDim; k++ {
		iPiv, jPiv := maxAbsTrailing(a, n, k, m, n)

		rowSwap(a, n, k, iPiv)
		pInv.Swap(k, iPiv)

		colSwap(a, n, m, k, jPiv)
		qInv.Swap(k, jPiv)

		pivot := a[k*n+k]
		if pivot == 0 {
			return Permutation{}, Permutation{}, &SingularMatrixError{Pivot: k}
		}
		pivotInv := 1 / pivot

		// Scale the sub-diagonal part of column k by 1/pivot to form L.
		for i := k + 1; i < m; i++ {
			a[i*n+k] *= pivotInv
		}

		// Rank-1 update of the trailing submatrix:
		//   A22 -= A(:,k) * A(k,:)
		rowK := a[k*n+k+1 : k*n+n]
		for i := k + 1; i < m; i++ {
			lik := a[i*n+k]
			if lik == 0 {
				continue
			}
			floats.AddScaled(a[i*n+k+1:i*n+n], -lik, rowK)
		}
	}

	p = InvertPermutation(pInv)
	q = InvertPermutation(qInv)
	return p, q, nil
}

// maxAbsTrailing finds the row/column (absolute) indices of the largest
// magnitude entry in the trailing a[k:m, k:n] block.
func maxAbsTrailing(a []float64, ld, k, m, n int) (iPiv, jPiv int) {
	best := -1.0
	iPiv, jPiv = k, k
	for i := k; i < m; i++ {
		row := a[i*ld+k : i*ld+n]
		for j, v := range row {
			av := v
			if av < 0 {
				av = -av
			}
			if av > best {
				best = av
				iPiv = i
				jPiv = k + j
			}
		}
	}
	return iPiv, jPiv
}

func rowSwap(a []float64, ld, i, j int) {
	if i == j {
		return
	}
	ri := a[i*ld : i*ld+ld]
	rj := a[j*ld : j*ld+ld]
	for k := range ri {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

func colSwap(a []float64, ld, m, i, j int) {
	if i == j {
		return
	}
	for r := 0; r < m; r++ {
		a[r*ld+i], a[r*ld+j] = a[r*ld+j], a[r*ld+i]
	}
}
