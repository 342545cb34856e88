package mehrotra

// Permutation is a forward permutation vector: applying it to a vector v
// produces w where w[i] = v[Perm[i]].
type Permutation struct {
	Perm []int
}

// NewIdentityPermutation returns the identity permutation of length n.
func NewIdentityPermutation(n int) Permutation {
	p := Permutation{Perm: make([]int, n)}
	for i := range p.Perm {
		p.Perm[i] = i
	}
	return p
}

// Swap exchanges entries k and j of the permutation in place.
func (p Permutation) Swap(k, j int) {
	p.Perm[k], p.Perm[j] = p.Perm[j], p.Perm[k]
}

// InvertPermutation returns the inverse of p, satisfying
// InvertPermutation(InvertPermutation(p)) == p exactly.
func InvertPermutation(p Permutation) Permutation {
	inv := Permutation{Perm: make([]int, len(p.Perm))}
	for i, pi := range p.Perm {
		inv.Perm[pi] = i
	}
	return inv
}

// Apply returns a new slice w with w[i] = v[p.Perm[i]].
func (p Permutation) Apply(v []float64) []float64 {
	w := make([]float64, len(v))
	for i, pi := range p.Perm {
		w[i] = v[pi]
	}
	return w
}
