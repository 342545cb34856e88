package dok

import "testing"

func TestDOKMulVec(t *testing.T) {
	m := New(2, 3)
	m.SetAt(0, 0, 1)
	m.SetAt(0, 2, 2)
	m.SetAt(1, 1, 3)
	m.AddAt(0, 0, 1) // entry now 2

	x := []float64{1, 1, 1}
	dst := make([]float64, 2)
	m.MulVec(dst, x)

	want := []float64{4, 3}
	for i, v := range want {
		if dst[i] != v {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], v)
		}
	}
	if m.NNZ() != 3 {
		t.Errorf("NNZ() = %d, want 3", m.NNZ())
	}
}

func TestDOKToDense(t *testing.T) {
	m := New(2, 2)
	m.SetAt(0, 1, 5)
	m.SetAt(1, 0, 7)
	dst := make([]float64, 4)
	m.ToDense(dst, 2)
	want := []float64{0, 5, 7, 0}
	for i, v := range want {
		if dst[i] != v {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], v)
		}
	}
}
