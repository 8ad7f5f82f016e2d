package utils

import "gonum.org/v1/gonum/mat"

// Arange returns the values 0, 1, ..., n-1.
func Arange(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// MeshGrid generates an n-dimensional grid from the gridded values of each axis. Row i of the
// result holds the point at the multi-dimensional subscript SubFor(i) so the first axis varies
// slowest and the last axis varies fastest. Column j of every row is a value from axes[j].
func MeshGrid(axes ...[]float64) *mat.Dense {
	dim := len(axes)
	dims := make([]int, dim)
	for i := range axes {
		dims[i] = len(axes[i])
	}
	sz := size(dims)
	sub := make([]int, dim)
	matOut := mat.NewDense(sz, dim, nil)
	for i := 0; i < sz; i++ {
		SubFor(sub, i, dims)
		for j := 0; j < dim; j++ {
			matOut.Set(i, j, axes[j][sub[j]])
		}
	}
	return matOut
}

func size(dims []int) int {
	n := 1
	for _, v := range dims {
		n *= v
	}
	return n
}

// SubFor constructs the multi-dimensional subscript for the input linear index.
// Dims specifies the maximum size in each dimension. SubFor is the converse of
// IdxFor.
//
// If sub is non-nil the result is stored in-place into sub. If it is nil a new
// slice of the appropriate length is allocated.
func SubFor(sub []int, idx int, dims []int) []int {
	for _, v := range dims {
		if v <= 0 {
			panic("bad dims")
		}
	}
	if sub == nil {
		sub = make([]int, len(dims))
	}
	if len(sub) != len(dims) {
		panic("size mismatch")
	}
	if idx < 0 || idx >= size(dims) {
		panic("bad index")
	}
	for i := len(dims) - 1; i >= 0; i-- {
		sub[i] = idx % dims[i]
		idx /= dims[i]
	}
	return sub
}

// IdxFor returns the linear index of the multi-dimensional subscript sub for an array of the
// given dims, laid out with the last dimension varying fastest.
func IdxFor(sub, dims []int) int {
	if len(sub) != len(dims) {
		panic("size mismatch")
	}
	idx := 0
	for i, v := range sub {
		if v < 0 || v >= dims[i] {
			panic("bad index")
		}
		idx = idx*dims[i] + v
	}
	return idx
}
