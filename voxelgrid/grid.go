package voxelgrid

import (
	"github.com/golang/geo/r3"
	"gorgonia.org/tensor"

	"go.viam.com/frustumgrid/utils"
)

// centerOffset moves an integer grid index to the center of its cell.
const centerOffset = 0.5

// Grid is the dense grid of voxel centers in index space. The point for voxel (x, y, z) is
// (x+0.5, y+0.5, z+0.5). A Grid is never modified after NewGrid returns and may be read from any
// number of goroutines.
type Grid struct {
	dims   [3]int
	points *tensor.Dense // (X, Y, Z, 3)
	coords []float64     // backing storage of points
}

// NewGrid builds the voxel center grid for the given size. The size must already be validated.
func NewGrid(size [3]int) *Grid {
	// MeshGrid emits rows with the first axis varying slowest, so giving it the axes in X, Y, Z
	// order lays the rows out as (X, Y, Z, 3) without any permutation.
	mesh := utils.MeshGrid(utils.Arange(size[0]), utils.Arange(size[1]), utils.Arange(size[2]))
	coords := mesh.RawMatrix().Data
	for i := range coords {
		coords[i] += centerOffset
	}
	return &Grid{
		dims:   size,
		points: tensor.New(tensor.WithShape(size[0], size[1], size[2], 3), tensor.WithBacking(coords)),
		coords: coords,
	}
}

// Dims returns the grid size (X, Y, Z).
func (g *Grid) Dims() [3]int {
	return g.dims
}

// Len returns the number of voxels.
func (g *Grid) Len() int {
	return g.dims[0] * g.dims[1] * g.dims[2]
}

// Index returns the linear index of voxel (x, y, z).
func (g *Grid) Index(x, y, z int) int {
	return (x*g.dims[1]+y)*g.dims[2] + z
}

// Center returns the index-space center of voxel (x, y, z).
func (g *Grid) Center(x, y, z int) r3.Vector {
	return g.CenterAt(g.Index(x, y, z))
}

// CenterAt returns the center of the voxel with linear index idx.
func (g *Grid) CenterAt(idx int) r3.Vector {
	c := g.coords[3*idx : 3*idx+3]
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}

// Tensor returns a copy of the grid as an (X, Y, Z, 3) tensor.
func (g *Grid) Tensor() *tensor.Dense {
	return g.points.Clone().(*tensor.Dense)
}
