package voxelgrid

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// GridToWorld returns the homogeneous affine matrix that maps a grid index coordinate to the
// world frame:
//
//	[[vx, 0,  0,  x_min],      [[gx],
//	 [0,  vy, 0,  y_min],   *   [gy],
//	 [0,  0,  vz, z_min],       [gz],
//	 [0,  0,  0,  1]]           [1]]
func GridToWorld(pcMin, voxelSize r3.Vector) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		voxelSize.X, 0, 0, pcMin.X,
		0, voxelSize.Y, 0, pcMin.Y,
		0, 0, voxelSize.Z, pcMin.Z,
		0, 0, 0, 1,
	})
}

// GridToWorld returns the grid to world matrix for this spec.
func (spec *GridSpec) GridToWorld() *mat.Dense {
	return GridToWorld(spec.Min(), spec.VoxelSize())
}

// TransformPoint applies the top three rows of a 3x4 or 4x4 affine matrix to p.
func TransformPoint(m mat.Matrix, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}
