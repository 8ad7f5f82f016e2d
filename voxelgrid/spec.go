// Package voxelgrid describes the dense voxel volume that camera features are sampled into: its
// size and metric extent, the canonical grid of voxel centers, and the affine map from grid
// indices to world coordinates.
package voxelgrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// GridSpec is the size of the voxel grid and the metric range it covers.
type GridSpec struct {
	// GridSize is the number of voxels along X (forward), Y (lateral) and Z (height).
	GridSize [3]int `json:"grid_size"`
	// PCRange is [x_min, y_min, z_min, x_max, y_max, z_max] in meters.
	PCRange [6]float64 `json:"pc_range"`
}

var axisNames = [3]string{"x", "y", "z"}

// Validate ensures the grid has a positive size and a positive extent on every axis.
func (spec *GridSpec) Validate(path string) error {
	if spec == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "grid")
	}
	var errs error
	for i, n := range spec.GridSize {
		if n <= 0 {
			errs = multierr.Append(errs, utils.NewConfigValidationError(
				fmt.Sprintf("%s.grid_size.%d", path, i),
				errors.Errorf("grid size along %s must be positive, got %d", axisNames[i], n)))
		}
	}
	for i := 0; i < 3; i++ {
		lo, hi := spec.PCRange[i], spec.PCRange[i+3]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			errs = multierr.Append(errs, utils.NewConfigValidationError(
				fmt.Sprintf("%s.pc_range", path),
				errors.Errorf("range along %s must be finite, got [%v, %v]", axisNames[i], lo, hi)))
			continue
		}
		if hi <= lo {
			errs = multierr.Append(errs, utils.NewConfigValidationError(
				fmt.Sprintf("%s.pc_range", path),
				errors.Errorf("range max along %s must be greater than min, got [%v, %v]", axisNames[i], lo, hi)))
		}
	}
	return errs
}

// Min returns the minimum corner of the covered range.
func (spec *GridSpec) Min() r3.Vector {
	return r3.Vector{X: spec.PCRange[0], Y: spec.PCRange[1], Z: spec.PCRange[2]}
}

// Max returns the maximum corner of the covered range.
func (spec *GridSpec) Max() r3.Vector {
	return r3.Vector{X: spec.PCRange[3], Y: spec.PCRange[4], Z: spec.PCRange[5]}
}

// VoxelSize returns (max - min) / grid_size per axis.
func (spec *GridSpec) VoxelSize() r3.Vector {
	extent := spec.Max().Sub(spec.Min())
	return r3.Vector{
		X: extent.X / float64(spec.GridSize[0]),
		Y: extent.Y / float64(spec.GridSize[1]),
		Z: extent.Z / float64(spec.GridSize[2]),
	}
}

// NumVoxels returns X*Y*Z.
func (spec *GridSpec) NumVoxels() int {
	return spec.GridSize[0] * spec.GridSize[1] * spec.GridSize[2]
}
