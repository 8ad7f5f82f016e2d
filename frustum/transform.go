package frustum

import (
	"context"

	"go.opencensus.io/trace"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"go.viam.com/frustumgrid/utils"
	"go.viam.com/frustumgrid/voxelgrid"
)

// Projection is every voxel center seen from every camera of a batch.
type Projection struct {
	// UV is (B, X, Y, Z, 2) pixel coordinates (u, v).
	UV *tensor.Dense
	// Depth is (B, X, Y, Z) depth along the camera's optical axis.
	Depth *tensor.Dense
}

// projector is the grid index to homogeneous image mapping of one camera, cam_to_img *
// world_to_cam * grid_to_world, stored row-major.
type projector struct {
	m           [12]float64
	depthOffset float64
}

func newProjector(gridToWorld, worldToCam, camToImg mat.Matrix) projector {
	// A single grid index to camera frame transform, then through the camera projection.
	var gridToCam, gridToImg mat.Dense
	gridToCam.Mul(worldToCam, gridToWorld)
	gridToImg.Mul(camToImg, &gridToCam)

	var p projector
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			p.m[4*r+c] = gridToImg.At(r, c)
		}
	}
	p.depthOffset = camToImg.At(2, 3)
	return p
}

// project returns the pixel coordinates and depth of a grid index point. A zero homogeneous
// denominator yields infinite or NaN pixel coordinates, which normalization later masks.
func (p *projector) project(gx, gy, gz float64) (u, v, depth float64) {
	m := &p.m
	uw := m[0]*gx + m[1]*gy + m[2]*gz + m[3]
	vw := m[4]*gx + m[5]*gy + m[6]*gz + m[7]
	w := m[8]*gx + m[9]*gy + m[10]*gz + m[11]
	return uw / w, vw / w, w - p.depthOffset
}

// Transform projects every center of grid into every camera of the batch. worldToCam holds 4x4
// matrices and camToImg 3x4 matrices, one of each per camera. The grid is shared by all cameras
// and is only read.
func Transform(
	ctx context.Context,
	grid *voxelgrid.Grid,
	gridToWorld mat.Matrix,
	worldToCam, camToImg []mat.Matrix,
) (*Projection, error) {
	ctx, span := trace.StartSpan(ctx, "frustum::Transform")
	defer span.End()

	if err := checkProjectionInputs(worldToCam, camToImg); err != nil {
		return nil, err
	}
	if err := checkMatrixShape("grid_to_world", 0, gridToWorld, 4, 4); err != nil {
		return nil, err
	}

	numCams := len(worldToCam)
	projectors := make([]projector, numCams)
	for b := range projectors {
		projectors[b] = newProjector(gridToWorld, worldToCam[b], camToImg[b])
	}

	dims := grid.Dims()
	numVoxels := grid.Len()
	slabSize := dims[1] * dims[2]
	uv := make([]float64, 2*numCams*numVoxels)
	depths := make([]float64, numCams*numVoxels)

	// One unit of work is one x slab of one camera. Units write disjoint ranges of the outputs.
	err := utils.GroupWorkParallel(ctx, numCams*dims[0], nil,
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				b, x := workNum/dims[0], workNum%dims[0]
				p := &projectors[b]
				start := x * slabSize
				for idx := start; idx < start+slabSize; idx++ {
					center := grid.CenterAt(idx)
					out := b*numVoxels + idx
					uv[2*out], uv[2*out+1], depths[out] = p.project(center.X, center.Y, center.Z)
				}
			}, nil
		})
	if err != nil {
		return nil, err
	}

	return &Projection{
		UV:    tensor.New(tensor.WithShape(numCams, dims[0], dims[1], dims[2], 2), tensor.WithBacking(uv)),
		Depth: tensor.New(tensor.WithShape(numCams, dims[0], dims[1], dims[2]), tensor.WithBacking(depths)),
	}, nil
}
