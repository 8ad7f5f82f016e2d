// Package frustum turns a dense voxel grid into per-camera frustum sampling grids: for every
// voxel and every camera of a batch, the normalized image position and depth bin to sample 2D
// image features from.
//
// A Generator is built once from a Config and holds everything that does not depend on the
// cameras: the voxel center grid, the grid to world matrix and the depth discretizer. Each call
// to Generate then composes those with a CameraBatch:
//
//	grid index -> world -> camera -> image (u, v) + depth -> depth bin -> normalized (u, v, bin)
//
// Voxels behind a camera or projected from a zero homogeneous denominator are not treated as
// errors. Their non-finite coordinates flow through the pipeline and normalization replaces each
// such triple with OutOfBoundsValue.
package frustum

import (
	"context"

	"go.opencensus.io/trace"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/frustumgrid/depth"
	"go.viam.com/frustumgrid/logging"
	"go.viam.com/frustumgrid/utils"
	"go.viam.com/frustumgrid/voxelgrid"
)

// Generator produces frustum sampling grids. It is immutable after NewGenerator returns and is
// safe for concurrent use.
type Generator struct {
	spec        voxelgrid.GridSpec
	grid        *voxelgrid.Grid
	gridToWorld *mat.Dense
	disc        depth.Discretizer
	logger      logging.Logger
}

// NewGenerator validates conf and precomputes the voxel grid and grid to world matrix.
func NewGenerator(conf *Config, logger logging.Logger) (*Generator, error) {
	if err := conf.Validate("frustum"); err != nil {
		return nil, err
	}
	disc, err := depth.New(conf.DiscCfg)
	if err != nil {
		return nil, err
	}
	return NewGeneratorWithDiscretizer(conf.GridSpec, disc, logger)
}

// NewGeneratorWithDiscretizer is like NewGenerator but bins depths with the given discretizer.
func NewGeneratorWithDiscretizer(spec voxelgrid.GridSpec, disc depth.Discretizer, logger logging.Logger) (*Generator, error) {
	if err := spec.Validate("frustum"); err != nil {
		return nil, err
	}
	gen := &Generator{
		spec:        spec,
		grid:        voxelgrid.NewGrid(spec.GridSize),
		gridToWorld: spec.GridToWorld(),
		disc:        disc,
		logger:      logger,
	}
	logger.Infow("frustum grid generator ready",
		"grid_size", spec.GridSize,
		"voxel_size", spec.VoxelSize(),
		"num_bins", disc.NumBins())
	return gen, nil
}

// GridSpec returns the grid specification the Generator was built from.
func (gen *Generator) GridSpec() voxelgrid.GridSpec {
	return gen.spec
}

// VoxelGrid returns the shared voxel center grid.
func (gen *Generator) VoxelGrid() *voxelgrid.Grid {
	return gen.grid
}

// GridToWorld returns a copy of the grid to world matrix.
func (gen *Generator) GridToWorld() *mat.Dense {
	return mat.DenseCopyOf(gen.gridToWorld)
}

// Generate returns the frustum sampling grid of batch. The call either returns a complete grid or
// an error; a mismatch between the per-camera input counts is reported as ErrDimensionMismatch.
func (gen *Generator) Generate(ctx context.Context, batch *CameraBatch) (*Grid, error) {
	ctx, span := trace.StartSpan(ctx, "frustum::Generate")
	defer span.End()

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proj, err := Transform(ctx, gen.grid, gen.gridToWorld, batch.WorldToCamera, batch.CameraToImage)
	if err != nil {
		return nil, err
	}

	out := newGrid(batch.Len(), gen.grid.Dims())
	if err := gen.stack(ctx, proj, out); err != nil {
		return nil, err
	}

	ref := ReferenceShapeFor(gen.disc.NumBins(), batch.ImageShapes)
	invalid := Normalize(ctx, out, ref)
	gen.logger.Debugw("generated frustum grid",
		"cameras", batch.Len(),
		"reference_shape", ref,
		"out_of_bounds", invalid)
	return out, nil
}

// stack bins the projected depths and interleaves them with the pixel coordinates as
// (u, v, depth bin) triples.
func (gen *Generator) stack(ctx context.Context, proj *Projection, out *Grid) error {
	uv := proj.UV.Float64s()
	depths := proj.Depth.Float64s()
	const chunk = 4096
	numChunks := (len(depths) + chunk - 1) / chunk
	return utils.GroupWorkParallel(ctx, numChunks, nil,
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				end := (workNum + 1) * chunk
				if end > len(depths) {
					end = len(depths)
				}
				for i := workNum * chunk; i < end; i++ {
					out.data[3*i] = uv[2*i]
					out.data[3*i+1] = uv[2*i+1]
					out.data[3*i+2] = gen.disc.Bin(depths[i])
				}
			}, nil
		})
}
