package frustum

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// Grid is the frustum sampling grid of one call: (B, X, Y, Z, 3) triples of
// (u, v, depth bin), normalized to roughly [-1, 1] or set to OutOfBoundsValue.
type Grid struct {
	shape [4]int
	data  []float64
}

func newGrid(numCams int, dims [3]int) *Grid {
	return &Grid{
		shape: [4]int{numCams, dims[0], dims[1], dims[2]},
		data:  make([]float64, 3*numCams*dims[0]*dims[1]*dims[2]),
	}
}

// Shape returns (B, X, Y, Z).
func (g *Grid) Shape() [4]int {
	return g.shape
}

// NumCameras returns B.
func (g *Grid) NumCameras() int {
	return g.shape[0]
}

func (g *Grid) voxelsPerCamera() int {
	return g.shape[1] * g.shape[2] * g.shape[3]
}

// At returns the (u, v, depth bin) triple of voxel (x, y, z) seen from camera b.
func (g *Grid) At(b, x, y, z int) ([3]float64, error) {
	coords := [4]int{b, x, y, z}
	for i, c := range coords {
		if c < 0 || c >= g.shape[i] {
			return [3]float64{}, errors.Errorf("index %v out of range for frustum grid of shape %v", coords, g.shape)
		}
	}
	off := 3 * (((b*g.shape[1]+x)*g.shape[2]+y)*g.shape[3] + z)
	return [3]float64{g.data[off], g.data[off+1], g.data[off+2]}, nil
}

// Tensor returns the grid as a (B, X, Y, Z, 3) float64 tensor sharing the grid's storage.
func (g *Grid) Tensor() *tensor.Dense {
	return tensor.New(
		tensor.WithShape(g.shape[0], g.shape[1], g.shape[2], g.shape[3], 3),
		tensor.WithBacking(g.data),
	)
}

// Data returns the row-major backing storage of the grid.
func (g *Grid) Data() []float64 {
	return g.data
}

// CameraStats summarizes the sampling grid of one camera.
type CameraStats struct {
	Valid   int
	Invalid int
	// MinDepthBin and MaxDepthBin are the extreme normalized depth bins over valid voxels. Both
	// are OutOfBoundsValue when no voxel is valid.
	MinDepthBin float64
	MaxDepthBin float64
	// MeanDepthBin is the mean normalized depth bin over valid voxels, or OutOfBoundsValue.
	MeanDepthBin float64
}

// ValidFraction returns the fraction of voxels that carry a valid sampling location.
func (s CameraStats) ValidFraction() float64 {
	total := s.Valid + s.Invalid
	if total == 0 {
		return 0
	}
	return float64(s.Valid) / float64(total)
}

// Stats returns per camera counts of valid and sentinel voxels.
func (g *Grid) Stats() []CameraStats {
	perCam := g.voxelsPerCamera()
	out := make([]CameraStats, g.shape[0])
	bins := make([]float64, 0, perCam)
	for b := range out {
		bins = bins[:0]
		camData := g.data[3*b*perCam : 3*(b+1)*perCam]
		for i := 0; i < len(camData); i += 3 {
			if isSentinelTriple(camData[i : i+3]) {
				out[b].Invalid++
				continue
			}
			out[b].Valid++
			bins = append(bins, camData[i+2])
		}
		out[b].MinDepthBin, out[b].MaxDepthBin, out[b].MeanDepthBin = OutOfBoundsValue, OutOfBoundsValue, OutOfBoundsValue
		if len(bins) == 0 {
			continue
		}
		out[b].MinDepthBin = floats.Min(bins)
		out[b].MaxDepthBin = floats.Max(bins)
		if mean, err := stats.Mean(bins); err == nil {
			out[b].MeanDepthBin = mean
		}
	}
	return out
}

func isSentinelTriple(triple []float64) bool {
	return triple[0] == OutOfBoundsValue && triple[1] == OutOfBoundsValue && triple[2] == OutOfBoundsValue
}
