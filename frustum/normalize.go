package frustum

import (
	"context"
	"math"

	"go.opencensus.io/trace"
)

// OutOfBoundsValue marks a voxel with no valid sampling location. It lies outside [-1, 1] so a
// sampler with zero padding reads nothing there. A finite projection far enough off the image can
// normalize to the same value in u or v, so test the whole triple: a valid depth bin never
// normalizes below -1.
const OutOfBoundsValue = -2

// ReferenceShape is the extent each grid axis is normalized against.
type ReferenceShape struct {
	NumBins int
	Height  int
	Width   int
}

// ReferenceShapeFor returns the reference shape of a batch: the maximum height and width over
// all cameras. Cameras smaller than the batch maximum do not reach ±1 at their own image border.
func ReferenceShapeFor(numBins int, shapes []ImageShape) ReferenceShape {
	ref := ReferenceShape{NumBins: numBins}
	for _, shape := range shapes {
		if shape.Height > ref.Height {
			ref.Height = shape.Height
		}
		if shape.Width > ref.Width {
			ref.Width = shape.Width
		}
	}
	return ref
}

// normalizeCoord maps [0, extent-1] onto [-1, 1].
func normalizeCoord(raw float64, extent int) float64 {
	return 2*raw/float64(extent-1) - 1
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Normalize rescales every (u, v, depth bin) triple of grid in place: u against the reference
// width, v against the height and the depth bin against the number of bins. A triple with any NaN
// or infinite component is replaced by OutOfBoundsValue in all three components. Normalize
// returns the number of replaced triples.
func Normalize(ctx context.Context, grid *Grid, ref ReferenceShape) int {
	_, span := trace.StartSpan(ctx, "frustum::Normalize")
	defer span.End()

	invalid := 0
	data := grid.data
	for i := 0; i < len(data); i += 3 {
		u := normalizeCoord(data[i], ref.Width)
		v := normalizeCoord(data[i+1], ref.Height)
		bin := normalizeCoord(data[i+2], ref.NumBins)
		if !isFinite(u) || !isFinite(v) || !isFinite(bin) {
			u, v, bin = OutOfBoundsValue, OutOfBoundsValue, OutOfBoundsValue
			invalid++
		}
		data[i], data[i+1], data[i+2] = u, v, bin
	}
	return invalid
}
