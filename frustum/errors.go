package frustum

import "github.com/pkg/errors"

var (
	// ErrDimensionMismatch is returned when per-camera inputs disagree on the batch size or a
	// matrix does not have the expected shape.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyBatch is returned when a call carries no cameras.
	ErrEmptyBatch = errors.New("camera batch is empty")
)

func newBatchSizeMismatchError(worldToCam, camToImg, imageShapes int) error {
	return errors.Wrapf(ErrDimensionMismatch,
		"batch sizes differ: world_to_cam has %d cameras, cam_to_img has %d, image_shape has %d",
		worldToCam, camToImg, imageShapes)
}

func newMatrixShapeError(name string, camera, rows, cols, wantRows, wantCols int) error {
	return errors.Wrapf(ErrDimensionMismatch, "%s[%d] is %dx%d, expected %dx%d",
		name, camera, rows, cols, wantRows, wantCols)
}
