package frustum

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ImageShape is the native resolution of one camera image.
type ImageShape struct {
	Height int `json:"height_px"`
	Width  int `json:"width_px"`
}

// CameraBatch is the per-call input: one extrinsic, one projection and one image shape per camera.
type CameraBatch struct {
	// WorldToCamera holds 4x4 world to camera frame transforms with bottom row [0, 0, 0, 1].
	WorldToCamera []mat.Matrix
	// CameraToImage holds 3x4 pinhole projection matrices.
	CameraToImage []mat.Matrix
	ImageShapes   []ImageShape
}

// Len returns the number of cameras.
func (batch *CameraBatch) Len() int {
	return len(batch.WorldToCamera)
}

// Validate checks that every per-camera input has the same batch size and the expected shape.
func (batch *CameraBatch) Validate() error {
	if batch == nil {
		return ErrEmptyBatch
	}
	if len(batch.CameraToImage) != len(batch.WorldToCamera) || len(batch.ImageShapes) != len(batch.WorldToCamera) {
		return newBatchSizeMismatchError(len(batch.WorldToCamera), len(batch.CameraToImage), len(batch.ImageShapes))
	}
	if err := checkProjectionInputs(batch.WorldToCamera, batch.CameraToImage); err != nil {
		return err
	}
	for i, shape := range batch.ImageShapes {
		if shape.Height <= 0 || shape.Width <= 0 {
			return errors.Errorf("image_shape[%d] must be positive, got %dx%d", i, shape.Height, shape.Width)
		}
	}
	return nil
}

// checkProjectionInputs validates the matrix inputs shared by Transform and CameraBatch.
func checkProjectionInputs(worldToCam, camToImg []mat.Matrix) error {
	if len(worldToCam) != len(camToImg) {
		return errors.Wrapf(ErrDimensionMismatch, "batch sizes differ: world_to_cam has %d cameras, cam_to_img has %d",
			len(worldToCam), len(camToImg))
	}
	if len(worldToCam) == 0 {
		return ErrEmptyBatch
	}
	for i := range worldToCam {
		if err := checkMatrixShape("world_to_cam", i, worldToCam[i], 4, 4); err != nil {
			return err
		}
		if err := checkMatrixShape("cam_to_img", i, camToImg[i], 3, 4); err != nil {
			return err
		}
	}
	return nil
}

func checkMatrixShape(name string, camera int, m mat.Matrix, wantRows, wantCols int) error {
	if m == nil {
		return errors.Errorf("%s[%d] is nil", name, camera)
	}
	rows, cols := m.Dims()
	if rows != wantRows || cols != wantCols {
		return newMatrixShapeError(name, camera, rows, cols, wantRows, wantCols)
	}
	return nil
}

// PinholeIntrinsics are the parameters of a pinhole camera needed to build its projection matrix.
type PinholeIntrinsics struct {
	Fx  float64 `json:"fx"`
	Fy  float64 `json:"fy"`
	Ppx float64 `json:"ppx"`
	Ppy float64 `json:"ppy"`
}

// CameraToImage returns the 3x4 projection matrix [K | 0]:
//
//	[[fx 0  ppx 0],
//	 [0  fy ppy 0],
//	 [0  0  1   0]]
func CameraToImage(params PinholeIntrinsics) *mat.Dense {
	return mat.NewDense(3, 4, []float64{
		params.Fx, 0, params.Ppx, 0,
		0, params.Fy, params.Ppy, 0,
		0, 0, 1, 0,
	})
}

// CameraBatchJSON is the on-disk form of a CameraBatch. Matrices are row-major nested arrays and
// image shapes are [height, width] pairs.
type CameraBatchJSON struct {
	WorldToCam [][][]float64 `json:"world_to_cam"`
	CamToImg   [][][]float64 `json:"cam_to_img"`
	ImageShape [][]int       `json:"image_shape"`
}

// CameraBatch converts the nested arrays into a validated CameraBatch.
func (raw *CameraBatchJSON) CameraBatch() (*CameraBatch, error) {
	if len(raw.WorldToCam) != len(raw.CamToImg) || len(raw.WorldToCam) != len(raw.ImageShape) {
		return nil, newBatchSizeMismatchError(len(raw.WorldToCam), len(raw.CamToImg), len(raw.ImageShape))
	}
	batch := &CameraBatch{
		WorldToCamera: make([]mat.Matrix, len(raw.WorldToCam)),
		CameraToImage: make([]mat.Matrix, len(raw.CamToImg)),
		ImageShapes:   make([]ImageShape, len(raw.ImageShape)),
	}
	var err error
	for i := range raw.WorldToCam {
		if batch.WorldToCamera[i], err = denseFromRows("world_to_cam", i, raw.WorldToCam[i], 4, 4); err != nil {
			return nil, err
		}
		if batch.CameraToImage[i], err = denseFromRows("cam_to_img", i, raw.CamToImg[i], 3, 4); err != nil {
			return nil, err
		}
		if len(raw.ImageShape[i]) != 2 {
			return nil, errors.Wrapf(ErrDimensionMismatch, "image_shape[%d] has %d values, expected [height, width]",
				i, len(raw.ImageShape[i]))
		}
		batch.ImageShapes[i] = ImageShape{Height: raw.ImageShape[i][0], Width: raw.ImageShape[i][1]}
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

func denseFromRows(name string, camera int, rows [][]float64, wantRows, wantCols int) (*mat.Dense, error) {
	if len(rows) != wantRows {
		return nil, newMatrixShapeError(name, camera, len(rows), 0, wantRows, wantCols)
	}
	data := make([]float64, 0, wantRows*wantCols)
	for _, row := range rows {
		if len(row) != wantCols {
			return nil, newMatrixShapeError(name, camera, len(rows), len(row), wantRows, wantCols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(wantRows, wantCols, data), nil
}

// NewCameraBatchFromJSONFile reads a CameraBatchJSON document from a file.
func NewCameraBatchFromJSONFile(jsonPath string) (*CameraBatch, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	raw := &CameraBatchJSON{}
	if err := json.Unmarshal(byteValue, raw); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return raw.CameraBatch()
}
