package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/frustumgrid/frustum"
)

const (
	testConfig = `{
  "grid_size": [2, 2, 2],
  "pc_range": [0, 0, 0, 2, 2, 2],
  "disc_cfg": {"mode": "UD", "num_bins": 2, "depth_min": 0, "depth_max": 2, "target": true}
}`
	testBatch = `{
  "world_to_cam": [[[1, 0, 0, 0], [0, 1, 0, 0], [0, 0, 1, 0], [0, 0, 0, 1]]],
  "cam_to_img": [[[1, 0, 0, 0], [0, 1, 0, 0], [0, 0, 1, 0]]],
  "image_shape": [[2, 2]]
}`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)
	return path
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	confPath := writeFile(t, dir, "config.json", testConfig)
	batchPath := writeFile(t, dir, "batch.json", testBatch)
	outPath := filepath.Join(dir, "grid.json")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run([]string{"frustumgrid", "generate", "--config", confPath, "--batch", batchPath, "--output", outPath})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "100.0%")
	test.That(t, out.String(), test.ShouldContainSubstring, "[-1.000, 1.000] mean 0.000")

	raw, err := os.ReadFile(outPath)
	test.That(t, err, test.ShouldBeNil)
	var grid gridFile
	test.That(t, json.Unmarshal(raw, &grid), test.ShouldBeNil)
	test.That(t, grid.Shape, test.ShouldResemble, []int{1, 2, 2, 2, 3})
	test.That(t, grid.Data, test.ShouldHaveLength, 24)
	test.That(t, grid.Data[:3], test.ShouldResemble, []float64{1, 1, -1})
}

func TestGenerateCommandErrors(t *testing.T) {
	dir := t.TempDir()
	confPath := writeFile(t, dir, "config.json", testConfig)
	mismatched := writeFile(t, dir, "batch.json", `{
  "world_to_cam": [[[1, 0, 0, 0], [0, 1, 0, 0], [0, 0, 1, 0], [0, 0, 0, 1]]],
  "cam_to_img": [],
  "image_shape": [[2, 2]]
}`)

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"frustumgrid", "generate", "--config", confPath, "--batch", mismatched})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dimension mismatch")

	app = newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	err = app.Run([]string{"frustumgrid", "generate", "--config", confPath})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "batch")
}

func TestStatsTable(t *testing.T) {
	rendered := statsTable([]frustum.CameraStats{
		{Valid: 3, Invalid: 1, MinDepthBin: -1, MaxDepthBin: 0.5, MeanDepthBin: -0.25},
		{Invalid: 4, MinDepthBin: -2, MaxDepthBin: -2, MeanDepthBin: -2},
	})
	test.That(t, rendered, test.ShouldContainSubstring, "CAMERA")
	test.That(t, rendered, test.ShouldContainSubstring, "75.0%")
	test.That(t, rendered, test.ShouldContainSubstring, "[-1.000, 0.500] mean -0.250")
	test.That(t, rendered, test.ShouldContainSubstring, "0.0%")
	test.That(t, rendered, test.ShouldNotContainSubstring, "-2.000")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", testConfig)
	bad := writeFile(t, dir, "bad.json", `{"grid_size": [2, 0, 2], "pc_range": [0, 0, 0, 2, 2, 2],
  "disc_cfg": {"mode": "XD", "num_bins": 2, "depth_min": 0, "depth_max": 2}}`)

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	test.That(t, app.Run([]string{"frustumgrid", "validate", "-c", good}), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "is valid")

	app = newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"frustumgrid", "validate", "-c", bad})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frustum.grid_size.1")
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown depth discretization mode "XD"`)
}

func TestInvalidConfigIsReturned(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "grid_size: [2, 2, 0]\npc_range: [0, 0, 0, 2, 2, 2]\n"+
		"disc_cfg: {mode: UD, num_bins: 1, depth_min: 0, depth_max: 2}\n")
	batchPath := writeFile(t, dir, "batch.json", testBatch)

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"frustumgrid", "generate", "-c", bad, "-b", batchPath})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "frustum.grid_size.2")
	test.That(t, err.Error(), test.ShouldContainSubstring, "frustum.disc_cfg.num_bins")
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 2)

	// Reaching this point at all means Run returned instead of exiting.
	app = newApp()
	app.Writer = &bytes.Buffer{}
	err = app.Run([]string{"frustumgrid", "validate", "-c", bad})
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 2)
}
