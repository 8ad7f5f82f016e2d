// Package main is the frustumgrid command line tool. It builds a frustum sampling grid from a
// config file and a camera batch file and reports per camera coverage.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/frustumgrid/frustum"
	"go.viam.com/frustumgrid/logging"
)

const (
	// Flags.
	flagConfig = "config"
	flagBatch  = "batch"
	flagOutput = "output"
	flagDebug  = "debug"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.Global().Fatal(err)
	}
}

func newApp() *cli.App {
	var logger logging.Logger

	return &cli.App{
		Name:  "frustumgrid",
		Usage: "generate frustum sampling grids for multi-camera voxel lifting",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("frustumgrid")
			} else {
				logger = logging.NewLogger("frustumgrid")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		// Errors are returned from Run and reported by main. Validation errors satisfy
		// cli.MultiError, which the default handler would turn into an immediate exit.
		ExitErrHandler: func(c *cli.Context, err error) {},
		After: func(c *cli.Context) error {
			if logger != nil {
				utils.UncheckedError(logger.Sync())
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "generate the frustum grid of a camera batch",
				UsageText: "frustumgrid generate --config <config.json|config.yaml> --batch <batch.json> [--output <grid.json>]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load the grid and depth discretization configuration from `FILE`",
					},
					&cli.StringFlag{
						Name:     flagBatch,
						Aliases:  []string{"b"},
						Required: true,
						Usage:    "load camera matrices and image shapes from `FILE`",
					},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write the normalized grid as JSON to `FILE`",
					},
				},
				Action: func(c *cli.Context) error {
					return generateAction(c, logger)
				},
			},
			{
				Name:      "validate",
				Usage:     "check a config file without generating anything",
				UsageText: "frustumgrid validate --config <config.json|config.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load the configuration from `FILE`",
					},
				},
				Action: func(c *cli.Context) error {
					conf, err := frustum.NewConfigFromFile(c.String(flagConfig))
					if err != nil {
						return err
					}
					if err := conf.Validate("frustum"); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%s is valid\n", c.String(flagConfig))
					return nil
				},
			},
		},
	}
}

// gridFile is the on-disk form of a generated grid.
type gridFile struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func generateAction(c *cli.Context, logger logging.Logger) error {
	conf, err := frustum.NewConfigFromFile(c.String(flagConfig))
	if err != nil {
		return err
	}
	batch, err := frustum.NewCameraBatchFromJSONFile(c.String(flagBatch))
	if err != nil {
		return err
	}

	gen, err := frustum.NewGenerator(conf, logger.Sublogger("generator"))
	if err != nil {
		return err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	grid, err := gen.Generate(ctx, batch)
	if err != nil {
		return errors.Wrap(err, "error generating frustum grid")
	}

	fmt.Fprintln(c.App.Writer, statsTable(grid.Stats()))

	if out := c.String(flagOutput); out != "" {
		shape := grid.Shape()
		payload, err := json.Marshal(gridFile{
			Shape: []int{shape[0], shape[1], shape[2], shape[3], 3},
			Data:  grid.Data(),
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, payload, 0o600); err != nil {
			return errors.Wrapf(err, "error writing %q", out)
		}
		logger.Infow("wrote frustum grid", "path", out, "shape", shape)
	}
	return nil
}

// statsTable renders one row of coverage per camera.
func statsTable(stats []frustum.CameraStats) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Camera", "Valid", "Invalid", "Coverage", "Depth Bins"})
	for i, s := range stats {
		bins := "-"
		if s.Valid > 0 {
			bins = fmt.Sprintf("[%.3f, %.3f] mean %.3f", s.MinDepthBin, s.MaxDepthBin, s.MeanDepthBin)
		}
		t.AppendRow(table.Row{
			i,
			s.Valid,
			s.Invalid,
			fmt.Sprintf("%.1f%%", 100*s.ValidFraction()),
			bins,
		})
	}
	return t.Render()
}
