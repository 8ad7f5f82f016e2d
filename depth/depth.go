// Package depth discretizes continuous camera depth into depth bins.
//
// Three binning schemes are supported:
//   - UD, uniform bins of equal width.
//   - LID, linear-increasing bins whose width grows by a constant step.
//   - SID, spacing-increasing bins uniform in log(1 + depth).
//
// Every scheme is monotonic non-decreasing in depth.
package depth

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Mode is a depth binning scheme.
type Mode string

// The supported binning schemes.
const (
	ModeUniform           Mode = "UD"
	ModeLinearIncreasing  Mode = "LID"
	ModeSpacingIncreasing Mode = "SID"
)

// OutOfRangePolicy decides the bin of a depth whose index falls outside [0, NumBins).
type OutOfRangePolicy string

const (
	// OutOfRangeFlag returns NaN so the location is marked invalid downstream.
	OutOfRangeFlag OutOfRangePolicy = "flag"
	// OutOfRangeClamp returns the nearest boundary bin.
	OutOfRangeClamp OutOfRangePolicy = "clamp"
)

// A Discretizer maps a continuous depth to a bin index.
type Discretizer interface {
	// Bin returns the bin index of depth, in [0, NumBins). The result is non-decreasing in depth;
	// a NaN result marks a depth that cannot be binned.
	Bin(depth float64) float64
	// NumBins returns the number of bins indices are reported against.
	NumBins() int
}

// Config configures a Discretizer.
type Config struct {
	Mode     Mode    `json:"mode"`
	NumBins  int     `json:"num_bins"`
	DepthMin float64 `json:"depth_min"`
	DepthMax float64 `json:"depth_max"`
	// Target selects integer bins. When false the fractional index is returned, which is the form a
	// trilinear sampler interpolates over. OutOfRange applies either way.
	Target     bool             `json:"target,omitempty"`
	OutOfRange OutOfRangePolicy `json:"out_of_range,omitempty"`
}

// Validate ensures the configuration describes a usable binning.
func (conf *Config) Validate(path string) error {
	if conf == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "disc_cfg")
	}
	var errs error
	switch Mode(strings.ToUpper(string(conf.Mode))) {
	case ModeUniform, ModeLinearIncreasing, ModeSpacingIncreasing:
	case "":
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "mode"))
	default:
		errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("%s.mode", path),
			errors.Errorf("unknown depth discretization mode %q", conf.Mode)))
	}
	if conf.NumBins < 2 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("%s.num_bins", path),
			errors.Errorf("need at least 2 bins, got %d", conf.NumBins)))
	}
	if !(conf.DepthMax > conf.DepthMin) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("%s.depth_max", path),
			errors.Errorf("depth_max (%v) must be greater than depth_min (%v)", conf.DepthMax, conf.DepthMin)))
	}
	if Mode(strings.ToUpper(string(conf.Mode))) == ModeSpacingIncreasing && !(conf.DepthMin > -1) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("%s.depth_min", path),
			errors.Errorf("SID needs depth_min > -1, got %v", conf.DepthMin)))
	}
	switch conf.OutOfRange {
	case "", OutOfRangeFlag, OutOfRangeClamp:
	default:
		errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("%s.out_of_range", path),
			errors.Errorf("unknown out of range policy %q", conf.OutOfRange)))
	}
	return errs
}

// New returns the Discretizer described by conf.
func New(conf Config) (Discretizer, error) {
	conf.Mode = Mode(strings.ToUpper(string(conf.Mode)))
	if err := conf.Validate("disc_cfg"); err != nil {
		return nil, err
	}
	if conf.OutOfRange == "" {
		conf.OutOfRange = OutOfRangeFlag
	}
	return &binner{conf: conf, index: indexFunc(conf)}, nil
}

type binner struct {
	conf  Config
	index func(depth float64) float64
}

func (b *binner) NumBins() int {
	return b.conf.NumBins
}

func (b *binner) Bin(depth float64) float64 {
	if b.conf.OutOfRange == OutOfRangeClamp {
		depth = math.Max(b.conf.DepthMin, math.Min(b.conf.DepthMax, depth))
	}
	idx := b.index(depth)
	n := float64(b.conf.NumBins)
	switch {
	case math.IsNaN(idx):
		return math.NaN()
	case idx < 0 || idx >= n:
		if b.conf.OutOfRange == OutOfRangeFlag {
			return math.NaN()
		}
		// Clamped depths only fall outside [0, n) at DepthMax itself or through rounding.
		idx = math.Max(0, math.Min(math.Nextafter(n, 0), idx))
	}
	if b.conf.Target {
		return math.Floor(idx)
	}
	return idx
}

// indexFunc returns the continuous bin index function for the configured mode. The index is 0 at
// DepthMin and NumBins at DepthMax.
func indexFunc(conf Config) func(float64) float64 {
	lo, hi, n := conf.DepthMin, conf.DepthMax, float64(conf.NumBins)
	switch conf.Mode {
	case ModeLinearIncreasing:
		binSize := 2 * (hi - lo) / (n * (1 + n))
		return func(d float64) float64 {
			return -0.5 + 0.5*math.Sqrt(1+8*(d-lo)/binSize)
		}
	case ModeSpacingIncreasing:
		logLo, logHi := math.Log1p(lo), math.Log1p(hi)
		return func(d float64) float64 {
			return n * (math.Log1p(d) - logLo) / (logHi - logLo)
		}
	default:
		binSize := (hi - lo) / n
		return func(d float64) float64 {
			return (d - lo) / binSize
		}
	}
}
