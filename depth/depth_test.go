package depth

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestValidate(t *testing.T) {
	good := &Config{Mode: ModeLinearIncreasing, NumBins: 80, DepthMin: 2, DepthMax: 46.8}
	test.That(t, good.Validate("disc_cfg"), test.ShouldBeNil)

	err := (&Config{Mode: "XYZ", NumBins: 1, DepthMin: 5, DepthMax: 5, OutOfRange: "wrap"}).Validate("disc_cfg")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown depth discretization mode "XYZ"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, "need at least 2 bins")
	test.That(t, err.Error(), test.ShouldContainSubstring, "must be greater than depth_min")
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown out of range policy "wrap"`)

	err = (&Config{Mode: ModeSpacingIncreasing, NumBins: 4, DepthMin: -1, DepthMax: 5}).Validate("disc_cfg")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "SID needs depth_min > -1")

	err = (&Config{NumBins: 4, DepthMax: 5}).Validate("disc_cfg")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"mode" is required`)

	_, err = New(Config{Mode: "bogus", NumBins: 4, DepthMax: 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestContinuousIndex(t *testing.T) {
	ud, err := New(Config{Mode: ModeUniform, NumBins: 2, DepthMin: 0, DepthMax: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ud.NumBins(), test.ShouldEqual, 2)
	test.That(t, ud.Bin(0.5), test.ShouldAlmostEqual, 0.5)
	test.That(t, ud.Bin(1.75), test.ShouldAlmostEqual, 1.75)
	// The default policy flags continuous indices outside [0, num_bins) as well.
	test.That(t, math.IsNaN(ud.Bin(2)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(ud.Bin(-1)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(ud.Bin(math.Inf(1))), test.ShouldBeTrue)

	lid, err := New(Config{Mode: ModeLinearIncreasing, NumBins: 4, DepthMin: 1, DepthMax: 11})
	test.That(t, err, test.ShouldBeNil)
	// bin size 1, bins span [1,2), [2,4), [4,7), [7,11).
	test.That(t, lid.Bin(1), test.ShouldAlmostEqual, 0)
	test.That(t, lid.Bin(2), test.ShouldAlmostEqual, 1)
	test.That(t, lid.Bin(4), test.ShouldAlmostEqual, 2)
	test.That(t, lid.Bin(7), test.ShouldAlmostEqual, 3)
	test.That(t, math.IsNaN(lid.Bin(11)), test.ShouldBeTrue)

	// Mode names are case insensitive.
	sid, err := New(Config{Mode: "sid", NumBins: 10, DepthMin: 0, DepthMax: math.E - 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sid.Bin(0), test.ShouldAlmostEqual, 0)
	test.That(t, sid.Bin(math.Sqrt(math.E)-1), test.ShouldAlmostEqual, 5)
}

func TestContinuousClamp(t *testing.T) {
	ud, err := New(Config{Mode: ModeUniform, NumBins: 2, DepthMin: 0, DepthMax: 2, OutOfRange: OutOfRangeClamp})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ud.Bin(0.5), test.ShouldAlmostEqual, 0.5)
	test.That(t, ud.Bin(-1), test.ShouldEqual, 0.0)
	test.That(t, math.IsNaN(ud.Bin(math.NaN())), test.ShouldBeTrue)
	for _, d := range []float64{2, 5, math.Inf(1)} {
		bin := ud.Bin(d)
		test.That(t, bin, test.ShouldBeLessThan, 2.0)
		test.That(t, bin, test.ShouldAlmostEqual, 2)
	}

	lid, err := New(Config{
		Mode: ModeLinearIncreasing, NumBins: 80, DepthMin: 2, DepthMax: 46.8,
		OutOfRange: OutOfRangeClamp,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lid.Bin(100), test.ShouldBeLessThan, 80.0)
	test.That(t, lid.Bin(100), test.ShouldBeGreaterThan, 79.0)
	test.That(t, lid.Bin(0), test.ShouldEqual, 0.0)
}

func TestTargetBins(t *testing.T) {
	flag, err := New(Config{Mode: ModeUniform, NumBins: 2, DepthMin: 0, DepthMax: 2, Target: true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, flag.Bin(0.5), test.ShouldEqual, 0.0)
	test.That(t, flag.Bin(0.999), test.ShouldEqual, 0.0)
	test.That(t, flag.Bin(1), test.ShouldEqual, 1.0)
	test.That(t, math.IsNaN(flag.Bin(2)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(flag.Bin(-0.1)), test.ShouldBeTrue)
	test.That(t, math.IsNaN(flag.Bin(math.NaN())), test.ShouldBeTrue)
	test.That(t, math.IsNaN(flag.Bin(math.Inf(1))), test.ShouldBeTrue)

	clamp, err := New(Config{
		Mode: ModeLinearIncreasing, NumBins: 4, DepthMin: 1, DepthMax: 11,
		Target: true, OutOfRange: OutOfRangeClamp,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, clamp.Bin(-50), test.ShouldEqual, 0.0)
	test.That(t, clamp.Bin(3), test.ShouldEqual, 1.0)
	test.That(t, clamp.Bin(11), test.ShouldEqual, 3.0)
	test.That(t, clamp.Bin(math.Inf(1)), test.ShouldEqual, 3.0)
	test.That(t, math.IsNaN(clamp.Bin(math.NaN())), test.ShouldBeTrue)
}

func TestMonotonic(t *testing.T) {
	for _, mode := range []Mode{ModeUniform, ModeLinearIncreasing, ModeSpacingIncreasing} {
		for _, target := range []bool{false, true} {
			disc, err := New(Config{
				Mode: mode, NumBins: 16, DepthMin: 2, DepthMax: 46.8,
				Target: target, OutOfRange: OutOfRangeClamp,
			})
			test.That(t, err, test.ShouldBeNil)
			prev := math.Inf(-1)
			for d := 2.0; d <= 46.8; d += 0.05 {
				bin := disc.Bin(d)
				test.That(t, bin, test.ShouldBeGreaterThanOrEqualTo, prev)
				test.That(t, bin, test.ShouldBeGreaterThanOrEqualTo, 0.0)
				test.That(t, bin, test.ShouldBeLessThan, 16.0)
				prev = bin
			}
		}
	}
}
