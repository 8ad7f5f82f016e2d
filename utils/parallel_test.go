package utils

import (
	"context"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	origFactor := ParallelFactor
	defer func() { ParallelFactor = origFactor }()

	for _, factor := range []int{1, 3, 8, 64} {
		ParallelFactor = factor
		const totalSize = 37
		visits := make([]int32, totalSize)
		var groups int
		err := GroupWorkParallel(
			context.Background(),
			totalSize,
			func(numGroups int) { groups = numGroups },
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				return func(memberNum, workNum int) {
					atomic.AddInt32(&visits[workNum], 1)
				}, nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		if factor > totalSize {
			test.That(t, groups, test.ShouldEqual, totalSize)
		} else {
			test.That(t, groups, test.ShouldEqual, factor)
		}
		for _, v := range visits {
			test.That(t, int(v), test.ShouldEqual, 1)
		}
	}
}

func TestGroupWorkParallelDone(t *testing.T) {
	var done int32
	err := GroupWorkParallel(context.Background(), 10, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			test.That(t, to-from, test.ShouldEqual, groupSize)
			return nil, func() { atomic.AddInt32(&done, 1) }
		})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, int(done), test.ShouldBeGreaterThan, 0)

	test.That(t, GroupWorkParallel(context.Background(), 0, nil, nil), test.ShouldBeNil)
}

func TestGroupWorkParallelErrors(t *testing.T) {
	err := GroupWorkParallel(context.Background(), 4, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				if workNum == 2 {
					panic("boom")
				}
			}, nil
		})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = GroupWorkParallel(ctx, 4, nil, nil)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
