package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	childMap := map[int64][]int64{
		1: {2, 3},
		2: {4},
		3: {},
		4: {},
		5: {},
	}

	got := flatten([]int64{1, 5}, childMap)
	assert.Equal(t, []int64{1, 2, 4, 3, 5}, got)
}

func TestFlatten_CycleSafe(t *testing.T) {
	childMap := map[int64][]int64{
		1: {2},
		2: {1},
	}

	got := flatten([]int64{1}, childMap)
	assert.Equal(t, []int64{1, 2}, got)
}

func TestTryLock_SingleFlight(t *testing.T) {
	s := &Scheduler{}

	release, ok := s.tryLock("products:1")
	require.True(t, ok)

	_, ok = s.tryLock("products:1")
	assert.False(t, ok, "an overlapping trigger is skipped")

	_, ok = s.tryLock("products:2")
	assert.True(t, ok, "other categories are unaffected")

	release()
	_, ok = s.tryLock("products:1")
	assert.True(t, ok, "the key is free again after release")
}
