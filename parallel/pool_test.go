// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 97
	var seen [n]int32
	stats := For(Config{Workers: 8}, n, func(_, i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, c := range seen {
		require.Equal(t, int32(1), c, "index %d visited %d times", i, c)
	}
	require.Equal(t, n, stats.Items)
	total := 0
	for _, c := range stats.PerWorker {
		total += c
	}
	require.Equal(t, n, total)
}

func TestForZeroWorkersFallsBackToGOMAXPROCS(t *testing.T) {
	const n = 10
	var seen [n]int32
	stats := For(Config{Workers: 0}, n, func(_, i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, c := range seen {
		require.Equal(t, int32(1), c, "index %d visited %d times", i, c)
	}
	require.Greater(t, stats.Workers, 0)
}

func TestForWorkersClampedToItemCount(t *testing.T) {
	stats := For(Config{Workers: 64}, 3, func(_, i int) {})
	require.LessOrEqual(t, stats.Workers, 3)
}

var errRow = errors.New("row failed")

func TestForErrReturnsFirstError(t *testing.T) {
	_, err := ForErr(Config{Workers: 4}, 16, func(_, i int) error {
		if i == 5 {
			return errRow
		}
		return nil
	})
	require.ErrorIs(t, err, errRow)
}

func TestForErrRunsEveryIndexDespiteFailures(t *testing.T) {
	const n = 20
	var ran [n]int32
	_, err := ForErr(Config{Workers: 4}, n, func(_, i int) error {
		atomic.AddInt32(&ran[i], 1)
		if i%3 == 0 {
			return errRow
		}
		return nil
	})
	require.ErrorIs(t, err, errRow)
	for i, c := range ran {
		require.Equal(t, int32(1), c, "index %d ran %d times", i, c)
	}
}

func TestForErrNoErrors(t *testing.T) {
	stats, err := ForErr(Config{Workers: 4}, 12, func(_, i int) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 12, stats.Items)
}
