// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel implements the work-stealing parallel-for over
// independent ciphertexts described in spec §5: shared-nothing data
// parallelism, one Engine per worker, no suspension points, no shared
// mutable state beyond the read-only keys every worker closes over.
package parallel

import (
	"runtime"
	"sync"
)

// Config tunes the worker pool, mirroring the teacher's own
// Config/DefaultConfig pattern for its GPU engine.
type Config struct {
	// Workers is the number of goroutines the pool runs. Zero selects
	// runtime.GOMAXPROCS(0).
	Workers int
}

// DefaultConfig returns a Config sized to the host's GOMAXPROCS.
func DefaultConfig() Config {
	return Config{Workers: runtime.GOMAXPROCS(0)}
}

// Stats reports how a For call's work was distributed, for tests and
// diagnostics.
type Stats struct {
	Workers   int
	Items     int
	PerWorker []int
}

// For runs fn(i) for every i in [0, n) across cfg.Workers goroutines,
// using a shared mutex-guarded cursor so idle workers steal the next
// unclaimed index rather than waiting on a statically assigned chunk
// (the "work-stealing" of spec §5's scheduling model). It blocks until
// every index has been processed. fn must not share mutable state
// across indices other than through values it explicitly returns by
// side channel (e.g. writing into a pre-sized results slice at index
// i, which is race-free since indices are disjoint).
func For(cfg Config, n int, fn func(workerID, i int)) Stats {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 0 {
		return Stats{Workers: 0, Items: n, PerWorker: nil}
	}

	var cursor int
	var mu sync.Mutex
	perWorker := make([]int, workers)

	next := func() (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if cursor >= n {
			return 0, false
		}
		i := cursor
		cursor++
		return i, true
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			for {
				i, ok := next()
				if !ok {
					return
				}
				fn(workerID, i)
				perWorker[workerID]++
			}
		}(w)
	}
	wg.Wait()

	return Stats{Workers: workers, Items: n, PerWorker: perWorker}
}

// ForErr is For with an error-returning fn; it runs every index to
// completion regardless of earlier failures (gate evaluations are
// independent) and returns the first error encountered, if any.
func ForErr(cfg Config, n int, fn func(workerID, i int) error) (Stats, error) {
	errs := make([]error, n)
	stats := For(cfg, n, func(workerID, i int) {
		errs[i] = fn(workerID, i)
	})
	for _, err := range errs {
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}
