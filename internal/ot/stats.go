package ot

import (
	"runtime"
	"time"

	"github.com/go-logr/logr"
)

// printStageStats logs the time spent in a stage and since start, along with
// the heap growth, and returns the new stage timer and heap size.
func printStageStats(logger logr.Logger, stage int, prevTime, startTime time.Time, prevMem uint64) (time.Time, uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	now := time.Now()

	logger.V(2).Info("stats",
		"stage", stage,
		"time", now.Sub(prevTime).String(),
		"cumulative time", now.Sub(startTime).String(),
		"heap", int64(m.HeapAlloc)-int64(prevMem),
		"cumulative heap", m.HeapAlloc,
	)

	return now, m.HeapAlloc
}
