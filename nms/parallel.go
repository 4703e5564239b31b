package nms

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// overlapRow holds overlaps of one ranked candidate with every lower ranked candidate
type overlapRow struct {
	values []float64
	errs   map[int]error
}

// ParallelFilter gives exactly the same result as Filter.
// Pairwise overlaps are evaluated by a pool of workers; suppression decisions are still made one by one in rank order.
// If workers <= 0 then GOMAXPROCS is used.
func ParallelFilter(detections []Detection, nmsThreshold float64, scoreThreshold Confidence, workers int) ([]Box, error) {
	kept, err := ParallelFilterIndices(detections, nmsThreshold, scoreThreshold, workers)
	if err != nil {
		return nil, err
	}
	return boxesAt(detections, kept), nil
}

// ParallelFilterIndices is the same as FilterIndices but evaluates overlaps concurrently
func ParallelFilterIndices(detections []Detection, nmsThreshold float64, scoreThreshold Confidence, workers int) ([]int, error) {
	th := Thresholds{NMS: nmsThreshold, Score: scoreThreshold}
	ranked, err := prepare(detections, th)
	if err != nil {
		return nil, err
	}
	rows := overlapMatrix(ranked, workers)

	keptRanks := make([]int, 0, len(ranked))
	for j := range ranked {
		suppressed := false
		for _, k := range keptRanks {
			// k < j always, row k holds overlap with j at offset j-k-1
			if err := rows[k].errs[j]; err != nil {
				return nil, errors.Wrapf(err, "can't compare detection #%d with detection #%d", ranked[j].index, ranked[k].index)
			}
			if rows[k].values[j-k-1] > th.NMS {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keptRanks = append(keptRanks, j)
		}
	}
	indices := make([]int, len(keptRanks))
	for i, k := range keptRanks {
		indices[i] = ranked[k].index
	}
	return indices, nil
}

// overlapMatrix evaluates upper triangle of pairwise overlaps of ranked candidates
func overlapMatrix(ranked []candidate, workers int) []overlapRow {
	n := len(ranked)
	rows := make([]overlapRow, n)
	if n < 2 {
		return rows
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n-1 {
		workers = n - 1
	}

	jobs := make(chan int, n)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Each row is written by exactly one worker
				row := overlapRow{values: make([]float64, n-i-1)}
				a := &ranked[i]
				for j := i + 1; j < n; j++ {
					b := &ranked[j]
					ovr, err := overlap(b.box, a.box, b.area, a.area)
					if err != nil {
						if row.errs == nil {
							row.errs = make(map[int]error)
						}
						row.errs[j] = err
						continue
					}
					row.values[j-i-1] = ovr
				}
				rows[i] = row
			}
		}()
	}
	for i := 0; i < n-1; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return rows
}
