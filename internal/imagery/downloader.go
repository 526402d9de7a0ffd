// Package imagery runs batch fetches: one process request per date step, so
// the user can pull a whole season of rendered frames in one action.
package imagery

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb/geojson"

	"sentinel-desktop/internal/common"
	"sentinel-desktop/internal/process"
)

// Fetcher is the slice of the process client a batch run needs
type Fetcher interface {
	Fetch(params process.FetchParams) (*process.Result, error)
}

// BatchProgress tracks the progress of a batch fetch
type BatchProgress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
}

// BatchFetcher downloads one rendered frame per date step using a bounded
// worker pool
type BatchFetcher struct {
	workers int
	client  Fetcher

	// onProgress is called after every step resolves, success or not
	onProgress func(progress BatchProgress)
}

// NewBatchFetcher creates a batch fetcher with the given concurrency
func NewBatchFetcher(workers int, client Fetcher) *BatchFetcher {
	if workers < 1 {
		workers = 1
	}
	return &BatchFetcher{
		workers: workers,
		client:  client,
	}
}

// SetOnProgress registers the progress callback
func (b *BatchFetcher) SetOnProgress(fn func(progress BatchProgress)) {
	b.onProgress = fn
}

// BatchParams describe one batch run. Geometry, script and filters are
// shared across steps; only the time range differs per step.
type BatchParams struct {
	Geometry         *geojson.Geometry
	Steps            []Step
	Evalscript       string
	Collection       string
	MosaickingOrder  string
	MaxCloudCoverage *float64
}

// FetchAll runs every step through the worker pool and returns the results
// in step order. Per-step failures are recorded in the result slice, not
// retried; the run only errors as a whole when no step succeeds.
func (b *BatchFetcher) FetchAll(params BatchParams) ([]common.StepFetchResult, error) {
	total := len(params.Steps)
	if total == 0 {
		return nil, fmt.Errorf("no steps to fetch")
	}
	if params.Geometry == nil {
		return nil, process.ErrNoAOI
	}

	type job struct {
		index int
		step  Step
	}

	jobChan := make(chan job, total)
	results := make([]common.StepFetchResult, total)
	var completed int64

	workerCount := b.workers
	if total < workerCount {
		workerCount = total
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				result := common.StepFetchResult{
					Index: j.index,
					From:  j.step.From,
					To:    j.step.To,
				}

				fetched, err := b.client.Fetch(process.FetchParams{
					Geometry:         params.Geometry,
					From:             j.step.From,
					To:               j.step.To,
					Evalscript:       params.Evalscript,
					Collection:       params.Collection,
					MosaickingOrder:  params.MosaickingOrder,
					MaxCloudCoverage: params.MaxCloudCoverage,
				})
				if err != nil {
					result.Error = err
				} else {
					result.Success = true
					result.Data = fetched.Data
					result.ContentType = fetched.ContentType
				}
				results[j.index] = result

				done := atomic.AddInt64(&completed, 1)
				if b.onProgress != nil {
					b.onProgress(BatchProgress{
						Completed: int(done),
						Total:     total,
						Percent:   int(done * 100 / int64(total)),
						Status:    fmt.Sprintf("Fetched step %d/%d", done, total),
					})
				}
			}
		}()
	}

	for i, step := range params.Steps {
		jobChan <- job{index: i, step: step}
	}
	close(jobChan)

	wg.Wait()

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}
	if successCount == 0 {
		return results, fmt.Errorf("all %d steps failed", total)
	}

	return results, nil
}
