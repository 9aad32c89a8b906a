package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/loadwire/loadwire/models"
)

// FetchBatch runs one extraction per URL with bounded concurrency and
// returns a result slice in the input order. Each item succeeds or fails
// independently; a single bad URL never sinks the batch. Concurrency is
// capped at the pool capacity so a batch cannot starve single-page
// requests of every slot at once.
//
// The reported total is the wall-clock span of the whole batch, not the
// sum of the items.
func (f *Fetcher) FetchBatch(ctx context.Context, urls []string, build func(url string) *models.ExtractionRequest) (*models.BatchResponse, error) {
	if len(urls) == 0 {
		return nil, models.NewLoadError(models.ErrCodeInvalidInput, "batch contains no URLs", nil)
	}
	if err := f.guard.CheckDomainSpread(urls); err != nil {
		return nil, err
	}

	limit := f.pool.Stats().Total
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	started := time.Now()
	results := make([]models.BatchResult, len(urls))
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, pageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp, err := f.Fetch(ctx, build(pageURL))
			result := models.BatchResult{URL: pageURL}
			if err != nil {
				result.Error = models.AsLoadError(err).ToDetail()
			} else {
				result.Response = resp
			}
			results[idx] = result
		}(i, u)
	}
	wg.Wait()

	return &models.BatchResponse{
		Results:               results,
		TotalProcessingTimeMs: time.Since(started).Milliseconds(),
	}, nil
}
