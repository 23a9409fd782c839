package assessment

import (
	"context"
	"sync"

	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/types"
)

// defaultBatchWorkers bounds concurrent assessments in a batch.
const defaultBatchWorkers = 8

// maxBatchSize caps one batch request.
const maxBatchSize = 100

// BatchItemError reports a single failed item; the rest of the batch is
// unaffected.
type BatchItemError struct {
	Index    int    `json:"index"`
	DriverID string `json:"driver_id,omitempty"`
	Error    string `json:"error"`
}

// BatchResult holds per-item outcomes. Results keeps request order; failed
// items are nil there and listed in Failures.
type BatchResult struct {
	Results   []*Result        `json:"results"`
	Failures  []BatchItemError `json:"failures,omitempty"`
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// AssessBatch runs independent assessments concurrently. One bad item
// never aborts the batch; a cancelled context stops scheduling new items.
func (s *Service) AssessBatch(ctx context.Context, req types.BatchAssessRequest) (*BatchResult, error) {
	if len(req.Requests) == 0 {
		return nil, errors.NewInvalidInputError("batch contains no requests", nil)
	}
	if len(req.Requests) > maxBatchSize {
		return nil, errors.NewInvalidInputError(
			"batch exceeds maximum size",
			map[string]interface{}{"max": maxBatchSize, "got": len(req.Requests)})
	}

	results := make([]*Result, len(req.Requests))
	itemErrs := make([]error, len(req.Requests))

	sem := make(chan struct{}, defaultBatchWorkers)
	var wg sync.WaitGroup

	for i, item := range req.Requests {
		if ctx.Err() != nil {
			itemErrs[i] = errors.NewTimeoutError("batch cancelled", ctx.Err())
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item types.AssessRequest) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], itemErrs[i] = s.Assess(item)
		}(i, item)
	}
	wg.Wait()

	out := &BatchResult{Results: results, Total: len(req.Requests)}
	for i, err := range itemErrs {
		if err != nil {
			out.Failed++
			out.Failures = append(out.Failures, BatchItemError{
				Index:    i,
				DriverID: req.Requests[i].DriverID,
				Error:    err.Error(),
			})
			continue
		}
		out.Succeeded++
	}

	return out, nil
}
