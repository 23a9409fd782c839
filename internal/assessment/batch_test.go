package assessment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/geodata"
	"github.com/ridewise/riskmeter/internal/types"
)

func TestAssessBatchPartialFailure(t *testing.T) {
	svc := newTestService(geodata.NewStaticSource(), nil)

	result, err := svc.AssessBatch(context.Background(), types.BatchAssessRequest{
		Requests: []types.AssessRequest{
			{DriverID: "driver-a", Samples: tripSamples(20)},
			{DriverID: "driver-b"}, // no samples
			{DriverID: "driver-c", Samples: tripSamples(20)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	// Results keep request order; the failed slot is nil.
	require.Len(t, result.Results, 3)
	assert.NotNil(t, result.Results[0])
	assert.Nil(t, result.Results[1])
	assert.NotNil(t, result.Results[2])

	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Equal(t, "driver-b", result.Failures[0].DriverID)
	assert.NotEmpty(t, result.Failures[0].Error)
}

func TestAssessBatchRejectsEmpty(t *testing.T) {
	svc := newTestService(geodata.NewStaticSource(), nil)

	_, err := svc.AssessBatch(context.Background(), types.BatchAssessRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestAssessBatchRejectsOversize(t *testing.T) {
	svc := newTestService(geodata.NewStaticSource(), nil)

	requests := make([]types.AssessRequest, maxBatchSize+1)
	for i := range requests {
		requests[i] = types.AssessRequest{Samples: tripSamples(8)}
	}

	_, err := svc.AssessBatch(context.Background(), types.BatchAssessRequest{Requests: requests})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestAssessBatchCancelledContext(t *testing.T) {
	svc := newTestService(geodata.NewStaticSource(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.AssessBatch(ctx, types.BatchAssessRequest{
		Requests: []types.AssessRequest{
			{DriverID: "driver-a", Samples: tripSamples(20)},
			{DriverID: "driver-b", Samples: tripSamples(20)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Zero(t, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
}

func TestAssessBatchConcurrencyIsSafe(t *testing.T) {
	svc := newTestService(geodata.NewStaticSource(), nil)

	requests := make([]types.AssessRequest, 32)
	for i := range requests {
		requests[i] = types.AssessRequest{Samples: tripSamples(20)}
	}

	result, err := svc.AssessBatch(context.Background(), types.BatchAssessRequest{Requests: requests})
	require.NoError(t, err)
	assert.Equal(t, 32, result.Succeeded)
	for _, r := range result.Results {
		require.NotNil(t, r)
		assert.InDelta(t, 100.0, r.Overall.FinalRiskScore+r.Overall.SafetyScore, 1e-9)
	}
}
