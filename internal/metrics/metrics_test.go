package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHealth_Stats(t *testing.T) {
	h := &Health{IsHealthy: true}
	h.AddFetched(4)
	h.AddDuplicatesFiltered(2)
	h.RecordProcessingTime(2 * time.Second)
	h.RecordProcessingTime(4 * time.Second)

	stats := h.GetStats()
	assert.Equal(t, int64(4), stats["items_fetched"])
	assert.Equal(t, int64(2), stats["duplicates_filtered"])
	assert.Equal(t, int64(3000), stats["average_processing_time_ms"])

	h.SetError("boom")
	assert.False(t, h.Healthy())
	h.SetLastRun("run-1")
	assert.True(t, h.Healthy())
	assert.Equal(t, "run-1", h.GetStats()["last_run_id"])
}

func TestObserveLLM(t *testing.T) {
	before := testutil.ToFloat64(LLMCalls.WithLabelValues("test", OutcomeFailed))
	ObserveLLM("test", 0.1, errors.New("x"))
	ObserveLLM("test", 0.1, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(LLMCalls.WithLabelValues("test", OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(LLMCalls.WithLabelValues("test", OutcomeOK)))
}
