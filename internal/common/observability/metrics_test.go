package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsWithoutPanic(t *testing.T) {
	obs, err := New("food-agent-test")
	require.NoError(t, err)
	defer obs.Shutdown()

	assert.NotPanics(t, func() {
		obs.RecordJob(context.Background(), "search-restaurant-info", "completed", 120*time.Millisecond)
		obs.RecordToolOutput(context.Background(), "search-restaurant-info", 512)
	})
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordJob(context.Background(), "x", "failed", time.Second)
		obs.RecordToolOutput(context.Background(), "x", 1)
		obs.Shutdown()
	})
}
