package sourcing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterIsPerHost(t *testing.T) {
	hl := NewHostLimiter(1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// first request per host spends the burst
	require.NoError(t, hl.WaitURL(ctx, "https://a.example/search"))
	require.NoError(t, hl.WaitURL(ctx, "https://b.example/search"))

	// second request on a drained host must block past the deadline
	err := hl.WaitURL(ctx, "https://a.example/search")
	assert.Error(t, err)
}

func TestLimiterHandlesUnparseableURL(t *testing.T) {
	hl := NewHostLimiter(100, 10)
	assert.NoError(t, hl.WaitURL(context.Background(), "not a url"))
}
