package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/digisim/internal/engine"
)

func TestFixedRunIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedRunIDGenerator("run-123")

	assert.Equal(t, "run-123", gen.Generate())
	assert.Equal(t, "run-123", gen.Generate())
}

func TestFixedRunIDGenerator_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}

func TestFixedRunIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedRunIDGenerator("shared")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "shared", gen.Generate())
			}
		}()
	}
	wg.Wait()
}

func TestFixedRunIDGenerator_ImplementsInterface(t *testing.T) {
	var _ engine.RunIDGenerator = NewFixedRunIDGenerator("x")
}

func TestDiscardLogger(t *testing.T) {
	log := DiscardLogger()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	assert.NotPanics(t, func() { log.Error("dropped", "key", "value") })
}

func TestQuietEngine_AppliesOptions(t *testing.T) {
	e := QuietEngine(engine.WithMaxEvents(7))
	assert.Equal(t, uint64(7), e.Config().MaxEvents)
	assert.Equal(t, engine.Idle, e.State())
}
