package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_DoDeduplicatesConcurrentCalls(t *testing.T) {
	var group Group[[]string]
	var calls atomic.Int32

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			got, err, _ := group.Do("teams:39", func() ([]string, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond)
				return []string{"Arsenal", "Chelsea"}, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, []string{"Arsenal", "Chelsea"}, got)
		}()
	}

	close(start)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
}

func TestGroup_DoPropagatesError(t *testing.T) {
	var group Group[int]

	got, err, _ := group.Do("k", func() (int, error) {
		return 0, ErrCircuitOpen
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, got)
}
