package sync

import (
	"fmt"
	base "sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeySet_HappyPath(t *testing.T) {
	s := NewKeySet(8)

	assert.False(t, s.Contains("payout1"))
	assert.True(t, s.TryAdd("payout1"))
	assert.False(t, s.TryAdd("payout1"))
	assert.True(t, s.Contains("payout1"))
	assert.True(t, s.TryAdd("payout2"))
	assert.Equal(t, 2, s.Len())

	s.Remove("payout1")
	s.Remove("payout1")
	assert.False(t, s.Contains("payout1"))
	assert.True(t, s.TryAdd("payout1"))
}

func TestKeySet_ConcurrentAdmission(t *testing.T) {
	s := NewKeySet(4)
	workerCount := 128

	for round := 0; round < 20; round++ {
		key := fmt.Sprintf("payout%d", round)

		var admitted int32
		var wg base.WaitGroup
		start := make(chan struct{})
		for i := 0; i < workerCount; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if s.TryAdd(key) {
					atomic.AddInt32(&admitted, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.EqualValues(t, 1, admitted)
	}
}
