package memory

import (
	"context"
	base "sync"

	"github.com/code-payments/code-payout-server/pkg/inflight"
	"github.com/code-payments/code-payout-server/pkg/sync"
)

const (
	defaultStripes = 64
)

type tracker struct {
	keys *sync.KeySet
}

// New returns an inflight.Tracker scoped to the current process
func New() inflight.Tracker {
	return &tracker{
		keys: sync.NewKeySet(defaultStripes),
	}
}

// TryTrack implements inflight.Tracker.TryTrack
func (t *tracker) TryTrack(_ context.Context, id string) (func(), bool, error) {
	if !t.keys.TryAdd(id) {
		return nil, false, nil
	}

	var once base.Once
	return func() {
		once.Do(func() {
			t.keys.Remove(id)
		})
	}, true, nil
}
