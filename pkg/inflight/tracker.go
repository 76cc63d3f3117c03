package inflight

import (
	"context"
)

// Tracker records which payouts are currently being processed, so a payout
// is never attempted twice at the same time
type Tracker interface {
	// TryTrack atomically marks id as in flight. If ok is false, another
	// attempt already holds id. When ok is true, release must be called
	// exactly once when the attempt finishes.
	TryTrack(ctx context.Context, id string) (release func(), ok bool, err error)
}
