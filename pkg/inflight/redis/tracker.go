package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-payout-server/pkg/inflight"
)

const (
	keyPrefix = "payout:inflight:"
)

// Only the owner that set the key may delete it, so an expired lease that
// was taken over by another worker isn't released by the original holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type tracker struct {
	log    *logrus.Entry
	client redis.UniversalClient
	ttl    time.Duration
}

// New returns an inflight.Tracker shared by every worker connected to the
// same redis. Entries expire after ttl so a crashed worker doesn't hold a
// payout forever; ttl must exceed the longest payment attempt.
func New(client redis.UniversalClient, ttl time.Duration) inflight.Tracker {
	return &tracker{
		log:    logrus.StandardLogger().WithField("type", "inflight/redis"),
		client: client,
		ttl:    ttl,
	}
}

// TryTrack implements inflight.Tracker.TryTrack
func (t *tracker) TryTrack(ctx context.Context, id string) (func(), bool, error) {
	key := keyPrefix + id
	token := uuid.NewString()

	ok, err := t.client.SetNX(ctx, key, token, t.ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, "error tracking payout")
	}
	if !ok {
		return nil, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The attempt's context may already be done at this point
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, t.client, []string{key}, token).Err(); err != nil {
				t.log.WithError(err).WithField("payout", id).Warn("failure releasing in-flight payout")
			}
		})
	}, true, nil
}
