package sync

import (
	base "sync"
)

type keySetStripe struct {
	mu   base.Mutex
	keys map[string]struct{}
}

// KeySet is a concurrent set of string keys, striped over a consistent hash
// ring so unrelated keys rarely contend on the same mutex.
type KeySet struct {
	stripes  []keySetStripe
	hashRing *ring
}

// NewKeySet returns a new KeySet with a static number of stripes.
func NewKeySet(stripes uint) *KeySet {
	s := &KeySet{
		stripes:  make([]keySetStripe, stripes),
		hashRing: newRing(stripes, hashEntriesPerStripe),
	}
	for i := range s.stripes {
		s.stripes[i].keys = make(map[string]struct{})
	}
	return s
}

// TryAdd inserts key if it is absent. It reports whether the key was inserted,
// with the test and insert happening atomically.
func (s *KeySet) TryAdd(key string) bool {
	stripe := s.stripeFor(key)
	stripe.mu.Lock()
	defer stripe.mu.Unlock()

	if _, ok := stripe.keys[key]; ok {
		return false
	}
	stripe.keys[key] = struct{}{}
	return true
}

// Remove deletes key from the set. Removing an absent key is a no-op.
func (s *KeySet) Remove(key string) {
	stripe := s.stripeFor(key)
	stripe.mu.Lock()
	delete(stripe.keys, key)
	stripe.mu.Unlock()
}

// Contains reports whether key is currently in the set
func (s *KeySet) Contains(key string) bool {
	stripe := s.stripeFor(key)
	stripe.mu.Lock()
	defer stripe.mu.Unlock()

	_, ok := stripe.keys[key]
	return ok
}

// Len returns the number of keys across all stripes
func (s *KeySet) Len() int {
	var total int
	for i := range s.stripes {
		s.stripes[i].mu.Lock()
		total += len(s.stripes[i].keys)
		s.stripes[i].mu.Unlock()
	}
	return total
}

func (s *KeySet) stripeFor(key string) *keySetStripe {
	return &s.stripes[s.hashRing.shard([]byte(key))]
}
