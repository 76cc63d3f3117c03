package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/code-payout-server/pkg/code/data/payout"
	"github.com/code-payments/code-payout-server/pkg/pointer"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*payout.Record
}

// New returns a new in memory payout.Store
func New() payout.Store {
	return &store{}
}

// Put implements payout.Store.Put
func (s *store) Put(_ context.Context, data *payout.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	if item := s.find(data); item != nil {
		return payout.ErrAlreadyExists
	}

	if data.Id == 0 {
		data.Id = s.last
	}
	data.CreatedAt = time.Now()
	data.UpdatedAt = data.CreatedAt

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Update implements payout.Store.Update
func (s *store) Update(_ context.Context, data *payout.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByPayoutId(data.PayoutId)
	if item == nil {
		return payout.ErrNotFound
	}

	item.State = data.State
	item.ErrorCount = data.ErrorCount
	item.PaymentHash = pointer.StringCopy(data.PaymentHash)
	item.Preimage = pointer.StringCopy(data.Preimage)
	item.UpdatedAt = time.Now()

	item.CopyTo(data)

	return nil
}

// Get implements payout.Store.Get
func (s *store) Get(_ context.Context, payoutId string) (*payout.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByPayoutId(payoutId)
	if item == nil {
		return nil, payout.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// TransitionState implements payout.Store.TransitionState
func (s *store) TransitionState(_ context.Context, payoutId string, from, to payout.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByPayoutId(payoutId)
	if item == nil {
		return payout.ErrNotFound
	}

	if item.State != from {
		return payout.ErrStaleState
	}

	item.State = to
	item.UpdatedAt = time.Now()
	return nil
}

// GetAllByState implements payout.Store.GetAllByState
func (s *store) GetAllByState(_ context.Context, state payout.State, limit uint64) ([]*payout.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findByState(state)
	if len(items) == 0 {
		return nil, payout.ErrNotFound
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Id < items[j].Id
	})

	if uint64(len(items)) > limit {
		items = items[:limit]
	}
	return cloneSlice(items), nil
}

// CountByState implements payout.Store.CountByState
func (s *store) CountByState(_ context.Context, state payout.State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.findByState(state)
	return uint64(len(items)), nil
}

func (s *store) find(data *payout.Record) *payout.Record {
	for _, item := range s.records {
		if item.Id == data.Id {
			return item
		}

		if item.PayoutId == data.PayoutId {
			return item
		}
	}

	return nil
}

func (s *store) findByPayoutId(payoutId string) *payout.Record {
	for _, item := range s.records {
		if item.PayoutId == payoutId {
			return item
		}
	}

	return nil
}

func (s *store) findByState(state payout.State) []*payout.Record {
	var res []*payout.Record

	for _, item := range s.records {
		if item.State == state {
			res = append(res, item)
		}
	}

	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}

func cloneSlice(items []*payout.Record) []*payout.Record {
	var res []*payout.Record
	for _, item := range items {
		cloned := item.Clone()
		res = append(res, &cloned)
	}
	return res
}
