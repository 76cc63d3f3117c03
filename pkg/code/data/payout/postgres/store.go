package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-payout-server/pkg/code/data/payout"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed payout.Store
func New(db *sql.DB) payout.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements payout.Store.Put
func (s *store) Put(ctx context.Context, record *payout.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbPut(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// Update implements payout.Store.Update
func (s *store) Update(ctx context.Context, record *payout.Record) error {
	obj, err := toModel(record)
	if err != nil {
		return err
	}

	err = obj.dbUpdate(ctx, s.db)
	if err != nil {
		return err
	}

	res := fromModel(obj)
	res.CopyTo(record)

	return nil
}

// Get implements payout.Store.Get
func (s *store) Get(ctx context.Context, payoutId string) (*payout.Record, error) {
	model, err := dbGetByPayoutId(ctx, s.db, payoutId)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// TransitionState implements payout.Store.TransitionState
func (s *store) TransitionState(ctx context.Context, payoutId string, from, to payout.State) error {
	return dbTransitionState(ctx, s.db, payoutId, from, to)
}

// GetAllByState implements payout.Store.GetAllByState
func (s *store) GetAllByState(ctx context.Context, state payout.State, limit uint64) ([]*payout.Record, error) {
	models, err := dbGetAllByState(ctx, s.db, state, limit)
	if err != nil {
		return nil, err
	}

	var res []*payout.Record
	for _, model := range models {
		res = append(res, fromModel(model))
	}
	return res, nil
}

// CountByState implements payout.Store.CountByState
func (s *store) CountByState(ctx context.Context, state payout.State) (uint64, error) {
	return dbCountByState(ctx, s.db, state)
}
