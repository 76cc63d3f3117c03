package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/code-payments/code-payout-server/pkg/code/data/payout"
	pgutil "github.com/code-payments/code-payout-server/pkg/database/postgres"
	"github.com/code-payments/code-payout-server/pkg/pointer"
)

const (
	tableName = "payouts__core_payout"

	allColumns = `id, payout_id, amount, currency, destination, state, error_count, payment_hash, preimage, created_at, updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	PayoutId    string          `db:"payout_id"`
	Amount      decimal.Decimal `db:"amount"`
	Currency    string          `db:"currency"`
	Destination string          `db:"destination"`

	State      uint8  `db:"state"`
	ErrorCount uint32 `db:"error_count"`

	PaymentHash sql.NullString `db:"payment_hash"`
	Preimage    sql.NullString `db:"preimage"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toModel(obj *payout.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		PayoutId:    obj.PayoutId,
		Amount:      obj.Amount,
		Currency:    obj.Currency,
		Destination: obj.Destination,

		State:      uint8(obj.State),
		ErrorCount: obj.ErrorCount,

		PaymentHash: sql.NullString{
			Valid:  obj.PaymentHash != nil,
			String: pointer.StringOrEmpty(obj.PaymentHash),
		},
		Preimage: sql.NullString{
			Valid:  obj.Preimage != nil,
			String: pointer.StringOrEmpty(obj.Preimage),
		},

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
	}, nil
}

func fromModel(obj *model) *payout.Record {
	return &payout.Record{
		Id: uint64(obj.Id.Int64),

		PayoutId:    obj.PayoutId,
		Amount:      obj.Amount,
		Currency:    obj.Currency,
		Destination: obj.Destination,

		State:      payout.State(obj.State),
		ErrorCount: obj.ErrorCount,

		PaymentHash: pointer.StringIfValid(obj.PaymentHash.Valid, obj.PaymentHash.String),
		Preimage:    pointer.StringIfValid(obj.Preimage.Valid, obj.Preimage.String),

		CreatedAt: obj.CreatedAt,
		UpdatedAt: obj.UpdatedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(payout_id, amount, currency, destination, state, error_count, payment_hash, preimage, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING ` + allColumns

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		return tx.QueryRowxContext(
			ctx,
			query,
			m.PayoutId,
			m.Amount,
			m.Currency,
			m.Destination,
			m.State,
			m.ErrorCount,
			m.PaymentHash,
			m.Preimage,
			m.CreatedAt,
		).StructScan(m)
	})
	return pgutil.CheckUniqueViolation(err, payout.ErrAlreadyExists)
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET state = $2, error_count = $3, payment_hash = $4, preimage = $5, updated_at = $6
			WHERE payout_id = $1
			RETURNING ` + allColumns

		return tx.QueryRowxContext(
			ctx,
			query,
			m.PayoutId,
			m.State,
			m.ErrorCount,
			m.PaymentHash,
			m.Preimage,
			time.Now(),
		).StructScan(m)
	})
	return pgutil.CheckNoRows(err, payout.ErrNotFound)
}

func dbTransitionState(ctx context.Context, db *sqlx.DB, payoutId string, from, to payout.State) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		var current uint8
		query := `SELECT state FROM ` + tableName + `
			WHERE payout_id = $1
			FOR UPDATE
		`

		err := tx.GetContext(ctx, &current, query, payoutId)
		if err != nil {
			return pgutil.CheckNoRows(err, payout.ErrNotFound)
		}

		if payout.State(current) != from {
			return payout.ErrStaleState
		}

		query = `UPDATE ` + tableName + `
			SET state = $2, updated_at = $3
			WHERE payout_id = $1
		`

		_, err = tx.ExecContext(ctx, query, payoutId, to, time.Now())
		return err
	})
}

func dbGetByPayoutId(ctx context.Context, db *sqlx.DB, payoutId string) (*model, error) {
	var res model
	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE payout_id = $1
	`

	err := db.GetContext(ctx, &res, query, payoutId)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, payout.ErrNotFound)
	}
	return &res, nil
}

func dbGetAllByState(ctx context.Context, db *sqlx.DB, state payout.State, limit uint64) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE state = $1
		ORDER BY id ASC
		LIMIT $2
	`

	err := db.SelectContext(ctx, &res, query, state, limit)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, payout.ErrNotFound)
	} else if len(res) == 0 {
		return nil, payout.ErrNotFound
	}
	return res, nil
}

func dbCountByState(ctx context.Context, db *sqlx.DB, state payout.State) (uint64, error) {
	var res uint64
	query := `SELECT COUNT(*) FROM ` + tableName + `
		WHERE state = $1
	`

	err := db.GetContext(ctx, &res, query, state)
	if err != nil {
		return 0, err
	}
	return res, nil
}
