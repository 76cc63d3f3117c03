package lightning

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	MilliSatoshisPerSatoshi = 1_000
	SatoshisPerBitcoin      = 100_000_000
	MilliSatoshisPerBitcoin = MilliSatoshisPerSatoshi * SatoshisPerBitcoin
)

var (
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrSubMilliSatoshi   = errors.New("amount is not a whole number of millisatoshis")
	ErrAmountOutOfBounds = errors.New("amount is too large")

	msatPerBtc = decimal.NewFromInt(MilliSatoshisPerBitcoin)
	msatPerSat = decimal.NewFromInt(MilliSatoshisPerSatoshi)
)

// MilliSatoshi is the smallest unit the payment network routes
type MilliSatoshi uint64

// FromBTC converts a BTC denominated amount into millisatoshis
func FromBTC(amount decimal.Decimal) (MilliSatoshi, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}

	msat := amount.Mul(msatPerBtc)
	if !msat.Equal(msat.Truncate(0)) {
		return 0, ErrSubMilliSatoshi
	}
	if !msat.BigInt().IsUint64() {
		return 0, ErrAmountOutOfBounds
	}
	return MilliSatoshi(msat.BigInt().Uint64()), nil
}

// ToBTC returns the amount denominated in BTC
func (m MilliSatoshi) ToBTC() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(m)), 0).Div(msatPerBtc)
}

// ToSatoshis returns the amount denominated in satoshis, keeping any
// fractional millisatoshi part
func (m MilliSatoshi) ToSatoshis() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(m)), 0).Div(msatPerSat)
}

func (m MilliSatoshi) String() string {
	return m.ToSatoshis().String() + " sats"
}
