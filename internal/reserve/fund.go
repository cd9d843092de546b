// Package reserve implements the loss-absorption fund the settlement path
// draws on. Coverage is partial when the fund is underfunded; a fee on
// profitable settlements replenishes it.
package reserve

import (
	"errors"

	"riskcore/internal/schema"
)

var ErrInvalidFee = errors.New("reserve: fee out of range")

// DefaultFeeBps is the insurance fee taken from profits: 1%.
const DefaultFeeBps = 100

// Fund holds the loss-absorption balance.
type Fund struct {
	balance schema.Amount
	feeBps  int64
}

// NewFund creates a fund with an initial balance and profit fee.
func NewFund(balance schema.Amount, feeBps int64) (*Fund, error) {
	if feeBps == 0 {
		feeBps = DefaultFeeBps
	}
	if feeBps < 0 || feeBps > schema.BPS {
		return nil, ErrInvalidFee
	}
	if balance < 0 {
		balance = 0
	}
	return &Fund{balance: balance, feeBps: feeBps}, nil
}

// CoverLoss pays out up to the requested amount, returning what was
// actually covered. Coverage is partial when the balance is insufficient.
func (f *Fund) CoverLoss(amount schema.Amount) schema.Amount {
	if amount <= 0 {
		return 0
	}
	covered := amount
	if covered > f.balance {
		covered = f.balance
	}
	f.balance -= covered
	return covered
}

// CollectFromProfit takes the insurance fee from a profit and returns the
// fee collected.
func (f *Fund) CollectFromProfit(profit schema.Amount) schema.Amount {
	if profit <= 0 {
		return 0
	}
	fee, err := schema.ApplyBps(int64(profit), f.feeBps)
	if err != nil {
		return 0
	}
	f.balance += schema.Amount(fee)
	return schema.Amount(fee)
}

// Balance returns the current fund balance.
func (f *Fund) Balance() schema.Amount {
	return f.balance
}

// SetFeeBps replaces the insurance fee.
func (f *Fund) SetFeeBps(bps int64) error {
	if bps < 0 || bps > schema.BPS {
		return ErrInvalidFee
	}
	f.feeBps = bps
	return nil
}
