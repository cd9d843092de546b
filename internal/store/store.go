// Package store persists settlement history and executed actions to
// PostgreSQL. The engine runs fully in memory; the store is an optional
// write-behind record, not a source of truth.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"riskcore/internal/schema"
)

// Store wraps the persistence operations over one database handle.
type Store struct {
	db *gorm.DB
}

// New creates a store over an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the backing tables.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&SettlementRecord{}, &ActionRecord{})
}

// SaveSettlement persists one settled right.
func (s *Store) SaveSettlement(rightID schema.RightID, executor schema.Principal, capitalUsed schema.Amount, pnl schema.Notional, covered schema.Amount, fee schema.Amount, settledAt time.Time) error {
	rec := SettlementRecord{
		RightID:     uint64(rightID),
		Executor:    string(executor),
		CapitalUsed: decimal.NewFromInt(int64(capitalUsed)),
		RealizedPnL: decimal.NewFromInt(int64(pnl)),
		Covered:     decimal.NewFromInt(int64(covered)),
		ReserveFee:  decimal.NewFromInt(int64(fee)),
		SettledAt:   settledAt,
	}
	return s.db.Create(&rec).Error
}

// SaveAction persists one executed action.
func (s *Store) SaveAction(rightID schema.RightID, kind, adapter, asset, positionID string, amountIn schema.Amount, notional schema.Notional, executedAt time.Time) error {
	rec := ActionRecord{
		RightID:    uint64(rightID),
		Kind:       kind,
		Adapter:    adapter,
		Asset:      asset,
		PositionID: positionID,
		AmountIn:   decimal.NewFromInt(int64(amountIn)),
		Notional:   decimal.NewFromInt(int64(notional)),
		ExecutedAt: executedAt,
	}
	return s.db.Create(&rec).Error
}

// ListSettlements returns a right's settlement history, newest first.
func (s *Store) ListSettlements(ctx context.Context, rightID schema.RightID) ([]SettlementRecord, error) {
	var records []SettlementRecord
	err := s.db.WithContext(ctx).
		Where("right_id = ?", uint64(rightID)).
		Order("settled_at DESC").
		Find(&records).Error
	return records, err
}
