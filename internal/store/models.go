package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord is the persisted outcome of one settled right.
type SettlementRecord struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	RightID  uint64 `gorm:"not null;index"`
	Executor string `gorm:"type:varchar(128);not null;index"`

	CapitalUsed decimal.Decimal `gorm:"type:numeric(30,0);not null"`
	// Explicit column names: default GORM naming turns "PnL" into "pn_l".
	RealizedPnL decimal.Decimal `gorm:"column:realized_pnl;type:numeric(30,0);not null"`
	Covered     decimal.Decimal `gorm:"type:numeric(30,0);not null"`
	ReserveFee  decimal.Decimal `gorm:"column:reserve_fee;type:numeric(30,0);not null"`

	SettledAt time.Time `gorm:"type:timestamptz;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (SettlementRecord) TableName() string {
	return "settlement_records"
}

// ActionRecord is the persisted trace of one executed action.
type ActionRecord struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	RightID    uint64 `gorm:"not null;index"`
	Kind       string `gorm:"type:varchar(30);not null"`
	Adapter    string `gorm:"type:varchar(64);not null"`
	Asset      string `gorm:"type:varchar(32);not null;index"`
	PositionID string `gorm:"type:varchar(64);not null;uniqueIndex"`

	AmountIn decimal.Decimal `gorm:"type:numeric(30,0);not null"`
	Notional decimal.Decimal `gorm:"type:numeric(30,0);not null"`

	ExecutedAt time.Time `gorm:"type:timestamptz;index"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (ActionRecord) TableName() string {
	return "action_records"
}
