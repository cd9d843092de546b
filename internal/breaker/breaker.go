package breaker

import (
	"errors"

	"riskcore/internal/schema"
)

var (
	ErrInvalidLimit   = errors.New("breaker: limit out of range")
	ErrCooldownActive = errors.New("breaker: unpause cooldown active")
)

const (
	// DefaultMaxDailyLossBps pauses the system at a 5% daily loss.
	DefaultMaxDailyLossBps = 500

	// DefaultUnpauseCooldown is the minimum pause duration in seconds
	// before a manual unpause is accepted.
	DefaultUnpauseCooldown int64 = 3_600

	daySeconds int64 = 86_400
)

// Config sets the breaker's thresholds.
type Config struct {
	SnapshotTotalAssets schema.Amount
	MaxDailyLossBps     int64
	UnpauseCooldown     int64
}

// Breaker accumulates losses over a rolling daily window and pauses the
// system when the loss fraction of the snapshot breaches the threshold.
// The loss accumulator and the pause gate are orthogonal: profits drain
// the accumulator but never clear the pause.
type Breaker struct {
	snapshotTotalAssets schema.Amount
	dailyLoss           schema.Amount
	lastReset           int64
	paused              bool
	pausedAt            int64
	pausedManually      bool
	lastSnapshotDay     int64
	maxDailyLossBps     int64
	unpauseCooldown     int64
}

// New creates a breaker, applying defaults for zero config values.
func New(cfg Config, now int64) (*Breaker, error) {
	if cfg.MaxDailyLossBps == 0 {
		cfg.MaxDailyLossBps = DefaultMaxDailyLossBps
	}
	if cfg.MaxDailyLossBps < 0 || cfg.MaxDailyLossBps > schema.BPS {
		return nil, ErrInvalidLimit
	}
	if cfg.UnpauseCooldown == 0 {
		cfg.UnpauseCooldown = DefaultUnpauseCooldown
	}
	if cfg.UnpauseCooldown < 0 {
		return nil, ErrInvalidLimit
	}
	return &Breaker{
		snapshotTotalAssets: cfg.SnapshotTotalAssets,
		lastReset:           dayStart(now),
		lastSnapshotDay:     dayStart(now),
		maxDailyLossBps:     cfg.MaxDailyLossBps,
		unpauseCooldown:     cfg.UnpauseCooldown,
	}, nil
}

func dayStart(now int64) int64 {
	if now < 0 {
		return 0
	}
	return now - now%daySeconds
}

// rollover lazily resets the daily window. The pause auto-clears only when
// it was caused by the loss breach itself and a full day has passed.
func (b *Breaker) rollover(now int64) {
	if now < b.lastReset+daySeconds {
		return
	}
	b.dailyLoss = 0
	b.lastReset = dayStart(now)
	if b.paused && !b.pausedManually && now >= b.pausedAt+daySeconds {
		b.paused = false
		b.pausedAt = 0
	}
}

// Tripped reports whether the gate blocks new activity at the given time.
// It is read-only: the lazy rollover state is evaluated, not applied.
func (b *Breaker) Tripped(now int64) bool {
	if b == nil || !b.paused {
		return false
	}
	if !b.pausedManually && now >= b.lastReset+daySeconds && now >= b.pausedAt+daySeconds {
		return false
	}
	return true
}

// RecordLoss adds to the daily accumulator and trips the gate when the
// loss fraction of the snapshot reaches the threshold. Returns whether
// the breaker is paused afterwards.
func (b *Breaker) RecordLoss(amount schema.Amount, now int64) bool {
	b.rollover(now)
	if amount > 0 {
		b.dailyLoss += amount
	}
	if b.paused {
		return true
	}
	if b.snapshotTotalAssets > 0 &&
		schema.BpsOf(int64(b.dailyLoss), int64(b.snapshotTotalAssets)) >= b.maxDailyLossBps {
		b.paused = true
		b.pausedAt = now
		b.pausedManually = false
	}
	return b.paused
}

// RecordProfit drains the daily accumulator, floored at zero. An existing
// pause is never cleared by profit.
func (b *Breaker) RecordProfit(amount schema.Amount, now int64) {
	b.rollover(now)
	if amount <= 0 {
		return
	}
	if amount >= b.dailyLoss {
		b.dailyLoss = 0
		return
	}
	b.dailyLoss -= amount
}

// EmergencyPause trips the gate regardless of accumulated losses. A manual
// pause never auto-clears.
func (b *Breaker) EmergencyPause(now int64) {
	b.paused = true
	b.pausedAt = now
	b.pausedManually = true
}

// ManualUnpause clears the gate once the cooldown has elapsed. Calling it
// when the gate is already clear is a no-op.
func (b *Breaker) ManualUnpause(now int64) error {
	if !b.paused {
		return nil
	}
	if now < b.pausedAt+b.unpauseCooldown {
		return ErrCooldownActive
	}
	b.paused = false
	b.pausedAt = 0
	b.pausedManually = false
	return nil
}

// UpdateSnapshot rebases the loss-percentage denominator. It takes effect
// at most once per day boundary.
func (b *Breaker) UpdateSnapshot(totalAssets schema.Amount, now int64) {
	b.rollover(now)
	day := dayStart(now)
	if day <= b.lastSnapshotDay && b.snapshotTotalAssets != 0 {
		return
	}
	b.snapshotTotalAssets = totalAssets
	b.lastSnapshotDay = day
}

// ForceReset zeroes the tracking state. Operator recovery path.
func (b *Breaker) ForceReset(now int64) {
	b.dailyLoss = 0
	b.lastReset = dayStart(now)
	b.paused = false
	b.pausedAt = 0
	b.pausedManually = false
}

// SetMaxDailyLossBps replaces the daily loss threshold.
func (b *Breaker) SetMaxDailyLossBps(bps int64) error {
	if bps <= 0 || bps > schema.BPS {
		return ErrInvalidLimit
	}
	b.maxDailyLossBps = bps
	return nil
}

// SetUnpauseCooldown replaces the manual unpause cooldown in seconds.
func (b *Breaker) SetUnpauseCooldown(seconds int64) error {
	if seconds < 0 {
		return ErrInvalidLimit
	}
	b.unpauseCooldown = seconds
	return nil
}

// DailyLoss returns the accumulated loss in the current window.
func (b *Breaker) DailyLoss() schema.Amount {
	return b.dailyLoss
}

// Snapshot returns the loss-percentage denominator.
func (b *Breaker) Snapshot() schema.Amount {
	return b.snapshotTotalAssets
}
