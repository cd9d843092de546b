package obs

import (
	"sync/atomic"
	"time"

	"riskcore/internal/schema"
)

const (
	maxActionKind = int(schema.ActionLeveragedOpen)
	maxReason     = int(schema.MaxReason)
)

// Metrics collects lightweight counters and latency stats for the
// validation and execution paths.
type Metrics struct {
	actionCounts [maxActionKind + 1]uint64
	actionFails  [maxActionKind + 1]uint64
	reasonCounts [maxReason + 1]uint64

	validateLatency LatencyStats
	executeLatency  LatencyStats
	settleLatency   LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	ActionCounts    map[schema.ActionKind]uint64
	ActionFails     map[schema.ActionKind]uint64
	ReasonCounts    map[schema.Reason]uint64
	ValidateLatency LatencySnapshot
	ExecuteLatency  LatencySnapshot
	SettleLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncAction counts one executed action by kind and outcome.
func (m *Metrics) IncAction(kind schema.ActionKind, ok bool) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx < 0 || idx >= len(m.actionCounts) {
		return
	}
	if ok {
		atomic.AddUint64(&m.actionCounts[idx], 1)
	} else {
		atomic.AddUint64(&m.actionFails[idx], 1)
	}
}

// IncReason counts one validation denial by reason. ReasonNone is skipped.
func (m *Metrics) IncReason(reason schema.Reason) {
	if m == nil || reason == schema.ReasonNone {
		return
	}
	idx := int(reason)
	if idx >= 0 && idx < len(m.reasonCounts) {
		atomic.AddUint64(&m.reasonCounts[idx], 1)
	}
}

// ObserveValidate measures one validation pass.
func (m *Metrics) ObserveValidate(d time.Duration) {
	if m == nil {
		return
	}
	m.validateLatency.Observe(d)
}

// ObserveExecute measures one execution unit.
func (m *Metrics) ObserveExecute(d time.Duration) {
	if m == nil {
		return
	}
	m.executeLatency.Observe(d)
}

// ObserveSettle measures one settlement.
func (m *Metrics) ObserveSettle(d time.Duration) {
	if m == nil {
		return
	}
	m.settleLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	actions := make(map[schema.ActionKind]uint64)
	fails := make(map[schema.ActionKind]uint64)
	for i := range m.actionCounts {
		if v := atomic.LoadUint64(&m.actionCounts[i]); v > 0 {
			actions[schema.ActionKind(i)] = v
		}
		if v := atomic.LoadUint64(&m.actionFails[i]); v > 0 {
			fails[schema.ActionKind(i)] = v
		}
	}
	reasons := make(map[schema.Reason]uint64)
	for i := range m.reasonCounts {
		if v := atomic.LoadUint64(&m.reasonCounts[i]); v > 0 {
			reasons[schema.Reason(i)] = v
		}
	}
	return Snapshot{
		ActionCounts:    actions,
		ActionFails:     fails,
		ReasonCounts:    reasons,
		ValidateLatency: m.validateLatency.Snapshot(),
		ExecuteLatency:  m.executeLatency.Snapshot(),
		SettleLatency:   m.settleLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
