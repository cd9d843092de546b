package position

import (
	"errors"

	"github.com/google/uuid"

	"riskcore/internal/schema"
)

var (
	ErrNotFound  = errors.New("position: not found")
	ErrDuplicate = errors.New("position: id already exists")
	ErrInvalidID = errors.New("position: empty id")
)

// Kind is the category of an open position.
type Kind uint8

const (
	KindSpot Kind = iota
	KindSupply
	KindStake
	KindLeveraged
)

func (k Kind) String() string {
	switch k {
	case KindSpot:
		return "Spot"
	case KindSupply:
		return "Supply"
	case KindStake:
		return "Stake"
	case KindLeveraged:
		return "Leveraged"
	default:
		return "Unknown"
	}
}

// Position is one live exposure opened under a right.
type Position struct {
	ID            string
	RightID       schema.RightID
	Adapter       string
	Asset         string
	Size          int64
	EntryValueUsd schema.Notional
	Kind          Kind
	Timestamp     int64
}

type slotRef struct {
	rightID schema.RightID
	slot    int
}

// Ledger stores open positions per right in dense slices with an id→slot
// map. Removal swaps the last element into the freed slot, so iteration
// order does not preserve insertion order.
type Ledger struct {
	byRight map[schema.RightID][]Position
	index   map[string]slotRef
}

// NewLedger creates an empty position ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byRight: make(map[schema.RightID][]Position),
		index:   make(map[string]slotRef),
	}
}

// Record appends a position under a generated id and returns the id.
func (l *Ledger) Record(p Position) (string, error) {
	p.ID = uuid.NewString()
	return p.ID, l.insert(p)
}

// RecordWithID appends a position under an externally supplied id.
func (l *Ledger) RecordWithID(id string, p Position) error {
	if id == "" {
		return ErrInvalidID
	}
	p.ID = id
	return l.insert(p)
}

func (l *Ledger) insert(p Position) error {
	if _, ok := l.index[p.ID]; ok {
		return ErrDuplicate
	}
	arr := l.byRight[p.RightID]
	l.index[p.ID] = slotRef{rightID: p.RightID, slot: len(arr)}
	l.byRight[p.RightID] = append(arr, p)
	return nil
}

// Get returns a copy of a live position.
func (l *Ledger) Get(id string) (Position, error) {
	ref, ok := l.index[id]
	if !ok {
		return Position{}, ErrNotFound
	}
	return l.byRight[ref.rightID][ref.slot], nil
}

// Update mutates a position's size and entry value in place without
// touching ordering.
func (l *Ledger) Update(id string, size int64, entryValueUsd schema.Notional) error {
	ref, ok := l.index[id]
	if !ok {
		return ErrNotFound
	}
	p := &l.byRight[ref.rightID][ref.slot]
	p.Size = size
	p.EntryValueUsd = entryValueUsd
	return nil
}

// Close removes a position and returns it. The last element of the
// right's slice is swapped into the freed slot, its index entry is
// repointed, and the slice shrinks by one: O(1) regardless of count.
func (l *Ledger) Close(id string) (Position, error) {
	ref, ok := l.index[id]
	if !ok {
		return Position{}, ErrNotFound
	}
	arr := l.byRight[ref.rightID]
	closed := arr[ref.slot]
	last := len(arr) - 1
	if ref.slot != last {
		moved := arr[last]
		arr[ref.slot] = moved
		l.index[moved.ID] = slotRef{rightID: ref.rightID, slot: ref.slot}
	}
	arr = arr[:last]
	if len(arr) == 0 {
		delete(l.byRight, ref.rightID)
	} else {
		l.byRight[ref.rightID] = arr
	}
	delete(l.index, id)
	return closed, nil
}

// CloseAll clears a right's positions and all of their id mappings.
func (l *Ledger) CloseAll(rightID schema.RightID) []Position {
	arr := l.byRight[rightID]
	if len(arr) == 0 {
		return nil
	}
	closed := make([]Position, len(arr))
	copy(closed, arr)
	for _, p := range arr {
		delete(l.index, p.ID)
	}
	delete(l.byRight, rightID)
	return closed
}

// Positions returns a copy of a right's live positions.
func (l *Ledger) Positions(rightID schema.RightID) []Position {
	arr := l.byRight[rightID]
	if len(arr) == 0 {
		return nil
	}
	out := make([]Position, len(arr))
	copy(out, arr)
	return out
}

// Count returns the number of live positions under a right.
func (l *Ledger) Count(rightID schema.RightID) int {
	return len(l.byRight[rightID])
}
