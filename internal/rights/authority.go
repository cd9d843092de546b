// Package rights implements the right-issuing authority. It owns right
// issuance and every status transition; the controller only reads rights
// and records capital deployment and PnL through gated entry points.
package rights

import (
	"errors"

	"riskcore/internal/schema"
)

var (
	ErrNotAuthorized     = errors.New("rights: caller not authorized")
	ErrNotFound          = errors.New("rights: right not found")
	ErrInvalidTransition = errors.New("rights: invalid status transition")
	ErrInvalidRight      = errors.New("rights: invalid right parameters")
)

// Config wires the authority's gating principals.
type Config struct {
	Issuer     schema.Principal
	Settlement schema.Principal
	Controller schema.Principal
}

// Authority issues and tracks execution rights.
type Authority struct {
	cfg    Config
	rights map[schema.RightID]*schema.Right
	nextID schema.RightID
}

// New creates an empty authority.
func New(cfg Config) *Authority {
	return &Authority{
		cfg:    cfg,
		rights: make(map[schema.RightID]*schema.Right),
		nextID: 1,
	}
}

// Issue creates a Pending right for a holder. Issuer-only.
func (a *Authority) Issue(caller schema.Principal, holder schema.Principal, capitalLimit schema.Amount, expiry int64, constraints schema.Constraints) (schema.RightID, error) {
	if caller != a.cfg.Issuer {
		return 0, ErrNotAuthorized
	}
	if holder == "" || capitalLimit <= 0 {
		return 0, ErrInvalidRight
	}
	id := a.nextID
	a.nextID++
	a.rights[id] = &schema.Right{
		ID:           id,
		Holder:       holder,
		CapitalLimit: capitalLimit,
		Expiry:       expiry,
		Status:       schema.StatusPending,
		Constraints:  constraints,
	}
	return id, nil
}

// Activate moves a Pending right to Active. Issuer-only.
func (a *Authority) Activate(caller schema.Principal, id schema.RightID) error {
	if caller != a.cfg.Issuer {
		return ErrNotAuthorized
	}
	r, ok := a.rights[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != schema.StatusPending {
		return ErrInvalidTransition
	}
	r.Status = schema.StatusActive
	return nil
}

// UpdateStatus transitions a right's status. Issuer or settlement only.
// Terminal states (Settled, Liquidated) cannot transition away.
func (a *Authority) UpdateStatus(caller schema.Principal, id schema.RightID, status schema.RightStatus) error {
	if caller != a.cfg.Issuer && caller != a.cfg.Settlement {
		return ErrNotAuthorized
	}
	r, ok := a.rights[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status == schema.StatusSettled || r.Status == schema.StatusLiquidated {
		return ErrInvalidTransition
	}
	r.Status = status
	return nil
}

// MarkLiquidated flags a right as liquidated. Settlement-only.
func (a *Authority) MarkLiquidated(caller schema.Principal, id schema.RightID) error {
	if caller != a.cfg.Settlement {
		return ErrNotAuthorized
	}
	r, ok := a.rights[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status == schema.StatusSettled || r.Status == schema.StatusLiquidated {
		return ErrInvalidTransition
	}
	r.Status = schema.StatusLiquidated
	return nil
}

// Right returns a copy of a right.
func (a *Authority) Right(id schema.RightID) (schema.Right, bool) {
	r, ok := a.rights[id]
	if !ok {
		return schema.Right{}, false
	}
	return *r, true
}

// IsValid reports whether a right may execute actions at the given time.
func (a *Authority) IsValid(id schema.RightID, now int64) bool {
	r, ok := a.rights[id]
	if !ok {
		return false
	}
	return r.Status == schema.StatusActive && !r.Expired(now)
}

// RecordDeployment adjusts a right's cumulative deployed capital.
// Controller-only; negative deltas unwind rolled-back deployments.
func (a *Authority) RecordDeployment(caller schema.Principal, id schema.RightID, delta schema.Amount) error {
	if caller != a.cfg.Controller {
		return ErrNotAuthorized
	}
	r, ok := a.rights[id]
	if !ok {
		return ErrNotFound
	}
	next := r.CapitalDeployed + delta
	if next < 0 {
		next = 0
	}
	r.CapitalDeployed = next
	return nil
}

// AddRealizedPnl accumulates realized PnL onto a right. Settlement-only.
func (a *Authority) AddRealizedPnl(caller schema.Principal, id schema.RightID, pnl schema.Notional) error {
	if caller != a.cfg.Settlement {
		return ErrNotAuthorized
	}
	r, ok := a.rights[id]
	if !ok {
		return ErrNotFound
	}
	r.RealizedPnl += pnl
	return nil
}

// SetUnrealizedPnl replaces a right's marked unrealized PnL.
// Settlement-only.
func (a *Authority) SetUnrealizedPnl(caller schema.Principal, id schema.RightID, pnl schema.Notional) error {
	if caller != a.cfg.Settlement {
		return ErrNotAuthorized
	}
	r, ok := a.rights[id]
	if !ok {
		return ErrNotFound
	}
	r.UnrealizedPnl = pnl
	return nil
}
