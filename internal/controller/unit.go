package controller

// unit is the transaction boundary around one execution call. Every
// committed mutation pushes its inverse; a failure anywhere unwinds the
// whole unit in reverse order, so no partial application is observable.
type unit struct {
	undo     []func()
	onCommit []func()
}

// push records the inverse of a mutation that just succeeded.
func (u *unit) push(fn func()) {
	u.undo = append(u.undo, fn)
}

// after defers a side effect (journaling) until the unit commits.
func (u *unit) after(fn func()) {
	u.onCommit = append(u.onCommit, fn)
}

// rollback unwinds all recorded mutations, most recent first.
func (u *unit) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
	u.onCommit = nil
}

// commit runs the deferred side effects.
func (u *unit) commit() {
	for _, fn := range u.onCommit {
		fn()
	}
	u.onCommit = nil
}
