package tcserver

import "github.com/agopengps/tc-bridge/pkg/ddop"

// Partner identifies a remote ISO 11783 control function by a stable
// opaque handle. Per spec.md §9 the server never holds an owning pointer
// into the CAN stack's own partner bookkeeping; the stack hands back this
// handle on every callback and the server keys its own maps with it.
type Partner uint64

// ClientState is the per-partner state the core maintains between pool
// upload and teardown (spec.md §3).
type ClientState struct {
	Pool *ddop.Pool

	NumberOfSections int
	SectionSetpoint  []SectionState
	SectionActual    []SectionState

	SetpointWorkState bool
	ActualWorkState   bool

	SectionControlEnabled   bool
	MeasurementCommandsSent bool

	DDIToElementNumber map[uint16]uint16
	// ElementWorkState is storage only: no inbound hook (OnValueCommand or
	// any other) writes to it.
	ElementWorkState map[uint16]bool

	// dirtyWindow tracks which 16-section setpoint windows have buffered
	// changes since their last flush (spec.md §4.1.2).
	dirtyWindow [condensedWorkStateWindows]bool
}

func newClientState(pool *ddop.Pool, numberOfSections int) *ClientState {
	cs := &ClientState{
		Pool:               pool,
		DDIToElementNumber: make(map[uint16]uint16),
		ElementWorkState:   make(map[uint16]bool),
	}
	cs.resize(numberOfSections)
	return cs
}

// maxSections is the upper bound spec.md §3 places on NumberOfSections:
// "derived from geometry at activation, bounded by [0, 256]".
const maxSections = 256

// resize grows or shrinks both section vectors to n, preserving existing
// entries and filling new ones as NotInstalled, maintaining the
// section-vector invariant (spec.md §8 property 1). n is clamped to
// [0, maxSections] per spec.md §3; a pathological pool advertising more
// sections than the protocol allows is silently truncated rather than
// exceeding the bound.
func (c *ClientState) resize(n int) {
	if n < 0 {
		n = 0
	} else if n > maxSections {
		n = maxSections
	}
	c.NumberOfSections = n
	c.SectionSetpoint = resizeSectionVector(c.SectionSetpoint, n)
	c.SectionActual = resizeSectionVector(c.SectionActual, n)
}

func resizeSectionVector(v []SectionState, n int) []SectionState {
	out := make([]SectionState, n)
	for i := range out {
		out[i] = SectionNotInstalled
	}
	copy(out, v)
	return out
}

// SetpointAt returns NotInstalled for any index at or past NumberOfSections
// (spec.md §8 property 2), never panicking on an out-of-range read.
func (c *ClientState) SetpointAt(i int) SectionState {
	if i < 0 || i >= len(c.SectionSetpoint) {
		return SectionNotInstalled
	}
	return c.SectionSetpoint[i]
}

// ActualAt is the read-side counterpart of SetpointAt.
func (c *ClientState) ActualAt(i int) SectionState {
	if i < 0 || i >= len(c.SectionActual) {
		return SectionNotInstalled
	}
	return c.SectionActual[i]
}

// SetSetpoint writes a setpoint state, silently dropping writes at or past
// NumberOfSections (spec.md §3 invariants).
func (c *ClientState) SetSetpoint(i int, s SectionState) {
	if i < 0 || i >= len(c.SectionSetpoint) {
		return
	}
	c.SectionSetpoint[i] = s
}

// SetActual is the counterpart for on_value_command-driven actual-state
// writes.
func (c *ClientState) SetActual(i int, s SectionState) {
	if i < 0 || i >= len(c.SectionActual) {
		return
	}
	c.SectionActual[i] = s
}
