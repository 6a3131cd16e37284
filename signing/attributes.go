package signing

import (
	"sync"
	"time"
)

// AttrClockOffset is the Attributes key under which the clock offset is
// shared with legacy signers.
const AttrClockOffset = "clock-offset"

// Attributes is the request-scoped mutable attribute bag shared between
// the dispatcher and legacy signers. It is safe for concurrent use.
type Attributes struct {
	mu     sync.Mutex
	values map[string]any
}

// NewAttributes returns an empty attribute bag.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (a *Attributes) Set(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[key] = value
}

// ClockOffset returns the shared clock offset, or zero when unset.
func (a *Attributes) ClockOffset() time.Duration {
	v, ok := a.Get(AttrClockOffset)
	if !ok {
		return 0
	}
	d, _ := v.(time.Duration)
	return d
}

// SetClockOffset stores the shared clock offset.
func (a *Attributes) SetClockOffset(d time.Duration) {
	a.Set(AttrClockOffset, d)
}
