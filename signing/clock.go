package signing

import "time"

// Clock supplies the timestamp used when signing a request.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// OffsetClock returns a Clock that reads base shifted backward by
// offset, compensating for skew between the client and the server.
func OffsetClock(base Clock, offset time.Duration) Clock {
	if base == nil {
		base = SystemClock()
	}
	return ClockFunc(func() time.Time {
		return base.Now().Add(-offset)
	})
}
