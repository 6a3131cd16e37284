package bodystream

import (
	"io"
	"sync"
)

// readBufferSize is the buffer size used by reader-backed sources for
// each demand unit.
const readBufferSize = 32 * 1024

// Subscription controls the demand and lifetime of one subscriber's view
// of a stream.
type Subscription interface {
	// Request asks the stream to deliver up to n more items. Demand is
	// cumulative across calls.
	Request(n int64)

	// Cancel stops delivery. Items already queued are dropped and no
	// terminal signal is delivered afterward.
	Cancel()
}

// Subscriber receives the buffers of a Source. OnSubscribe is invoked
// exactly once before any other method; buffers arrive in order via
// OnNext, followed by exactly one of OnComplete or OnError.
type Subscriber interface {
	OnSubscribe(s Subscription)
	OnNext(buf []byte)
	OnComplete()
	OnError(err error)
}

// Source is an ordered, finite-or-unbounded asynchronous sequence of
// byte buffers. A source accepts exactly one subscriber and owns its
// buffers until they are delivered; ownership of a delivered buffer
// transfers to the subscriber.
type Source interface {
	// ContentLength reports the total number of bytes the source will
	// deliver, when that is known before any buffer is produced.
	ContentLength() (int64, bool)

	// Subscribe attaches the subscriber and begins the demand protocol.
	Subscribe(s Subscriber)
}

// FromBytes returns a Source that delivers b as a single buffer and
// declares its length up front. The caller must not mutate b afterward.
func FromBytes(b []byte) Source {
	return &bytesSource{data: b}
}

// FromString returns a Source backed by the bytes of s.
func FromString(s string) Source {
	return FromBytes([]byte(s))
}

// Empty returns a zero-length Source with a declared length of zero.
func Empty() Source {
	return FromBytes(nil)
}

type bytesSource struct {
	mu        sync.Mutex
	data      []byte
	sub       Subscriber
	delivered bool
	cancelled bool
}

func (s *bytesSource) ContentLength() (int64, bool) {
	return int64(len(s.data)), true
}

func (s *bytesSource) Subscribe(sub Subscriber) {
	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		sub.OnError(ErrAlreadySubscribed)
		return
	}
	s.sub = sub
	s.mu.Unlock()

	sub.OnSubscribe(s)
}

func (s *bytesSource) Request(n int64) {
	s.mu.Lock()
	sub := s.sub
	if n <= 0 {
		s.mu.Unlock()
		sub.OnError(ErrInvalidDemand)
		return
	}
	if s.delivered || s.cancelled {
		s.mu.Unlock()
		return
	}
	s.delivered = true
	data := s.data
	s.mu.Unlock()

	if len(data) > 0 {
		sub.OnNext(data)
	}
	sub.OnComplete()
}

func (s *bytesSource) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// FromReader returns a Source of unknown length that reads r in chunks
// of up to 32 KiB, one read per demand unit. Reads happen on the
// goroutine that calls Request; an io.EOF terminates the stream cleanly
// and any other read error is delivered via OnError.
func FromReader(r io.Reader) Source {
	return &readerSource{r: r}
}

type readerSource struct {
	mu        sync.Mutex
	r         io.Reader
	sub       Subscriber
	demand    int64
	draining  bool
	done      bool
	cancelled bool
}

func (s *readerSource) ContentLength() (int64, bool) {
	return 0, false
}

func (s *readerSource) Subscribe(sub Subscriber) {
	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		sub.OnError(ErrAlreadySubscribed)
		return
	}
	s.sub = sub
	s.mu.Unlock()

	sub.OnSubscribe(s)
}

func (s *readerSource) Request(n int64) {
	s.mu.Lock()
	sub := s.sub
	if n <= 0 {
		s.mu.Unlock()
		sub.OnError(ErrInvalidDemand)
		return
	}
	s.demand += n
	if s.draining || s.done || s.cancelled {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	s.drain(sub)
}

func (s *readerSource) drain(sub Subscriber) {
	for {
		s.mu.Lock()
		if s.done || s.cancelled || s.demand == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		s.demand--
		s.mu.Unlock()

		buf := make([]byte, readBufferSize)
		n, err := s.r.Read(buf)
		if n > 0 {
			sub.OnNext(buf[:n])
		}
		if err != nil {
			s.mu.Lock()
			s.done = true
			s.draining = false
			cancelled := s.cancelled
			s.mu.Unlock()
			if cancelled {
				return
			}
			if err == io.EOF {
				sub.OnComplete()
			} else {
				sub.OnError(err)
			}
			return
		}
	}
}

func (s *readerSource) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}
