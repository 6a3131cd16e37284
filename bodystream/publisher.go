package bodystream

import "sync"

// publisher is a single-subscriber, demand-driven event queue. Items are
// buffered until the subscriber has requested them; each delivered item
// may carry an acknowledgement callback invoked after the subscriber has
// accepted it. A terminal completion or error event is delivered after
// all queued items, regardless of outstanding demand.
//
// All callbacks run on the goroutine that happens to be flushing the
// queue; a flushing flag keeps reentrant Request/send calls from
// delivering out of order.
type publisher[T any] struct {
	mu       sync.Mutex
	next     func(T)
	complete func()
	fail     func(error)

	demand     int64
	queue      []event[T]
	terminated bool
	closed     bool
	flushing   bool
}

type event[T any] struct {
	item     T
	ack      func(error)
	terminal bool
	err      error
}

// subscribe attaches the subscriber callbacks and returns the
// subscription handle. A publisher accepts exactly one subscriber.
func (p *publisher[T]) subscribe(next func(T), complete func(), fail func(error)) (Subscription, error) {
	p.mu.Lock()
	if p.next != nil {
		p.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	p.next = next
	p.complete = complete
	p.fail = fail
	p.mu.Unlock()

	return &pubSubscription[T]{p: p}, nil
}

// send queues one item for delivery. ack, when non-nil, is invoked with
// nil once the subscriber has accepted the item, or with an error if the
// item is dropped by cancellation.
func (p *publisher[T]) send(item T, ack func(error)) error {
	p.mu.Lock()
	if p.terminated || p.closed {
		p.mu.Unlock()
		if ack != nil {
			ack(ErrStreamClosed)
		}
		return ErrStreamClosed
	}
	p.queue = append(p.queue, event[T]{item: item, ack: ack})
	p.mu.Unlock()

	p.flush()
	return nil
}

// completeWith queues the terminal completion event. ack, when non-nil,
// fires once the completion has been delivered to the subscriber.
func (p *publisher[T]) completeWith(ack func(error)) {
	p.terminate(event[T]{terminal: true, ack: ack})
}

// errorWith queues the terminal error event. Repeated terminal events
// are ignored.
func (p *publisher[T]) errorWith(err error) {
	p.terminate(event[T]{terminal: true, err: err})
}

func (p *publisher[T]) terminate(ev event[T]) {
	p.mu.Lock()
	if p.terminated || p.closed {
		p.mu.Unlock()
		if ev.ack != nil {
			ev.ack(ErrStreamClosed)
		}
		return
	}
	p.terminated = true
	p.queue = append(p.queue, ev)
	p.mu.Unlock()

	p.flush()
}

func (p *publisher[T]) request(n int64) {
	if n <= 0 {
		p.errorWith(ErrInvalidDemand)
		return
	}

	p.mu.Lock()
	p.demand += n
	p.mu.Unlock()

	p.flush()
}

// cancel drops the subscriber and fails every pending acknowledgement
// with ErrCancelled. No terminal signal is delivered afterward.
func (p *publisher[T]) cancel() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	pending := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, ev := range pending {
		if ev.ack != nil {
			ev.ack(ErrCancelled)
		}
	}
}

func (p *publisher[T]) flush() {
	p.mu.Lock()
	if p.flushing || p.next == nil {
		p.mu.Unlock()
		return
	}
	p.flushing = true

	for !p.closed && len(p.queue) > 0 {
		ev := p.queue[0]
		if !ev.terminal && p.demand == 0 {
			break
		}
		p.queue = p.queue[1:]

		if ev.terminal {
			p.closed = true
			complete, fail := p.complete, p.fail
			p.mu.Unlock()

			if ev.err != nil {
				fail(ev.err)
			} else {
				complete()
			}
			if ev.ack != nil {
				ev.ack(nil)
			}

			p.mu.Lock()
			continue
		}

		p.demand--
		next := p.next
		p.mu.Unlock()

		next(ev.item)
		if ev.ack != nil {
			ev.ack(nil)
		}

		p.mu.Lock()
	}

	p.flushing = false
	p.mu.Unlock()
}

type pubSubscription[T any] struct {
	p *publisher[T]
}

func (s *pubSubscription[T]) Request(n int64) {
	s.p.request(n)
}

func (s *pubSubscription[T]) Cancel() {
	s.p.cancel()
}
