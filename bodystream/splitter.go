package bodystream

import (
	"context"
	"sync"
	"sync/atomic"
)

// SplitConfig bounds a Split operation.
type SplitConfig struct {
	// ChunkSize is the byte budget assigned to each part. Must be
	// positive.
	ChunkSize int64

	// MemoryBudget caps the bytes forwarded to parts but not yet
	// accepted by their subscribers. The splitter stops requesting
	// upstream buffers while admitting another buffer of the last-seen
	// size would exceed the budget, so actual usage may overshoot by at
	// most one buffer. Must be positive.
	MemoryBudget int64
}

// PartSubscriber receives the parts produced by a Splitter, strictly in
// ascending part-number order.
type PartSubscriber interface {
	OnSubscribe(s Subscription)
	OnPart(p *Part)
	OnComplete()
	OnError(err error)
}

// Part is one bounded sub-stream of a split Source. It implements Source
// and delivers its bytes in the order received from the parent.
type Part struct {
	number      int
	maxLength   int64
	declared    int64
	known       bool
	transferred atomic.Int64
	complete    atomic.Bool
	pub         publisher[[]byte]
}

// Number returns the zero-based sequence number of the part.
func (p *Part) Number() int {
	return p.number
}

// MaxLength returns the byte budget assigned to the part. The part
// carries at most this many bytes; the final part of a source may carry
// fewer.
func (p *Part) MaxLength() int64 {
	return p.maxLength
}

// ContentLength reports the part's length. For parts of a known-length
// source the length is known from creation. Otherwise the second return
// is false until the part is complete, after which the length equals the
// bytes actually written to it.
func (p *Part) ContentLength() (int64, bool) {
	if p.known {
		return p.declared, true
	}
	if p.complete.Load() {
		return p.transferred.Load(), true
	}
	return p.transferred.Load(), false
}

// Subscribe attaches the subscriber to the part's byte stream.
func (p *Part) Subscribe(s Subscriber) {
	sub, err := p.pub.subscribe(s.OnNext, s.OnComplete, s.OnError)
	if err != nil {
		s.OnError(err)
		return
	}
	s.OnSubscribe(sub)
}

// Splitter republishes one Source as a sequence of bounded Parts. Use
// Split to create one.
type Splitter struct {
	chunkSize int64
	budget    int64

	upstreamLen   int64
	upstreamKnown bool

	parts publisher[*Part]

	mu           sync.Mutex
	upstream     Subscription
	current      *Part
	partNumber   int
	buffered     int64
	openDemand   bool
	sizeHint     int64
	upstreamDone bool
	cancelled    bool

	done       chan struct{}
	settleOnce sync.Once
	err        error
}

// Split consumes src and republishes it as bounded parts. It validates
// the configuration before subscribing upstream and begins consuming
// immediately; parts are buffered until a PartSubscriber attaches and
// requests them.
//
// Cancelling ctx cancels the upstream subscription and fails the part
// stream with ctx's error.
func Split(ctx context.Context, src Source, cfg SplitConfig) (*Splitter, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if cfg.ChunkSize <= 0 {
		return nil, ErrChunkSize
	}
	if cfg.MemoryBudget <= 0 {
		return nil, ErrMemoryBudget
	}

	s := &Splitter{
		chunkSize: cfg.ChunkSize,
		budget:    cfg.MemoryBudget,
		done:      make(chan struct{}),
	}
	s.upstreamLen, s.upstreamKnown = src.ContentLength()

	go func() {
		select {
		case <-ctx.Done():
			s.cancel(ctx.Err())
		case <-s.done:
		}
	}()

	src.Subscribe((*splitterSubscriber)(s))
	return s, nil
}

// Subscribe attaches the part subscriber. A splitter accepts exactly one.
func (s *Splitter) Subscribe(ps PartSubscriber) {
	sub, err := s.parts.subscribe(ps.OnPart, ps.OnComplete, ps.OnError)
	if err != nil {
		ps.OnError(err)
		return
	}
	ps.OnSubscribe(sub)
}

// Done is closed once every part has been delivered and the part stream
// has terminated, whether normally, by upstream failure, or by
// cancellation.
func (s *Splitter) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error, if any. It is meaningful only after
// Done is closed.
func (s *Splitter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Splitter) settle(err error) {
	s.settleOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *Splitter) cancel(err error) {
	s.mu.Lock()
	s.cancelled = true
	up := s.upstream
	cur := s.current
	s.mu.Unlock()

	if up != nil {
		up.Cancel()
	}
	if cur != nil {
		cur.pub.errorWith(err)
	}
	s.parts.errorWith(err)
	s.settle(err)
}

// partSize returns the byte budget for the part numbered num.
func (s *Splitter) partSize(num int) int64 {
	if !s.upstreamKnown {
		return s.chunkSize
	}
	remaining := s.upstreamLen - int64(num)*s.chunkSize
	return min(s.chunkSize, remaining)
}

// newPart creates the part numbered num and, when the upstream length is
// known, publishes it downstream immediately so its length is observable
// before its bytes arrive.
func (s *Splitter) newPart(num int) *Part {
	p := &Part{
		number:    num,
		maxLength: s.partSize(num),
		known:     s.upstreamKnown,
	}
	if s.upstreamKnown {
		p.declared = p.maxLength
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	if s.upstreamKnown {
		s.publishPart(p)
	}
	return p
}

func (s *Splitter) publishPart(p *Part) {
	s.parts.send(p, func(err error) {
		if err != nil {
			s.parts.errorWith(err)
		}
	})
}

// completePart marks the part complete. Parts of unknown-length sources
// are published only now, once their length is settled.
func (s *Splitter) completePart(p *Part) {
	p.complete.Store(true)
	p.pub.completeWith(func(err error) {
		if err != nil {
			p.pub.errorWith(err)
		}
	})
	if !s.upstreamKnown {
		s.publishPart(p)
	}
}

// forward hands buf to the part, accounting it against the memory budget
// until the part's subscriber accepts it.
func (s *Splitter) forward(p *Part, buf []byte) {
	n := int64(len(buf))
	p.transferred.Add(n)
	s.addBuffered(n)
	p.pub.send(buf, func(err error) {
		s.addBuffered(-n)
		if err != nil {
			p.pub.errorWith(err)
		}
	})
}

func (s *Splitter) addBuffered(n int64) {
	s.mu.Lock()
	s.buffered += n
	s.mu.Unlock()
	if n < 0 {
		s.maybeRequestMore()
	}
}

// maybeRequestMore requests exactly one more upstream buffer when
// nothing is buffered, or when admitting another buffer of the last-seen
// size would stay under the memory budget. At most one request is ever
// outstanding.
func (s *Splitter) maybeRequestMore() {
	s.mu.Lock()
	ok := s.buffered == 0 || s.buffered+s.sizeHint < s.budget
	if !ok || s.openDemand || s.upstreamDone || s.cancelled {
		s.mu.Unlock()
		return
	}
	s.openDemand = true
	up := s.upstream
	s.mu.Unlock()

	up.Request(1)
}

// splitterSubscriber is the Splitter's upstream face. Upstream signals
// arrive serially per the Subscriber contract.
type splitterSubscriber Splitter

func (ss *splitterSubscriber) OnSubscribe(sub Subscription) {
	s := (*Splitter)(ss)

	s.mu.Lock()
	s.upstream = sub
	cancelled := s.cancelled
	s.mu.Unlock()

	if cancelled {
		sub.Cancel()
		return
	}

	// The first part must exist before requesting, because the source
	// may deliver synchronously.
	s.newPart(0)

	s.mu.Lock()
	s.openDemand = true
	s.mu.Unlock()
	sub.Request(1)
}

func (ss *splitterSubscriber) OnNext(buf []byte) {
	s := (*Splitter)(ss)

	s.mu.Lock()
	s.openDemand = false
	s.sizeHint = int64(len(buf))
	cur := s.current
	s.mu.Unlock()

	// Carve the whole buffer into parts before returning to the source.
	for {
		remaining := cur.maxLength - cur.transferred.Load()
		if remaining == 0 {
			s.completePart(cur)

			s.mu.Lock()
			more := !s.upstreamDone || len(buf) > 0
			s.partNumber++
			num := s.partNumber
			s.mu.Unlock()

			if more {
				cur = s.newPart(num)
				remaining = cur.maxLength
			}
		}

		if remaining >= int64(len(buf)) {
			s.forward(cur, buf)
			break
		}

		s.forward(cur, buf[:remaining])
		buf = buf[remaining:]
	}

	s.maybeRequestMore()
}

func (ss *splitterSubscriber) OnComplete() {
	s := (*Splitter)(ss)

	s.mu.Lock()
	s.upstreamDone = true
	cur := s.current
	s.mu.Unlock()

	s.completePart(cur)
	s.parts.completeWith(func(err error) {
		s.settle(err)
	})
}

func (ss *splitterSubscriber) OnError(err error) {
	s := (*Splitter)(ss)

	s.mu.Lock()
	s.upstreamDone = true
	cur := s.current
	s.mu.Unlock()

	// No partial recovery: the open part and the part stream both fail.
	cur.pub.errorWith(err)
	s.parts.errorWith(err)
	s.settle(err)
}
