package signing

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitalvas/httpflow/bodystream"
)

// ContextConfig configures a new ExecutionContext.
type ContextConfig struct {
	// Scheme is the negotiated auth scheme. When set, its signer takes
	// precedence over LegacySigner.
	Scheme *SelectedScheme

	// LegacySigner is consulted only when no scheme is selected.
	LegacySigner LegacySigner

	// Metrics receives the signing duration metric. Defaults to
	// NopCollector.
	Metrics Collector

	// Clock is the base clock used to synthesize signing clocks.
	// Defaults to SystemClock.
	Clock Clock

	// Attributes is the shared attribute bag handed to legacy signers.
	// A fresh bag is created when nil.
	Attributes *Attributes
}

// ExecutionContext carries the per-attempt signing state: the selected
// scheme or legacy signer, the mutable clock offset, the shared
// attribute bag, and the interceptor-visible request and body slots.
//
// The request and body slots always reflect the pipeline's current view
// of the attempt: SignAttempt updates them before invoking a signer and
// again with the signed result, so observers see a consistent state even
// when signing fails.
type ExecutionContext struct {
	attemptID string
	scheme    *SelectedScheme
	legacy    LegacySigner
	metrics   Collector
	clock     Clock
	attrs     *Attributes

	mu          sync.Mutex
	clockOffset time.Duration
	request     *http.Request
	body        bodystream.Source
}

// NewExecutionContext returns a context for one request attempt.
func NewExecutionContext(cfg ContextConfig) *ExecutionContext {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopCollector{}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	attrs := cfg.Attributes
	if attrs == nil {
		attrs = NewAttributes()
	}

	return &ExecutionContext{
		attemptID: uuid.Must(uuid.NewV7()).String(),
		scheme:    cfg.Scheme,
		legacy:    cfg.LegacySigner,
		metrics:   metrics,
		clock:     clock,
		attrs:     attrs,
	}
}

// AttemptID returns the unique identifier of this attempt.
func (ec *ExecutionContext) AttemptID() string {
	return ec.attemptID
}

// Attributes returns the shared attribute bag.
func (ec *ExecutionContext) Attributes() *Attributes {
	return ec.attrs
}

// ClockOffset returns the current clock-offset correction.
func (ec *ExecutionContext) ClockOffset() time.Duration {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.clockOffset
}

// SetClockOffset updates the clock-offset correction applied to
// synthesized signing clocks.
func (ec *ExecutionContext) SetClockOffset(d time.Duration) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.clockOffset = d
}

// Request returns the pipeline's current view of the outbound request.
func (ec *ExecutionContext) Request() *http.Request {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.request
}

// SetRequest replaces the pipeline's current view of the outbound
// request.
func (ec *ExecutionContext) SetRequest(req *http.Request) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.request = req
}

// Body returns the pipeline's current view of the streaming body, or nil
// when the attempt has none.
func (ec *ExecutionContext) Body() bodystream.Source {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.body
}

// SetBody replaces the pipeline's current view of the streaming body.
func (ec *ExecutionContext) SetBody(body bodystream.Source) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.body = body
}
