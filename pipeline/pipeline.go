package pipeline

import (
	"context"
	"net/http"

	"github.com/vitalvas/httpflow/bodystream"
	"github.com/vitalvas/httpflow/signing"
)

// Pipeline executes outbound request attempts: sign, then split the
// streaming body when it is large or of unknown length.
type Pipeline struct {
	cfg     Config
	signCfg signing.ContextConfig
}

// New returns a Pipeline with validated split bounds.
func New(cfg Config, signCfg signing.ContextConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:     cfg,
		signCfg: signCfg,
	}, nil
}

// Attempt is the outcome of one executed attempt.
type Attempt struct {
	// Request is the signed request to transmit.
	Request *http.Request

	// Parts carries the split body stream, or nil when the body was
	// small enough to transmit whole. When the signer replaced the
	// body, the split consumes the replacement.
	Parts *bodystream.Splitter

	// Context is the attempt's execution context; its request and body
	// slots reflect the signed state.
	Context *signing.ExecutionContext
}

// Execute signs req with a fresh execution context and, when body is set
// and large or of unknown length, splits the signed body into bounded
// parts. A nil body means the request has no streaming payload.
//
// A body Source is never reused across attempts: callers retrying a
// request must supply a fresh body for each Execute call.
func (p *Pipeline) Execute(ctx context.Context, req *http.Request, body bodystream.Source) (*Attempt, error) {
	ec := signing.NewExecutionContext(p.signCfg)
	if body != nil {
		ec.SetBody(body)
	}

	signed, err := signing.SignAttempt(ctx, req, ec)
	if err != nil {
		return nil, err
	}

	attempt := &Attempt{
		Request: signed,
		Context: ec,
	}

	out := ec.Body()
	if out == nil || !p.shouldSplit(out) {
		return attempt, nil
	}

	splitter, err := bodystream.Split(ctx, out, bodystream.SplitConfig{
		ChunkSize:    p.cfg.ChunkSize,
		MemoryBudget: p.cfg.MemoryBudget,
	})
	if err != nil {
		return nil, err
	}

	attempt.Parts = splitter
	return attempt, nil
}

func (p *Pipeline) shouldSplit(body bodystream.Source) bool {
	n, known := body.ContentLength()
	if !known {
		return true
	}
	return n > p.cfg.SplitThreshold
}
