package signing

import (
	"context"
	"net/http"

	"github.com/vitalvas/httpflow/bodystream"
)

// Identity is the caller identity a signer signs on behalf of. Its
// concrete type is an agreement between the scheme and its signer; the
// dispatcher passes it through untouched.
type Identity any

// Properties is the named property bag handed to scheme-selected
// signers.
type Properties map[string]any

// SigningClockProperty is the Properties key under which the signing
// Clock travels. A clock set here by the caller always wins over the
// dispatcher's synthesized clock.
const SigningClockProperty = "signing-clock"

// Clone returns a shallow copy of the bag. A nil bag clones to an empty,
// writable bag.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// SigningClock returns the clock stored in the bag, if any.
func (p Properties) SigningClock() (Clock, bool) {
	c, ok := p[SigningClockProperty].(Clock)
	return c, ok
}

// SignRequest is the immutable input to a synchronous signing operation.
type SignRequest struct {
	Identity   Identity
	Request    *http.Request
	Properties Properties
}

// SignedRequest is the result of a synchronous signing operation.
type SignedRequest struct {
	Request *http.Request
}

// AsyncSignRequest is the input to an asynchronous signing operation,
// carrying the streaming body alongside the request.
type AsyncSignRequest struct {
	Identity   Identity
	Request    *http.Request
	Payload    bodystream.Source
	Properties Properties
}

// AsyncSignedRequest is the result of an asynchronous signing operation.
// A non-nil Payload replaces the attempt's streaming body for the rest
// of the pipeline.
type AsyncSignedRequest struct {
	Request *http.Request
	Payload bodystream.Source
}

// HTTPSigner is the scheme-selected signing capability.
type HTTPSigner interface {
	// Sign signs a request without a streaming body.
	Sign(ctx context.Context, req *SignRequest) (*SignedRequest, error)

	// SignAsync signs a request together with its streaming body,
	// optionally replacing the body.
	SignAsync(ctx context.Context, req *AsyncSignRequest) (*AsyncSignedRequest, error)
}

// LegacySigner is the older signing abstraction, selected directly on
// the execution context rather than via scheme negotiation. It reads the
// clock offset from the shared Attributes bag.
type LegacySigner interface {
	Sign(req *http.Request, attrs *Attributes) (*http.Request, error)
}

// LegacyBodySigner is a LegacySigner that additionally signs a streaming
// body after signing the request.
type LegacyBodySigner interface {
	LegacySigner

	// SignBody signs the streaming body of an already-signed request and
	// returns the body to transmit in its place.
	SignBody(req *http.Request, body bodystream.Source, attrs *Attributes) (bodystream.Source, error)
}

// LegacyAsyncSigner is a LegacySigner that signs the request and body in
// a single asynchronous call. The body is consumed, not replaced.
type LegacyAsyncSigner interface {
	LegacySigner

	SignAsync(ctx context.Context, req *http.Request, body bodystream.Source, attrs *Attributes) (*http.Request, error)
}

// SchemeOption names a negotiated auth scheme and carries the signer
// properties agreed during negotiation.
type SchemeOption struct {
	SchemeID   string
	Properties Properties
}

// SelectedScheme is the outcome of auth-scheme negotiation: the identity
// to sign as, the signer to use, and the negotiated option.
type SelectedScheme struct {
	Identity Identity
	Signer   HTTPSigner
	Option   SchemeOption
}
