package signing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/httpflow/bodystream"
)

const clockTolerance = 10 * time.Millisecond

type fakeHTTPSigner struct {
	signReq  *SignRequest
	asyncReq *AsyncSignRequest

	signResult  *SignedRequest
	asyncResult *AsyncSignedRequest
	err         error
}

func (s *fakeHTTPSigner) Sign(_ context.Context, req *SignRequest) (*SignedRequest, error) {
	s.signReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.signResult, nil
}

func (s *fakeHTTPSigner) SignAsync(_ context.Context, req *AsyncSignRequest) (*AsyncSignedRequest, error) {
	s.asyncReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.asyncResult, nil
}

type fakeLegacySigner struct {
	req    *http.Request
	offset time.Duration
	result *http.Request
	err    error
	calls  int
}

func (s *fakeLegacySigner) Sign(req *http.Request, attrs *Attributes) (*http.Request, error) {
	s.calls++
	s.req = req
	s.offset = attrs.ClockOffset()
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type fakeLegacyBodySigner struct {
	fakeLegacySigner

	bodyIn     bodystream.Source
	bodyResult bodystream.Source
	bodyCalls  int
}

func (s *fakeLegacyBodySigner) SignBody(_ *http.Request, body bodystream.Source, _ *Attributes) (bodystream.Source, error) {
	s.bodyCalls++
	s.bodyIn = body
	return s.bodyResult, nil
}

type fakeLegacyAsyncSigner struct {
	fakeLegacySigner

	asyncReq    *http.Request
	asyncBody   bodystream.Source
	asyncOffset time.Duration
	asyncCalls  int
}

func (s *fakeLegacyAsyncSigner) SignAsync(_ context.Context, req *http.Request, body bodystream.Source, attrs *Attributes) (*http.Request, error) {
	s.asyncCalls++
	s.asyncReq = req
	s.asyncBody = body
	s.asyncOffset = attrs.ClockOffset()
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type recordingCollector struct {
	names []string
}

func (c *recordingCollector) Record(name string, _ time.Duration) {
	c.names = append(c.names, name)
}

func newRequest() *http.Request {
	return httptest.NewRequest("PUT", "https://api.example.com/items/1", nil)
}

func newScheme(signer HTTPSigner, props Properties) *SelectedScheme {
	return &SelectedScheme{
		Identity: "caller-identity",
		Signer:   signer,
		Option: SchemeOption{
			SchemeID:   "example.auth#scheme",
			Properties: props,
		},
	}
}

func signedClockInstant(t *testing.T, props Properties) time.Time {
	t.Helper()
	clock, ok := props.SigningClock()
	require.True(t, ok, "signing clock must be present")
	return clock.Now()
}

func TestSignAttemptScheme(t *testing.T) {
	t.Run("sync path signs and updates context", func(t *testing.T) {
		signed := newRequest()
		signer := &fakeHTTPSigner{signResult: &SignedRequest{Request: signed}}
		metrics := &recordingCollector{}

		ec := NewExecutionContext(ContextConfig{
			Scheme:  newScheme(signer, Properties{"key": "value"}),
			Metrics: metrics,
		})

		req := newRequest()
		result, err := SignAttempt(context.Background(), req, ec)
		require.NoError(t, err)

		assert.Same(t, signed, result)
		assert.Same(t, signed, ec.Request())

		require.NotNil(t, signer.signReq)
		assert.Equal(t, "caller-identity", signer.signReq.Identity)
		assert.Same(t, req, signer.signReq.Request)
		assert.Equal(t, "value", signer.signReq.Properties["key"])

		// With a zero offset, the synthesized clock tracks now.
		instant := signedClockInstant(t, signer.signReq.Properties)
		assert.WithinDuration(t, time.Now(), instant, clockTolerance)

		assert.Equal(t, []string{MetricSigningDuration}, metrics.names)
		assert.Nil(t, signer.asyncReq, "async path must not be taken without a body")
	})

	t.Run("async path carries the streaming body", func(t *testing.T) {
		signed := newRequest()
		body := bodystream.FromString("async request body")
		signedBody := bodystream.FromString("signed async request body")

		signer := &fakeHTTPSigner{asyncResult: &AsyncSignedRequest{
			Request: signed,
			Payload: signedBody,
		}}
		metrics := &recordingCollector{}

		ec := NewExecutionContext(ContextConfig{
			Scheme:  newScheme(signer, Properties{"key": "value"}),
			Metrics: metrics,
		})
		ec.SetBody(body)

		req := newRequest()
		result, err := SignAttempt(context.Background(), req, ec)
		require.NoError(t, err)

		assert.Same(t, signed, result)
		assert.Same(t, signed, ec.Request())
		assert.Same(t, signedBody, ec.Body(), "signed body must replace the original")

		require.NotNil(t, signer.asyncReq)
		assert.Same(t, body, signer.asyncReq.Payload)
		assert.Equal(t, "value", signer.asyncReq.Properties["key"])

		assert.Equal(t, []string{MetricSigningDuration}, metrics.names)
		assert.Nil(t, signer.signReq, "sync path must not be taken with a body")
	})

	t.Run("clock offset shifts the synthesized clock", func(t *testing.T) {
		signed := newRequest()
		signer := &fakeHTTPSigner{asyncResult: &AsyncSignedRequest{Request: signed}}

		ec := NewExecutionContext(ContextConfig{
			Scheme: newScheme(signer, nil),
		})
		ec.SetBody(bodystream.FromString("async request body"))
		ec.SetClockOffset(17 * time.Second)

		_, err := SignAttempt(context.Background(), newRequest(), ec)
		require.NoError(t, err)

		instant := signedClockInstant(t, signer.asyncReq.Properties)
		assert.WithinDuration(t, time.Now().Add(-17*time.Second), instant, clockTolerance)
	})

	t.Run("caller-supplied clock is never overwritten", func(t *testing.T) {
		fixed := ClockFunc(func() time.Time {
			return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
		})

		signed := newRequest()
		signer := &fakeHTTPSigner{signResult: &SignedRequest{Request: signed}}

		ec := NewExecutionContext(ContextConfig{
			Scheme: newScheme(signer, Properties{SigningClockProperty: Clock(fixed)}),
		})
		// An offset must not displace the supplied clock.
		ec.SetClockOffset(time.Hour)

		_, err := SignAttempt(context.Background(), newRequest(), ec)
		require.NoError(t, err)

		clock, ok := signer.signReq.Properties.SigningClock()
		require.True(t, ok)
		assert.Equal(t, fixed.Now(), clock.Now())
	})

	t.Run("scheme properties are not mutated", func(t *testing.T) {
		props := Properties{"key": "value"}
		signer := &fakeHTTPSigner{signResult: &SignedRequest{Request: newRequest()}}

		ec := NewExecutionContext(ContextConfig{Scheme: newScheme(signer, props)})

		_, err := SignAttempt(context.Background(), newRequest(), ec)
		require.NoError(t, err)

		_, leaked := props.SigningClock()
		assert.False(t, leaked, "synthesized clock must not leak into the scheme's bag")
	})

	t.Run("scheme takes precedence over legacy signer", func(t *testing.T) {
		signed := newRequest()
		signer := &fakeHTTPSigner{signResult: &SignedRequest{Request: signed}}
		legacy := &fakeLegacySigner{result: newRequest()}

		ec := NewExecutionContext(ContextConfig{
			Scheme:       newScheme(signer, nil),
			LegacySigner: legacy,
		})

		result, err := SignAttempt(context.Background(), newRequest(), ec)
		require.NoError(t, err)

		assert.Same(t, signed, result)
		assert.Zero(t, legacy.calls, "legacy signer must never be invoked when a scheme is selected")
	})

	t.Run("signer failure is returned verbatim", func(t *testing.T) {
		boom := errors.New("signing boom")
		signer := &fakeHTTPSigner{err: boom}
		metrics := &recordingCollector{}

		ec := NewExecutionContext(ContextConfig{
			Scheme:  newScheme(signer, nil),
			Metrics: metrics,
		})

		req := newRequest()
		_, err := SignAttempt(context.Background(), req, ec)
		assert.ErrorIs(t, err, boom)

		// Failure diagnostics observe the pre-sign request.
		assert.Same(t, req, ec.Request())
		assert.Empty(t, metrics.names, "no metric on failure")
	})
}

func TestSignAttemptLegacy(t *testing.T) {
	t.Run("sync path applies clock offset via attributes", func(t *testing.T) {
		signed := newRequest()
		legacy := &fakeLegacySigner{result: signed}
		metrics := &recordingCollector{}

		ec := NewExecutionContext(ContextConfig{
			LegacySigner: legacy,
			Metrics:      metrics,
		})
		ec.SetClockOffset(100 * time.Second)

		req := newRequest()
		result, err := SignAttempt(context.Background(), req, ec)
		require.NoError(t, err)

		assert.Same(t, signed, result)
		assert.Same(t, signed, ec.Request())
		assert.Same(t, req, legacy.req)
		assert.Equal(t, 100*time.Second, legacy.offset)
		assert.Equal(t, []string{MetricSigningDuration}, metrics.names)
	})

	t.Run("body signer signs request then body", func(t *testing.T) {
		signed := newRequest()
		body := bodystream.FromString("async request body")
		signedBody := bodystream.FromString("signed async request body")

		legacy := &fakeLegacyBodySigner{
			fakeLegacySigner: fakeLegacySigner{result: signed},
			bodyResult:       signedBody,
		}
		metrics := &recordingCollector{}

		ec := NewExecutionContext(ContextConfig{
			LegacySigner: legacy,
			Metrics:      metrics,
		})
		ec.SetBody(body)

		result, err := SignAttempt(context.Background(), newRequest(), ec)
		require.NoError(t, err)

		assert.Same(t, signed, result)
		assert.Equal(t, 1, legacy.calls)
		assert.Equal(t, 1, legacy.bodyCalls)
		assert.Same(t, body, legacy.bodyIn)
		assert.Same(t, signedBody, ec.Body())
		assert.Equal(t, []string{MetricSigningDuration}, metrics.names)
	})

	t.Run("body signer without body signs synchronously", func(t *testing.T) {
		signed := newRequest()
		legacy := &fakeLegacyBodySigner{
			fakeLegacySigner: fakeLegacySigner{result: signed},
		}

		ec := NewExecutionContext(ContextConfig{LegacySigner: legacy})

		result, err := SignAttempt(context.Background(), newRequest(), ec)
		require.NoError(t, err)

		assert.Same(t, signed, result)
		assert.Equal(t, 1, legacy.calls)
		assert.Zero(t, legacy.bodyCalls)
	})

	t.Run("async signer signs request and body in one call", func(t *testing.T) {
		signed := newRequest()
		body := bodystream.FromString("async request body")

		legacy := &fakeLegacyAsyncSigner{
			fakeLegacySigner: fakeLegacySigner{result: signed},
		}
		metrics := &recordingCollector{}

		ec := NewExecutionContext(ContextConfig{
			LegacySigner: legacy,
			Metrics:      metrics,
		})
		ec.SetBody(body)
		ec.SetClockOffset(42 * time.Second)

		result, err := SignAttempt(context.Background(), newRequest(), ec)
		require.NoError(t, err)

		assert.Same(t, signed, result)
		assert.Equal(t, 1, legacy.asyncCalls)
		assert.Zero(t, legacy.calls, "the one-shot async call replaces the sync call")
		assert.Same(t, body, legacy.asyncBody)
		assert.Equal(t, 42*time.Second, legacy.asyncOffset)

		// The async signer consumes the body rather than replacing it.
		assert.Same(t, body, ec.Body())
		assert.Equal(t, []string{MetricSigningDuration}, metrics.names)
	})

	t.Run("failure is returned verbatim", func(t *testing.T) {
		boom := errors.New("legacy boom")
		legacy := &fakeLegacySigner{err: boom}
		metrics := &recordingCollector{}

		ec := NewExecutionContext(ContextConfig{
			LegacySigner: legacy,
			Metrics:      metrics,
		})

		_, err := SignAttempt(context.Background(), newRequest(), ec)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, metrics.names)
	})
}

func TestSignAttemptNoOp(t *testing.T) {
	metrics := &recordingCollector{}
	ec := NewExecutionContext(ContextConfig{Metrics: metrics})

	req := newRequest()
	result, err := SignAttempt(context.Background(), req, ec)
	require.NoError(t, err)

	assert.Same(t, req, result, "passthrough must return the input request")
	assert.Same(t, req, ec.Request(), "context must still observe the request")
	assert.Empty(t, metrics.names, "passthrough records no metric")
}

func TestSignAttemptNilRequest(t *testing.T) {
	ec := NewExecutionContext(ContextConfig{})

	_, err := SignAttempt(context.Background(), nil, ec)
	assert.ErrorIs(t, err, ErrNilRequest)
}
