package signing

import (
	"context"
	"net/http"
	"time"
)

// strategy is the closed set of signing paths. It is resolved once per
// attempt from the execution context's contents.
type strategy int

const (
	strategyNoOp strategy = iota
	strategySchemeSync
	strategySchemeAsync
	strategyLegacySync
	strategyLegacyAsync
)

// resolveStrategy picks the signing path for an attempt. A selected
// scheme always wins over a legacy signer.
func resolveStrategy(ec *ExecutionContext) strategy {
	if ec.scheme != nil && ec.scheme.Signer != nil {
		if ec.Body() != nil {
			return strategySchemeAsync
		}
		return strategySchemeSync
	}

	if ec.legacy == nil {
		return strategyNoOp
	}
	if _, ok := ec.legacy.(LegacyBodySigner); ok && ec.Body() != nil {
		return strategyLegacyAsync
	}
	if _, ok := ec.legacy.(LegacyAsyncSigner); ok {
		return strategyLegacyAsync
	}
	return strategyLegacySync
}

// SignAttempt signs one outbound request attempt through whichever
// signer ec carries and returns the signed request. The context's
// request slot is updated before signing, so failure diagnostics observe
// the pre-sign request, and again with the result on success; for
// strategies that sign a streaming body, the body slot is updated with
// the replacement body.
//
// With no scheme and no legacy signer the request passes through
// untouched and no metric is recorded. Signer failures are returned
// verbatim.
func SignAttempt(ctx context.Context, req *http.Request, ec *ExecutionContext) (*http.Request, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	ec.SetRequest(req)

	st := resolveStrategy(ec)
	if st == strategyNoOp {
		return req, nil
	}

	start := time.Now()
	signed, err := invoke(ctx, st, req, ec)
	if err != nil {
		return nil, err
	}
	if signed == nil {
		return nil, ErrNilResult
	}

	ec.metrics.Record(MetricSigningDuration, time.Since(start))
	return signed, nil
}

func invoke(ctx context.Context, st strategy, req *http.Request, ec *ExecutionContext) (*http.Request, error) {
	switch st {
	case strategySchemeSync:
		return signScheme(ctx, req, ec)
	case strategySchemeAsync:
		return signSchemeAsync(ctx, req, ec)
	case strategyLegacySync:
		return signLegacy(req, ec)
	default:
		return signLegacyAsync(ctx, req, ec)
	}
}

// schemeProperties clones the negotiated signer properties and injects a
// synthesized signing clock unless the caller already supplied one.
func schemeProperties(ec *ExecutionContext) Properties {
	props := ec.scheme.Option.Properties.Clone()
	if _, ok := props.SigningClock(); !ok {
		props[SigningClockProperty] = OffsetClock(ec.clock, ec.ClockOffset())
	}
	return props
}

func signScheme(ctx context.Context, req *http.Request, ec *ExecutionContext) (*http.Request, error) {
	res, err := ec.scheme.Signer.Sign(ctx, &SignRequest{
		Identity:   ec.scheme.Identity,
		Request:    req,
		Properties: schemeProperties(ec),
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNilResult
	}

	ec.SetRequest(res.Request)
	return res.Request, nil
}

func signSchemeAsync(ctx context.Context, req *http.Request, ec *ExecutionContext) (*http.Request, error) {
	res, err := ec.scheme.Signer.SignAsync(ctx, &AsyncSignRequest{
		Identity:   ec.scheme.Identity,
		Request:    req,
		Payload:    ec.Body(),
		Properties: schemeProperties(ec),
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNilResult
	}

	ec.SetRequest(res.Request)
	if res.Payload != nil {
		ec.SetBody(res.Payload)
	}
	return res.Request, nil
}

func signLegacy(req *http.Request, ec *ExecutionContext) (*http.Request, error) {
	ec.attrs.SetClockOffset(ec.ClockOffset())

	signed, err := ec.legacy.Sign(req, ec.attrs)
	if err != nil {
		return nil, err
	}

	ec.SetRequest(signed)
	return signed, nil
}

func signLegacyAsync(ctx context.Context, req *http.Request, ec *ExecutionContext) (*http.Request, error) {
	ec.attrs.SetClockOffset(ec.ClockOffset())

	if bs, ok := ec.legacy.(LegacyBodySigner); ok && ec.Body() != nil {
		signed, err := bs.Sign(req, ec.attrs)
		if err != nil {
			return nil, err
		}
		ec.SetRequest(signed)

		body, err := bs.SignBody(signed, ec.Body(), ec.attrs)
		if err != nil {
			return nil, err
		}
		ec.SetBody(body)
		return signed, nil
	}

	as := ec.legacy.(LegacyAsyncSigner)
	signed, err := as.SignAsync(ctx, req, ec.Body(), ec.attrs)
	if err != nil {
		return nil, err
	}

	ec.SetRequest(signed)
	return signed, nil
}
