// Package signing dispatches outbound HTTP requests to whichever signer
// the execution context carries, correcting the signing clock for
// client/server skew and recording signing duration.
//
// A request attempt is signed through one of four mutually exclusive
// strategies, resolved once per attempt from the ExecutionContext:
//
//   - a scheme-selected HTTPSigner, synchronously, when the body is not
//     an asynchronous stream
//   - a scheme-selected HTTPSigner, asynchronously, when a streaming
//     body is present
//   - a LegacySigner, synchronously
//   - a LegacySigner with asynchronous body capabilities
//
// When the context carries neither a selected scheme nor a legacy
// signer, SignAttempt passes the request through untouched and records
// no metric.
//
// Scheme-selected signers receive their signing clock through the scheme
// option's property bag. A clock supplied there by the caller is never
// overwritten; otherwise SignAttempt synthesizes one from the current
// time shifted by the context's clock offset. Legacy signers instead
// read the offset from the shared Attributes bag, which SignAttempt
// updates before every legacy invocation.
//
// Transport wraps the dispatcher as an http.RoundTripper for callers
// that want per-request signing on a plain *http.Client.
package signing
