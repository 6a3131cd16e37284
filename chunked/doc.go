// Package chunked frames byte chunks for chunked transfer encoding and
// lets each chunk carry a computed key/value extension.
//
// An Extension maps a chunk's bytes to an optional annotation, such as a
// per-chunk checksum or signature. The Writer invokes every extension
// once per chunk, in order, immediately before framing it, and appends
// each returned pair to the chunk-size line using the RFC 7230 §4.1.1
// syntax:
//
//	chunk-ext = *( ";" chunk-ext-name [ "=" chunk-ext-val ] )
//
// Extensions that keep incremental state across the chunks of one
// attempt, such as RollingChecksumExtension, implement Reset so the
// state can be cleared between independent attempts instead of leaking
// into a retry.
package chunked
