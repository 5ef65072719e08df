// Package redotype defines the wire-agnostic data model shared by
// every stage and transport adapter. The daemon never parses these
// payloads; it only moves them.
package redotype

// Record is an opaque, immutable redo payload. Known only to be valid
// UTF-8 text (JSON in practice).
type Record []byte

// String renders the record for logging; callers should prefer
// truncated or redacted forms for large payloads, which is left to the
// logging call site.
func (r Record) String() string {
	return string(r)
}

// Info is an opaque envelope returned by the engine's apply-with-info
// variant, forwarded verbatim unless an Info Filter rewrites it.
type Info []byte

// AckTag is a carrier-specific opaque handle attached to a Record by
// an Input. Exactly one AckTag may be redeemed, and only by the Input
// that produced it. A nil AckTag means the carrier has no redeemable
// handle (e.g. the internal queue, or an engine pull).
type AckTag any
