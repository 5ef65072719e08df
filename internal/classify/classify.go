// Package classify maps engine failures into four kinds, using a
// string-marker fallback keyed on the two literal markers the
// entity-resolution engine is documented to use for a lost or failed
// database connection, rather than HTTP status codes.
package classify

import (
	"bytes"
	"errors"
	"strings"

	"github.com/senzing-garage/redoer/internal/engine"
)

const (
	markerConnectionFailure = "Database Connection Failure"
	markerConnectionLost    = "Database Connection Lost"
)

// PullKind is the outcome of classifying an error returned by the
// engine's pull API. Pull only ever distinguishes a transient database
// hiccup from everything else, which is fatal.
type PullKind int

const (
	PullFatal PullKind = iota
	PullDBTransient
)

// Pull classifies a non-nil error returned by PullRedo.
func Pull(err error) PullKind {
	if isDBTransient(err) {
		return PullDBTransient
	}
	return PullFatal
}

// ApplyKind is the outcome of classifying an error returned by apply
// or apply-with-info.
type ApplyKind int

const (
	ApplyFatal ApplyKind = iota
	ApplyConfigDrift
	ApplyDBTransient
	ApplyUnknownNonFatal
)

// Apply classifies a non-nil error returned by Apply/ApplyWithInfo.
// activeConfigID and defaultConfigID are read by the caller (normally
// immediately before classification) so that config drift can be
// inferred from a non-transient failure combined with a config ID
// mismatch.
func Apply(err error, activeConfigID, defaultConfigID []byte) ApplyKind {
	if errors.Is(err, engine.ErrNotInitialized) {
		return ApplyFatal
	}
	if isDBTransient(err) {
		return ApplyDBTransient
	}
	if !bytes.Equal(activeConfigID, defaultConfigID) {
		return ApplyConfigDrift
	}
	return ApplyUnknownNonFatal
}

func isDBTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, markerConnectionFailure) || strings.Contains(msg, markerConnectionLost)
}
