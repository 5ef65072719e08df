package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ErrorType classifies a transport-level publish error for retry
// purposes, keyed on broker/network error shapes instead of HTTP
// status codes, since every adapter's publish failure is a connection
// or protocol error, not an HTTP response.
type ErrorType int

const (
	Unknown ErrorType = iota
	Transient
	Permanent
)

// Classify inspects err and returns whether a retry is worthwhile.
func Classify(err error) ErrorType {
	if err == nil {
		return Unknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Transient
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Transient
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Transient
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.EPIPE:
			return Transient
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "auth"), strings.Contains(msg, "forbidden"), strings.Contains(msg, "not found"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "invalid"):
		return Permanent
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection"), strings.Contains(msg, "closed"),
		strings.Contains(msg, "unavailable"), strings.Contains(msg, "reset"):
		return Transient
	}

	return Unknown
}
