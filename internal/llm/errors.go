package llm

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
)

// Failure kinds reported by Classify.
const (
	FailureTimeout   = "timeout"
	FailureTransient = "transient"
	FailureProvider  = "provider_error"
)

// Classify buckets a model call error for logs and provenance notes.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return FailureTransient
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") {
		return FailureTimeout
	}
	if strings.Contains(msg, "http status 5") ||
		strings.Contains(msg, "server_error") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "http status 429") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") {
		return FailureTransient
	}
	return FailureProvider
}
