package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: FailureTimeout},
		{name: "client timeout text", err: errors.New("openai request timeout: Client.Timeout exceeded"), want: FailureTimeout},
		{name: "server error", err: errors.New("openai http status 503: overloaded"), want: FailureTransient},
		{name: "reset", err: errors.New("read tcp: connection reset by peer"), want: FailureTransient},
		{name: "bad key", err: errors.New("openai http status 401: invalid api key"), want: FailureProvider},
		{name: "not configured", err: ErrNotConfigured, want: FailureProvider},
		{name: "truncated body", err: fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), want: FailureTransient},
		{name: "eof", err: fmt.Errorf("stream: %w", io.EOF), want: FailureTransient},
		{name: "word containing eof", err: errors.New("provider rejected the request thereof"), want: FailureProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}
