package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// RetryPolicy bounds calls to an unreliable external service.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// Delay is the fixed pause between attempts.
	Delay time.Duration

	// IsRetryable decides whether a failed attempt is worth repeating.
	// Defaults to IsRetryable.
	IsRetryable func(error) bool
}

// retryable is implemented by adapter errors that know whether they are transient
// (e.g. an HTTP 503 versus an HTTP 400).
type retryable interface {
	Retryable() bool
}

var retryablePatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no such host",
	"temporary failure",
	"network is unreachable",
	"eof",
}

// IsRetryable reports whether err is a network, timeout or service-side failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrClassifierUnavailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. The last error is returned wrapped.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	isRetryable := p.IsRetryable
	if isRetryable == nil {
		isRetryable = IsRetryable
	}

	var (
		err     error
		attempt int
	)
	for attempt = 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !isRetryable(err) || attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(p.Delay):
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempt, err)
}
