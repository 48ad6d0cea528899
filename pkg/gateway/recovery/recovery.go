// Package recovery wraps fallible external calls with classification,
// bounded exponential backoff, and session-termination policy.
package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/metrics"
)

const (
	// DefaultBaseDelay seeds the exponential backoff: base * 2^n per retry.
	DefaultBaseDelay = 500 * time.Millisecond
	// DefaultMaxDelay caps any single backoff wait.
	DefaultMaxDelay = 10 * time.Second
	// DefaultMaxRetries is the retry budget after the first attempt.
	DefaultMaxRetries = 3
)

// terminateCodes force session termination regardless of the error's
// recoverable flag.
var terminateCodes = map[core.ErrorCode]bool{
	core.ErrModelAuth:               true,
	core.ErrModelReconnectExhausted: true,
	core.ErrModelSessionNotFound:    true,
	core.ErrModelDisconnectRequest:  true,
	core.ErrSessionNotFound:         true,
	core.ErrSessionExpired:          true,
	core.ErrQuestionnaireNotFound:   true,
	core.ErrStoreConnection:         true,
}

// ForcesTermination reports whether the code is in the unconditional
// terminate set.
func ForcesTermination(code core.ErrorCode) bool {
	return terminateCodes[code]
}

// Controller executes fallible operations with retry policy. Backoff sleeps
// suspend only the calling goroutine.
type Controller struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	baseDelay  time.Duration
	maxDelay   time.Duration
	maxRetries uint64
}

func New(logger *slog.Logger, m *metrics.Metrics) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		logger:     logger,
		metrics:    m,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
		maxRetries: DefaultMaxRetries,
	}
}

// WithPolicy overrides the retry policy, for tests and tuning.
func (c *Controller) WithPolicy(baseDelay, maxDelay time.Duration, maxRetries uint64) *Controller {
	if baseDelay > 0 {
		c.baseDelay = baseDelay
	}
	if maxDelay > 0 {
		c.maxDelay = maxDelay
	}
	c.maxRetries = maxRetries
	return c
}

// Outcome summarizes one guarded execution.
type Outcome struct {
	// Err is the final classified error; nil on success.
	Err *core.Error
	// Attempts counts every execution of the operation, including the first.
	Attempts int
	// Terminate is set when the session must end: either the error code is
	// in the unconditional terminate set, or the retry budget is exhausted
	// on a non-recoverable error.
	Terminate bool
}

// Execute runs op, retrying recoverable failures with capped exponential
// backoff until the budget is exhausted. Every failure is logged with full
// session context and counted by code. The retry loop is iterative and
// bounded; there is no recursion.
func (c *Controller) Execute(ctx context.Context, sessionID, operation string, op func(ctx context.Context) error) Outcome {
	attempts := 0

	backoff := retry.WithMaxRetries(c.maxRetries,
		retry.WithCappedDuration(c.maxDelay,
			retry.NewExponential(c.baseDelay)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		opErr := op(ctx)
		if opErr == nil {
			return nil
		}

		classified := core.Classify(opErr).WithSession(sessionID)
		c.observe(classified, operation, attempts)

		if classified.Recoverable && !ForcesTermination(classified.Code) {
			if c.metrics != nil {
				c.metrics.RetriesTotal.WithLabelValues(string(classified.Code)).Inc()
			}
			return retry.RetryableError(classified)
		}
		return classified
	})

	if err == nil {
		return Outcome{Attempts: attempts}
	}

	final := core.Classify(err).WithSession(sessionID)
	return Outcome{
		Err:       final,
		Attempts:  attempts,
		Terminate: ForcesTermination(final.Code) || !final.Recoverable,
	}
}

// ObserveNonFatal classifies and records a failure that must not interrupt
// the conversation, such as a store write mid-interview. The caller
// continues regardless.
func (c *Controller) ObserveNonFatal(sessionID, operation string, err error) *core.Error {
	if err == nil {
		return nil
	}
	classified := core.Classify(err).WithSession(sessionID)
	c.observe(classified, operation, 1)
	return classified
}

func (c *Controller) observe(e *core.Error, operation string, attempt int) {
	attrs := []any{
		"operation", operation,
		"code", string(e.Code),
		"recoverable", e.Recoverable,
		"attempt", attempt,
		"error", e.Error(),
	}
	if e.SessionID != "" {
		attrs = append(attrs, "session_id", e.SessionID)
	}
	for k, v := range e.Context {
		attrs = append(attrs, k, v)
	}
	c.logger.Error("operation failed", attrs...)

	if c.metrics != nil {
		c.metrics.ErrorsTotal.WithLabelValues(string(e.Code)).Inc()
	}
}
