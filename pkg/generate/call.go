package generate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/formulaspark/formulaspark/pkg/formula"
	"github.com/formulaspark/formulaspark/pkg/ollama"
)

// Call is one cancellable generation: a bounded attempt loop against the
// endpoint that reports progress and its outcome as events instead of
// return values, so the caller stays responsive while a request is
// outstanding.
//
// Cancellation is cooperative. The context is checked before each attempt,
// after each response, and during backoff sleeps; once observed, the event
// channel closes without a terminal event.
type Call struct {
	Transport  *ollama.Client
	Request    ollama.GenerateRequest
	MaxRetries int

	// BackoffUnit is the first retry delay; each further retry doubles it.
	// Zero means one second.
	BackoffUnit time.Duration

	Log *zap.Logger
}

// Start runs the attempt loop on its own goroutine and returns the event
// channel. The channel is buffered for the worst-case event count, so the
// loop always runs to completion even if the consumer walks away.
func (c *Call) Start(ctx context.Context) <-chan Event {
	retries := c.MaxRetries
	if retries < 1 {
		retries = 1
	}
	unit := c.BackoffUnit
	if unit <= 0 {
		unit = time.Second
	}
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}

	// One attempt progress per attempt, one wait progress per retry, one
	// terminal event.
	events := make(chan Event, 2*retries)
	go c.run(ctx, events, retries, unit, log)
	return events
}

func (c *Call) run(ctx context.Context, events chan<- Event, retries int, unit time.Duration, log *zap.Logger) {
	defer close(events)

	for attempt := 1; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			log.Debug("generation cancelled before dispatch", zap.Int("attempt", attempt))
			return
		}

		events <- progressEvent(fmt.Sprintf("Attempt %d/%d", attempt, retries))
		log.Debug("dispatching attempt",
			zap.Int("attempt", attempt), zap.Int("max_retries", retries))

		raw, err := c.Transport.Generate(ctx, c.Request)
		if err == nil {
			result := formula.Normalize(raw)
			if ctx.Err() != nil {
				log.Debug("generation cancelled, success suppressed")
				return
			}
			log.Debug("generation succeeded",
				zap.Int("attempt", attempt), zap.Int("formula_len", len(result)))
			events <- succeededEvent(result)
			return
		}

		// The request may have failed because the caller cancelled; that is
		// not a failure to report.
		if ctx.Err() != nil {
			log.Debug("generation cancelled during attempt", zap.Int("attempt", attempt))
			return
		}

		kind, retryable := classify(err)
		if !retryable {
			log.Warn("generation failed", zap.Int("attempt", attempt), zap.Error(err))
			events <- failedEvent(FailUnexpected, fmt.Sprintf("unexpected error: %v", err))
			return
		}
		if attempt == retries {
			log.Warn("generation failed after final attempt",
				zap.Int("attempts", retries), zap.String("kind", string(kind)), zap.Error(err))
			events <- failedEvent(kind, exhaustedMessage(kind, retries, err))
			return
		}

		delay := backoff(unit, attempt)
		events <- progressEvent(waitMessage(kind, delay))
		log.Debug("retrying after backoff",
			zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debug("generation cancelled during backoff", zap.Int("attempt", attempt))
			return
		case <-timer.C:
		}
	}
}

// classify sorts a request error into the failure taxonomy. Timeouts and
// network-layer failures (including non-2xx statuses) are retryable;
// anything else fails the generation immediately.
func classify(err error) (kind FailureKind, retryable bool) {
	switch {
	case isTimeout(err):
		return FailTimeout, true
	case isTransport(err):
		return FailTransport, true
	default:
		return FailUnexpected, false
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTransport(err error) bool {
	var statusErr *ollama.StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func waitMessage(kind FailureKind, delay time.Duration) string {
	if kind == FailTimeout {
		return fmt.Sprintf("Timeout, retrying in %s...", delay)
	}
	return fmt.Sprintf("Connection error, retrying in %s...", delay)
}

func exhaustedMessage(kind FailureKind, attempts int, err error) string {
	if kind == FailTimeout {
		return fmt.Sprintf("request timed out after %d attempts", attempts)
	}
	return fmt.Sprintf("could not reach the endpoint after %d attempts: %v", attempts, err)
}
