// Package generate turns a natural-language request into a spreadsheet
// formula. The Client assembles the prompt, answers from the result cache
// when it can, and otherwise drives a retrying, cancellable Call against
// the model endpoint, reporting progress and the terminal outcome as
// events on a channel.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formulaspark/formulaspark/pkg/cache"
	"github.com/formulaspark/formulaspark/pkg/formula"
	"github.com/formulaspark/formulaspark/pkg/models"
	"github.com/formulaspark/formulaspark/pkg/ollama"
	"github.com/formulaspark/formulaspark/pkg/prompt"
)

// Failure sentinels for the blocking path. The event path carries the same
// taxonomy as FailureKind values.
var (
	ErrCancelled  = errors.New("generation cancelled")
	ErrTimeout    = errors.New("request timed out")
	ErrTransport  = errors.New("could not reach the endpoint")
	ErrUnexpected = errors.New("unexpected generation failure")
)

// ResultCache is the slice of the cache store the generator uses.
type ResultCache interface {
	Lookup(key string) (string, bool)
	Put(key, formulaText string) error
}

// Client orchestrates prompt assembly, the result cache, and the endpoint
// transport. The cache is only ever touched from the client's own control
// flow, never from inside a Call.
type Client struct {
	transport *ollama.Client
	cache     ResultCache // nil disables caching
	settings  models.ModelSettings
	log       *zap.Logger

	// backoffUnit overrides the retry delay base; zero keeps the one
	// second default. Tests shrink it.
	backoffUnit time.Duration
}

// New creates a Client. A nil store disables caching entirely: no lookups
// and no writes. A nil logger disables logging.
func New(transport *ollama.Client, store ResultCache, settings models.ModelSettings, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		transport: transport,
		cache:     store,
		settings:  settings,
		log:       log,
	}
}

// Generate runs the full cache-then-network flow and returns its event
// channel: zero or more progress events, then at most one terminal event,
// then close. A cache hit produces a single succeeded event without any
// network traffic. Cancel ctx to stop the generation; a cancelled
// generation closes the channel without a terminal event.
func (c *Client) Generate(ctx context.Context, req models.GenerationRequest) <-chan Event {
	log := c.log.With(
		zap.String("request_id", uuid.NewString()[:8]),
		zap.String("model", req.Model),
	)

	promptText := prompt.Build(promptInput(req))
	key := cache.Fingerprint(promptText, "")

	if c.cache != nil {
		if cached, ok := c.cache.Lookup(key); ok {
			log.Info("cache hit", zap.String("fingerprint", key[:12]))
			events := make(chan Event, 1)
			events <- Event{Type: EventSucceeded, Formula: cached, FromCache: true}
			close(events)
			return events
		}
		log.Debug("cache miss", zap.String("fingerprint", key[:12]))
	}

	call := &Call{
		Transport: c.transport,
		Request: ollama.GenerateRequest{
			Model:       req.Model,
			Prompt:      promptText,
			Temperature: c.settings.Temperature,
			TopP:        c.settings.TopP,
		},
		MaxRetries:  c.settings.MaxRetries,
		BackoffUnit: c.backoffUnit,
		Log:         log,
	}

	out := make(chan Event, 2*c.settings.MaxRetries+2)
	go func() {
		defer close(out)
		for ev := range call.Start(ctx) {
			if ev.Type == EventSucceeded {
				c.store(key, ev.Formula, log)
			}
			out <- ev
		}
	}()
	return out
}

// GenerateBlocking is the synchronous path for non-interactive callers:
// the same cache check and normalization, but a single request with no
// retries, backoff, or events. Failures are classified with the package
// sentinels.
func (c *Client) GenerateBlocking(ctx context.Context, req models.GenerationRequest) (string, error) {
	promptText := prompt.Build(promptInput(req))
	key := cache.Fingerprint(promptText, "")

	if c.cache != nil {
		if cached, ok := c.cache.Lookup(key); ok {
			c.log.Info("cache hit", zap.String("fingerprint", key[:12]))
			return cached, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ErrCancelled
	}

	raw, err := c.transport.Generate(ctx, ollama.GenerateRequest{
		Model:       req.Model,
		Prompt:      promptText,
		Temperature: c.settings.Temperature,
		TopP:        c.settings.TopP,
	})
	if err != nil {
		// A deadline on the caller's context surfaces through classify as a
		// timeout; an outright cancel is not a failure kind of its own.
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", ErrCancelled
		}
		switch kind, _ := classify(err); kind {
		case FailTimeout:
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		case FailTransport:
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		default:
			return "", fmt.Errorf("%w: %v", ErrUnexpected, err)
		}
	}

	result := formula.Normalize(raw)
	c.store(key, result, c.log)
	return result, nil
}

// store writes a fresh formula to the cache. Persist failures are logged
// and swallowed; a generation that succeeded is reported as a success even
// when its cache write did not stick.
func (c *Client) store(key, formulaText string, log *zap.Logger) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(key, formulaText); err != nil {
		log.Warn("cache persist failed", zap.Error(err))
	}
}

func promptInput(req models.GenerationRequest) prompt.Input {
	return prompt.Input{
		SheetName:   req.SheetName,
		UserPrompt:  req.UserPrompt,
		Headers:     req.Headers,
		Tagged:      req.TaggedHeaders,
		DateColumns: req.DateColumns,
	}
}
