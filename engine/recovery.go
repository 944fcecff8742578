package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"boardtrack/config"
	"boardtrack/models"
)

// ContentRetryPolicy bounds retries for content failures: the page settled
// but yielded nothing definite, or navigation timed out. Backoff doubles per
// numbered retry (3s, 6s, 12s with the default base).
type ContentRetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Delay returns the backoff before the given numbered retry (0-based).
func (p ContentRetryPolicy) Delay(retry int) time.Duration {
	return p.Backoff << retry
}

// TransportRetryPolicy governs dead-session repair. Reinitialization is
// followed by an immediate retry that does not consume the numbered content
// budget: a repaired session should not count against the page's own
// data-quality allowance. The cap only guards against a permanently dead
// browser host.
type TransportRetryPolicy struct {
	MaxReinits int
}

// Controller wraps the engine in session acquisition and the two retry
// policies. One session is exclusively owned per query and released on every
// exit path.
type Controller struct {
	engine    *Engine
	sessions  SessionFactory
	content   ContentRetryPolicy
	transport TransportRetryPolicy
}

func NewController(engine *Engine, sessions SessionFactory, cfg *config.Config) *Controller {
	return &Controller{
		engine:   engine,
		sessions: sessions,
		content:  ContentRetryPolicy{MaxRetries: cfg.ContentRetries, Backoff: cfg.ContentBackoff},
		transport: TransportRetryPolicy{
			MaxReinits: cfg.TransportReinits,
		},
	}
}

// Check resolves one product page, retrying per policy. It always returns a
// result: exhausted retries yield a Success=false result carrying the last
// attempt's trace. The error is reserved for session acquisition failure and
// caller cancellation.
func (c *Controller) Check(ctx context.Context, query models.PriceQuery) (*models.ExtractionResult, error) {
	sess, err := c.sessions.New(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	var last *models.ExtractionResult
	reinits := 0

	for retry := 0; ; {
		result, err := c.engine.ResolveOnce(ctx, sess, query)

		switch {
		case err == nil && result.Success:
			return result, nil

		case errors.Is(err, ErrTransport):
			if reinits >= c.transport.MaxReinits {
				log.Printf("Session reinit budget exhausted for %s", query.URL)
				return failureResult("session transport failure persisted"), nil
			}
			reinits++
			log.Printf("Transport failure on %s, reinitializing session (%d/%d)",
				query.URL, reinits, c.transport.MaxReinits)
			if rerr := sess.Reinitialize(ctx); rerr != nil {
				return failureResult("session reinitialization failed"), nil
			}
			// Immediate retry, no content budget consumed.
			continue

		case err != nil && !errors.Is(err, ErrNavigationTimeout):
			// Cancellation or another non-retryable session error.
			return nil, err

		default:
			// Navigation timeout or indeterminate page: numbered retry.
			if result != nil {
				last = result
			} else {
				last = failureResult("navigation timed out")
			}
			if retry >= c.content.MaxRetries {
				return last, nil
			}
			delay := c.content.Delay(retry)
			log.Printf("Content retry %d/%d for %s in %s",
				retry+1, c.content.MaxRetries, query.URL, delay)
			if serr := sleepCtx(ctx, delay); serr != nil {
				return nil, serr
			}
			retry++
		}
	}
}

func failureResult(reason string) *models.ExtractionResult {
	return &models.ExtractionResult{
		Success:         false,
		IsAvailable:     true,
		DetectionMethod: "none",
		DebugTrace:      []string{reason},
	}
}
