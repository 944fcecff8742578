package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"boardtrack/config"
	"boardtrack/models"
)

// Engine turns one settled rendered page into one ExtractionResult. It owns
// the strategy pipeline, sale detection, and the availability fallback; the
// retry and session lifecycle around it belongs to the Controller.
type Engine struct {
	cfg        *config.Config
	strategies []Strategy
	sale       *SaleDetector
	avail      *AvailabilityResolver
	blockwall  *BlockWallDetector
}

func NewEngine(cfg *config.Config) *Engine {
	parser := NewPriceTextParser()
	regions := NewRegionClassifier()
	return &Engine{
		cfg: cfg,
		strategies: []Strategy{
			&embeddedDataStrategy{parser: parser, tier: cfg.Targeted},
			&purchaseFormStrategy{parser: parser, tier: cfg.Targeted},
			&corePriceStrategy{parser: parser, tier: cfg.Targeted},
			&pageScanStrategy{parser: parser, regions: regions, tier: cfg.Wide},
		},
		sale:      NewSaleDetector(parser, cfg.Wide),
		avail:     NewAvailabilityResolver(),
		blockwall: NewBlockWallDetector(),
	}
}

// ResolveOnce runs one full resolution attempt against a session. The
// returned error is non-nil only for transport failures and navigation
// timeouts; a navigation error additionally carries the attempt's trace in
// an indeterminate result. An indeterminate page yields a Success=false
// result and no error.
func (e *Engine) ResolveOnce(ctx context.Context, sess Session, query models.PriceQuery) (*models.ExtractionResult, error) {
	trace := NewTrace()
	trace.Addf("navigating %s", query.URL)

	opts := SettleOptions{
		NavigationTimeout: e.cfg.NavigationTimeout,
		SettleTimeout:     e.cfg.SettleTimeout,
	}
	if err := sess.Navigate(ctx, query.URL, opts); err != nil {
		trace.Addf("navigation failed: %v", err)
		return indeterminate(trace), err
	}

	pageText, err := sess.PageText()
	if err != nil {
		return nil, err
	}
	if blocked, signal := e.blockwall.Detect(pageText); blocked {
		trace.Addf("block wall detected: %s", signal)
		log.Printf("Block wall on %s: %s", query.URL, signal)
		return indeterminate(trace), nil
	}

	if err := e.warmUp(ctx, sess); err != nil {
		return nil, err
	}
	trace.Addf("warm-up complete, evaluating strategies")

	candidate, err := runPipeline(e.strategies, sess, trace)
	if err != nil {
		return nil, err
	}

	if candidate == nil {
		trace.Addf("no strategy produced a price, entering availability fallback")
		unavailable, reason, err := e.avail.Resolve(sess, trace)
		if err != nil {
			return nil, err
		}
		if unavailable {
			return &models.ExtractionResult{
				Success:              true,
				IsAvailable:          false,
				UnavailabilityReason: reason,
				DetectionMethod:      "availability_fallback",
				DebugTrace:           trace.Lines(),
			}, nil
		}
		return indeterminate(trace), nil
	}

	// A visible price is not enough: purchase must actually be possible.
	unavailable, reason, err := e.avail.Resolve(sess, trace)
	if err != nil {
		return nil, err
	}
	if unavailable {
		trace.Addf("price %.2f found but purchase impossible, overriding to unavailable", candidate.Value)
		return &models.ExtractionResult{
			Success:              true,
			IsAvailable:          false,
			UnavailabilityReason: reason,
			DetectionMethod:      candidate.StrategyID,
			PriceSource:          candidate.Source,
			ImageURL:             e.productImage(sess, candidate),
			DebugTrace:           trace.Lines(),
		}, nil
	}

	current := candidate.Value
	result := &models.ExtractionResult{
		Success:         true,
		IsAvailable:     true,
		CurrentPrice:    &current,
		DetectionMethod: candidate.StrategyID,
		PriceSource:     candidate.Source,
		ImageURL:        e.productImage(sess, candidate),
	}

	original, ok, err := e.sale.Detect(sess, current, trace)
	if err != nil {
		return nil, err
	}
	if ok {
		base, sale := original, current
		result.BasePrice = &base
		result.SalePrice = &sale
		result.IsOnSale = true
	} else {
		base := current
		result.BasePrice = &base
	}

	result.DebugTrace = trace.Lines()
	return result, nil
}

// warmUp makes the session look interactive before extraction: a brief wait
// and a small scroll down then back up. Fixed pre-extraction step, not a
// strategy and not retry-relevant.
func (e *Engine) warmUp(ctx context.Context, sess Session) error {
	if err := sleepCtx(ctx, e.cfg.WarmupDelay); err != nil {
		return err
	}
	if err := sess.Scroll(ctx, 600); err != nil {
		return err
	}
	if err := sleepCtx(ctx, 300*time.Millisecond); err != nil {
		return err
	}
	return sess.Scroll(ctx, -600)
}

// productImage opportunistically captures the main product image.
func (e *Engine) productImage(sess Session, candidate *PriceCandidate) string {
	if candidate.ImageURL != "" {
		return candidate.ImageURL
	}
	el, err := sess.Query(`#landingImage`)
	if err != nil || el == nil {
		return ""
	}
	src, err := el.Attribute("src")
	if err != nil || src == nil {
		return ""
	}
	return *src
}

func indeterminate(trace *Trace) *models.ExtractionResult {
	return &models.ExtractionResult{
		Success:         false,
		IsAvailable:     true,
		DetectionMethod: "none",
		DebugTrace:      trace.Lines(),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsTransient reports whether an attempt error should be retried at all,
// as opposed to caller-driven cancellation.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrNavigationTimeout)
}
