package scheduler

import (
	"context"
	"fmt"
	"log"

	"boardtrack/config"
	"boardtrack/engine"
	"boardtrack/models"
	"boardtrack/repository"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Sweeper periodically re-resolves every tracked board. Page loads are paced
// through a shared rate limiter to stay polite with the target, and
// concurrency is bounded: each in-flight check owns its own rendering
// session.
type Sweeper struct {
	cron        *cron.Cron
	boards      *repository.BoardRepository
	overrides   *repository.OverrideRepository
	controller  *engine.Controller
	limiter     *rate.Limiter
	concurrency int
}

func NewSweeper(controller *engine.Controller, boards *repository.BoardRepository, overrides *repository.OverrideRepository, cfg *config.Config) *Sweeper {
	return &Sweeper{
		cron:        cron.New(cron.WithSeconds()),
		boards:      boards,
		overrides:   overrides,
		controller:  controller,
		limiter:     rate.NewLimiter(rate.Every(cfg.SweepInterval), 1),
		concurrency: cfg.SweepConcurrency,
	}
}

// Start schedules the periodic sweep and runs one immediately.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.SweepAll(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %v", err)
	}
	go s.SweepAll(context.Background())
	s.cron.Start()
	log.Printf("Price sweep scheduled: %s", schedule)
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// SweepAll checks every active board, paced and with bounded concurrency.
func (s *Sweeper) SweepAll(ctx context.Context) {
	boards, err := s.boards.GetBoards()
	if err != nil {
		log.Printf("Sweep aborted, failed to load boards: %v", err)
		return
	}
	if len(boards) == 0 {
		log.Println("Sweep: no boards to check")
		return
	}
	log.Printf("Sweep: checking %d boards", len(boards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, board := range boards {
		board := board
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			if err := s.CheckBoard(gctx, &board); err != nil {
				log.Printf("Sweep: check failed for board %d (%s): %v", board.ID, board.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("Sweep interrupted: %v", err)
	}
	log.Println("Sweep complete")
}

// CheckBoard resolves one board now, consulting its override first, and
// persists the outcome.
func (s *Sweeper) CheckBoard(ctx context.Context, board *models.TrackedBoard) error {
	url := board.URL
	override, err := s.overrides.GetOverride(board.ID)
	if err != nil {
		return err
	}
	if override != nil {
		switch override.Action {
		case models.OverrideSkip:
			log.Printf("Board %d (%s) skipped by override", board.ID, board.Name)
			return nil
		case models.OverrideReplaceURL:
			url = override.ReplacementURL
			log.Printf("Board %d (%s) resolved via replacement URL", board.ID, board.Name)
		}
	}

	result, err := s.controller.Check(ctx, models.PriceQuery{URL: url, Category: board.Category})
	if err != nil {
		if ferr := s.boards.MarkCheckFailed(board.ID); ferr != nil {
			log.Printf("Failed to mark board %d failed: %v", board.ID, ferr)
		}
		return err
	}

	logResult(board, result)
	return s.boards.ApplyResult(board.ID, result)
}

func logResult(board *models.TrackedBoard, result *models.ExtractionResult) {
	switch {
	case !result.Success:
		log.Printf("Board %d (%s): indeterminate after retries [%s]", board.ID, board.Name, result.DetectionMethod)
	case !result.IsAvailable:
		log.Printf("Board %d (%s): unavailable - %s", board.ID, board.Name, result.UnavailabilityReason)
	case result.IsOnSale:
		log.Printf("Board %d (%s): $%.2f on sale from $%.2f [%s]",
			board.ID, board.Name, *result.CurrentPrice, *result.BasePrice, result.DetectionMethod)
	case board.HasPrice() && board.GetCurrentPrice() != *result.CurrentPrice:
		log.Printf("Board %d (%s): $%.2f, was $%.2f [%s]",
			board.ID, board.Name, *result.CurrentPrice, board.GetCurrentPrice(), result.DetectionMethod)
	default:
		log.Printf("Board %d (%s): $%.2f [%s]", board.ID, board.Name, *result.CurrentPrice, result.DetectionMethod)
	}
}
