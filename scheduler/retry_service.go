package scheduler

import (
	"context"
	"log"
	"time"

	"boardtrack/repository"
)

// RetryService revisits boards whose checks failed, on the escalating
// per-board schedule the repository maintains. This backlog is independent
// of the engine's per-query retry budget.
type RetryService struct {
	boards   *repository.BoardRepository
	sweeper  *Sweeper
	interval time.Duration
	stopChan chan struct{}
}

func NewRetryService(boards *repository.BoardRepository, sweeper *Sweeper) *RetryService {
	return &RetryService{
		boards:   boards,
		sweeper:  sweeper,
		interval: 5 * time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic backlog scan.
func (rs *RetryService) Start() {
	log.Println("Starting retry service")
	go func() {
		ticker := time.NewTicker(rs.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rs.processRetries()
			case <-rs.stopChan:
				log.Println("Retry service stopped")
				return
			}
		}
	}()
}

func (rs *RetryService) Stop() {
	close(rs.stopChan)
}

func (rs *RetryService) processRetries() {
	boards, err := rs.boards.GetBoardsForRetry()
	if err != nil {
		log.Printf("Failed to get boards for retry: %v", err)
		return
	}
	if len(boards) == 0 {
		return
	}

	log.Printf("Retrying %d failed boards", len(boards))
	for _, board := range boards {
		if !board.ShouldRetry() {
			continue
		}
		board := board
		if err := rs.sweeper.CheckBoard(context.Background(), &board); err != nil {
			log.Printf("Retry failed for board %d (%s): %v", board.ID, board.Name, err)
		}
	}
}
