package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/ragengine/internal/telemetry"
)

// StagedChunkPurger deletes staged chunks that were never committed.
type StagedChunkPurger interface {
	DeleteStaleStaged(ctx context.Context, olderThan time.Duration) (int64, error)
}

// StagingJanitor removes chunks left behind by ingestions that died between
// insert and commit.
type StagingJanitor struct {
	store StagedChunkPurger
	ttl   time.Duration
}

func NewStagingJanitor(store StagedChunkPurger, ttl time.Duration) *StagingJanitor {
	return &StagingJanitor{store: store, ttl: ttl}
}

// ProcessJobs implements the JobProcessor interface
func (j *StagingJanitor) ProcessJobs(ctx context.Context) error {
	n, err := j.store.DeleteStaleStaged(ctx, j.ttl)
	if err != nil {
		return fmt.Errorf("failed to purge staged chunks: %w", err)
	}
	if n > 0 {
		log.Printf("Purged %d staged chunks older than %v", n, j.ttl)
		telemetry.CaptureMessage(ctx, fmt.Sprintf("staging janitor purged %d abandoned chunks", n))
	}
	return nil
}
