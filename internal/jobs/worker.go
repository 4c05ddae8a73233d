package jobs

import (
	"context"
	"log"
	"time"

	"github.com/cloo-solutions/ragengine/internal/telemetry"
	"github.com/getsentry/sentry-go"
)

// JobProcessor defines the interface for processing jobs
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker runs a JobProcessor on a fixed interval until stopped
type Worker struct {
	name         string
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(name string, processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("%s worker started with poll interval: %v", w.name, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("%s worker stopped: context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("%s worker stopped: stop signal received", w.name)
			return
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				log.Printf("%s worker: %v", w.name, err)
			}
		}
	}
}

// runOnce processes one tick inside its own transaction.
func (w *Worker) runOnce(ctx context.Context) error {
	ctx, span := telemetry.StartTransaction(ctx, w.name, "job")
	defer span.End()

	if err := w.processor.ProcessJobs(ctx); err != nil {
		span.SetError(err)
		return err
	}
	span.SetStatus(sentry.SpanStatusOK)
	return nil
}

// Stop gracefully stops the worker. It must only be called after Start.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Printf("%s worker shutdown complete", w.name)
}
