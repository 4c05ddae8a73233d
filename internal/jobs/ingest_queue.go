package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cloo-solutions/ragengine/internal/domain"
)

const (
	// MaxRetries is the maximum number of attempts for a queued file
	MaxRetries = 3
)

// FileIngester stores an uploaded file.
type FileIngester interface {
	Ingest(ctx context.Context, upload domain.Upload) (int, error)
}

// FileJob is a file waiting to be ingested.
type FileJob struct {
	Path    string
	Retries int
	due     time.Time
}

// IngestQueue collects file paths and ingests each one once it has been quiet
// for the debounce interval. Enqueuing a path that is already waiting pushes
// its deadline back.
type IngestQueue struct {
	ingester FileIngester
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*FileJob

	readFile func(string) ([]byte, error)
	now      func() time.Time
}

// NewIngestQueue creates a new IngestQueue instance
func NewIngestQueue(ingester FileIngester, debounce time.Duration) *IngestQueue {
	return &IngestQueue{
		ingester: ingester,
		debounce: debounce,
		pending:  make(map[string]*FileJob),
		readFile: os.ReadFile,
		now:      time.Now,
	}
}

// Enqueue schedules path for ingestion.
func (q *IngestQueue) Enqueue(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending[path] = &FileJob{Path: path, due: q.now().Add(q.debounce)}
}

// Len reports how many files are waiting.
func (q *IngestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// ProcessJobs implements the JobProcessor interface
func (q *IngestQueue) ProcessJobs(ctx context.Context) error {
	jobs := q.takeDue()
	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d queued files", len(jobs))

	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := q.processJob(ctx, job); err != nil {
			log.Printf("Error processing %s: %v", job.Path, err)
		}
	}

	return nil
}

func (q *IngestQueue) takeDue() []*FileJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var due []*FileJob
	for path, job := range q.pending {
		if job.due.After(now) {
			continue
		}
		due = append(due, job)
		delete(q.pending, path)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Path < due[j].Path })
	return due
}

func (q *IngestQueue) processJob(ctx context.Context, job *FileJob) error {
	data, err := q.readFile(job.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Skipping %s: file no longer exists", job.Path)
			return nil
		}
		return q.handleJobFailure(job, fmt.Errorf("read file: %w", err))
	}

	count, err := q.ingester.Ingest(ctx, domain.Upload{
		Filename: filepath.Base(job.Path),
		Data:     data,
	})
	if err != nil {
		return q.handleJobFailure(job, err)
	}

	log.Printf("Ingested %s (%d chunks)", job.Path, count)
	return nil
}

// handleJobFailure requeues the job unless it has used up its retries. A
// newer Enqueue of the same path wins over the retry.
func (q *IngestQueue) handleJobFailure(job *FileJob, jobErr error) error {
	if job.Retries+1 >= MaxRetries {
		return fmt.Errorf("max retries (%d) exceeded: %w", MaxRetries, jobErr)
	}

	log.Printf("%s will be retried (attempt %d/%d): %v", job.Path, job.Retries+1, MaxRetries, jobErr)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, queued := q.pending[job.Path]; !queued {
		q.pending[job.Path] = &FileJob{
			Path:    job.Path,
			Retries: job.Retries + 1,
			due:     q.now().Add(q.debounce),
		}
	}
	return nil
}
