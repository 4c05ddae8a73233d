package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/ragengine/internal/config"
	"github.com/cloo-solutions/ragengine/internal/jobs"
	"github.com/cloo-solutions/ragengine/internal/watch"
	"github.com/spf13/cobra"
)

// WatchCmd returns the watch command
func WatchCmd() *cobra.Command {
	var (
		debounce time.Duration
		scan     bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest files dropped into a directory",
		Long: `Watches a directory and ingests .pdf, .txt, .md and .json files when they are
created or rewritten. Each file is ingested once it has been quiet for the
debounce interval.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], debounce, scan)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "Quiet period before a changed file is ingested")
	cmd.Flags().BoolVar(&scan, "scan", false, "Also ingest files already in the directory")

	return cmd
}

func runWatch(dir string, debounce time.Duration, scan bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	defer initTelemetry(cfg)()

	c, err := buildComponents(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer c.Close()

	queue := jobs.NewIngestQueue(c.ingestion, debounce)

	watcher, err := watch.NewWatcher(queue)
	if err != nil {
		return err
	}
	defer watcher.Close()

	if scan {
		n, err := watcher.Scan(dir)
		if err != nil {
			return err
		}
		log.Printf("queued %d existing files", n)
	}

	worker := jobs.NewWorker("ingest", queue, debounce/4+100*time.Millisecond)
	go worker.Start(ctx)

	log.Printf("watching %s", dir)
	err = watcher.Run(ctx, dir)

	worker.Stop()
	return err
}
