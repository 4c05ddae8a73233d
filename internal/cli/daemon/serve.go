package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/ragengine/internal/api/handlers"
	"github.com/cloo-solutions/ragengine/internal/api/middleware"
	"github.com/cloo-solutions/ragengine/internal/cli"
	"github.com/cloo-solutions/ragengine/internal/config"
	"github.com/cloo-solutions/ragengine/internal/jobs"
	"github.com/cloo-solutions/ragengine/internal/openai"
	"github.com/cloo-solutions/ragengine/internal/server"
	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the chat and ingestion API server on the configured port",
		RunE:  runServe,
	}

	cmd.Flags().AddFlagSet(cli.ServeFlags())

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	defer initTelemetry(cfg)()

	if port := cli.StringFlag(cmd, cli.FlagPort); port != "" {
		cfg.Port = port
	}

	profile, err := config.LoadAgentProfile(cfg.AgentProfile)
	if err != nil {
		return err
	}

	c, err := buildComponents(ctx, cfg, !cli.BoolFlag(cmd, cli.FlagNoMigrate))
	if err != nil {
		return err
	}
	defer c.Close()

	chat := openai.NewChatClient(c.sdk, cfg.ChatModel)
	agent := service.NewAgent(chat, c.retrieval, agentConfig(cfg, profile))
	log.Printf("agent '%s' ready (model: %s)", profile.Name, agentConfig(cfg, profile).Model)

	janitor := jobs.NewWorker("staging janitor", jobs.NewStagingJanitor(c.documents, cfg.StagingTTL), cfg.JanitorInterval)
	go janitor.Start(ctx)

	routerCfg := server.RouterConfig{
		ChatHandler:     handlers.NewChatHandler(agent),
		IngestHandler:   handlers.NewIngestHandler(c.ingestion),
		DocumentHandler: handlers.NewDocumentHandler(c.catalog),
		SearchHandler:   handlers.NewSearchHandler(c.retrieval),
		MaxUploadBytes:  cfg.MaxUploadBytes,
	}
	if cfg.HasAuth() {
		routerCfg.TokenValidator = middleware.StaticTokenValidator{Token: cfg.APIToken}
	} else {
		log.Println("RAG_API_TOKEN not set: API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	janitor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
