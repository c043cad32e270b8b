// Command unihook is the process entrypoint: a cobra root command with a
// single "serve" subcommand, mirroring the teacher's rootCmd/serverCmd
// split (cmd/server/main.go) minus its worker/api-server modes, which have
// no counterpart in this system.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cedricziel/unihook/internal/config"
	"github.com/cedricziel/unihook/internal/engineclient"
	"github.com/cedricziel/unihook/internal/httpserver"
	"github.com/cedricziel/unihook/internal/providers/github"
	"github.com/cedricziel/unihook/internal/providers/jira"
	"github.com/cedricziel/unihook/internal/providers/slack"
	"github.com/cedricziel/unihook/internal/router"
	"github.com/cedricziel/unihook/internal/store"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "unihook",
		Short: "Webhook-routing middleware between Slack/Jira/GitHub and a workflow engine",
	}
	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery loops and the inbound/impersonation HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	engine := engineclient.New(cfg.EngineBaseURL, cfg.EngineAPIKey, http.DefaultClient, logger)
	routerCfg := router.Config{
		EngineBaseURL:   cfg.EngineBaseURL,
		ProductionPath:  cfg.ProductionPath,
		TestPath:        cfg.TestPath,
		RefreshInterval: cfg.RefreshInterval,
	}

	githubRouter := github.New(st, engine, routerCfg, logger)
	jiraRouter := jira.New(st, engine, routerCfg, logger)
	slackRouter := slack.New(st, engine, routerCfg, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go githubRouter.Start(runCtx)
	go jiraRouter.Start(runCtx)
	go slackRouter.Start(runCtx)

	gc := store.NewGC(st, store.DefaultOrphanRetention, logger)
	if err := gc.Start(runCtx); err != nil {
		return fmt.Errorf("start secret gc: %w", err)
	}

	handler := httpserver.New(
		st,
		httpserver.Routers{GitHub: githubRouter, Jira: jiraRouter, Slack: slackRouter},
		httpserver.Handlers{
			GitHub: github.NewHandler(githubRouter, cfg.GitHubSharedSecret, logger),
			Jira:   jira.NewHandler(jiraRouter, logger),
			Slack:  slack.NewHandler(slackRouter, logger),
		},
		httpserver.Impersonation{
			GitHub: github.NewImpersonation(st, logger),
			Jira:   jira.NewImpersonation(jiraRouter, logger),
		},
		logger,
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", "error", err)
	}
	return nil
}
