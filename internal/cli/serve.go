package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/trogers1052/paper-trader/internal/api"
	"github.com/trogers1052/paper-trader/internal/config"
	"github.com/trogers1052/paper-trader/internal/kafka"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for creating agents, asking them for decisions, placing
manual trades and saving or loading their ledgers. When Kafka is enabled,
evaluation requests are also consumed from the request topic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.defaultAgent(ctx, cfg.Agent.Name); err != nil {
		return fmt.Errorf("failed to prepare agent %s: %w", cfg.Agent.Name, err)
	}

	balance, _ := cfg.Agent.Balance()
	handler := api.NewHandler(a.registry, a.market, balance)
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           api.SetupRoutes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	if cfg.Kafka.Enabled {
		consumer := kafka.NewRequestConsumer(cfg.Kafka.Brokers, cfg.Kafka.RequestTopic, cfg.Kafka.GroupID, a.registry)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("request consumer: %w", err)
			}
		}()
	}

	go func() {
		log.Printf("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	for _, name := range a.registry.Names() {
		if err := a.registry.Save(shutdownCtx, name); err != nil {
			log.Printf("Failed to save agent %s: %v", name, err)
		}
	}
	return nil
}
