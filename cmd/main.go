/*
Package main is the entry point for the Nick-n-Chat bridge.

It is responsible for loading configuration (environment first, command-line flags on top),
initializing the global logging system, setting up the local HTTP/WebSocket bridge, and
gracefully handling operating system interrupt signals (SIGINT, SIGTERM) so that every
chat session releases its broker connection before exit.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nickchat/internal/app/bridge"
	"nickchat/internal/app/chat"
	"nickchat/internal/app/transport"
	"nickchat/internal/configs"
	"nickchat/internal/handler"
	"nickchat/internal/pkg/logx"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. Flags left unset keep the values loaded from the environment.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nickchat",
		Short:         "Nickname-based group chat over a public pub/sub broker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.LoadConfig(flagOverrides(cmd))
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("env", "", "running environment (development enables debug logs and open CORS)")
	flags.Int("port", 0, "local bridge HTTP port")
	flags.String("broker-url", "", "broker endpoint (ws://, wss://, nats://, tls:// or mem://)")
	flags.String("chat-topic", "", "topic carrying chat messages")
	flags.String("presence-topic", "", "topic carrying join announcements")
	flags.Duration("connect-timeout", 0, "timeout of a single broker connection attempt")
	flags.StringSlice("allowed-origins", nil, "origins allowed to open the bridge outside development")

	return cmd
}

// flagOverrides copies explicitly set flags onto the environment configuration.
func flagOverrides(cmd *cobra.Command) configs.Override {
	return func(cfg *configs.AppConfig) {
		flags := cmd.Flags()

		if flags.Changed("env") {
			cfg.Environment, _ = flags.GetString("env")
		}
		if flags.Changed("port") {
			cfg.Port, _ = flags.GetInt("port")
		}
		if flags.Changed("broker-url") {
			cfg.BrokerURL, _ = flags.GetString("broker-url")
		}
		if flags.Changed("chat-topic") {
			cfg.ChatTopic, _ = flags.GetString("chat-topic")
		}
		if flags.Changed("presence-topic") {
			cfg.PresenceTopic, _ = flags.GetString("presence-topic")
		}
		if flags.Changed("connect-timeout") {
			cfg.ConnectTimeout, _ = flags.GetDuration("connect-timeout")
		}
		if flags.Changed("allowed-origins") {
			cfg.AllowedOrigins, _ = flags.GetStringSlice("allowed-origins")
		}
	}
}

func run(parent context.Context, cfg *configs.AppConfig) error {
	if parent == nil {
		parent = context.Background()
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("broker_url", cfg.BrokerURL).
		Str("chat_topic", cfg.ChatTopic).
		Str("presence_topic", cfg.PresenceTopic).
		Dur("connect_timeout", cfg.ConnectTimeout).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := bridge.NewManager(chat.Config{
		Endpoint:       cfg.BrokerURL,
		ChatTopic:      cfg.ChatTopic,
		PresenceTopic:  cfg.PresenceTopic,
		ConnectTimeout: cfg.ConnectTimeout,
	}, transport.NewFactory(cfg.BrokerURL))

	router := handler.Router(ctx, &handler.AppDeps{Manager: manager, Config: cfg})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logx.Info(fmt.Sprintf("Nick-n-Chat bridge starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logx.Info("Received shutdown signal. Starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			manager.Shutdown()
			return fmt.Errorf("server failed to start: %w", err)
		}
	}

	// Sessions go first so browsers receive their close frames before the listener stops.
	manager.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logx.Info("Server gracefully stopped.")
	return nil
}
