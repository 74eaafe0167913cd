// Command concierged runs the Concierge HTTP server.
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

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	concierge "github.com/conciergedev/concierge"
	"github.com/conciergedev/concierge/catalog"
	"github.com/conciergedev/concierge/config"
	"github.com/conciergedev/concierge/core"
	"github.com/conciergedev/concierge/logging"
	"github.com/conciergedev/concierge/model"
	"github.com/conciergedev/concierge/model/anthropic"
	"github.com/conciergedev/concierge/model/openai"
	"github.com/conciergedev/concierge/server"
	"github.com/conciergedev/concierge/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "concierged",
	Short: "Concierge - conversational cloud service ordering assistant",
	Long: `concierged serves the Concierge conversation engine over HTTP.

Users chat in natural language; the engine classifies each message,
resolves it against the service catalog, manages carts and orders and
answers free-form questions through the configured model provider.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "concierged.yaml", "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	convStore, closeStore, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	timeout, err := cfg.GenerationTimeout()
	if err != nil {
		return err
	}

	c := concierge.New(generator, cat, func(o *concierge.Options) {
		o.Store = convStore
		o.Logger = logger
		o.DefaultContext = cfg.Conversation.DefaultContext
		if cfg.Conversation.FriendlyMenus != nil {
			o.FriendlyMenus = *cfg.Conversation.FriendlyMenus
		}
		o.GenerationTimeout = timeout
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(c, func(o *server.Options) { o.Logger = logger }),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "provider", cfg.Model.Provider, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) logging.Logger {
	lc := logging.DefaultLoggerConfig()
	lc.Format = cfg.Logging.Format
	lc.Component = "concierged"
	switch cfg.Logging.Level {
	case "debug":
		lc.Level = logging.LogLevelDebug
	case "warn":
		lc.Level = logging.LogLevelWarn
	case "error":
		lc.Level = logging.LogLevelError
	default:
		lc.Level = logging.LogLevelInfo
	}
	return logging.NewLogger(lc)
}

func newStore(cfg *config.Config, logger logging.Logger) (core.ConversationStore, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewInMemoryStore(), func() {}, nil
	case "bolt":
		bs, err := store.OpenBoltStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		return bs, func() { _ = bs.Close() }, nil
	default:
		return store.NewFileStore(cfg.Store.Path, logger), func() {}, nil
	}
}

func newGenerator(cfg *config.Config) (model.Generator, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		return anthropic.NewGenerator(func(o *anthropic.Options) {
			o.APIKey = cfg.Model.APIKey
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
		}), nil
	case "openai":
		clientOpts := []openaioption.RequestOption{openaioption.WithAPIKey(cfg.Model.APIKey)}
		if cfg.Model.BaseURL != "" {
			clientOpts = append(clientOpts, openaioption.WithBaseURL(cfg.Model.BaseURL))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openai.NewGeneratorFromClient(&client, func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Model.Provider)
	}
}
