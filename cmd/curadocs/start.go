// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/curadocs-dev/curadocs/internal/alert"
	"github.com/curadocs-dev/curadocs/internal/assistant"
	"github.com/curadocs-dev/curadocs/internal/config"
	"github.com/curadocs-dev/curadocs/internal/identity"
	"github.com/curadocs-dev/curadocs/internal/provider"
	googleprov "github.com/curadocs-dev/curadocs/internal/provider/google"
	openaiprov "github.com/curadocs-dev/curadocs/internal/provider/openai"
	"github.com/curadocs-dev/curadocs/internal/secrets"
	"github.com/curadocs-dev/curadocs/internal/server"
	"github.com/curadocs-dev/curadocs/internal/store"
	_ "github.com/curadocs-dev/curadocs/internal/store/postgres" // register postgres backend
	_ "github.com/curadocs-dev/curadocs/internal/store/sqlite"   // register sqlite backend
	curaerr "github.com/curadocs-dev/curadocs/pkg/errors"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the curadocs portal server",
		Long:  "Load configuration, initialize storage and the assistant pipeline, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = discoverConfig()
	}
	config.WarnInsecurePermissions(cfgPath)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	logger := slog.Default()

	chats, profiles, err := store.New(store.Config{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
		DSN:     cfg.Storage.DSN,
	})
	if err != nil {
		return curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "creating stores")
	}
	defer func() {
		_ = chats.Close()
		_ = profiles.Close()
	}()

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = gen.Close() }()

	pipelineCfg := assistant.Config{
		Model:        cfg.Assistant.Model,
		WindowSize:   cfg.Assistant.Window,
		HistoryLimit: cfg.Assistant.HistoryLimit,
		Logger:       logger,
	}

	if cfg.Alerts.Enabled {
		natsToken, err := secrets.Resolve(secrets.NewKeyringStore(), cfg.Alerts.Token)
		if err != nil {
			return curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "resolving alerts token")
		}
		publisher, err := alert.New(alert.Config{
			URL:    cfg.Alerts.URL,
			Token:  natsToken,
			Logger: logger,
		})
		if err != nil {
			return curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "connecting alert publisher")
		}
		defer func() { _ = publisher.Close() }()
		pipelineCfg.Alerts = publisher
	}

	pipeline, err := assistant.NewPipeline(chats, gen, pipelineCfg)
	if err != nil {
		return curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "creating assistant pipeline")
	}

	svc, err := server.NewServices(pipeline, identity.NewResolver(profiles), profiles)
	if err != nil {
		return curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "creating services")
	}

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})
	if err != nil {
		return curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "creating server")
	}
	srv.RegisterServices(svc)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting curadocs",
		"listen", cfg.Server.Listen,
		"storage", cfg.Storage.Backend,
		"provider", gen.Name(),
		"model", cfg.Assistant.Model,
		"alerts", cfg.Alerts.Enabled,
	)

	return srv.Start(ctx)
}

// discoverConfig finds or bootstraps the default config file. Returns the
// empty string when none exists and none could be written; defaults and
// environment variables still apply.
func discoverConfig() string {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return config.BootstrapConfig()
}

// newGenerator builds the configured generation backend. API keys come from
// the providers section (literal or keyring:// reference) or, failing that,
// the provider's conventional environment variable.
func newGenerator(cfg *config.Config) (provider.Generator, error) {
	creds := cfg.ProviderCredentials()
	apiKey, err := secrets.Resolve(secrets.NewKeyringStore(), creds.APIKey)
	if err != nil {
		return nil, curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "resolving provider api key")
	}

	provCfg := provider.Config{
		APIKey:  apiKey,
		Model:   cfg.Assistant.Model,
		BaseURL: creds.BaseURL,
	}

	switch cfg.Assistant.Provider {
	case "google":
		if provCfg.APIKey == "" {
			provCfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		gen, err := googleprov.New(provCfg)
		if err != nil {
			return nil, curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "creating google generator")
		}
		return gen, nil
	case "openai":
		if provCfg.APIKey == "" {
			provCfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		gen, err := openaiprov.New(provCfg)
		if err != nil {
			return nil, curaerr.Wrap(err, curaerr.CodeCLISetupFailure, "creating openai generator")
		}
		return gen, nil
	default:
		return nil, curaerr.Errorf(curaerr.CodeCLISetupFailure, "unsupported assistant provider: %q", cfg.Assistant.Provider)
	}
}
