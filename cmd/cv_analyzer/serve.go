package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-keyword-analyzer/internal/config"
	"github.com/jonathan/cv-keyword-analyzer/internal/db"
	"github.com/jonathan/cv-keyword-analyzer/internal/server"
	"github.com/jonathan/cv-keyword-analyzer/internal/server/middleware"
)

var (
	servePort   int
	serveNoSave bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server that accepts résumé uploads and returns keyword analyses.

When DATABASE_URL is set, results are stored and can be fetched again. When JWT_SECRET
is set, bearer tokens attach analyses to a user.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config or PORT, else 8080)")
	serveCmd.Flags().BoolVar(&serveNoSave, "no-save", false, "Do not store analyses even when a database is configured")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, os.Getenv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	p, closeFn, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	var store server.AnalysisStore
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare database: %w", err)
		}
		store = database
	} else {
		log.Warn("DATABASE_URL not set, analyses will not be stored")
	}

	var tokens middleware.TokenValidator
	jwtCfg, err := config.NewJWTConfig()
	switch {
	case errors.Is(err, config.ErrJWTDisabled):
		log.Info("JWT_SECRET not set, all requests are anonymous")
	case err != nil:
		return err
	default:
		tokens = server.NewJWTService(jwtCfg).AsTokenValidator()
	}

	srv := server.New(server.Config{
		Port:        cfg.Port,
		SaveResults: store != nil && !serveNoSave,
	}, p, store, tokens, log)
	return srv.Start(ctx)
}
