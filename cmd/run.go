package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/chatlog"
	"github.com/abhisek/kotowari/internal/config"
	"github.com/abhisek/kotowari/internal/llm"
	"github.com/abhisek/kotowari/internal/logging"
	"github.com/abhisek/kotowari/internal/progress"
	"github.com/abhisek/kotowari/internal/session"
	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/training"
	"github.com/abhisek/kotowari/internal/verdict"
)

// services bundles everything a command needs to drive the coach.
type services struct {
	cfg    *config.Config
	db     *store.Store
	logger *zap.Logger
	deps   session.Deps

	// notice is a user-facing warning, e.g. when no LLM is configured.
	notice string
}

// logTarget says where a command's logs go.
type logTarget int

const (
	logToStderr logTarget = iota
	// logToFile keeps log lines off the terminal, for the TUI.
	logToFile
)

// openStore opens the configured database.
func openStore(cfg *config.Config) (*store.Store, error) {
	dsn := cfg.DSN
	if cfg.DBDriver == "sqlite" {
		p, err := cfg.DBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dsn = p
	}
	s, err := store.OpenDriver(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// blobStore returns the configured home for progress and chat logs.
func blobStore(cfg *config.Config, db *store.Store) (store.BlobStore, error) {
	if cfg.Backend == config.BackendFile {
		fb, err := store.NewFileBlobStore(cfg.BlobDir())
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return fb, nil
	}
	return db.BlobStore(), nil
}

// openServices loads configuration, opens storage and builds the coach
// dependencies. Call close when done.
func openServices(cmd *cobra.Command, target logTarget) (*services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logOpts := logging.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Log.Development,
	}
	if target == logToFile && logOpts.File == "" {
		logOpts.File = filepath.Join(cfg.DataDir, "kotowari.log")
	}
	logger := logging.Must(logOpts)

	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := blobStore(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	rt := &services{cfg: cfg, db: db, logger: logger}
	rt.deps = session.Deps{
		Progress:    progress.NewStore(blobs, training.Elements(), logger.Named("progress")),
		ChatLog:     chatlog.New(blobs, logger.Named("chatlog")),
		Extractor:   verdict.NewExtractor(cfg.Verdict, logger.Named("verdict")),
		Verdicts:    db.EventRepo(),
		Logger:      logger.Named("session"),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	logger.Info("services ready",
		zap.String("driver", cfg.DBDriver),
		zap.String("backend", cfg.Backend),
		zap.String("data_dir", cfg.DataDir))
	return rt, nil
}

// withProvider attaches the completion service. Without credentials the
// coach still runs but every request fails as unavailable.
func (rt *services) withProvider(ctx context.Context) error {
	if !rt.cfg.LLMConfigured {
		rt.notice = "LLMのAPIキーが設定されていません (kotowari --help を参照)"
		rt.logger.Warn("no LLM provider configured")
		rt.deps.Provider = llm.NewMockProvider()
		return nil
	}
	p, err := llm.NewProvider(ctx, rt.cfg.LLM, rt.db.EventRepo(), rt.logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}
	rt.deps.Provider = p
	return nil
}

// coach builds a coach for the configured user.
func (rt *services) coach(ctx context.Context) *session.Coach {
	return session.NewCoach(ctx, rt.deps, rt.cfg.User)
}

func (rt *services) close() {
	_ = rt.logger.Sync()
	rt.db.Close()
}
