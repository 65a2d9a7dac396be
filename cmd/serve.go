package cmd

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
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/kotowari/internal/api"
	"github.com/abhisek/kotowari/internal/training"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coach over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openServices(cmd, logToStderr)
		if err != nil {
			return err
		}
		defer rt.close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.cfg.HTTPAddr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := rt.withProvider(ctx); err != nil {
			return err
		}
		if rt.notice != "" {
			rt.logger.Warn("serving without an LLM provider; completions will fail")
		}

		reg := api.NewRegistry(rt.deps)
		h := api.NewHandler(reg, training.Elements(), rt.db, rt.logger.Named("api"))

		srv := &http.Server{
			Addr:              rt.cfg.HTTPAddr,
			Handler:           h.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rt.logger.Info("server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			rt.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return err
		}
		rt.logger.Info("server stopped", zap.Int("users", reg.Len()))
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address; overrides KOTOWARI_HTTP_ADDR")
}
