package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BruksfildServices01/clinic-scheduler/internal/routes"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only lookup API",
		RunE: func(cmd *cobra.Command, args []string) error {
			withWorkers, _ := cmd.Flags().GetBool("with-workers")
			return runServer(withWorkers)
		},
	}
	cmd.Flags().Bool("with-workers", false, "Also run every pipeline stage in this process")
	return cmd
}

func runServer(withWorkers bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, a.store, a.db, a.cfg.AuditTable, a.logger)

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if withWorkers {
		workers, err := a.workers(stageNames)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		for _, w := range workers {
			w := w
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	return g.Wait()
}
