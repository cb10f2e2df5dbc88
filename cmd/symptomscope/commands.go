package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/rewired-gh/symptomscope/internal/api"
	"github.com/rewired-gh/symptomscope/internal/ingest"
	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/render"
	"github.com/rewired-gh/symptomscope/internal/series"
	"github.com/rewired-gh/symptomscope/internal/storage"
)

func serve(c *cli.Context) error {
	projector, err := newProjector()
	if err != nil {
		return err
	}

	holder := storage.NewHolder()
	if path := sourcePath(c); path != "" {
		if _, err := loadFile(holder, path); err != nil {
			return err
		}
	} else {
		logger.Info("No export preloaded, waiting for POST /api/v1/batches")
	}

	srv := api.NewServer(holder, projector, ingest.NewDecoder(cfg.Ingest.SymptomCategory), chartOptions(), cfg.Server.MaxUploadMB)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received, cleaning up...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown: %v", err)
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func categories(c *cli.Context) error {
	store, err := requireStore(c)
	if err != nil {
		return err
	}

	stats := store.Stats()
	fmt.Printf("Batch %s: %d records in %d categories (%d collisions)\n",
		store.ID(), store.Len(), len(stats), store.Collisions())
	fmt.Println(strings.Repeat("-", 60))
	for _, st := range stats {
		printCategoryStats(st)
	}
	return nil
}

// printCategoryStats displays one category's statistics
func printCategoryStats(st storage.CategoryStats) {
	fmt.Printf("\n  Category: %s\n", st.Category)
	fmt.Printf("    Records: %d\n", st.Records)
	fmt.Printf("    Dates: %s - %s\n",
		st.Range.Earliest.Format(series.DateLayout), st.Range.Latest.Format(series.DateLayout))
	fmt.Printf("    Severity: min %d, max %d, mean %.2f\n", st.MinSeverity, st.MaxSeverity, st.MeanSeverity)
}

func query(c *cli.Context) error {
	result, err := project(c)
	if err != nil {
		return err
	}

	fmt.Printf("%s, %s to %s: %d points\n", result.Category,
		result.Start.Format(series.DateLayout), result.End.Format(series.DateLayout), len(result.Points))
	for _, p := range result.Points {
		fmt.Printf("  %s  %3d  %s\n", p.X.Format("2006-01-02 15:04"), p.Y, strings.Repeat("#", int(p.Y)))
	}
	return nil
}

func chart(c *cli.Context) error {
	result, err := project(c)
	if err != nil {
		return err
	}

	out := c.String("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}

	if err := render.SVG(f, result, chartOptions()); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Printf("Wrote %d points of %s to %s\n", len(result.Points), result.Category, out)
	return nil
}

func project(c *cli.Context) (*series.Series, error) {
	req, err := windowRequest(c)
	if err != nil {
		return nil, err
	}
	store, err := requireStore(c)
	if err != nil {
		return nil, err
	}
	projector, err := newProjector()
	if err != nil {
		return nil, err
	}
	return projector.Project(store, req)
}
