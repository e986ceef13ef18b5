package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/spotcheck"
)

var (
	spotcheckKept    string
	spotcheckRemoved string
	spotcheckSample  int
	spotcheckPort    int
)

var spotcheckCmd = &cobra.Command{
	Use:   "spotcheck",
	Short: "Inspect kept records and rejection samples",
	Long:  "Read-only views over the assembled corpus snapshot and the anachronism rejection log.",
}

var spotcheckServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the spot-check web viewer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		v, err := spotcheck.New(ctx, spotcheckOptions())
		if err != nil {
			return err
		}
		defer v.Close() //nolint:errcheck
		for _, w := range v.Warnings() {
			zap.L().Warn("spotcheck", zap.String("warning", w))
		}

		port := spotcheckPort
		if port == 0 {
			port = cfg.Spotcheck.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           spotcheck.Handler(v),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

var spotcheckPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print a sample of kept and removed records to the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		v, err := spotcheck.New(ctx, spotcheckOptions())
		if err != nil {
			return err
		}
		defer v.Close() //nolint:errcheck

		for _, w := range v.Warnings() {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}

		kept, err := v.Kept(ctx, spotcheckSample)
		if err != nil {
			return err
		}
		spotcheck.PrintKept(os.Stdout, kept)
		spotcheck.PrintRemoved(os.Stdout, v.Removed(spotcheckSample))
		return nil
	},
}

func spotcheckOptions() spotcheck.Options {
	opts := spotcheck.Options{
		KeptPath:     cfg.Spotcheck.KeptPath,
		RemovedPath:  cfg.Spotcheck.RemovedPath,
		SampleSize:   cfg.Spotcheck.SampleSize,
		RemovedLimit: cfg.Spotcheck.RemovedLimit,
		ExcerptLen:   cfg.Spotcheck.ExcerptLen,
	}
	if spotcheckKept != "" {
		opts.KeptPath = spotcheckKept
	}
	if spotcheckRemoved != "" {
		opts.RemovedPath = spotcheckRemoved
	}
	return opts
}

func init() {
	spotcheckCmd.PersistentFlags().StringVar(&spotcheckKept, "kept", "", "kept corpus snapshot (default from config)")
	spotcheckCmd.PersistentFlags().StringVar(&spotcheckRemoved, "removed", "", "rejection log (default from config)")
	spotcheckServeCmd.Flags().IntVar(&spotcheckPort, "port", 0, "server port (default from config)")
	spotcheckPrintCmd.Flags().IntVar(&spotcheckSample, "n", 0, "rows per column (default from config)")

	spotcheckCmd.AddCommand(spotcheckServeCmd)
	spotcheckCmd.AddCommand(spotcheckPrintCmd)
	rootCmd.AddCommand(spotcheckCmd)
}
