package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/db"
	"github.com/sells-group/project1899/internal/export"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/resilience"
	"github.com/sells-group/project1899/internal/runlog"
	"github.com/sells-group/project1899/internal/snapshot"
)

var (
	exportIn   string
	exportMode string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Load a deduplicated chunk snapshot into Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Export.DatabaseURL == "" {
			return eris.New("export: database url is required (P1899_EXPORT_DATABASE_URL)")
		}
		mode := cfg.Export.Mode
		if exportMode != "" {
			mode = exportMode
		}
		return tracked(cmd.Context(), model.StageExport, func(ctx context.Context, _ string) (*runlog.Result, error) {
			return runExport(ctx, export.Mode(mode))
		})
	},
}

func runExport(ctx context.Context, mode export.Mode) (*runlog.Result, error) {
	chunks, err := snapshot.ReadChunks(ctx, exportIn)
	if err != nil {
		return nil, err
	}

	policy := resilience.DefaultPolicy().WithAttempts(cfg.Fetch.MaxRetries)
	pool, err := db.Connect(ctx, cfg.Export.DatabaseURL, policy)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	exp, err := export.New(pool, export.Options{
		Schema: cfg.Export.Schema,
		Table:  cfg.Export.Table,
		Mode:   mode,
	})
	if err != nil {
		return nil, err
	}
	n, err := exp.Export(ctx, chunks)
	if err != nil {
		return nil, err
	}

	zap.L().Info("export complete",
		zap.String("table", cfg.Export.Schema+"."+cfg.Export.Table),
		zap.String("mode", string(mode)),
		zap.Int64("rows", n),
	)
	return &runlog.Result{
		Rows: n,
		Metadata: map[string]any{
			"input":  exportIn,
			"schema": cfg.Export.Schema,
			"table":  cfg.Export.Table,
			"mode":   string(mode),
		},
	}, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportIn, "in", "", "chunk snapshot produced by dedup (required)")
	exportCmd.Flags().StringVar(&exportMode, "mode", "", "replace or upsert (default from config)")
	_ = exportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(exportCmd)
}
