package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/assemble"
	"github.com/sells-group/project1899/internal/audit"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/runlog"
	"github.com/sells-group/project1899/internal/snapshot"
	"github.com/sells-group/project1899/internal/source"
)

var (
	buildOut       string
	buildOverwrite bool
	buildAudit     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the pre-1900 corpus from the configured sources",
	Long:  "Loads every configured source, applies the year filter, boilerplate stripping and the anachronism filter, then merges, shuffles and saves the corpus snapshot.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(cfg.Build.Sources) == 0 {
			return eris.New("build: no sources configured (build.sources or build.sources_file)")
		}
		out := cfg.Build.Output
		if buildOut != "" {
			out = buildOut
		}
		auditOn := cfg.Build.Audit.Enabled
		if cmd.Flags().Changed("audit") {
			auditOn = buildAudit
		}

		return tracked(cmd.Context(), model.StageBuild, func(ctx context.Context, runID string) (*runlog.Result, error) {
			return runBuild(ctx, runID, out, auditOn)
		})
	},
}

func runBuild(ctx context.Context, runID, out string, auditOn bool) (*runlog.Result, error) {
	res := newResolver()

	inputs := make([]assemble.Input, 0, len(cfg.Build.Sources))
	for _, sc := range cfg.Build.Sources {
		tbl, err := source.Open(ctx, sc, res, cfg.Fetch.TempDir)
		if err != nil {
			return nil, eris.Wrapf(err, "build: open source %s", sc.Name)
		}
		in, err := assemble.InputFromConfig(tbl, sc)
		if err != nil {
			return nil, eris.Wrapf(err, "build: source %s", sc.Name)
		}
		inputs = append(inputs, in)
	}

	result, err := assemble.Assemble(ctx, inputs, assemble.Options{
		YearCutoff: cfg.Build.YearCutoff,
		Seed:       cfg.Build.Seed,
		Parallel:   parallelOpts(),
	})
	if err != nil {
		return nil, err
	}

	state, err := snapshot.WriteRecords(ctx, out, result.Records, snapshot.WriteOptions{
		Overwrite: buildOverwrite,
		RunID:     runID,
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"output":   out,
		"counts":   result.Counts,
		"rejected": len(result.Rejected),
	}

	if auditOn {
		a := cfg.Build.Audit
		samples := audit.BuildSamples(result.Rejected, a.SampleSize, a.Seed, a.SnippetLen)
		if err := audit.Write(a.Path, samples); err != nil {
			return nil, err
		}
		meta["audit_path"] = a.Path
		meta["audit_samples"] = len(samples)
		zap.L().Info("rejection samples written",
			zap.String("path", a.Path),
			zap.Int("samples", len(samples)),
		)
	}

	zap.L().Info("build complete",
		zap.String("output", out),
		zap.Int("records", state.Rows),
		zap.Int("rejected", len(result.Rejected)),
	)
	return &runlog.Result{Rows: int64(state.Rows), Metadata: meta}, nil
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output snapshot directory (default from config)")
	buildCmd.Flags().BoolVar(&buildOverwrite, "overwrite", false, "replace an existing snapshot")
	buildCmd.Flags().BoolVar(&buildAudit, "audit", false, "write rejection samples (default from config)")
	rootCmd.AddCommand(buildCmd)
}
