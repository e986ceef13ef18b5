package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/chunk"
	"github.com/sells-group/project1899/internal/config"
	"github.com/sells-group/project1899/internal/dedup"
	"github.com/sells-group/project1899/internal/model"
	"github.com/sells-group/project1899/internal/runlog"
	"github.com/sells-group/project1899/internal/snapshot"
)

var (
	dedupIn        string
	dedupOut       string
	dedupChunkSize int
	dedupOverlap   int
	dedupThreshold float64
	dedupOverwrite bool
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Chunk a corpus snapshot and remove near-duplicate chunks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dc := dedupSettings(cmd)
		if err := dc.Validate(); err != nil {
			return err
		}
		return tracked(cmd.Context(), model.StageDedup, func(ctx context.Context, runID string) (*runlog.Result, error) {
			return runDedup(ctx, runID, dc)
		})
	},
}

// dedupSettings overlays explicitly set flags on the dedup config section.
func dedupSettings(cmd *cobra.Command) config.DedupConfig {
	dc := cfg.Dedup
	if cmd.Flags().Changed("chunk_size") {
		dc.ChunkSize = dedupChunkSize
	}
	if cmd.Flags().Changed("overlap") {
		dc.Overlap = dedupOverlap
	}
	if cmd.Flags().Changed("threshold") {
		dc.Threshold = dedupThreshold
	}
	return dc
}

func runDedup(ctx context.Context, runID string, dc config.DedupConfig) (*runlog.Result, error) {
	log := zap.L().With(zap.String("component", "dedup"))

	records, err := snapshot.ReadRecords(ctx, dedupIn)
	if err != nil {
		return nil, err
	}

	// Below the step floor the overlap shrinks, and a chunk_size smaller than
	// the floor yields windows of step words rather than chunk_size words.
	if step := chunk.Step(dc.ChunkSize, dc.Overlap); step != dc.ChunkSize-dc.Overlap {
		log.Warn("step floor overrides configured overlap",
			zap.Int("chunk_size", dc.ChunkSize),
			zap.Int("overlap", dc.Overlap),
			zap.Int("step", step),
			zap.Int("window", chunk.Width(dc.ChunkSize, dc.Overlap)),
		)
	}

	popts := parallelOpts()
	chunks, err := chunk.Explode(ctx, records, dc.ChunkSize, dc.Overlap, popts)
	if err != nil {
		return nil, err
	}
	log.Info("corpus chunked", zap.Int("records", len(records)), zap.Int("chunks", len(chunks)))

	d, err := dedup.New(dedup.Config{
		ShingleSize: dc.ShingleSize,
		Threshold:   dc.Threshold,
		NumPerm:     dc.NumPerm,
		Seed:        dc.Seed,
	})
	if err != nil {
		return nil, err
	}
	kept, stats, err := d.Dedup(ctx, chunks, popts)
	if err != nil {
		return nil, err
	}

	state, err := snapshot.WriteChunks(ctx, dedupOut, kept, snapshot.WriteOptions{
		Overwrite: dedupOverwrite,
		RunID:     runID,
	})
	if err != nil {
		return nil, err
	}

	log.Info("dedup complete",
		zap.String("output", dedupOut),
		zap.Int("input", stats.Input),
		zap.Int("retained", stats.Retained),
		zap.Int("removed", stats.Removed),
	)
	return &runlog.Result{
		Rows: int64(state.Rows),
		Metadata: map[string]any{
			"input":      dedupIn,
			"output":     dedupOut,
			"records":    len(records),
			"chunk_size": dc.ChunkSize,
			"overlap":    dc.Overlap,
			"threshold":  dc.Threshold,
			"stats":      stats,
		},
	}, nil
}

func init() {
	dedupCmd.Flags().StringVar(&dedupIn, "in", "", "corpus snapshot produced by build (required)")
	dedupCmd.Flags().StringVar(&dedupOut, "out", "", "output chunk snapshot directory (required)")
	dedupCmd.Flags().IntVar(&dedupChunkSize, "chunk_size", 1024, "words per chunk")
	dedupCmd.Flags().IntVar(&dedupOverlap, "overlap", 128, "words shared by consecutive chunks")
	dedupCmd.Flags().Float64Var(&dedupThreshold, "threshold", 0.9, "Jaccard similarity threshold")
	dedupCmd.Flags().BoolVar(&dedupOverwrite, "overwrite", false, "replace an existing output snapshot")
	_ = dedupCmd.MarkFlagRequired("in")
	_ = dedupCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(dedupCmd)
}
