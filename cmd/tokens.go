package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/project1899/internal/chunk"
	"github.com/sells-group/project1899/internal/parallel"
	"github.com/sells-group/project1899/internal/snapshot"
)

var tokensIn string

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Count whitespace-delimited words in a snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		texts, err := snapshotTexts(ctx, tokensIn)
		if err != nil {
			return err
		}
		total, err := countTokens(ctx, texts, parallelOpts())
		if err != nil {
			return err
		}
		formatTokens(os.Stdout, len(texts), total)
		return nil
	},
}

// snapshotTexts loads the text column of a corpus or chunk snapshot.
func snapshotTexts(ctx context.Context, dir string) ([]string, error) {
	state, err := snapshot.ReadState(dir)
	if err != nil {
		return nil, err
	}
	if state.Kind == snapshot.KindChunks {
		chunks, err := snapshot.ReadChunks(ctx, dir)
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		return texts, nil
	}
	records, err := snapshot.ReadRecords(ctx, dir)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	return texts, nil
}

func countTokens(ctx context.Context, texts []string, opts parallel.Options) (int64, error) {
	counts, err := parallel.Map(ctx, texts, opts, func(_ context.Context, t string) (int, bool, error) {
		return chunk.WordCount(t), true, nil
	})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range counts {
		total += int64(c)
	}
	return total, nil
}

func formatTokens(w io.Writer, examples int, total int64) {
	_, _ = fmt.Fprintf(w, "Examples:\t%d\n", examples)
	_, _ = fmt.Fprintf(w, "Total tokens:\t%d\n", total)
	_, _ = fmt.Fprintf(w, "~%.2fM tokens\n", float64(total)/1e6)
}

func init() {
	tokensCmd.Flags().StringVar(&tokensIn, "in", "", "snapshot directory (required)")
	_ = tokensCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(tokensCmd)
}
