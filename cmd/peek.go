package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/assemble"
	"github.com/sells-group/project1899/internal/boilerplate"
	"github.com/sells-group/project1899/internal/config"
	"github.com/sells-group/project1899/internal/source"
)

var (
	peekN   int
	peekOut string
)

var peekCmd = &cobra.Command{
	Use:   "peek <source>",
	Short: "Write the first pre-cutoff records of one source as JSONL",
	Long:  "Streams a configured source through the strict year filter and marker-based boilerplate stripping and writes the first N surviving records.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sc, err := findSource(args[0])
		if err != nil {
			return err
		}
		tbl, err := source.Open(ctx, sc, newResolver(), cfg.Fetch.TempDir)
		if err != nil {
			return err
		}
		in, err := assemble.InputFromConfig(tbl, sc)
		if err != nil {
			return err
		}
		in.YearPolicy = assemble.Strict
		in.Stripper = boilerplate.New(boilerplate.Markers)

		cutoff := cfg.Build.YearCutoff
		if cutoff == 0 {
			cutoff = assemble.DefaultYearCutoff
		}
		lines := peekRecords(in, tbl.All(), peekN, cutoff)

		var w io.Writer = os.Stdout
		if peekOut != "" {
			f, err := os.Create(peekOut)
			if err != nil {
				return eris.Wrapf(err, "peek: create %s", peekOut)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		if err := writePeek(w, lines); err != nil {
			return err
		}
		zap.L().Info("peek complete", zap.String("source", sc.Name), zap.Int("records", len(lines)))
		return nil
	},
}

type peekLine struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	PublicationDate *int   `json:"publication_date"`
	Text            string `json:"text"`
}

// peekRecords returns up to n rows that pass the year filter, in source order.
func peekRecords(in assemble.Input, rows []source.Row, n, cutoff int) []peekLine {
	var out []peekLine
	for i, row := range rows {
		if len(out) >= n {
			break
		}
		o := in.Classify(row, i, cutoff)
		if o.Verdict == assemble.DroppedYear {
			continue
		}
		out = append(out, peekLine{
			ID:              o.Record.Identifier,
			Title:           o.Record.Title,
			PublicationDate: o.Record.PublicationYear,
			Text:            o.Record.Text,
		})
	}
	return out
}

func writePeek(w io.Writer, lines []peekLine) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, l := range lines {
		if err := enc.Encode(l); err != nil {
			return eris.Wrap(err, "peek: encode record")
		}
	}
	return nil
}

func findSource(name string) (config.SourceConfig, error) {
	for _, sc := range cfg.Build.Sources {
		if sc.Name == name {
			return sc, nil
		}
	}
	return config.SourceConfig{}, eris.Errorf("source %q is not configured", name)
}

func init() {
	peekCmd.Flags().IntVar(&peekN, "n", 20, "number of records to write")
	peekCmd.Flags().StringVar(&peekOut, "out", "", "output file (default stdout)")
	rootCmd.AddCommand(peekCmd)
}
