package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/project1899/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources with their schema and row count",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if len(cfg.Build.Sources) == 0 {
			fmt.Fprintln(os.Stderr, "No sources configured.")
			return nil
		}

		res := newResolver()
		var infos []sourceInfo
		for _, sc := range cfg.Build.Sources {
			info := sourceInfo{Name: sc.Name, Format: sc.Format}
			tbl, err := source.Open(ctx, sc, res, cfg.Fetch.TempDir)
			if err != nil {
				info.Err = err.Error()
			} else {
				info.Rows = tbl.Count()
				info.Schema = tbl.Schema()
			}
			infos = append(infos, info)
		}
		formatSources(os.Stdout, infos)
		return nil
	},
}

type sourceInfo struct {
	Name   string
	Format string
	Rows   int
	Schema []string
	Err    string
}

func formatSources(out io.Writer, infos []sourceInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tFORMAT\tROWS\tSCHEMA")
	_, _ = fmt.Fprintln(w, "----\t------\t----\t------")
	for _, s := range infos {
		if s.Err != "" {
			_, _ = fmt.Fprintf(w, "%s\t%s\t-\terror: %s\n", s.Name, s.Format, s.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Name, s.Format, s.Rows, strings.Join(s.Schema, ", "))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
