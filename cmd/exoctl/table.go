package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/exoplorer/internal/core"
)

// defaultMaxTableSize matches the server's TABLE_MAX_FILE_SIZE default.
const defaultMaxTableSize = 10 << 20

func newPreviewCmd() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:         "preview <file>",
		Short:       "Show the first rows of a CSV or XLSX file without saving it",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTableFile(args[0])
			if err != nil {
				return userError(err)
			}
			p := core.BuildPreview(t, rows)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%s: showing %d of %d rows", p.FileName, p.Shown, p.Total)))
			renderTable(out, p.Columns, p.Rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", core.DefaultPreviewRows, "number of data rows to show")
	return cmd
}

func readTableFile(path string) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return core.ReadTable(f, filepath.Base(path), defaultMaxTableSize)
}

func newTableCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage the saved exoplanet table",
	}
	cmd.AddCommand(
		newTableIngestCmd(a),
		newTableExportCmd(a),
		newTableClearCmd(a),
		newTableStatsCmd(a),
	)
	return cmd
}

func newTableIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Replace the saved table with a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			t, err := a.ws.IngestTable(cmd.Context(), f, filepath.Base(args[0]), defaultMaxTableSize)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(
				fmt.Sprintf("Saved %s: %d columns, %d rows", t.FileName, len(t.Headers), len(t.Rows))))
			return nil
		},
	}
}

func newTableExportCmd(a *app) *cobra.Command {
	var (
		output string
		xlsx   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved table as CSV (or XLSX with --xlsx)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.ws.Tables.Load(cmd.Context())
			if err != nil {
				return userError(err)
			}

			if xlsx && output == "" {
				output = core.ExportFileName("exoplanet_data", "xlsx", time.Now())
			}
			w, err := outputTo(cmd, output)
			if err != nil {
				return err
			}
			defer w.Close()

			if xlsx {
				err = core.EncodeXLSX(w, "exoplanet_data", t.Headers, t.Rows)
			} else {
				err = core.EncodeCSV(w, t.Headers, t.Rows)
			}
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), okStyle.Render("Wrote "+output))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write an Excel workbook")
	return cmd
}

func newTableClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the saved table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ws.ClearTable(cmd.Context()); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Cleared exoplanet data"))
			return nil
		},
	}
}

func newTableStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize every column of the saved table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.ws.Tables.Load(cmd.Context())
			if err != nil {
				return userError(err)
			}

			summaries := core.SummarizeTable(t)
			rows := make([][]string, len(summaries))
			for i, s := range summaries {
				rows[i] = []string{
					s.Name,
					strconv.Itoa(s.Filled),
					strconv.Itoa(s.Distinct),
					formatStat(s.Mean),
					formatStat(s.StdDev),
					formatStat(s.Min),
					formatStat(s.Median),
					formatStat(s.Max),
				}
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"column", "filled", "distinct", "mean", "stddev", "min", "median", "max"}, rows)
			return nil
		},
	}
}
