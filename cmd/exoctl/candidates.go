package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/exoplorer/internal/core"
)

func newCandidatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "candidates",
		Aliases: []string{"cand"},
		Short:   "Manage saved candidate records",
	}
	cmd.AddCommand(
		newCandidatesListCmd(a),
		newCandidatesAddCmd(a),
		newCandidatesDeleteCmd(a),
		newCandidatesExportCmd(a),
	)
	return cmd
}

func newCandidatesListCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved candidates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.ws.Candidates.List(cmd.Context())
			if err != nil {
				return userError(err)
			}
			out := cmd.OutOrStdout()

			switch output {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(recs); err != nil {
					return err
				}
				return enc.Close()
			case "text", "":
			default:
				return fmt.Errorf("unknown output format %q (want text, json or yaml)", output)
			}

			if len(recs) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No candidates saved yet."))
				return nil
			}

			cols := usedColumns(recs)
			rows := make([][]string, 0, len(recs))
			for i := len(recs) - 1; i >= 0; i-- {
				rec := recs[i]
				row := []string{strconv.FormatInt(rec.ID, 10), rec.Timestamp.Local().Format(time.DateTime)}
				for _, c := range cols {
					row = append(row, rec.Fields[c])
				}
				rows = append(rows, row)
			}
			renderTable(out, append([]string{"id", "saved"}, cols...), rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json, yaml")
	return cmd
}

// usedColumns is CandidateColumns minus the columns no record fills.
func usedColumns(recs []core.CandidateRecord) []string {
	return slices.DeleteFunc(core.CandidateColumns(recs), func(c string) bool {
		for _, rec := range recs {
			if rec.Fields[c] != "" {
				return false
			}
		}
		return true
	})
}

func newCandidatesAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add name=value...",
		Short:   "Save a candidate from name=value pairs",
		Example: "  exoctl candidates add koi_score=0.97 koi_prad=2.26 koi_count=1",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := make(map[string]string, len(args))
			for _, arg := range args {
				name, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("argument %q is not name=value", arg)
				}
				name, value = strings.TrimSpace(name), strings.TrimSpace(value)
				if name != "" && value != "" {
					fields[name] = value
				}
			}

			rec, checks, err := a.ws.SubmitCandidate(cmd.Context(), fields)
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("Saved candidate %d with %d values", rec.ID, len(rec.Fields))))
			for _, c := range checks {
				if !c.Valid {
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("  %s = %q is not a valid %s", c.Field, c.Value, c.Type)))
				}
			}
			return nil
		},
	}
}

func newCandidatesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return userError(fmt.Errorf("%w: %q", core.ErrCandidateNotFound, args[0]))
			}
			if err := a.ws.DeleteCandidate(cmd.Context(), id); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Deleted candidate %d", id)))
			return nil
		},
	}
}

func newCandidatesExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every candidate as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.ws.Candidates.List(cmd.Context())
			if err != nil {
				return userError(err)
			}
			if len(recs) == 0 {
				return userError(core.ErrNoCandidates)
			}

			w, err := outputTo(cmd, output)
			if err != nil {
				return err
			}
			defer w.Close()

			n, err := a.ws.ExportCandidatesCSV(cmd.Context(), w)
			if err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), okStyle.Render(fmt.Sprintf("Wrote %d candidates to %s", n, output)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
