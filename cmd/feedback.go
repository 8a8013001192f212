package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/archivelab/docmeta/internal/feedback"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Inspect recorded extractions and file corrections",
	Long:  "Commands for listing stored extraction runs, viewing their reports, filing corrected values, and summarizing per-field accuracy.",
}

// -- feedback runs --

var feedbackRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded extraction runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rec, err := openRecorder()
		if err != nil {
			return err
		}
		defer rec.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := rec.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "feedback runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		formatFeedbackRuns(os.Stdout, runs)
		return nil
	},
}

// -- feedback show --

var feedbackShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full stored report for a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := openRecorder()
		if err != nil {
			return err
		}
		defer rec.Close() //nolint:errcheck

		report, err := rec.GetReport(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "feedback show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// -- feedback correct --

var feedbackCorrectCmd = &cobra.Command{
	Use:   "correct <run-id> <field-key> <corrected-value>",
	Short: "Record a human-corrected value for one extracted field",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID, fieldKey, corrected := args[0], args[1], args[2]

		rec, err := openRecorder()
		if err != nil {
			return err
		}
		defer rec.Close() //nolint:errcheck

		report, err := rec.GetReport(ctx, runID)
		if err != nil {
			return eris.Wrap(err, "feedback correct")
		}
		fr := report.Field(fieldKey)
		if fr == nil {
			return eris.Errorf("run %s has no field %q", runID, fieldKey)
		}

		original := ""
		if fr.Value != nil {
			original = fmt.Sprint(fr.Value)
		}

		err = rec.RecordCorrection(ctx, feedback.Correction{
			RunID:          runID,
			FieldKey:       fieldKey,
			OriginalValue:  original,
			CorrectedValue: corrected,
		})
		if err != nil {
			return eris.Wrap(err, "feedback correct")
		}

		fmt.Fprintf(os.Stdout, "Recorded correction for %s.%s: %q -> %q\n", runID, fieldKey, original, corrected)
		return nil
	},
}

// -- feedback stats --

var feedbackStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-field accuracy statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rec, err := openRecorder()
		if err != nil {
			return err
		}
		defer rec.Close() //nolint:errcheck

		stats, err := rec.Stats(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "feedback stats")
		}

		if len(stats) == 0 {
			fmt.Fprintln(os.Stderr, "No field results recorded.")
			return nil
		}

		formatFieldStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	feedbackRunsCmd.Flags().Int("limit", 20, "max number of runs to display")

	feedbackCmd.AddCommand(feedbackRunsCmd)
	feedbackCmd.AddCommand(feedbackShowCmd)
	feedbackCmd.AddCommand(feedbackCorrectCmd)
	feedbackCmd.AddCommand(feedbackStatsCmd)
	rootCmd.AddCommand(feedbackCmd)
}

// formatFeedbackRuns writes a tabular list of stored runs to w.
func formatFeedbackRuns(out io.Writer, runs []feedback.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN_ID\tSOURCE\tMODE\tPRIORITY\tTYPE\tQUALITY\tCREATED")
	_, _ = fmt.Fprintln(w, "------\t------\t----\t--------\t----\t-------\t-------")

	for _, r := range runs {
		source := r.SourceID
		if len(source) > 30 {
			source = source[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			r.RunID, source, r.Mode, r.Priority, r.DocType, r.Quality,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// formatFieldStats writes a tabular per-field accuracy summary to w.
func formatFieldStats(out io.Writer, stats []feedback.FieldStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tRUNS\tUNRESOLVED\tCORRECTIONS\tAVG_CONF")
	_, _ = fmt.Fprintln(w, "-----\t----\t----------\t-----------\t--------")

	for _, s := range stats {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\n",
			s.FieldKey, s.Runs, s.Unresolved, s.Corrections, s.AvgConfidence)
	}
	_ = w.Flush()
}
