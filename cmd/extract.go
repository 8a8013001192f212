package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/archivelab/docmeta/internal/model"
	"github.com/archivelab/docmeta/internal/pipeline"
)

var (
	extractFile     string
	extractSourceID string
	extractMode     string
	extractPriority string
	extractFormat   string
	extractDryRun   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract metadata fields from one corrected document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		if extractMode == "" {
			extractMode = cfg.Extraction.Mode
		}
		if extractPriority == "" {
			extractPriority = cfg.Extraction.Priority
		}
		mode, err := model.ParseMode(extractMode)
		if err != nil {
			return err
		}
		priority, err := model.ParsePriority(extractPriority)
		if err != nil {
			return err
		}

		text, sourceID, err := readDocument(extractFile)
		if err != nil {
			return err
		}
		if extractSourceID != "" {
			sourceID = extractSourceID
		}

		ctx := cmd.Context()
		if cfg.Extraction.RunTimeoutSecs > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Extraction.RunTimeoutSecs)*time.Second)
			defer cancel()
		}

		p, cleanup, err := buildPipeline(ctx, extractDryRun)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := p.Run(ctx, model.Document{SourceID: sourceID, Text: text}, mode, priority)
		if err != nil {
			return eris.Wrap(err, "extract")
		}
		p.Wait()

		if unresolved := report.UnresolvedFields(); len(unresolved) > 0 {
			zap.L().Warn("extract: some fields unresolved", zap.Strings("fields", unresolved))
		}

		switch extractFormat {
		case "summary":
			fmt.Fprint(os.Stdout, pipeline.Summary(report))
			return nil
		default:
			out, err := pipeline.MarshalRecord(report)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		}
	},
}

// readDocument loads UTF-8 corrected text from a file, or stdin for "-".
func readDocument(path string) (text, sourceID string, err error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", eris.Wrap(err, "read stdin")
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", eris.Wrapf(err, "read %s", path)
	}
	return string(data), filepath.Base(path), nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "document text file, or - for stdin (required)")
	extractCmd.Flags().StringVar(&extractSourceID, "source-id", "", "source identifier recorded in the report")
	extractCmd.Flags().StringVar(&extractMode, "mode", "", "extraction mode: parallel or consensus")
	extractCmd.Flags().StringVar(&extractPriority, "priority", "", "routing priority: speed, balanced or accuracy")
	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "output format: json or summary")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "use stub backends instead of live providers")
	_ = extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}
