package main

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/report"
)

var (
	reportFeed     string
	reportOut      string
	reportFormat   string
	reportTitle    string
	reportProducts []string
	reportForced   string
	reportDeepDive bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the feed as a Markdown or HTML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records, err := loadFeed(ctx, reportFeed)
		if err != nil {
			return err
		}

		title := reportTitle
		if title == "" {
			title = cfg.Report.Title
		}
		opts := report.MarkdownOptions{
			Title:        title,
			CloudDisplay: cfg.Report.CloudDisplay,
			GeneratedAt:  time.Now().UTC(),
			Products:     reportProducts,
			DeepDive:     reportDeepDive,
		}
		if reportForced != "" {
			ids, err := report.ParseForcedIDs(reportForced)
			if err != nil {
				return err
			}
			opts.ForcedIDs = ids
		}

		out := reportOut
		var render func(io.Writer) error
		switch reportFormat {
		case "markdown", "md":
			if out == "" {
				out = "report.md"
			}
			render = func(w io.Writer) error { return report.WriteMarkdown(w, records, opts) }
		case "html":
			if out == "" {
				out = "report.html"
			}
			render = func(w io.Writer) error { return report.WriteHTML(w, records, opts) }
		default:
			return eris.Errorf("unknown report format %q", reportFormat)
		}

		if err := report.WriteFileAtomic(out, render); err != nil {
			return err
		}
		zap.L().Info("report written",
			zap.String("path", out),
			zap.Int("features", len(records)),
		)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFeed, "feed", "", "feed JSON file (default: latest stored snapshot)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output path (default report.md or report.html)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "report format: markdown, html")
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "report title (default from config)")
	reportCmd.Flags().StringSliceVar(&reportProducts, "products", nil, "keep only features whose product/workload contains one of these terms")
	reportCmd.Flags().StringVar(&reportForced, "forced-ids", "", "comma-separated IDs to pin to the top of the table")
	reportCmd.Flags().BoolVar(&reportDeepDive, "deep-dive", false, "append a per-feature section after the master table")
	rootCmd.AddCommand(reportCmd)
}
