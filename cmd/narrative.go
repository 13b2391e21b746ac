package main

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadmap-cli/internal/report"
	"github.com/sells-group/roadmap-cli/pkg/narrative"
)

var (
	narrativeFeed string
	narrativeOut  string
)

var narrativeCmd = &cobra.Command{
	Use:   "narrative",
	Short: "Write a narrative digest of the feed via the Anthropic API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Narrative.Key == "" {
			return eris.New("narrative.key is not configured")
		}

		records, err := loadFeed(ctx, narrativeFeed)
		if err != nil {
			return err
		}

		writer := narrative.NewWriter(cfg.Narrative.Key, cfg.Narrative.Model, cfg.Narrative.MaxTokens)
		digest, err := writer.Digest(ctx, records)
		if err != nil {
			return err
		}

		err = report.WriteFileAtomic(narrativeOut, func(w io.Writer) error {
			_, werr := io.WriteString(w, strings.TrimSpace(digest)+"\n")
			return werr
		})
		if err != nil {
			return err
		}

		zap.L().Info("narrative digest written",
			zap.String("path", narrativeOut),
			zap.Int("features", len(records)),
		)
		return nil
	},
}

func init() {
	narrativeCmd.Flags().StringVar(&narrativeFeed, "feed", "", "feed JSON file (default: latest stored snapshot)")
	narrativeCmd.Flags().StringVar(&narrativeOut, "out", "digest.md", "output path for the digest")
	rootCmd.AddCommand(narrativeCmd)
}
