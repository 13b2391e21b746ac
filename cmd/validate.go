package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/roadmap-cli/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report.md>",
	Short: "Validate a rendered Markdown report",
	Long:  "Checks the master heading, the single master table, the exact column header, and numeric unique IDs. Exits non-zero when the report is malformed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read report %s", args[0])
		}

		res := report.Validate(string(doc))
		if res.OK() {
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d feature rows\n", len(res.IDs))
			return nil
		}

		for _, msg := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", msg)
		}
		return eris.Errorf("report %s failed validation with %d error(s)", args[0], len(res.Errors))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
