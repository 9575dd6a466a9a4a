package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-cli/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect the active settings snapshot",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active settings snapshot as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := st.LatestSettings(ctx)
		if err != nil {
			return err
		}
		if snap == nil {
			return eris.New("no settings snapshot imported yet")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(snapshotSummary(snap)), "encode settings summary")
	},
}

// snapshotSummary condenses a snapshot for terminal display.
func snapshotSummary(snap *settings.Normalized) map[string]any {
	return map[string]any{
		"industry_scores":    len(snap.IndustryScores),
		"urgency_bands":      snap.UrgencyBands,
		"workflow_rules":     len(snap.WorkflowRules),
		"validation_lists":   len(snap.ValidationLists),
		"global_consts":      snap.GlobalConsts,
		"followup_templates": len(snap.FollowUpTemplates),
		"stale_days":         snap.StaleDays(),
	}
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	rootCmd.AddCommand(settingsCmd)
}
