package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/scorer"
)

var scoreCompany string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one prospect and print the result",
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
			return eris.New("no settings snapshot imported yet, run `crm-cli import settings` first")
		}

		prospects, err := st.ListProspects(ctx, cfg.Recalc.BatchLimit)
		if err != nil {
			return err
		}
		var target *model.Prospect
		for i := range prospects {
			if strings.EqualFold(prospects[i].Company, scoreCompany) {
				target = &prospects[i]
				break
			}
		}
		if target == nil {
			return eris.Errorf("prospect %q not found", scoreCompany)
		}

		history, err := st.ListOutreach(ctx, target.Company)
		if err != nil {
			return err
		}

		rec, verrs := scorer.ScoreAndValidate(*target, model.KindProspect, history, snap, time.Now())
		if verrs != nil {
			for _, fe := range verrs {
				zap.L().Error("validation failed", zap.String("field", fe.Field), zap.String("reason", fe.Reason))
			}
			return verrs
		}

		if err := st.SaveScore(ctx, rec); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rec), "encode scored record")
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCompany, "company", "", "company name of the prospect to score (required)")
	_ = scoreCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(scoreCmd)
}
