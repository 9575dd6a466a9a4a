package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crm-cli/internal/model"
	"github.com/sells-group/crm-cli/internal/scorer"
	"github.com/sells-group/crm-cli/internal/store"
)

var recalcLimit int

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recalculate derived fields for every stored prospect",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scored, skipped, err := runRecalc(ctx, st, recalcLimit)
		if err != nil {
			return err
		}
		zap.L().Info("recalc complete", zap.Int("scored", scored), zap.Int("skipped", skipped))
		return nil
	},
}

// runRecalc re-scores stored prospects against the latest settings
// snapshot. The snapshot is loaded once and read-only for the whole
// pass, so workers share it safely. Prospects that fail validation are
// skipped, not fatal.
func runRecalc(ctx context.Context, st store.Store, limit int) (int, int, error) {
	snap, err := st.LatestSettings(ctx)
	if err != nil {
		return 0, 0, err
	}
	if snap == nil {
		return 0, 0, eris.New("no settings snapshot imported yet")
	}

	if limit <= 0 {
		limit = cfg.Recalc.BatchLimit
	}
	prospects, err := st.ListProspects(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	if len(prospects) == 0 {
		zap.L().Info("no prospects to recalculate")
		return 0, 0, nil
	}

	today := time.Now()
	var scored, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Recalc.Concurrency)

	for _, p := range prospects {
		g.Go(func() error {
			history, err := st.ListOutreach(gctx, p.Company)
			if err != nil {
				return eris.Wrapf(err, "recalc: outreach for %s", p.Company)
			}

			rec, verrs := scorer.ScoreAndValidate(p, model.KindProspect, history, snap, today)
			if verrs != nil {
				zap.L().Warn("prospect skipped",
					zap.String("company", p.Company),
					zap.String("reason", verrs.Error()),
				)
				skipped.Add(1)
				return nil
			}

			if err := st.SaveScore(gctx, rec); err != nil {
				return eris.Wrapf(err, "recalc: save score for %s", p.Company)
			}
			scored.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(scored.Load()), int(skipped.Load()), err
	}
	return int(scored.Load()), int(skipped.Load()), nil
}

func init() {
	recalcCmd.Flags().IntVar(&recalcLimit, "limit", 0, "max prospects to recalculate (default from config)")
	rootCmd.AddCommand(recalcCmd)
}
