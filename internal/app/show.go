package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"marketscholar/internal/storage"
)

// Show prints recent decay metrics, or analyst scorecards with --analysts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show")
	}
	defer closeStore()

	if opts.Analysts {
		return a.showAnalystScores(ctx, store, opts.Limit)
	}
	return a.showDecayMetrics(ctx, store, opts.Limit)
}

func (a *App) showDecayMetrics(ctx context.Context, store *storage.Store, limit int) error {
	metrics, err := store.ListRecentDecayMetrics(ctx, limit)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		fmt.Fprintln(os.Stdout, "no decay metrics found")
		return nil
	}

	narratives := make(map[string]storage.Narrative)
	if list, err := store.ListNarratives(ctx); err == nil {
		for _, n := range list {
			narratives[n.ID] = n
		}
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ticker\tNarrative\tSentiment\tDays\tRate\tHalf-life\tCorr\tStatus\tConf%\tExhaustion")

	for _, m := range metrics {
		ticker, name := m.NarrativeID, ""
		if n, ok := narratives[m.NarrativeID]; ok {
			ticker, name = n.Ticker, n.Name
		}
		predicted := ""
		if m.PredictedExhaustion != nil {
			predicted = m.PredictedExhaustion.UTC().Format("2006-01-02")
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%.1f\t%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			ticker,
			name,
			m.CurrentSentiment,
			m.DaysElapsed,
			formatFloatPtr(m.DecayRate, 4),
			formatFloatPtr(m.HalfLifeDays, 2),
			formatFloatPtr(m.Correlation, 4),
			m.Status,
			m.ExhaustionConfidence,
			predicted,
		)
	}

	return writer.Flush()
}

func (a *App) showAnalystScores(ctx context.Context, store *storage.Store, limit int) error {
	scores, err := store.ListRecentAnalystScores(ctx, limit)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Fprintln(os.Stdout, "no analyst scores found")
		return nil
	}

	analysts := make(map[string]storage.Analyst)
	if list, err := store.ListAnalysts(ctx); err == nil {
		for _, analyst := range list {
			analysts[analyst.ID] = analyst
		}
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Analyst\tTicker\tAAR\tARB\tHDS\tCoord\tACS\tOR\tRisk\tComputed (UTC)")

	for _, score := range scores {
		name := score.AnalystID
		if analyst, ok := analysts[score.AnalystID]; ok {
			name = analyst.Name
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%.2f\t%.2f\t%d\t%d\t%.2f\t%.2f\t%d\t%s\n",
			name,
			score.Ticker,
			score.AccuracyRate,
			score.Reliability,
			score.DisciplineScore,
			score.CoordinationScore,
			score.CompositeScore,
			score.OverreactionRatio,
			score.RiskTier,
			score.ComputedAt.UTC().Format(time.RFC3339),
		)
	}

	return writer.Flush()
}

func formatFloatPtr(v *float64, places int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", places, *v)
}
