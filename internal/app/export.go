package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"marketscholar/internal/storage"
)

// Export renders one narrative's snapshot history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Ticker == "" || opts.Narrative == "" {
		return errors.New("--ticker and --narrative are required")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	defer closeStore()

	narrative, err := store.FindNarrative(ctx, opts.Ticker, opts.Narrative)
	if err != nil {
		return fmt.Errorf("find narrative: %w", err)
	}

	snaps, err := store.ListSnapshots(ctx, narrative.ID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		a.Logger.Info().Str("narrative", narrative.Name).Msg("no snapshots found for export")
		return nil
	}

	downsampled := downsampleSnapshots(snaps, opts.MaxPoints)
	a.Logger.Info().Int("total", len(snaps)).Int("exported", len(downsampled)).Msg("exporting snapshots")

	if opts.CSVPath != "" {
		if err := writeSnapshotsCSV(opts.CSVPath, narrative, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSnapshotsPNG(opts.PNGPath, narrative, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSnapshots(snaps []storage.Snapshot, max int) []storage.Snapshot {
	if max <= 0 || len(snaps) <= max {
		return snaps
	}

	result := make([]storage.Snapshot, 0, max)
	step := float64(len(snaps)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(snaps) {
			idx = len(snaps) - 1
		}
		result = append(result, snaps[idx])
	}
	return result
}

func writeSnapshotsCSV(path string, narrative storage.Narrative, snaps []storage.Snapshot) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"ticker", "narrative", "snapshot_date", "sentiment", "price", "volume", "decay_pct"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, snap := range snaps {
		decayPct := ""
		if snap.DecayPct != nil {
			decayPct = strconv.FormatFloat(*snap.DecayPct, 'f', 2, 64)
		}
		record := []string{
			narrative.Ticker,
			narrative.Name,
			snap.SnapshotDate.Format("2006-01-02"),
			strconv.FormatFloat(snap.Sentiment, 'f', 1, 64),
			snap.Price.String(),
			strconv.FormatInt(snap.Volume, 10),
			decayPct,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSnapshotsPNG(path string, narrative storage.Narrative, snaps []storage.Snapshot) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(snaps))
	sentiment := make([]float64, len(snaps))
	price := make([]float64, len(snaps))

	for i, snap := range snaps {
		x[i] = snap.SnapshotDate
		sentiment[i] = snap.Sentiment
		price[i] = snap.Price.InexactFloat64()
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s / %s", narrative.Ticker, narrative.Name),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Sentiment",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Price",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Sentiment",
				XValues: x,
				YValues: sentiment,
			},
			chart.TimeSeries{
				Name:    "Price",
				XValues: x,
				YValues: price,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
