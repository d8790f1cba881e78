package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"marketscholar/internal/decay"
	"marketscholar/internal/metric"
	"marketscholar/internal/series"
)

// Analyze 离线计算单个叙事 CSV 的衰减指标，不访问数据库。
// The file uses the same snapshot columns as ingest; all rows must belong to
// one narrative.
func (a *App) Analyze(_ context.Context, opts AnalyzeOptions) error {
	if opts.SnapshotsPath == "" {
		return errors.New("--snapshots is required")
	}

	rows, err := readCSV(opts.SnapshotsPath)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return errors.New("need at least two snapshot rows to analyze")
	}

	points := make(series.Series, 0, len(rows))
	ticker, name := rows[0][0], rows[0][1]
	for i, row := range rows {
		if len(row) < 6 {
			return fmt.Errorf("row %d: expected 6 columns, got %d", i+1, len(row))
		}
		if row[0] != ticker || row[1] != name {
			return fmt.Errorf("row %d: mixed narratives in input (%s/%s vs %s/%s)", i+1, row[0], row[1], ticker, name)
		}

		point, err := parseSnapshotRow(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		points = append(points, point)
	}

	first := points[0]
	engine := decay.NewEngine(first.Sentiment, first.Price, first.Date, points[1:])
	m := engine.Metrics()

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Ticker\t%s\n", ticker)
	fmt.Fprintf(writer, "Narrative\t%s\n", name)
	fmt.Fprintf(writer, "Days elapsed\t%d\n", m.DaysElapsed)
	fmt.Fprintf(writer, "Current sentiment\t%.1f\n", m.CurrentSentiment)
	fmt.Fprintf(writer, "Sentiment change\t%+.1f\n", m.SentimentChange)
	fmt.Fprintf(writer, "Decay rate\t%s\n", formatMetric(m.DecayRate, "%.4f pts/day"))
	fmt.Fprintf(writer, "Half-life\t%s\n", formatMetric(m.HalfLifeDays, "%.2f days"))
	fmt.Fprintf(writer, "Correlation\t%s\n", formatMetric(m.Correlation, "%.4f"))
	fmt.Fprintf(writer, "Status\t%s\n", m.Status)
	fmt.Fprintf(writer, "Exhaustion confidence\t%d%%\n", m.ExhaustionConfidence)
	if m.PredictedExhaustion != nil {
		fmt.Fprintf(writer, "Predicted exhaustion\t%s\n", m.PredictedExhaustion.UTC().Format("2006-01-02"))
	} else {
		fmt.Fprintf(writer, "Predicted exhaustion\tn/a\n")
	}
	return writer.Flush()
}

func parseSnapshotRow(row []string) (series.Point, error) {
	date, err := time.Parse(ingestDateLayout, row[2])
	if err != nil {
		return series.Point{}, fmt.Errorf("parse date: %w", err)
	}
	sentiment, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return series.Point{}, fmt.Errorf("parse sentiment: %w", err)
	}
	price, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return series.Point{}, fmt.Errorf("parse price: %w", err)
	}
	volume, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return series.Point{}, fmt.Errorf("parse volume: %w", err)
	}

	return series.Point{Date: date, Sentiment: sentiment, Price: price, Volume: volume}, nil
}

func formatMetric(v metric.Value, format string) string {
	if value, ok := v.Float(); ok {
		return fmt.Sprintf(format, value)
	}
	return fmt.Sprintf("n/a (%s)", v.Reason())
}
