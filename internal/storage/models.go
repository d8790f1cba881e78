package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Narrative is a tracked story tied to a ticker.
type Narrative struct {
	ID               string
	Ticker           string
	Name             string
	Status           string
	InitialSentiment float64
	InitialPrice     decimal.Decimal
	GenesisDate      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot is one daily sentiment/price observation for a narrative.
type Snapshot struct {
	ID           int64
	NarrativeID  string
	SnapshotDate time.Time
	Sentiment    float64
	Price        decimal.Decimal
	Volume       int64
	DecayPct     *float64
	CreatedAt    time.Time
}

// DecayMetrics is the latest computed decay state for a narrative.
type DecayMetrics struct {
	NarrativeID          string
	CurrentSentiment     float64
	DaysElapsed          int
	DecayRate            *float64
	HalfLifeDays         *float64
	Correlation          *float64
	Status               string
	ExhaustionConfidence int
	PredictedExhaustion  *time.Time
	ComputedAt           time.Time
}

// Analyst is a tracked market commentator.
type Analyst struct {
	ID        string
	Name      string
	Firm      string
	CreatedAt time.Time
}

// AnalystCall is one published claim by an analyst about a ticker.
type AnalystCall struct {
	ID             string
	AnalystID      string
	Ticker         string
	CallType       string
	Sentiment      string
	PriceAtPublish decimal.Decimal
	PublishedAt    time.Time
	ArticleID      *string
	SuspicionScore *int
	Evaluated      bool
	OutcomeStatus  string
	PriceLater     *decimal.Decimal
	ChangePct      *float64
	CreatedAt      time.Time
}

// AnalystScore is the latest credibility scorecard for an analyst on their
// primary ticker.
type AnalystScore struct {
	AnalystID           string
	Ticker              string
	AccuracyRate        float64
	Reliability         float64
	DisciplineScore     int
	CoordinationScore   int
	CompositeScore      float64
	OverreactionRatio   float64
	ExtremeOverreaction bool
	PremiumPct          float64
	ClaimConfidence     float64
	RiskTier            int
	ComputedAt          time.Time
}

// Article is a stored news piece referenced by calls and coordination checks.
type Article struct {
	ID          string
	Ticker      string
	Title       string
	Summary     string
	Author      string
	FullText    string
	PublishedAt time.Time
	CreatedAt   time.Time
}
