package hype

import "testing"

func TestDisciplineScoreEmptyText(t *testing.T) {
	if got := DisciplineScore(""); got != NeutralScore {
		t.Fatalf("empty text = %d, want %d", got, NeutralScore)
	}
	if got := DisciplineScore("   \n\t"); got != NeutralScore {
		t.Fatalf("whitespace text = %d, want %d", got, NeutralScore)
	}
}

func TestDisciplineScoreNoAnchors(t *testing.T) {
	text := "This is an unprecedented, massive breakthrough that will dominate the market."
	if got := DisciplineScore(text); got != 0 {
		t.Fatalf("anchor-free hype = %d, want 0", got)
	}

	// Calm prose without numbers still scores 0: discipline means showing data.
	if got := DisciplineScore("The company reported steady results."); got != 0 {
		t.Fatalf("anchor-free calm text = %d, want 0", got)
	}
}

func TestDisciplineScoreAnchoredText(t *testing.T) {
	// 2 anchors, 1 hype word: ratio 2/2 = 1.0, score 20.
	text := "Revenue grew 12.5% to $3.2B in a massive quarter."
	if got := DisciplineScore(text); got != 20 {
		t.Fatalf("DisciplineScore = %d, want 20", got)
	}
}

func TestDisciplineScoreDataHeavyBonus(t *testing.T) {
	// 4 anchors, 1 hype word: ratio 4/2 = 2.0 -> 40, anchors > 3*hype -> +20.
	text := "Margins hit 45.2%, revenue reached $1.5B, up from 1.2 billion, a massive gain of 25%."
	if got := DisciplineScore(text); got != 60 {
		t.Fatalf("DisciplineScore = %d, want 60", got)
	}
}

func TestDisciplineScoreCap(t *testing.T) {
	// Many anchors, zero hype: floor(12/1*20)=240 capped to 100.
	text := "Q1 10%, Q2 12%, Q3 14%, Q4 16%, revenue $1B then $2B then $3B, " +
		"margins 40%, 41%, 42%, guidance $4B and 5 billion."
	if got := DisciplineScore(text); got != 100 {
		t.Fatalf("DisciplineScore = %d, want capped 100", got)
	}
}

func TestDisciplineScoreCommaGroupedAnchor(t *testing.T) {
	// A bare comma-grouped figure counts as an anchor.
	text := "Deliveries totalled 405,000 vehicles."
	if got := DisciplineScore(text); got <= 0 {
		t.Fatalf("comma-grouped figure should anchor, got %d", got)
	}
}
