package hype

import (
	"regexp"
	"strings"
)

// NeutralScore is returned for empty or missing article text.
const NeutralScore = 50

// hypeWords is the fixed lexicon of emotionally loaded market language.
var hypeWords = []string{
	"wipeout", "collapse", "foundation shaking", "unprecedented",
	"massive", "catastrophic", "revolutionary", "game-changer",
	"disaster", "crisis", "crash", "plunge", "soar", "skyrocket",
	"devastate", "obliterate", "dominate", "breakthrough",
}

// anchorPatterns match numeric data anchors: percentages, currency amounts,
// spelled-out magnitudes, and comma-grouped figures.
var anchorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+\.?\d*%`),
	regexp.MustCompile(`\$\d+\.?\d*[BMK]?`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*billion`),
	regexp.MustCompile(`(?i)\d+\.?\d*\s*million`),
	regexp.MustCompile(`\d{1,3}(?:,\d{3})+`),
}

// DisciplineScore returns the Hype Discipline Score (HDS) for article text:
// the density of numeric anchors relative to hype vocabulary, scaled to
// 0-100. Text with no numeric anchors scores 0 no matter how little hype it
// carries; text that is overwhelmingly data-anchored earns a bonus.
func DisciplineScore(text string) int {
	if strings.TrimSpace(text) == "" {
		return NeutralScore
	}

	lower := strings.ToLower(text)
	hypeCount := 0
	for _, word := range hypeWords {
		hypeCount += strings.Count(lower, word)
	}

	anchors := 0
	for _, p := range anchorPatterns {
		anchors += len(p.FindAllString(text, -1))
	}

	if anchors == 0 {
		return 0
	}

	ratio := float64(anchors) / float64(hypeCount+1)
	hds := int(ratio * 20)
	if hds > 100 {
		hds = 100
	}

	if anchors > hypeCount*3 {
		hds += 20
		if hds > 100 {
			hds = 100
		}
	}

	return hds
}
