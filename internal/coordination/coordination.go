package coordination

import (
	"sort"
	"strings"
	"time"
)

// Article is one published piece considered for coordination analysis.
type Article struct {
	Title       string
	Summary     string
	Author      string
	PublishedAt time.Time
}

const (
	timingPoints    = 45
	phrasingPoints  = 30
	anonymousPoints = 20

	timingWindow        = time.Hour
	similarityThreshold = 0.7
)

// Score grades how coordinated the coverage of a narrative looks, 0-100.
// Only articles whose title+summary contain the narrative name
// (case-insensitive) count; fewer than two matches scores 0. Three signals
// add up, capped at 100: burst timing, near-identical phrasing, and
// anonymous sourcing.
func Score(articles []Article, narrativeName string) int {
	needle := strings.ToLower(narrativeName)

	var relevant []Article
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title+a.Summary), needle) {
			relevant = append(relevant, a)
		}
	}

	if len(relevant) < 2 {
		return 0
	}

	score := 0

	// Timing: any 3 consecutive (sorted) publish timestamps inside one hour
	// is a burst. Binary signal, not scaled by burst size.
	timestamps := make([]time.Time, len(relevant))
	for i, a := range relevant {
		timestamps[i] = a.PublishedAt
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })
	for i := 0; i+2 < len(timestamps); i++ {
		if timestamps[i+2].Sub(timestamps[i]) < timingWindow {
			score += timingPoints
			break
		}
	}

	// Phrasing: maximum pairwise similarity over all title+summary pairs.
	texts := make([]string, len(relevant))
	for i, a := range relevant {
		texts[i] = strings.ToLower(a.Title + " " + a.Summary)
	}
	maxSim := 0.0
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			if sim := similarityRatio(texts[i], texts[j]); sim > maxSim {
				maxSim = sim
			}
		}
	}
	if maxSim > similarityThreshold {
		score += phrasingPoints
	}

	// Anonymous sourcing: half or more of the matching articles carry no
	// attributed author.
	anonymous := 0
	for _, a := range relevant {
		if strings.TrimSpace(a.Author) == "" {
			anonymous++
		}
	}
	if anonymous*2 >= len(relevant) {
		score += anonymousPoints
	}

	if score > 100 {
		score = 100
	}
	return score
}

// similarityRatio is a normalized edit-distance similarity in [0,1]:
// 1 - levenshtein(a,b) / max(len(a), len(b)).
func similarityRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}

	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
