package valuation

// Quadrant places a narrative on the evidence-strength x narrative-intensity
// plane, each axis 0-100 with 50 as the high/low split.
type Quadrant string

const (
	// QuadrantValidCatalyst is justified excitement: strong evidence, strong
	// narrative.
	QuadrantValidCatalyst Quadrant = "VALID_CATALYST"
	// QuadrantFactualAnchor is boring but true: strong evidence, weak
	// narrative.
	QuadrantFactualAnchor Quadrant = "FACTUAL_ANCHOR"
	// QuadrantNarrativeTrap is hype without substance.
	QuadrantNarrativeTrap Quadrant = "NARRATIVE_TRAP"
	// QuadrantMarketNoise is irrelevant on both axes.
	QuadrantMarketNoise Quadrant = "MARKET_NOISE"
)

const quadrantSplit = 50.0

// ClassifyQuadrant maps (evidence strength, narrative intensity) to a
// quadrant.
func ClassifyQuadrant(evidenceStrength, narrativeIntensity float64) Quadrant {
	highEvidence := evidenceStrength >= quadrantSplit
	highNarrative := narrativeIntensity >= quadrantSplit

	switch {
	case highEvidence && highNarrative:
		return QuadrantValidCatalyst
	case highEvidence:
		return QuadrantFactualAnchor
	case highNarrative:
		return QuadrantNarrativeTrap
	default:
		return QuadrantMarketNoise
	}
}
