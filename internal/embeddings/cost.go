package embeddings

// pricing is a per-1M-token USD rate, adapted from the teacher's
// internal/cost.PricingTable (originally per-LLM-model) to the
// embedding provider set this spec actually needs.
var pricing = map[string]float64{
	"text-embedding-3-small": 0.02,
	"text-embedding-3-large": 0.13,
	"gemini-embedding-001":   0.00, // no published per-token rate at time of writing; treated as free tier
}

// estimateCost sums estimateTokens(text) across texts and prices them
// at the model's per-1M-token rate.
func estimateCost(model string, texts []string) float64 {
	rate, ok := pricing[model]
	if !ok {
		rate = 0.02
	}
	var tokens int
	for _, t := range texts {
		tokens += estimateTokens(t)
	}
	return float64(tokens) / 1_000_000 * rate
}
