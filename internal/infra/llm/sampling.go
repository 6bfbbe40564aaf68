package llm

// SamplingPolicy fixes the generation parameters for every request. Agent
// output may need to be reproduced by an independent verifier, so the
// policy is enforced by the client and is not configurable per call.
type SamplingPolicy struct {
	Temperature float64
	TopP        float64
	Seed        int
	NumCtx      int
	MaxTokens   int
}

const (
	seedValue      = 42
	contextWindow  = 4096
	maxTokensBare  = 100 // plain-text answers stay short
	maxTokensTools = 512 // tool-call turns need room for call arguments
)

// Per-provider top_p at (or as near as the backend allows to) its most
// deterministic setting. Ollama treats top_p=1.0 as "disabled", so it gets
// a low explicit value instead.
const (
	topPOllama    = 0.1
	topPOpenAI    = 1.0
	topPAnthropic = 1.0
)

// policyFor returns the fixed sampling policy for a provider. The token
// budget is the only field that varies, and only on whether tools are
// offered.
func policyFor(provider Provider, withTools bool) SamplingPolicy {
	p := SamplingPolicy{
		Temperature: 0,
		Seed:        seedValue,
		NumCtx:      contextWindow,
		MaxTokens:   maxTokensBare,
	}
	if withTools {
		p.MaxTokens = maxTokensTools
	}
	switch provider {
	case ProviderOpenAI:
		p.TopP = topPOpenAI
	case ProviderAnthropic:
		p.TopP = topPAnthropic
	default:
		p.TopP = topPOllama
	}
	return p
}
