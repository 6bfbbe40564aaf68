package llm

import "net/http"

// Provider identifies a chat-completion backend with its own wire schema.
type Provider string

const (
	// ProviderOllama is a local Ollama-compatible server.
	ProviderOllama Provider = "ollama"
	// ProviderOpenAI is a hosted OpenAI-compatible API.
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is a hosted Anthropic-compatible API.
	ProviderAnthropic Provider = "anthropic"
)

// wireRequest is one fully built provider request, ready to be issued
// against the provider's base URL.
type wireRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// adapter is the pure, stateless translation layer between the canonical
// conversation model and one provider's wire format. Adapters never touch
// the network.
type adapter interface {
	// buildRequest serializes messages, optional tools, and the sampling
	// policy into a provider request.
	buildRequest(model string, messages []Message, tools []Tool, sampling SamplingPolicy) (*wireRequest, error)

	// parseResponse decodes a raw success-status response body into the
	// canonical message shape.
	parseResponse(raw []byte) (*Message, error)
}

// adapterFor returns the adapter for a provider, or false for an unknown
// provider value. Hosted adapters keep the credential so buildRequest can
// emit the auth header without reading anything beyond its arguments.
func adapterFor(provider Provider, apiKey string) (adapter, bool) {
	switch provider {
	case ProviderOllama:
		return ollamaAdapter{}, true
	case ProviderOpenAI:
		return openaiAdapter{apiKey: apiKey}, true
	case ProviderAnthropic:
		return anthropicAdapter{apiKey: apiKey}, true
	default:
		return nil, false
	}
}
