package llm

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ollamaAdapter speaks the Ollama REST chat API: POST /api/chat with the
// sampling fields nested under an "options" object.
type ollamaAdapter struct{}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options"`
	Tools    []Tool         `json:"tools,omitempty"`
}

// ollamaChatEnvelope covers both response shapes Ollama produces: a
// success envelope carrying one message, or an error envelope carrying a
// string. Ollama reports some failures with HTTP 200 and the error shape.
type ollamaChatEnvelope struct {
	Message *Message `json:"message"`
	Error   string   `json:"error"`
}

func (ollamaAdapter) buildRequest(model string, messages []Message, tools []Tool, sampling SamplingPolicy) (*wireRequest, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"temperature": sampling.Temperature,
			"top_p":       sampling.TopP,
			"seed":        sampling.Seed,
			"num_ctx":     sampling.NumCtx,
			"num_predict": sampling.MaxTokens,
		},
		// Best effort: older Ollama builds ignore the tools array.
		Tools: tools,
	})
	if err != nil {
		return nil, err
	}
	return &wireRequest{
		Method: http.MethodPost,
		Path:   "/api/chat",
		Header: jsonHeaders(),
		Body:   body,
	}, nil
}

func (ollamaAdapter) parseResponse(raw []byte) (*Message, error) {
	var env ollamaChatEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ParseError{Provider: ProviderOllama, Err: err}
	}
	if env.Message != nil {
		return env.Message, nil
	}
	if env.Error != "" {
		return nil, &APIError{Status: http.StatusOK, Body: env.Error}
	}
	return nil, &ParseError{
		Provider: ProviderOllama,
		Err:      errors.New("body matches neither the message nor the error envelope"),
	}
}

func jsonHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}
