package llm

import (
	"encoding/json"
	"errors"
	"net/http"
)

// openaiAdapter speaks the OpenAI chat-completions API: POST
// /v1/chat/completions with a flat body and a bearer-token header. Any
// OpenAI-compatible server (vLLM, Groq, ...) accepts the same shape.
type openaiAdapter struct {
	apiKey string
}

type openaiChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	Seed        int       `json:"seed"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
	Tools       []Tool    `json:"tools,omitempty"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (a openaiAdapter) buildRequest(model string, messages []Message, tools []Tool, sampling SamplingPolicy) (*wireRequest, error) {
	body, err := json.Marshal(openaiChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: sampling.Temperature,
		TopP:        sampling.TopP,
		Seed:        sampling.Seed,
		MaxTokens:   sampling.MaxTokens,
		Stream:      false,
		Tools:       tools,
	})
	if err != nil {
		return nil, err
	}
	header := jsonHeaders()
	header.Set("Authorization", "Bearer "+a.apiKey)
	return &wireRequest{
		Method: http.MethodPost,
		Path:   "/v1/chat/completions",
		Header: header,
		Body:   body,
	}, nil
}

func (openaiAdapter) parseResponse(raw []byte) (*Message, error) {
	var decoded openaiChatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ParseError{Provider: ProviderOpenAI, Err: err}
	}
	if len(decoded.Choices) == 0 {
		return nil, &ParseError{Provider: ProviderOpenAI, Err: errors.New("no response choices returned")}
	}
	msg := decoded.Choices[0].Message
	return &msg, nil
}
