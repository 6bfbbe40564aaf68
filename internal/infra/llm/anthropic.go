package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// anthropicAdapter speaks the Anthropic Messages API: POST /v1/messages.
// The canonical message list is restructured on the way out: the system
// turn (if any) is hoisted into the dedicated "system" field, and all
// user/assistant turns are concatenated into a single user turn. True
// multi-turn history for this provider is not supported yet.
type anthropicAdapter struct {
	apiKey string
}

type anthropicMessageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicChatRequest struct {
	Model       string                  `json:"model"`
	Messages    []anthropicMessageParam `json:"messages"`
	System      string                  `json:"system,omitempty"`
	MaxTokens   int                     `json:"max_tokens"`
	Temperature float64                 `json:"temperature"`
	TopP        float64                 `json:"top_p"`
}

type anthropicChatResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (a anthropicAdapter) buildRequest(model string, messages []Message, _ []Tool, sampling SamplingPolicy) (*wireRequest, error) {
	var system string
	var turns []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		default:
			if m.Content != "" {
				turns = append(turns, m.Content)
			}
		}
	}
	// The Messages API rejects an empty user turn; a system-only list
	// leaves nothing to send.
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: anthropic requires at least one non-system turn", ErrEmptyMessages)
	}

	body, err := json.Marshal(anthropicChatRequest{
		Model:       model,
		Messages:    []anthropicMessageParam{{Role: RoleUser, Content: strings.Join(turns, "\n\n")}},
		System:      system,
		MaxTokens:   sampling.MaxTokens,
		Temperature: sampling.Temperature,
		TopP:        sampling.TopP,
	})
	if err != nil {
		return nil, err
	}
	header := jsonHeaders()
	header.Set("X-API-Key", a.apiKey)
	header.Set("Anthropic-Version", anthropicVersion)
	return &wireRequest{
		Method: http.MethodPost,
		Path:   "/v1/messages",
		Header: header,
		Body:   body,
	}, nil
}

func (anthropicAdapter) parseResponse(raw []byte) (*Message, error) {
	var decoded anthropicChatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ParseError{Provider: ProviderAnthropic, Err: err}
	}
	if len(decoded.Content) == 0 {
		return nil, &ParseError{Provider: ProviderAnthropic, Err: errors.New("no content blocks returned")}
	}
	return &Message{Role: RoleAssistant, Content: decoded.Content[0].Text}, nil
}
