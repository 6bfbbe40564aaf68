package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Provider default endpoints, used when the configuration leaves the base
// URL empty.
const (
	defaultOllamaBaseURL    = "http://localhost:11434"
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultAnthropicBaseURL = "https://api.anthropic.com"

	defaultTimeout = 60 * time.Second
)

// maximum error-body bytes kept for APIError reporting.
const maxErrorBody = 2048

// ClientConfig is the immutable provider configuration a Client is built
// from. It is resolved once at construction; later changes to the process
// environment are not observed.
type ClientConfig struct {
	Provider Provider
	BaseURL  string
	APIKey   string
}

// Client issues chat-completion requests against one provider+model with a
// fixed deterministic sampling policy. It holds no mutable cross-call
// state; run independent prompts on independent Client values.
type Client struct {
	model      string
	provider   Provider
	baseURL    string
	adapter    adapter
	httpClient *http.Client
}

// NewClient resolves provider, endpoint, and credential from cfg and
// returns a ready client for model. It fails with ErrEmptyModelName for a
// blank model and with ErrInvalidProvider when the provider is unknown or
// a required credential is missing.
func NewClient(cfg ClientConfig, model string) (*Client, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, ErrEmptyModelName
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	switch cfg.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s requires an API key", ErrInvalidProvider, cfg.Provider)
		}
	}

	ad, ok := adapterFor(cfg.Provider, apiKey)
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidProvider, cfg.Provider)
	}

	return &Client{
		model:      model,
		provider:   cfg.Provider,
		baseURL:    resolveBaseURL(cfg),
		adapter:    ad,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

func resolveBaseURL(cfg ClientConfig) string {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		switch cfg.Provider {
		case ProviderOpenAI:
			base = defaultOpenAIBaseURL
		case ProviderAnthropic:
			base = defaultAnthropicBaseURL
		default:
			base = defaultOllamaBaseURL
		}
	}
	return strings.TrimRight(base, "/")
}

// Model returns the model identifier the client was built for.
func (c *Client) Model() string { return c.model }

// ChatCompletion sends one chat-completion round and returns the
// provider's reply as a canonical message. The call blocks until the
// response is fully received or the transport fails; nothing is retried.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message, tools []Tool) (*Message, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyMessages
	}

	sampling := policyFor(c.provider, len(tools) > 0)
	wreq, err := c.adapter.buildRequest(c.model, messages, tools, sampling)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, wreq.Method, c.baseURL+wreq.Path, bytes.NewReader(wreq.Body))
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	httpReq.Header = wreq.Header

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	return c.adapter.parseResponse(raw)
}

// ChatCompletionText is the no-tools fast path: it discards any tool calls
// in the reply and returns the text content (empty string if absent).
func (c *Client) ChatCompletionText(ctx context.Context, messages []Message) (string, error) {
	msg, err := c.ChatCompletion(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}
