// Package agent runs a prompt through the model, executing requested
// tool calls and resubmitting their results for a final answer.
package agent

import (
	"context"
	"strings"

	"github.com/Lay3rLabs/wavs-hats/internal/domain/tool"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/llm"
)

const systemPrompt = "You are a helpful assistant. Use the available tools when they apply, and answer concisely."

// CompletionClient is the slice of the LLM client the loop needs.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Message, error)
	ChatCompletionText(ctx context.Context, messages []llm.Message) (string, error)
}

type Loop struct {
	client CompletionClient
}

func NewLoop(client CompletionClient) *Loop {
	return &Loop{client: client}
}

// Run sends the prompt with the tool catalog attached and returns the
// model's textual answer. If the first reply requests tool calls, each
// call is executed in order, its result appended as a tool message, and
// the accumulated conversation resubmitted once for the final answer.
// The loop performs at most one tool round.
func (l *Loop) Run(ctx context.Context, prompt string) (string, error) {
	messages := []llm.Message{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(strings.TrimSpace(prompt)),
	}

	reply, err := l.client.ChatCompletion(ctx, messages, tool.Definitions())
	if err != nil {
		return "", err
	}
	if len(reply.ToolCalls) == 0 {
		return reply.Content, nil
	}

	// Some providers reject a null content field on the assistant turn
	// that carries tool calls, so it is re-serialized as an empty string.
	// The tool_calls are kept verbatim: the provider correlates the
	// follow-up tool results against their IDs.
	assistant := *reply
	assistant.Content = ""
	messages = append(messages, assistant)

	for _, call := range reply.ToolCalls {
		result, execErr := tool.ExecuteToolCall(call)
		if execErr != nil {
			result = execErr.Error()
		}
		messages = append(messages, llm.NewToolResultMessage(call.ID, result))
	}

	return l.client.ChatCompletionText(ctx, messages)
}
