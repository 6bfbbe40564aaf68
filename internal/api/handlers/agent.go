// HTTP handlers for running the agent: free-form prompts and ABI-encoded
// on-chain trigger payloads.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/Lay3rLabs/wavs-hats/internal/domain/run"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/ethereum"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/eventbus"
)

// PromptRunner runs one prompt through the conversation loop.
type PromptRunner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// AgentHandler handles prompt and trigger requests.
type AgentHandler struct {
	runner   PromptRunner
	journal  *run.Journal
	bus      eventbus.EventBus
	provider string
	model    string
}

// NewAgentHandler creates a new AgentHandler instance.
func NewAgentHandler(runner PromptRunner, journal *run.Journal, bus eventbus.EventBus, provider, model string) *AgentHandler {
	return &AgentHandler{
		runner:   runner,
		journal:  journal,
		bus:      bus,
		provider: provider,
		model:    model,
	}
}

// PromptRequest is the request body for a free-form prompt.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// PromptResponse is the response body for a completed prompt run.
type PromptResponse struct {
	RunID  string `json:"runId"`
	Answer string `json:"answer"`
}

// TriggerRequest carries an ABI-encoded DataWithId payload as 0x-prefixed hex.
type TriggerRequest struct {
	Data string `json:"data"`
}

// TriggerResponse echoes the trigger id and carries the answer both as
// text and re-encoded as a DataWithId payload for submission on-chain.
type TriggerResponse struct {
	RunID     string `json:"runId"`
	TriggerID uint64 `json:"triggerId"`
	Answer    string `json:"answer"`
	Result    string `json:"result"`
}

// Prompt handles POST /api/v1/prompt
func (h *AgentHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PromptRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	journaled, startErr := h.journal.Start(ctx, run.StartInput{
		TriggerType: run.TriggerTypeHTTP,
		Provider:    h.provider,
		Model:       h.model,
		Prompt:      req.Prompt,
	})
	if startErr != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to journal run: %v", startErr))
		return
	}

	answer, runErr := h.runner.Run(ctx, req.Prompt)
	if runErr != nil {
		h.finishFailed(ctx, journaled.ID, run.TriggerTypeHTTP, runErr)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("chat completion failed: %v", runErr))
		return
	}
	h.finishCompleted(ctx, journaled.ID, run.TriggerTypeHTTP, answer)

	writeJSON(w, http.StatusOK, PromptResponse{RunID: journaled.ID, Answer: answer})
}

// Trigger handles POST /api/v1/trigger
func (h *AgentHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TriggerRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	raw, hexErr := hexutil.Decode(req.Data)
	if hexErr != nil {
		writeError(w, http.StatusBadRequest, "data must be 0x-prefixed hex")
		return
	}
	payload, decodeErr := ethereum.DecodeDataWithID(raw)
	if decodeErr != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid trigger payload: %v", decodeErr))
		return
	}
	prompt := strings.TrimSpace(string(payload.Data))
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "trigger payload carries no prompt")
		return
	}

	triggerID := payload.TriggerID
	journaled, startErr := h.journal.Start(ctx, run.StartInput{
		TriggerType: run.TriggerTypeChain,
		TriggerID:   &triggerID,
		Provider:    h.provider,
		Model:       h.model,
		Prompt:      prompt,
	})
	if startErr != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to journal run: %v", startErr))
		return
	}

	answer, runErr := h.runner.Run(ctx, prompt)
	if runErr != nil {
		h.finishFailed(ctx, journaled.ID, run.TriggerTypeChain, runErr)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("chat completion failed: %v", runErr))
		return
	}
	h.finishCompleted(ctx, journaled.ID, run.TriggerTypeChain, answer)

	encoded, encodeErr := ethereum.EncodeDataWithID(ethereum.DataWithId{
		TriggerID: triggerID,
		Data:      []byte(answer),
	})
	if encodeErr != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode result: %v", encodeErr))
		return
	}

	writeJSON(w, http.StatusOK, TriggerResponse{
		RunID:     journaled.ID,
		TriggerID: triggerID,
		Answer:    answer,
		Result:    hexutil.Encode(encoded),
	})
}

func (h *AgentHandler) finishCompleted(ctx context.Context, runID, triggerType, answer string) {
	if _, err := h.journal.Complete(ctx, runID, answer); err != nil {
		return
	}
	h.bus.Publish(eventbus.TopicRunCompleted, eventbus.RunEvent{
		RunID:       runID,
		TriggerType: triggerType,
		Status:      run.StatusSuccess,
	})
}

func (h *AgentHandler) finishFailed(ctx context.Context, runID, triggerType string, runErr error) {
	if _, err := h.journal.Fail(ctx, runID, runErr.Error()); err != nil {
		return
	}
	h.bus.Publish(eventbus.TopicRunFailed, eventbus.RunEvent{
		RunID:       runID,
		TriggerType: triggerType,
		Status:      run.StatusFailed,
	})
}

// ===== RUN JOURNAL ENDPOINTS =====

// RunHandler serves the run journal.
type RunHandler struct {
	journal *run.Journal
}

// NewRunHandler creates a new RunHandler instance.
func NewRunHandler(journal *run.Journal) *RunHandler {
	return &RunHandler{journal: journal}
}

// RunResponse is the response body for one journaled run.
type RunResponse struct {
	ID          string  `json:"id"`
	TriggerType string  `json:"triggerType"`
	TriggerID   *uint64 `json:"triggerId,omitempty"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Status      string  `json:"status"`
	Answer      *string `json:"answer,omitempty"`
	Error       *string `json:"error,omitempty"`
	StartedAt   string  `json:"startedAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// ListRunsResponse is the response body for listing runs.
type ListRunsResponse struct {
	Data []RunResponse `json:"data"`
	Meta Meta          `json:"meta"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

// ListRuns handles GET /api/v1/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	runs, total, err := h.journal.List(r.Context(), params.Limit, params.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
		return
	}

	data := make([]RunResponse, 0, len(runs))
	for _, entry := range runs {
		data = append(data, runToResponse(entry))
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{
		Data: data,
		Meta: Meta{Total: total, Limit: params.Limit, Offset: params.Offset},
	})
}

// GetRun handles GET /api/v1/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	entry, err := h.journal.Get(r.Context(), runID)
	if errors.Is(err, run.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get run: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, runToResponse(entry))
}

func runToResponse(entry *run.Run) RunResponse {
	resp := RunResponse{
		ID:          entry.ID,
		TriggerType: entry.TriggerType,
		TriggerID:   entry.TriggerID,
		Provider:    entry.Provider,
		Model:       entry.Model,
		Prompt:      entry.Prompt,
		Status:      entry.Status,
		Answer:      entry.Answer,
		Error:       entry.Error,
		StartedAt:   entry.StartedAt.Format(time.RFC3339),
	}
	if entry.CompletedAt != nil {
		s := entry.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}
