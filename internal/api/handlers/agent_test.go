package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	"github.com/Lay3rLabs/wavs-hats/internal/api/handlers"
	"github.com/Lay3rLabs/wavs-hats/internal/domain/run"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/ethereum"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/eventbus"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/sqlite"
)

// stubRunner returns a canned answer or error for every prompt.
type stubRunner struct {
	answer string
	err    error
	prompt string
}

func (s *stubRunner) Run(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newTestJournal(t *testing.T) (*run.Journal, *sql.DB) {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp error = %v", err)
	}
	return run.NewJournal(db), db
}

func newAgentHandler(t *testing.T, runner *stubRunner) (*handlers.AgentHandler, *run.Journal, *eventbus.Bus) {
	t.Helper()
	journal, _ := newTestJournal(t)
	bus := eventbus.New()
	return handlers.NewAgentHandler(runner, journal, bus, "ollama", "llama3.1"), journal, bus
}

// ============================================================================
// POST /api/v1/prompt
// ============================================================================

func TestPrompt_Success(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{answer: "The result is 4"}
	handler, journal, bus := newAgentHandler(t, runner)
	events := bus.Subscribe(eventbus.TopicRunCompleted)

	body := bytes.NewBufferString(`{"prompt":"Calculate 24 divided by 6"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompt", body)
	rr := httptest.NewRecorder()
	handler.Prompt(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d; body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp handlers.PromptResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "The result is 4" {
		t.Errorf("expected answer 'The result is 4', got %q", resp.Answer)
	}
	if runner.prompt != "Calculate 24 divided by 6" {
		t.Errorf("runner received wrong prompt: %q", runner.prompt)
	}

	journaled, err := journal.Get(context.Background(), resp.RunID)
	if err != nil {
		t.Fatalf("journal.Get error = %v", err)
	}
	if journaled.Status != run.StatusSuccess {
		t.Errorf("expected journaled status success, got %q", journaled.Status)
	}

	select {
	case evt := <-events:
		payload := evt.Payload.(eventbus.RunEvent)
		if payload.RunID != resp.RunID || payload.Status != run.StatusSuccess {
			t.Errorf("unexpected run event: %+v", payload)
		}
	default:
		t.Error("expected a run.completed event to be published")
	}
}

func TestPrompt_EmptyPrompt(t *testing.T) {
	t.Parallel()

	handler, _, _ := newAgentHandler(t, &stubRunner{answer: "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompt", bytes.NewBufferString(`{"prompt":"  "}`))
	rr := httptest.NewRecorder()
	handler.Prompt(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPrompt_InvalidBody(t *testing.T) {
	t.Parallel()

	handler, _, _ := newAgentHandler(t, &stubRunner{answer: "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompt", bytes.NewBufferString(`not json`))
	rr := httptest.NewRecorder()
	handler.Prompt(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPrompt_CompletionFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: errors.New("request failed: connection refused")}
	handler, journal, bus := newAgentHandler(t, runner)
	events := bus.Subscribe(eventbus.TopicRunFailed)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prompt", bytes.NewBufferString(`{"prompt":"hello"}`))
	rr := httptest.NewRecorder()
	handler.Prompt(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusBadGateway)
	}

	// The failed run is journaled with the error text.
	runs, _, err := journal.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("journal.List error = %v", err)
	}
	if len(runs) != 1 || runs[0].Status != run.StatusFailed {
		t.Fatalf("expected one failed run, got %+v", runs)
	}
	if runs[0].Error == nil || *runs[0].Error != "request failed: connection refused" {
		t.Errorf("expected error text in journal, got %v", runs[0].Error)
	}

	select {
	case evt := <-events:
		payload := evt.Payload.(eventbus.RunEvent)
		if payload.Status != run.StatusFailed {
			t.Errorf("unexpected run event: %+v", payload)
		}
	default:
		t.Error("expected a run.failed event to be published")
	}
}

// ============================================================================
// POST /api/v1/trigger
// ============================================================================

func triggerBody(t *testing.T, triggerID uint64, prompt string) *bytes.Buffer {
	t.Helper()
	encoded, err := ethereum.EncodeDataWithID(ethereum.DataWithId{TriggerID: triggerID, Data: []byte(prompt)})
	if err != nil {
		t.Fatalf("encode trigger payload: %v", err)
	}
	raw, err := json.Marshal(handlers.TriggerRequest{Data: hexutil.Encode(encoded)})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(raw)
}

func TestTrigger_RoundTrip(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{answer: "The result is 4"}
	handler, journal, _ := newAgentHandler(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trigger", triggerBody(t, 42, "Calculate 24 divided by 6"))
	rr := httptest.NewRecorder()
	handler.Trigger(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d; body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp handlers.TriggerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TriggerID != 42 {
		t.Errorf("expected trigger id 42, got %d", resp.TriggerID)
	}
	if resp.Answer != "The result is 4" {
		t.Errorf("unexpected answer %q", resp.Answer)
	}

	// The result field round-trips back to a DataWithId carrying the answer.
	raw, err := hexutil.Decode(resp.Result)
	if err != nil {
		t.Fatalf("result is not valid hex: %v", err)
	}
	decoded, err := ethereum.DecodeDataWithID(raw)
	if err != nil {
		t.Fatalf("result does not decode: %v", err)
	}
	if decoded.TriggerID != 42 || string(decoded.Data) != "The result is 4" {
		t.Errorf("unexpected result payload: %+v", decoded)
	}

	// The run is journaled as a chain trigger with the correlation id.
	journaled, err := journal.Get(context.Background(), resp.RunID)
	if err != nil {
		t.Fatalf("journal.Get error = %v", err)
	}
	if journaled.TriggerType != run.TriggerTypeChain {
		t.Errorf("expected chain trigger type, got %q", journaled.TriggerType)
	}
	if journaled.TriggerID == nil || *journaled.TriggerID != 42 {
		t.Errorf("expected journaled trigger id 42, got %v", journaled.TriggerID)
	}
}

func TestTrigger_BadHex(t *testing.T) {
	t.Parallel()

	handler, _, _ := newAgentHandler(t, &stubRunner{answer: "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trigger", bytes.NewBufferString(`{"data":"zzzz"}`))
	rr := httptest.NewRecorder()
	handler.Trigger(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTrigger_MalformedPayload(t *testing.T) {
	t.Parallel()

	handler, _, _ := newAgentHandler(t, &stubRunner{answer: "x"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trigger", bytes.NewBufferString(`{"data":"0x010203"}`))
	rr := httptest.NewRecorder()
	handler.Trigger(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusBadRequest)
	}
}

// ============================================================================
// GET /api/v1/runs
// ============================================================================

func TestRuns_ListAndGet(t *testing.T) {
	t.Parallel()

	journal, _ := newTestJournal(t)
	started, err := journal.Start(context.Background(), run.StartInput{
		TriggerType: run.TriggerTypeHTTP,
		Provider:    "ollama",
		Model:       "llama3.1",
		Prompt:      "hello",
	})
	if err != nil {
		t.Fatalf("Start error = %v", err)
	}
	if _, err := journal.Complete(context.Background(), started.ID, "hi"); err != nil {
		t.Fatalf("Complete error = %v", err)
	}

	handler := handlers.NewRunHandler(journal)
	router := chi.NewRouter()
	router.Get("/runs", handler.ListRuns)
	router.Get("/runs/{id}", handler.GetRun)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d; want %d", rr.Code, http.StatusOK)
	}
	var list handlers.ListRunsResponse
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Meta.Total != 1 || len(list.Data) != 1 {
		t.Fatalf("expected one run, got %+v", list)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/"+started.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d; want %d", rr.Code, http.StatusOK)
	}
	var got handlers.RunResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if got.Status != run.StatusSuccess || got.Answer == nil || *got.Answer != "hi" {
		t.Errorf("unexpected run response: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("completed run should carry completedAt")
	}
}

func TestRuns_GetUnknown(t *testing.T) {
	t.Parallel()

	journal, _ := newTestJournal(t)
	handler := handlers.NewRunHandler(journal)
	router := chi.NewRouter()
	router.Get("/runs/{id}", handler.GetRun)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/no-such-run", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusNotFound)
	}
}
