// Package run journals agent executions: one row per prompt processed,
// whether it arrived over HTTP or from an on-chain trigger.
package run

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrRunNotFound = errors.New("agent run not found")

// Run status constants
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Trigger type constants
const (
	TriggerTypeHTTP  = "http"
	TriggerTypeChain = "chain"
)

// Run is one journaled agent execution.
type Run struct {
	ID          string
	TriggerType string
	TriggerID   *uint64
	Provider    string
	Model       string
	Prompt      string
	Status      string
	Answer      *string
	Error       *string
	StartedAt   time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// StartInput describes a run about to execute.
type StartInput struct {
	TriggerType string
	TriggerID   *uint64
	Provider    string
	Model       string
	Prompt      string
}

// Journal persists runs in SQLite.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Start records a new run in the running state and returns it.
func (j *Journal) Start(ctx context.Context, in StartInput) (*Run, error) {
	now := nowRFC3339()
	r := &Run{
		ID:          uuid.NewString(),
		TriggerType: in.TriggerType,
		TriggerID:   in.TriggerID,
		Provider:    in.Provider,
		Model:       in.Model,
		Prompt:      in.Prompt,
		Status:      StatusRunning,
		StartedAt:   parseRFC3339Time(now),
		CreatedAt:   parseRFC3339Time(now),
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO agent_run (
			id, trigger_type, trigger_id, provider, model, prompt,
			status, answer, error, started_at, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, NULL, ?)
	`,
		r.ID,
		r.TriggerType,
		triggerIDValue(r.TriggerID),
		r.Provider,
		r.Model,
		r.Prompt,
		r.Status,
		now,
		now,
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Complete marks a run successful and stores its answer.
func (j *Journal) Complete(ctx context.Context, runID, answer string) (*Run, error) {
	return j.finish(ctx, runID, StatusSuccess, &answer, nil)
}

// Fail marks a run failed and stores the error text.
func (j *Journal) Fail(ctx context.Context, runID, errText string) (*Run, error) {
	return j.finish(ctx, runID, StatusFailed, nil, &errText)
}

func (j *Journal) finish(ctx context.Context, runID, status string, answer, errText *string) (*Run, error) {
	res, err := j.db.ExecContext(ctx, `
		UPDATE agent_run
		SET status = ?, answer = ?, error = ?, completed_at = ?
		WHERE id = ?
	`, status, answer, errText, nowRFC3339(), runID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrRunNotFound
	}

	return j.Get(ctx, runID)
}

// Get retrieves a run by ID.
func (j *Journal) Get(ctx context.Context, runID string) (*Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, trigger_type, trigger_id, provider, model, prompt,
		       status, answer, error, started_at, completed_at, created_at
		FROM agent_run
		WHERE id = ?
	`, runID)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns runs newest-first with pagination, plus the total count.
func (j *Journal) List(ctx context.Context, limit, offset int64) ([]*Run, int64, error) {
	if limit <= 0 {
		limit = 25
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, trigger_type, trigger_id, provider, model, prompt,
		       status, answer, error, started_at, completed_at, created_at
		FROM agent_run
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		r, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		runs = append(runs, r)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, rowsErr
	}

	var total int64
	countRow := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent_run`)
	if scanErr := countRow.Scan(&total); scanErr != nil {
		return nil, 0, scanErr
	}

	return runs, total, nil
}

// Helper functions

type runScanner interface {
	Scan(dest ...any) error
}

func scanRun(scan runScanner) (*Run, error) {
	var r Run
	var (
		triggerID   sql.NullInt64
		answer      sql.NullString
		errText     sql.NullString
		startedAt   string
		completedAt sql.NullString
		createdAt   string
	)

	err := scan.Scan(
		&r.ID, &r.TriggerType, &triggerID, &r.Provider, &r.Model, &r.Prompt,
		&r.Status, &answer, &errText, &startedAt, &completedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if triggerID.Valid {
		id := uint64(triggerID.Int64)
		r.TriggerID = &id
	}
	if answer.Valid {
		r.Answer = &answer.String
	}
	if errText.Valid {
		r.Error = &errText.String
	}
	r.StartedAt = parseRFC3339Time(startedAt)
	r.CreatedAt = parseRFC3339Time(createdAt)
	if completedAt.Valid {
		t := parseRFC3339Time(completedAt.String)
		r.CompletedAt = &t
	}
	return &r, nil
}

// triggerIDValue converts the optional trigger id for the driver, which
// has no uint64 support.
func triggerIDValue(id *uint64) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}

// Timestamps are stored as RFC 3339 TEXT; the driver only exchanges
// strings for these columns.

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseRFC3339Time(value string) time.Time {
	t, _ := time.Parse(time.RFC3339, value)
	return t
}
