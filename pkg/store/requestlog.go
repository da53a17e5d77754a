package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"aijudge/pkg/schema"
	"aijudge/pkg/utils"
)

const (
	requestLogTable = "judge_request_log"
	maxErrorRunes   = 1000
)

var requestLogColumns = []string{
	"id", "user_udid", "story", "evidence_count", "evidence_files_json",
	"status", "result_summary", "result_verdict", "result_json", "error_message",
	"created_at", "completed_at",
}

// RequestLogRepo writes the one-row-per-request audit log. A row is inserted
// as processing and later moved exactly once to completed or failed.
type RequestLogRepo struct {
	q   Querier
	now func() time.Time
}

func NewRequestLogRepo(q Querier) *RequestLogRepo {
	return &RequestLogRepo{q: q, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts l with status processing and fills in ID, Status and CreatedAt.
func (r *RequestLogRepo) Create(ctx context.Context, l *schema.RequestLog) error {
	l.Status = schema.StatusProcessing
	l.CreatedAt = r.now()

	sql, args, err := psql.Insert(requestLogTable).
		Columns("request_uuid", "user_udid", "story", "evidence_count", "evidence_files_json", "status", "created_at").
		Values(l.RequestID, l.UserID, l.Story, l.EvidenceCount, l.EvidenceJSON, string(l.Status), l.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&l.ID); err != nil {
		return mapError(err, "request log", l.RequestID)
	}
	return nil
}

// Complete stores the returned Judgment. reason is the degradation cause for
// fallback judgments and empty otherwise.
func (r *RequestLogRepo) Complete(ctx context.Context, id uuid.UUID, j schema.Judgment, reason string) error {
	raw, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode judgment: %w", err)
	}

	set := map[string]any{
		"status":         string(schema.StatusCompleted),
		"result_summary": j.Summary,
		"result_verdict": j.Verdict,
		"result_json":    string(raw),
		"error_message":  nilIfEmpty(utils.LimitStr(reason, maxErrorRunes)),
		"completed_at":   r.now(),
	}
	return r.finish(ctx, id, set)
}

// Fail marks the request failed with a truncated error message.
func (r *RequestLogRepo) Fail(ctx context.Context, id uuid.UUID, msg string) error {
	set := map[string]any{
		"status":        string(schema.StatusFailed),
		"error_message": utils.LimitStr(msg, maxErrorRunes),
		"completed_at":  r.now(),
	}
	return r.finish(ctx, id, set)
}

func (r *RequestLogRepo) finish(ctx context.Context, id uuid.UUID, set map[string]any) error {
	sql, args, err := psql.Update(requestLogTable).
		SetMap(set).
		Where(squirrel.Eq{"request_uuid": id.String(), "status": string(schema.StatusProcessing)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, "request log", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request log %s: %w", id, ErrAlreadyFinal)
	}
	return nil
}

// Get loads one request log by its request id.
func (r *RequestLogRepo) Get(ctx context.Context, id uuid.UUID) (*schema.RequestLog, error) {
	sql, args, err := psql.Select(requestLogColumns...).
		From(requestLogTable).
		Where(squirrel.Eq{"request_uuid": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var (
		l      schema.RequestLog
		status string
	)
	err = r.q.QueryRow(ctx, sql, args...).Scan(
		&l.ID, &l.UserID, &l.Story, &l.EvidenceCount, &l.EvidenceJSON,
		&status, &l.Summary, &l.Verdict, &l.ResultJSON, &l.ErrorMessage,
		&l.CreatedAt, &l.CompletedAt,
	)
	if err != nil {
		return nil, mapError(err, "request log", id)
	}
	l.RequestID = id
	l.Status = schema.RequestStatus(status)
	return &l, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
