package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"aijudge/pkg/evidence"
	"aijudge/pkg/schema"
)

const (
	evidenceField   = "evidence_files"
	userHeader      = "X-USER-UDID"
	anonymousUser   = "Anonymous"
	maxMultipartMem = 32 << 20
)

// POST /api/judge
func (s *Server) handlePostJudge(c echo.Context) error {
	req, files, err := bindJudge(c)
	if err != nil {
		if he, ok := bodyTooLarge(err); ok {
			return he
		}
		if fe, ok := typeMismatch(err, "story"); ok {
			return unprocessable(c, fe)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return unprocessable(c, validationDetails(err)...)
	}

	ctx := c.Request().Context()
	descs, err := evidence.Validate(ctx, files)
	if err != nil {
		if errors.Is(err, evidence.ErrInvalid) {
			return unprocessable(c, FieldError{Field: evidenceField, Message: err.Error()})
		}
		return fmt.Errorf("validate evidence: %w", err)
	}
	lines := evidence.Lines(descs)

	evidenceJSON, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}

	rec := &schema.RequestLog{
		RequestID:     uuid.New(),
		UserID:        userID(c),
		Story:         req.Story,
		EvidenceCount: len(descs),
		EvidenceJSON:  string(evidenceJSON),
	}
	if err := s.Logs.Create(ctx, rec); err != nil {
		return fmt.Errorf("create request log: %w", err)
	}

	return s.judge(c, rec, lines)
}

// judge runs the orchestrator for an already logged request. Any error or
// panic after this point marks the log failed before it propagates.
func (s *Server) judge(c echo.Context, rec *schema.RequestLog, lines []string) (err error) {
	ctx := c.Request().Context()
	logger := s.log.With("request_id", rec.RequestID, "user", rec.UserID)

	done := false
	defer func() {
		if done {
			return
		}
		r := recover()
		msg := "unknown error"
		switch {
		case r != nil:
			msg = fmt.Sprintf("panic: %v", r)
		case err != nil:
			msg = err.Error()
		}
		if ferr := s.Logs.Fail(context.WithoutCancel(ctx), rec.RequestID, msg); ferr != nil {
			logger.Error("marking request failed", "err", ferr)
		}
		if r != nil {
			panic(r)
		}
	}()

	j, reason := s.Judge.Judge(ctx, rec.Story, lines)
	degraded := ""
	if reason != nil {
		degraded = reason.Error()
		logger.Warn("returning fallback judgment", "reason", degraded)
	}

	if err := s.Logs.Complete(context.WithoutCancel(ctx), rec.RequestID, j, degraded); err != nil {
		return fmt.Errorf("complete request log: %w", err)
	}
	done = true

	s.notify(&schema.Notification{
		RequestID:     rec.RequestID,
		UserID:        rec.UserID,
		Story:         rec.Story,
		EvidenceCount: rec.EvidenceCount,
		Judgment:      j,
		Degraded:      degraded,
	})

	return c.JSON(http.StatusOK, j)
}

func (s *Server) notify(n *schema.Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Add(n); err != nil {
		s.log.Warn("notification dropped", "request_id", n.RequestID, "err", err)
	}
}

// bindJudge accepts either a JSON body or a multipart form with evidence files.
func bindJudge(c echo.Context) (schema.StoryRequest, []*multipart.FileHeader, error) {
	var req schema.StoryRequest
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		if err := c.Bind(&req); err != nil {
			return req, nil, err
		}
		return req, nil, nil
	}

	if err := c.Request().ParseMultipartForm(maxMultipartMem); err != nil {
		return req, nil, err
	}
	form := c.Request().MultipartForm
	if v := form.Value["story"]; len(v) > 0 {
		req.Story = v[0]
	}
	return req, form.File[evidenceField], nil
}

func userID(c echo.Context) string {
	if id := strings.TrimSpace(c.Request().Header.Get(userHeader)); id != "" {
		return id
	}
	return anonymousUser
}
