package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"aijudge/pkg/schema"
	"aijudge/pkg/store"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": s.appName,
		"status":  "ok",
	})
}

// GET /health
func (s *Server) handleGetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

type requestStatus struct {
	RequestID     uuid.UUID            `json:"request_id"`
	Status        schema.RequestStatus `json:"status"`
	EvidenceCount int                  `json:"evidence_count"`
	Result        json.RawMessage      `json:"result,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
}

// GET /api/judge/:request_id
// Only the user that submitted the request (by X-USER-UDID) can read it.
func (s *Server) handleGetJudge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	l, err := s.Logs.Get(c.Request().Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	case err != nil:
		return fmt.Errorf("get request log: %w", err)
	}
	if l.UserID != userID(c) {
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}

	resp := requestStatus{
		RequestID:     l.RequestID,
		Status:        l.Status,
		EvidenceCount: l.EvidenceCount,
		CreatedAt:     l.CreatedAt,
		CompletedAt:   l.CompletedAt,
	}
	if l.ResultJSON != nil && json.Valid([]byte(*l.ResultJSON)) {
		resp.Result = json.RawMessage(*l.ResultJSON)
	}
	return c.JSON(http.StatusOK, resp)
}
