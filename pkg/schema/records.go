package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a RequestLog. Transitions are
// one-way: processing -> completed | failed.
type RequestStatus string

const (
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

// RequestLog is one judge request and, once finished, its outcome.
type RequestLog struct {
	ID            int64
	RequestID     uuid.UUID
	UserID        string
	Story         string
	EvidenceCount int
	EvidenceJSON  string
	Status        RequestStatus
	Summary       *string
	Verdict       *string
	ResultJSON    *string
	ErrorMessage  *string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// User is a device identity keyed by the client-supplied UDID.
type User struct {
	ID          int64     `json:"id"`
	UDID        string    `json:"udid"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// LoginRequest is the body of POST /api/user/login. "uuid" is accepted as
// an alias for "udid"; when both are present "udid" wins.
type LoginRequest struct {
	UDID string `json:"udid" validate:"required,min=8,max=64"`
}

func (r *LoginRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		UDID *string `json:"udid"`
		UUID *string `json:"uuid"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.UDID != nil:
		r.UDID = *raw.UDID
	case raw.UUID != nil:
		r.UDID = *raw.UUID
	default:
		r.UDID = ""
	}
	return nil
}

var errBlankUDID = errors.New("udid is blank")

// Normalized returns the trimmed UDID used as the storage key.
func (r LoginRequest) Normalized() (string, error) {
	udid := strings.TrimSpace(r.UDID)
	if udid == "" {
		return "", errBlankUDID
	}
	return udid, nil
}

// Notification is what gets posted to the ops channel after a judge request.
type Notification struct {
	RequestID     uuid.UUID
	UserID        string
	Story         string
	EvidenceCount int
	Judgment      Judgment
	// Degraded holds the reason a fallback Judgment was returned, if any.
	Degraded string
}
