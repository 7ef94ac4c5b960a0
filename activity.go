package guard

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Activity action constants
const (
	ActionLogin   = "auth.login"
	ActionLogout  = "auth.logout"
	ActionRefresh = "auth.refresh"
	ActionDenied  = "auth.denied"
)

// RequestMeta is the device/network metadata extracted once per request and
// reused across every activity record issued for that request.
type RequestMeta struct {
	IP        string
	UserAgent string
	Path      string
	Method    string
}

// CaptureRequestMeta reads request metadata from the router context. Call it
// once per request and pass the value to every log call.
func CaptureRequestMeta(c router.Context) RequestMeta {
	ip := c.Header("X-Forwarded-For")
	if idx := strings.IndexByte(ip, ','); idx >= 0 {
		ip = strings.TrimSpace(ip[:idx])
	}
	if ip == "" {
		ip = c.Header("X-Real-IP")
	}

	return RequestMeta{
		IP:        ip,
		UserAgent: c.Header("User-Agent"),
		Path:      c.Path(),
		Method:    c.Method(),
	}
}

// ActivityRecord is an immutable, append-only audit entry. Once persisted it
// is never edited or deleted by this core.
type ActivityRecord struct {
	bun.BaseModel `bun:"table:activity_records,alias:act"`

	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ActorID       *uuid.UUID     `bun:"actor_id,nullzero" json:"actor_id,omitempty"`
	Action        string         `bun:"action,notnull" json:"action"`
	IP            string         `bun:"ip" json:"ip,omitempty"`
	UserAgent     string         `bun:"user_agent" json:"user_agent,omitempty"`
	Detail        map[string]any `bun:"detail,type:jsonb" json:"detail,omitempty"`
	Success       bool           `bun:"success,notnull" json:"success"`
	FailureReason string         `bun:"failure_reason" json:"failure_reason,omitempty"`
	RecordedAt    time.Time      `bun:"recorded_at,notnull" json:"recorded_at"`
}

// ActivityStore persists audit records. Implementations must tolerate
// concurrent writers; ordering across records is only partial, by timestamp.
type ActivityStore interface {
	CreateRecord(ctx context.Context, record *ActivityRecord) error
}

// ActivityFilter controls which audit records an ActivityReader returns.
type ActivityFilter struct {
	Action  string     // optional: filter by action
	ActorID *uuid.UUID // optional: filter by actor
	Success *bool      // optional: filter by outcome
	Limit   int        // default 50, max 200
	Offset  int        // pagination offset
}

// ActivityPage contains paginated audit results.
type ActivityPage struct {
	Records []ActivityRecord `json:"records"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ActivityReader serves the audit-log read endpoints. Reads are exempt from
// activity recording to avoid self-referential log storms.
type ActivityReader interface {
	ListRecords(ctx context.Context, filter ActivityFilter) (*ActivityPage, error)
}
