package repo

import (
	"context"
	"time"

	"github.com/hamed0406/wgwatch/internal/domain"
)

// Status is the latest view of the monitored configuration.
type Status struct {
	Snapshot            domain.Snapshot `json:"snapshot"`
	Observed            bool            `json:"observed"` // false until the first successful poll
	CheckedAt           time.Time       `json:"checked_at"`
	LastSuccessAt       time.Time       `json:"last_success_at"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
	LastError           string          `json:"last_error,omitempty"`
}

// StatusStore receives poll outcomes and serves them to readers.
// It lives for the process only.
type StatusStore interface {
	RecordSuccess(ctx context.Context, snap domain.Snapshot, at time.Time) error
	RecordFailure(ctx context.Context, failures int, cause error, at time.Time) error
	AppendEvent(ctx context.Context, rec domain.EventRecord) error
	Latest(ctx context.Context) (Status, error)
	// Events returns up to limit records, newest first.
	Events(ctx context.Context, limit int) ([]domain.EventRecord, error)
}
