package pam

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventAuthSuccess        ActivityEventType = "pam.auth.success"
	ActivityEventAuthFailure        ActivityEventType = "pam.auth.failure"
	ActivityEventSessionOpened      ActivityEventType = "pam.session.opened"
	ActivityEventSessionOpenFailure ActivityEventType = "pam.session.open_failure"
	ActivityEventSessionClosed      ActivityEventType = "pam.session.closed"
	ActivityEventCredentialsRevoked ActivityEventType = "pam.credentials.revoked"
	ActivityEventReleased           ActivityEventType = "pam.released"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType     ActivityEventType
	TransactionID string
	Service       string
	User          string
	FromState     State
	ToState       State
	Status        Status
	Metadata      map[string]any
	OccurredAt    time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
