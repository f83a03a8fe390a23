package audit

import (
	"context"
	"time"
)

type AuditEvent string

const (
	EventRegistrationCreated AuditEvent = "registration_created"
	EventRegistrationDeleted AuditEvent = "registration_deleted"
	EventCourseDeleted       AuditEvent = "course_deleted"
	EventAUWaived            AuditEvent = "au_waived"
	EventAUCompleted         AuditEvent = "au_completed"
	// EventStatementsOrphaned records statements the LRS accepted for a
	// transaction that later rolled back.
	EventStatementsOrphaned AuditEvent = "statements_orphaned"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID             string     `json:"id"`
	Timestamp      time.Time  `json:"timestamp"`
	TenantID       int64      `json:"tenantId"`
	Action         AuditEvent `json:"action"`
	RegistrationID int64      `json:"registrationId,omitempty"`
	CourseID       int64      `json:"courseId,omitempty"`
	AUIndex        *int       `json:"auIndex,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	StatementIDs   []string   `json:"statementIds,omitempty"`
	RequestID      string     `json:"requestId,omitempty"`
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
