package service

import (
	"context"
	"errors"
	"log/slog"

	"catapult/internal/audit"
	"catapult/internal/course/models"
	coursestore "catapult/internal/course/store"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/sentinel"
	"catapult/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, tenantID, id int64) (*models.Course, error)
	DeleteConfirmed(ctx context.Context, tenantID, id int64, confirm coursestore.Confirm) error
}

// Companion deletes the remote twin of a course.
type Companion interface {
	DeleteCourse(ctx context.Context, remoteID string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service looks up courses and deletes them together with their remote twin.
type Service struct {
	courses        Store
	companion      Companion
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(courses Store, companion Companion, opts ...Option) *Service {
	s := &Service{courses: courses, companion: companion}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, tenantID, id int64) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, wrapCourseErr(err, "failed to load course")
	}
	return course, nil
}

// Delete removes the companion's course and then the local row, inside one
// store transaction that holds the course lock. A course that registrations
// still reference is refused before the companion is called; a companion
// failure leaves the local row untouched.
func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	remoteDeleted := false
	var remoteID string
	err := s.courses.DeleteConfirmed(ctx, tenantID, id, func(ctx context.Context, course *models.Course) error {
		remoteID = course.RemoteID
		if err := s.companion.DeleteCourse(ctx, course.RemoteID); err != nil {
			if dErrors.HasCode(err, dErrors.CodeUpstreamFailure) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "companion course delete failed")
		}
		remoteDeleted = true
		return nil
	})
	if err != nil {
		if remoteDeleted && s.logger != nil {
			s.logger.ErrorContext(ctx, "course deleted remotely but local delete failed",
				"course_id", id,
				"remote_id", remoteID,
				"error", err,
			)
		}
		return wrapCourseErr(err, "failed to delete course")
	}

	s.logAudit(ctx, audit.Event{TenantID: tenantID, Action: audit.EventCourseDeleted, CourseID: id})
	return nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action),
			"course_id", event.CourseID,
			"tenant_id", event.TenantID,
			"request_id", requestcontext.RequestID(ctx),
			"event", string(event.Action),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, event)
}

func wrapCourseErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "course not found")
	case errors.Is(err, sentinel.ErrInUse):
		return dErrors.New(dErrors.CodeConflict, "course still has registrations")
	}
	return dErrors.Wrap(err, dErrors.CodeInternalStoreFailure, msg)
}
