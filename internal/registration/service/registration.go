package service

import (
	"context"

	"catapult/internal/audit"
	"catapult/internal/moveon"
	"catapult/internal/registration/models"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/requestcontext"
)

// CreateRequest is the input for a new registration.
type CreateRequest struct {
	CourseID int64              `json:"courseId"`
	Actor    models.ActorRecord `json:"actor"`
}

func (r *CreateRequest) Validate() error {
	if r.CourseID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "courseId is required")
	}
	if r.Actor.ObjectType == "" {
		r.Actor.ObjectType = "Agent"
	}
	return r.Actor.Validate()
}

// Create allocates the registration in the companion first and only then
// writes the local rows. A companion failure leaves nothing behind locally.
func (s *Service) Create(ctx context.Context, tenantID int64, req CreateRequest) (*models.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	course, err := s.courses.FindByID(ctx, tenantID, req.CourseID)
	if err != nil {
		return nil, wrapCourseErr(err)
	}

	created, err := s.companion.CreateRegistration(ctx, course.RemoteID, req.Actor)
	if err != nil {
		return nil, err
	}

	auCount := len(course.Structure.AUs())
	seeded := moveon.Interpret(course.Structure, models.NewRollupState(auCount), moveon.NoTransition)
	reg := &models.Registration{
		TenantID: tenantID,
		Code:     created.Code,
		CourseID: course.ID,
		RemoteID: created.RemoteID,
		Actor:    created.Actor,
		Rollup:   seeded.State,
	}
	if err := s.registrations.Create(ctx, reg, auCount); err != nil {
		s.logger.ErrorContext(ctx, "local registration insert failed after companion create",
			"registration_code", created.Code,
			"remote_id", created.RemoteID,
			"error", err,
		)
		if cleanupErr := s.companion.DeleteRegistration(ctx, created.RemoteID); cleanupErr != nil {
			s.logger.ErrorContext(ctx, "companion registration left without local record",
				"remote_id", created.RemoteID,
				"error", cleanupErr,
			)
		}
		return nil, wrapRegistrationErr(err, "failed to create registration")
	}

	s.metrics.IncRegistrationsCreated()
	s.logAudit(ctx, audit.Event{
		TenantID:       tenantID,
		Action:         audit.EventRegistrationCreated,
		RegistrationID: reg.ID,
		CourseID:       course.ID,
	})
	return reg, nil
}

// Get resolves idOrCode and returns the registration with its AU rows.
func (s *Service) Get(ctx context.Context, tenantID int64, idOrCode string) (*models.Registration, error) {
	reg, err := s.registrations.FindByIDOrCode(ctx, tenantID, idOrCode)
	if err != nil {
		return nil, wrapRegistrationErr(err, "failed to load registration")
	}
	aus, err := s.registrations.ListAUs(ctx, tenantID, reg.ID)
	if err != nil {
		return nil, wrapRegistrationErr(err, "failed to load registration AUs")
	}
	reg.AUs = aus
	return reg, nil
}

// Delete asks the companion to delete its registration and deletes the local
// record only once the companion confirmed.
func (s *Service) Delete(ctx context.Context, tenantID int64, idOrCode string) error {
	reg, err := s.registrations.FindByIDOrCode(ctx, tenantID, idOrCode)
	if err != nil {
		return wrapRegistrationErr(err, "failed to load registration")
	}

	if err := s.companion.DeleteRegistration(ctx, reg.RemoteID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUpstreamFailure) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "companion registration delete failed")
	}

	if err := s.registrations.Delete(ctx, tenantID, reg.ID); err != nil {
		s.logger.ErrorContext(ctx, "registration deleted remotely but local delete failed",
			"registration_id", reg.ID,
			"remote_id", reg.RemoteID,
			"error", err,
		)
		return wrapRegistrationErr(err, "failed to delete registration")
	}

	s.logAudit(ctx, audit.Event{
		TenantID:       tenantID,
		Action:         audit.EventRegistrationDeleted,
		RegistrationID: reg.ID,
	})
	return nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	args := []any{
		"tenant_id", event.TenantID,
		"event", string(event.Action),
		"log_type", "audit",
	}
	if event.RegistrationID != 0 {
		args = append(args, "registration_id", event.RegistrationID)
	}
	if event.AUIndex != nil {
		args = append(args, "au_index", *event.AUIndex)
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, string(event.Action), args...)
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, event)
}
