package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"catapult/internal/audit"
	coursemodels "catapult/internal/course/models"
	"catapult/internal/lrs"
	"catapult/internal/moveon"
	"catapult/internal/registration/models"
	"catapult/internal/registration/store"
	dErrors "catapult/pkg/domain-errors"
)

const (
	transitionWaive    = "waive"
	transitionComplete = "complete"
)

// Completion carries the facts reported for an AU by its content.
type Completion struct {
	Completed bool   `json:"completed"`
	Passed    bool   `json:"passed"`
	SessionID string `json:"sessionId"`
}

func (c *Completion) Validate() error {
	c.SessionID = strings.TrimSpace(c.SessionID)
	if !c.Completed && !c.Passed {
		return dErrors.New(dErrors.CodeValidation, "completion requires completed or passed")
	}
	return nil
}

// transition tracks one AU mutation across its transaction.
type transition struct {
	kind     string
	tenantID int64
	auIndex  int
	regID    int64
	emitted  []string
}

// WaiveAU marks an AU satisfied without evidence.
//
// Inside one transaction: lock the AU row, reject if already satisfied, submit
// the waived statement, mark the row, re-run rollup and submit satisfied
// statements for every block and the course that became satisfied, persist
// the rollup, commit. Any failure rolls the transaction back; statements the
// LRS already accepted stay there and are reported as orphaned.
func (s *Service) WaiveAU(ctx context.Context, tenantID int64, idOrCode string, auIndex int, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if auIndex < 0 {
		return dErrors.New(dErrors.CodeValidation, "auIndex must not be negative")
	}

	t := &transition{kind: transitionWaive, tenantID: tenantID, auIndex: auIndex}
	ctx, span := s.startSpan(ctx, "registration.WaiveAU", t, idOrCode)
	defer span.End()
	start := time.Now()

	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		reg, au, course, def, err := s.loadForChange(ctx, tx, t, idOrCode)
		if err != nil {
			return err
		}

		session := lrs.Session{Actor: reg.Actor, RegistrationCode: reg.Code, SessionID: s.newSessionID()}
		if err := s.emit(ctx, t, s.builder.Waived(session, def.LMSID, reason)); err != nil {
			return err
		}

		if err := tx.MarkAUSatisfied(ctx, tenantID, au.ID, &models.Waiver{Reason: reason}); err != nil {
			return wrapRegistrationErr(err, "failed to mark AU satisfied")
		}

		rollup, err := tx.LoadRollupForUpdate(ctx, tenantID, reg.ID)
		if err != nil {
			return wrapRegistrationErr(err, "failed to load rollup")
		}
		p := rollup.Progress(auIndex)
		p.Waived = true
		rollup.SetProgress(p)

		return s.applyRollup(ctx, tx, t, reg, course, rollup, auIndex, session)
	})
	err = s.finish(ctx, span, t, start, err)
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.Event{
		TenantID:       tenantID,
		Action:         audit.EventAUWaived,
		RegistrationID: t.regID,
		AUIndex:        &auIndex,
		Reason:         reason,
		StatementIDs:   t.emitted,
	})
	return nil
}

// CompleteAU records completion facts for an AU. The AU becomes satisfied
// only when its moveOn rule holds; no statement is sent for the AU itself.
func (s *Service) CompleteAU(ctx context.Context, tenantID int64, idOrCode string, auIndex int, completion Completion) error {
	if err := completion.Validate(); err != nil {
		return err
	}
	if auIndex < 0 {
		return dErrors.New(dErrors.CodeValidation, "auIndex must not be negative")
	}

	t := &transition{kind: transitionComplete, tenantID: tenantID, auIndex: auIndex}
	ctx, span := s.startSpan(ctx, "registration.CompleteAU", t, idOrCode)
	defer span.End()
	start := time.Now()

	satisfied := false
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		reg, au, course, def, err := s.loadForChange(ctx, tx, t, idOrCode)
		if err != nil {
			return err
		}

		rollup, err := tx.LoadRollupForUpdate(ctx, tenantID, reg.ID)
		if err != nil {
			return wrapRegistrationErr(err, "failed to load rollup")
		}
		p := rollup.Progress(auIndex)
		p.Completed = p.Completed || completion.Completed
		p.Passed = p.Passed || completion.Passed
		rollup.SetProgress(p)

		if !moveon.AUSatisfied(def.MoveOn, p) {
			if err := tx.UpdateRollup(ctx, tenantID, reg.ID, rollup); err != nil {
				return wrapRegistrationErr(err, "failed to update rollup")
			}
			return nil
		}

		if err := tx.MarkAUSatisfied(ctx, tenantID, au.ID, nil); err != nil {
			return wrapRegistrationErr(err, "failed to mark AU satisfied")
		}
		satisfied = true

		sessionID := completion.SessionID
		if sessionID == "" {
			sessionID = s.newSessionID()
		}
		session := lrs.Session{Actor: reg.Actor, RegistrationCode: reg.Code, SessionID: sessionID}
		return s.applyRollup(ctx, tx, t, reg, course, rollup, auIndex, session)
	})
	err = s.finish(ctx, span, t, start, err)
	if err != nil {
		return err
	}

	if satisfied {
		s.logAudit(ctx, audit.Event{
			TenantID:       tenantID,
			Action:         audit.EventAUCompleted,
			RegistrationID: t.regID,
			AUIndex:        &auIndex,
			StatementIDs:   t.emitted,
		})
	}
	return nil
}

// loadForChange locks the AU row and resolves its course definition.
func (s *Service) loadForChange(ctx context.Context, tx store.Tx, t *transition, idOrCode string) (
	*models.Registration, *models.CourseAU, *coursemodels.Course, coursemodels.Node, error,
) {
	reg, au, err := tx.LoadAUForChange(ctx, t.tenantID, idOrCode, t.auIndex)
	if err != nil {
		return nil, nil, nil, coursemodels.Node{}, wrapRegistrationErr(err, "failed to load AU")
	}
	t.regID = reg.ID

	if err := au.CanChange(); err != nil {
		return nil, nil, nil, coursemodels.Node{}, err
	}

	course, err := s.courses.FindByID(ctx, t.tenantID, reg.CourseID)
	if err != nil {
		return nil, nil, nil, coursemodels.Node{}, wrapCourseErr(err)
	}
	def, ok := course.Structure.AU(t.auIndex)
	if !ok {
		return nil, nil, nil, coursemodels.Node{}, dErrors.New(dErrors.CodeNotFound, "AU not found in course structure")
	}
	return reg, au, course, def, nil
}

// applyRollup interprets the new state, submits satisfied statements for
// blocks (innermost first) and then the course, and persists the rollup.
func (s *Service) applyRollup(
	ctx context.Context,
	tx store.Tx,
	t *transition,
	reg *models.Registration,
	course *coursemodels.Course,
	rollup models.RollupState,
	auIndex int,
	session lrs.Session,
) error {
	result := moveon.Interpret(course.Structure, rollup, auIndex)

	for _, blockID := range result.NewlySatisfiedBlocks {
		if err := s.emit(ctx, t, s.builder.Satisfied(session, blockID)); err != nil {
			return err
		}
	}
	if result.CourseNewlySatisfied {
		if err := s.emit(ctx, t, s.builder.Satisfied(session, course.Structure.LMSID)); err != nil {
			return err
		}
	}

	if err := tx.UpdateRollup(ctx, t.tenantID, reg.ID, result.State); err != nil {
		return wrapRegistrationErr(err, "failed to update rollup")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, t *transition, stmt lrs.Statement) error {
	if _, err := s.emitter.Submit(ctx, stmt); err != nil {
		if dErrors.HasCode(err, dErrors.CodeStatementSubmissionFailed) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeStatementSubmissionFailed, "failed to store "+stmt.VerbName()+" statement")
	}
	t.emitted = append(t.emitted, stmt.ID)
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, t *transition, idOrCode string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("tenant.id", t.tenantID),
		attribute.String("registration.ref", idOrCode),
		attribute.Int("au.index", t.auIndex),
	))
}

// finish normalises the transaction outcome and reports orphaned statements.
func (s *Service) finish(ctx context.Context, span trace.Span, t *transition, start time.Time, err error) error {
	if err == nil {
		s.metrics.ObserveTransition(t.kind, "success", start)
		span.SetAttributes(attribute.Int("statements.emitted", len(t.emitted)))
		return nil
	}

	var de *dErrors.Error
	if !errors.As(err, &de) {
		err = dErrors.Wrap(err, dErrors.CodeInternalStoreFailure, "failed to commit AU transition")
	}
	s.metrics.ObserveTransition(t.kind, string(dErrors.CodeOf(err)), start)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))

	if len(t.emitted) > 0 {
		s.reportOrphans(ctx, t, err)
	}
	return err
}

func (s *Service) reportOrphans(ctx context.Context, t *transition, cause error) {
	s.logger.WarnContext(ctx, "statements accepted by LRS for rolled back transition",
		"registration_id", t.regID,
		"au_index", t.auIndex,
		"transition", t.kind,
		"statement_ids", t.emitted,
		"error", cause,
	)
	s.metrics.AddOrphanedStatements(len(t.emitted))
	auIndex := t.auIndex
	s.logAudit(ctx, audit.Event{
		TenantID:       t.tenantID,
		Action:         audit.EventStatementsOrphaned,
		RegistrationID: t.regID,
		AUIndex:        &auIndex,
		Reason:         cause.Error(),
		StatementIDs:   append([]string(nil), t.emitted...),
	})
}
