package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,CourseLookup,StatementEmitter,Companion,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"catapult/internal/audit"
	"catapult/internal/companion"
	coursemodels "catapult/internal/course/models"
	coursestore "catapult/internal/course/store"
	"catapult/internal/lrs"
	"catapult/internal/moveon"
	"catapult/internal/registration/models"
	"catapult/internal/registration/service/mocks"
	"catapult/internal/registration/store"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/sentinel"
)

const (
	tenantID   int64 = 7
	courseLMS        = "https://example.com/course"
	blockLMS         = "https://example.com/course/block-1"
	auIntroLMS       = "https://example.com/course/au-intro"
	auQuizLMS        = "https://example.com/course/au-quiz"
)

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	mockEmitter   *mocks.MockStatementEmitter
	mockCompanion *mocks.MockCompanion
	registrations *store.MemoryStore
	courses       *coursestore.InMemoryStore
	auditStore    *audit.InMemoryStore
	course        *coursemodels.Course
	service       *Service

	mu        sync.Mutex
	submitted []lrs.Statement
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockEmitter = mocks.NewMockStatementEmitter(s.ctrl)
	s.mockCompanion = mocks.NewMockCompanion(s.ctrl)
	s.registrations = store.NewMemoryStore()
	s.courses = coursestore.NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	s.submitted = nil

	s.course = &coursemodels.Course{
		TenantID: tenantID,
		RemoteID: "remote-course-1",
		Structure: coursemodels.Structure{
			LMSID: courseLMS,
			Children: []coursemodels.Node{
				{
					Type:  coursemodels.NodeTypeBlock,
					LMSID: blockLMS,
					Children: []coursemodels.Node{
						{Type: coursemodels.NodeTypeAU, LMSID: auIntroLMS, MoveOn: coursemodels.MoveOnCompleted, AUIndex: 0},
						{Type: coursemodels.NodeTypeAU, LMSID: auQuizLMS, MoveOn: coursemodels.MoveOnPassed, AUIndex: 1},
					},
				},
			},
		},
	}
	s.Require().NoError(s.courses.Create(context.Background(), s.course))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.registrations, s.registrations, s.courses, s.mockEmitter, s.mockCompanion,
		WithLogger(logger),
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// seedRegistration inserts a registration with the rollup Create would compute.
func (s *ServiceSuite) seedRegistration(code string) *models.Registration {
	auCount := len(s.course.Structure.AUs())
	seeded := moveon.Interpret(s.course.Structure, models.NewRollupState(auCount), moveon.NoTransition)
	reg := &models.Registration{
		TenantID: tenantID,
		Code:     code,
		CourseID: s.course.ID,
		RemoteID: "remote-" + code,
		Actor:    models.ActorRecord{ObjectType: "Agent", Name: "Learner", Mbox: "mailto:learner@example.com"},
		Rollup:   seeded.State,
	}
	s.Require().NoError(s.registrations.Create(context.Background(), reg, auCount))
	return reg
}

// acceptStatements makes the LRS accept every statement and records it.
func (s *ServiceSuite) acceptStatements() {
	s.mockEmitter.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, stmt lrs.Statement) (*lrs.Response, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.submitted = append(s.submitted, stmt)
			return &lrs.Response{StatementIDs: []string{stmt.ID}}, nil
		}).AnyTimes()
}

func (s *ServiceSuite) statements() []lrs.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]lrs.Statement(nil), s.submitted...)
}

func (s *ServiceSuite) auRow(regID int64, index int) models.CourseAU {
	aus, err := s.registrations.ListAUs(context.Background(), tenantID, regID)
	s.Require().NoError(err)
	for _, au := range aus {
		if au.AUIndex == index {
			return au
		}
	}
	s.FailNow(fmt.Sprintf("AU %d not found", index))
	return models.CourseAU{}
}

func (s *ServiceSuite) auditActions() []audit.AuditEvent {
	events, err := s.auditStore.ListAll(context.Background())
	s.Require().NoError(err)
	out := make([]audit.AuditEvent, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func verbs(stmts []lrs.Statement) []string {
	out := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		out = append(out, stmt.VerbName()+" "+stmt.Object.ID)
	}
	return out
}

func (s *ServiceSuite) TestWaiveAU() {
	ctx := context.Background()

	s.Run("waiving every AU satisfies block and course exactly once", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-waive-all")
		s.acceptStatements()

		s.Require().NoError(s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "prior learning"))
		s.Equal([]string{"waived " + auIntroLMS}, verbs(s.statements()))

		s.Require().NoError(s.service.WaiveAU(ctx, tenantID, strconv.FormatInt(reg.ID, 10), 1, "prior learning"))
		s.Equal([]string{
			"waived " + auIntroLMS,
			"waived " + auQuizLMS,
			"satisfied " + blockLMS,
			"satisfied " + courseLMS,
		}, verbs(s.statements()))

		au := s.auRow(reg.ID, 1)
		s.True(au.IsSatisfied)
		s.True(au.IsWaived)
		s.Require().NotNil(au.WaivedReason)
		s.Equal("prior learning", *au.WaivedReason)

		stored, err := s.registrations.FindByIDOrCode(ctx, tenantID, reg.Code)
		s.Require().NoError(err)
		s.True(stored.Rollup.Satisfied)
		s.True(stored.Rollup.Blocks[blockLMS])
		s.Equal([]audit.AuditEvent{audit.EventAUWaived, audit.EventAUWaived}, s.auditActions())
	})

	s.Run("waived statement carries registration, session and reason", func() {
		s.SetupTest()
		s.service = New(s.registrations, s.registrations, s.courses, s.mockEmitter, s.mockCompanion,
			WithSessionIDs(func() string { return "session-fixed" }),
		)
		reg := s.seedRegistration("code-stmt")
		s.acceptStatements()

		s.Require().NoError(s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "  accessibility  "))

		stmts := s.statements()
		s.Require().Len(stmts, 1)
		stmt := stmts[0]
		s.Equal(lrs.VerbWaived, stmt.Verb.ID)
		s.Equal(reg.Actor, stmt.Actor)
		s.Require().NotNil(stmt.Context)
		s.Equal(reg.Code, stmt.Context.Registration)
		s.Equal("session-fixed", stmt.Context.Extensions[lrs.ExtensionSessionID])
		s.Require().NotNil(stmt.Result)
		s.Equal("accessibility", stmt.Result.Extensions[lrs.ExtensionReason])
	})

	s.Run("already satisfied AU is a conflict and sends nothing", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-conflict")
		s.acceptStatements()
		s.Require().NoError(s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "first"))

		err := s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "second")

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Len(s.statements(), 1)
		au := s.auRow(reg.ID, 0)
		s.Equal("first", *au.WaivedReason)
	})

	s.Run("LRS failure leaves rows and rollup untouched", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-lrs-down")
		s.mockEmitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, &lrs.SubmissionError{StatusCode: 503})

		err := s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt")

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStatementSubmissionFailed))
		au := s.auRow(reg.ID, 0)
		s.False(au.IsSatisfied)
		s.False(au.IsWaived)
		s.Nil(au.WaivedReason)
		stored, err := s.registrations.FindByIDOrCode(ctx, tenantID, reg.Code)
		s.Require().NoError(err)
		s.Equal(reg.Rollup, stored.Rollup)
		s.Empty(s.auditActions())
	})

	s.Run("failure after accepted statements reports them as orphaned", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-orphan")
		s.acceptStatements()
		s.service.tx = failingRollupRunner{inner: s.registrations}

		err := s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt")

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternalStoreFailure))
		s.False(s.auRow(reg.ID, 0).IsSatisfied)

		orphaned, listErr := s.auditStore.ListByAction(ctx, audit.EventStatementsOrphaned)
		s.Require().NoError(listErr)
		s.Require().Len(orphaned, 1)
		s.Equal([]string{s.statements()[0].ID}, orphaned[0].StatementIDs)
		s.Equal(reg.ID, orphaned[0].RegistrationID)
	})

	s.Run("id and code address the same registration", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-equivalence")
		s.acceptStatements()

		s.Require().NoError(s.service.WaiveAU(ctx, tenantID, strconv.FormatInt(reg.ID, 10), 0, "by id"))
		err := s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "by code")

		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown registration and AU are not found", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-missing")

		err := s.service.WaiveAU(ctx, tenantID, "no-such-code", 0, "exempt")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		err = s.service.WaiveAU(ctx, tenantID, reg.Code, 5, "exempt")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		err = s.service.WaiveAU(ctx, tenantID+1, reg.Code, 0, "exempt")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("blank reason and negative index are rejected", func() {
		s.SetupTest()
		err := s.service.WaiveAU(ctx, tenantID, "any", 0, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		err = s.service.WaiveAU(ctx, tenantID, "any", -1, "exempt")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestCompleteAU() {
	ctx := context.Background()

	s.Run("facts that do not meet the rule are recorded without statements", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-partial")

		err := s.service.CompleteAU(ctx, tenantID, reg.Code, 1, Completion{Completed: true})

		s.Require().NoError(err)
		s.False(s.auRow(reg.ID, 1).IsSatisfied)
		stored, err := s.registrations.FindByIDOrCode(ctx, tenantID, reg.Code)
		s.Require().NoError(err)
		s.True(stored.Rollup.Progress(1).Completed)
		s.False(stored.Rollup.Progress(1).Satisfied)
		s.Empty(s.auditActions())
	})

	s.Run("facts recorded earlier combine with later ones", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-combine")
		s.acceptStatements()
		s.Require().NoError(s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt"))
		s.Require().NoError(s.service.CompleteAU(ctx, tenantID, reg.Code, 1, Completion{Completed: true}))

		err := s.service.CompleteAU(ctx, tenantID, reg.Code, 1, Completion{Passed: true, SessionID: "launch-session"})

		s.Require().NoError(err)
		au := s.auRow(reg.ID, 1)
		s.True(au.IsSatisfied)
		s.False(au.IsWaived)
		s.Equal([]string{
			"waived " + auIntroLMS,
			"satisfied " + blockLMS,
			"satisfied " + courseLMS,
		}, verbs(s.statements()))
		s.Equal("launch-session", s.statements()[2].Context.Extensions[lrs.ExtensionSessionID])
		s.Equal([]audit.AuditEvent{audit.EventAUWaived, audit.EventAUCompleted}, s.auditActions())
	})

	s.Run("completion without facts is rejected", func() {
		s.SetupTest()
		err := s.service.CompleteAU(ctx, tenantID, "any", 0, Completion{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("completing a waived AU is a conflict", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-waived-then-complete")
		s.acceptStatements()
		s.Require().NoError(s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt"))

		err := s.service.CompleteAU(ctx, tenantID, reg.Code, 0, Completion{Completed: true})

		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Len(s.statements(), 1)
	})
}

func (s *ServiceSuite) TestConcurrentTransitionsOnOneAU() {
	ctx := context.Background()
	reg := s.seedRegistration("code-race")
	s.acceptStatements()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt")
	}()
	go func() {
		defer wg.Done()
		errs[1] = s.service.CompleteAU(ctx, tenantID, strconv.FormatInt(reg.ID, 10), 0, Completion{Completed: true})
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "unexpected error: %v", err)
	}
	s.Equal(1, succeeded)
	s.True(s.auRow(reg.ID, 0).IsSatisfied)
}

func (s *ServiceSuite) TestCreate() {
	ctx := context.Background()
	actor := models.ActorRecord{Name: "Learner", Mbox: "mailto:learner@example.com"}

	s.Run("creates registration with companion code and AU rows", func() {
		s.SetupTest()
		s.mockCompanion.EXPECT().CreateRegistration(gomock.Any(), "remote-course-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, a models.ActorRecord) (*companion.CreatedRegistration, error) {
				s.Equal("Agent", a.ObjectType)
				return &companion.CreatedRegistration{RemoteID: "42", Code: "code-created", Actor: a}, nil
			})

		reg, err := s.service.Create(ctx, tenantID, CreateRequest{CourseID: s.course.ID, Actor: actor})

		s.Require().NoError(err)
		s.Equal("code-created", reg.Code)
		s.Len(reg.AUs, 2)
		s.False(reg.Rollup.Satisfied)

		got, err := s.service.Get(ctx, tenantID, "code-created")
		s.Require().NoError(err)
		s.Equal(reg.ID, got.ID)
		s.Len(got.AUs, 2)
		s.Equal([]audit.AuditEvent{audit.EventRegistrationCreated}, s.auditActions())
	})

	s.Run("companion failure leaves no local registration", func() {
		s.SetupTest()
		s.mockCompanion.EXPECT().CreateRegistration(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("502"), dErrors.CodeUpstreamFailure, "companion registration create failed"))

		_, err := s.service.Create(ctx, tenantID, CreateRequest{CourseID: s.course.ID, Actor: actor})

		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamFailure))
		_, err = s.registrations.FindByIDOrCode(ctx, tenantID, "1")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("duplicate code cleans up the companion registration", func() {
		s.SetupTest()
		s.seedRegistration("code-dup")
		s.mockCompanion.EXPECT().CreateRegistration(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&companion.CreatedRegistration{RemoteID: "99", Code: "code-dup", Actor: actor}, nil)
		s.mockCompanion.EXPECT().DeleteRegistration(gomock.Any(), "99").Return(nil)

		_, err := s.service.Create(ctx, tenantID, CreateRequest{CourseID: s.course.ID, Actor: actor})

		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("NotApplicable AUs start satisfied", func() {
		s.SetupTest()
		course := &coursemodels.Course{
			TenantID: tenantID,
			RemoteID: "remote-course-na",
			Structure: coursemodels.Structure{
				LMSID: "https://example.com/na-course",
				Children: []coursemodels.Node{
					{Type: coursemodels.NodeTypeAU, LMSID: "https://example.com/na-au", MoveOn: coursemodels.MoveOnNotApplicable, AUIndex: 0},
					{Type: coursemodels.NodeTypeAU, LMSID: "https://example.com/graded-au", MoveOn: coursemodels.MoveOnPassed, AUIndex: 1},
				},
			},
		}
		s.Require().NoError(s.courses.Create(ctx, course))
		s.mockCompanion.EXPECT().CreateRegistration(gomock.Any(), "remote-course-na", gomock.Any()).
			Return(&companion.CreatedRegistration{RemoteID: "5", Code: "code-na", Actor: actor}, nil)

		reg, err := s.service.Create(ctx, tenantID, CreateRequest{CourseID: course.ID, Actor: actor})

		s.Require().NoError(err)
		s.True(reg.Rollup.Progress(0).Satisfied)
		s.False(reg.Rollup.Progress(1).Satisfied)
		s.False(reg.Rollup.Satisfied)
		s.False(s.auRow(reg.ID, 0).IsSatisfied, "rows change only through waive or complete")
	})

	s.Run("invalid requests never reach the companion", func() {
		s.SetupTest()
		_, err := s.service.Create(ctx, tenantID, CreateRequest{Actor: actor})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Create(ctx, tenantID, CreateRequest{CourseID: s.course.ID, Actor: models.ActorRecord{Name: "nobody"}})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Create(ctx, tenantID, CreateRequest{CourseID: 999, Actor: actor})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	ctx := context.Background()

	s.Run("deletes locally after companion confirms", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-delete")
		s.mockCompanion.EXPECT().DeleteRegistration(gomock.Any(), reg.RemoteID).Return(nil)

		s.Require().NoError(s.service.Delete(ctx, tenantID, reg.Code))

		_, err := s.service.Get(ctx, tenantID, reg.Code)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal([]audit.AuditEvent{audit.EventRegistrationDeleted}, s.auditActions())
	})

	s.Run("companion failure keeps the local record", func() {
		s.SetupTest()
		reg := s.seedRegistration("code-keep")
		s.mockCompanion.EXPECT().DeleteRegistration(gomock.Any(), reg.RemoteID).
			Return(errors.New("connection refused"))

		err := s.service.Delete(ctx, tenantID, strconv.FormatInt(reg.ID, 10))

		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamFailure))
		got, getErr := s.service.Get(ctx, tenantID, reg.Code)
		s.Require().NoError(getErr)
		s.Equal(reg.ID, got.ID)
	})

	s.Run("unknown registration is not found", func() {
		s.SetupTest()
		err := s.service.Delete(ctx, tenantID, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestTransactionTimeout() {
	reg := s.seedRegistration("code-timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt")

	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) TestSlowLRSExceedsTransactionDeadline() {
	ctx := context.Background()
	s.registrations = store.NewMemoryStore(store.WithTxTimeout(50 * time.Millisecond))
	s.service = New(s.registrations, s.registrations, s.courses, s.mockEmitter, s.mockCompanion,
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
	)
	reg := s.seedRegistration("code-slow-lrs")

	var sawDeadline bool
	s.mockEmitter.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ lrs.Statement) (*lrs.Response, error) {
			_, sawDeadline = ctx.Deadline()
			<-ctx.Done()
			return nil, &lrs.SubmissionError{Err: ctx.Err()}
		})

	err := s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt")

	s.True(dErrors.HasCode(err, dErrors.CodeTimeout), "unexpected error: %v", err)
	s.True(sawDeadline, "LRS call runs under the transaction deadline")
	s.False(s.auRow(reg.ID, 0).IsSatisfied)
	s.Empty(s.auditActions())

	s.acceptStatements()
	s.Require().NoError(s.service.WaiveAU(ctx, tenantID, reg.Code, 0, "exempt"))
	s.Equal([]string{"waived " + auIntroLMS}, verbs(s.statements()))
}

func (s *ServiceSuite) TestCompletionThenWaiverOnFlatCourse() {
	ctx := context.Background()
	flat := &coursemodels.Course{
		TenantID: tenantID,
		RemoteID: "remote-course-flat",
		Structure: coursemodels.Structure{
			LMSID: courseLMS,
			Children: []coursemodels.Node{
				{Type: coursemodels.NodeTypeAU, LMSID: auIntroLMS, MoveOn: coursemodels.MoveOnCompleted, AUIndex: 0},
				{Type: coursemodels.NodeTypeAU, LMSID: auQuizLMS, MoveOn: coursemodels.MoveOnCompletedOrPassed, AUIndex: 1},
			},
		},
	}
	s.Require().NoError(s.courses.Create(ctx, flat))
	s.course = flat
	reg := s.seedRegistration("code-flat")
	s.acceptStatements()

	s.Require().NoError(s.service.CompleteAU(ctx, tenantID, reg.Code, 0, Completion{Completed: true}))
	s.True(s.auRow(reg.ID, 0).IsSatisfied)
	s.Empty(s.statements())

	s.Require().NoError(s.service.WaiveAU(ctx, tenantID, reg.Code, 1, "accessibility exemption"))

	stmts := s.statements()
	s.Equal([]string{"waived " + auQuizLMS, "satisfied " + courseLMS}, verbs(stmts))
	s.Equal("accessibility exemption", stmts[0].Result.Extensions[lrs.ExtensionReason])
	courseStatements := 0
	for _, stmt := range stmts {
		if stmt.VerbName() == "satisfied" && stmt.Object.ID == courseLMS {
			courseStatements++
		}
	}
	s.Equal(1, courseStatements)

	stored, err := s.registrations.FindByIDOrCode(ctx, tenantID, reg.Code)
	s.Require().NoError(err)
	s.True(stored.Rollup.Satisfied)
	s.True(s.auRow(reg.ID, 1).IsWaived)
	s.Equal([]audit.AuditEvent{audit.EventAUCompleted, audit.EventAUWaived}, s.auditActions())
}

// failingRollupRunner runs transactions on the memory store but fails every
// rollup write, after the statements have already been submitted.
type failingRollupRunner struct {
	inner *store.MemoryStore
}

func (r failingRollupRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return r.inner.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return fn(ctx, failingRollupTx{Tx: tx})
	})
}

type failingRollupTx struct {
	store.Tx
}

func (failingRollupTx) UpdateRollup(context.Context, int64, int64, models.RollupState) error {
	return errors.New("disk full")
}
