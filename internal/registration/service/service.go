package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"catapult/internal/audit"
	"catapult/internal/companion"
	coursemodels "catapult/internal/course/models"
	"catapult/internal/lrs"
	"catapult/internal/platform/metrics"
	"catapult/internal/registration/models"
	"catapult/internal/registration/store"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/sentinel"
)

var tracer = otel.Tracer("catapult/internal/registration/service")

// Store is the non-transactional registration persistence.
type Store interface {
	Create(ctx context.Context, reg *models.Registration, auCount int) error
	FindByIDOrCode(ctx context.Context, tenantID int64, idOrCode string) (*models.Registration, error)
	ListAUs(ctx context.Context, tenantID, registrationID int64) ([]models.CourseAU, error)
	Delete(ctx context.Context, tenantID, registrationID int64) error
}

// TxRunner opens a transaction, hands fn a transaction-scoped store and a
// context bound to the transaction deadline, and commits only when fn returns
// nil. Work inside fn, LRS calls included, must use that context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error
}

type CourseLookup interface {
	FindByID(ctx context.Context, tenantID, id int64) (*coursemodels.Course, error)
}

// StatementEmitter posts statements to the LRS.
type StatementEmitter interface {
	Submit(ctx context.Context, stmt lrs.Statement) (*lrs.Response, error)
}

// Companion owns the remote half of each registration.
type Companion interface {
	CreateRegistration(ctx context.Context, courseRemoteID string, actor models.ActorRecord) (*companion.CreatedRegistration, error)
	DeleteRegistration(ctx context.Context, remoteID string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns the registration lifecycle and the AU waive/complete workflow.
type Service struct {
	registrations  Store
	tx             TxRunner
	courses        CourseLookup
	emitter        StatementEmitter
	companion      Companion
	builder        lrs.Builder
	newSessionID   func() string
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStatementBuilder replaces the id and clock source used for statements.
func WithStatementBuilder(b lrs.Builder) Option {
	return func(s *Service) {
		s.builder = b
	}
}

// WithSessionIDs replaces the generator for the cmi5 session id extension.
func WithSessionIDs(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newSessionID = fn
		}
	}
}

func New(
	registrations Store,
	tx TxRunner,
	courses CourseLookup,
	emitter StatementEmitter,
	companion Companion,
	opts ...Option,
) *Service {
	s := &Service{
		registrations: registrations,
		tx:            tx,
		courses:       courses,
		emitter:       emitter,
		companion:     companion,
		builder:       lrs.NewBuilder(),
		newSessionID:  uuid.NewString,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func wrapRegistrationErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrStateChanged):
		return dErrors.New(dErrors.CodeConflict, "AU is already satisfied in registration")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "registration code already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternalStoreFailure, msg)
}

func wrapCourseErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "course not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternalStoreFailure, "failed to load course")
}
