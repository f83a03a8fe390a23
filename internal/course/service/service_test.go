package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Companion,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"catapult/internal/audit"
	"catapult/internal/course/models"
	"catapult/internal/course/service/mocks"
	coursestore "catapult/internal/course/store"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctrl               *gomock.Controller
	mockStore          *mocks.MockStore
	mockCompanion      *mocks.MockCompanion
	mockAuditPublisher *mocks.MockAuditPublisher
	service            *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockCompanion = mocks.NewMockCompanion(s.ctrl)
	s.mockAuditPublisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.mockStore, s.mockCompanion, WithAuditPublisher(s.mockAuditPublisher))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestGet() {
	ctx := context.Background()

	s.Run("missing course is not found", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), int64(1), int64(9)).
			Return(nil, fmt.Errorf("course 9: %w", sentinel.ErrNotFound))

		_, err := s.service.Get(ctx, 1, 9)

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), int64(1), int64(9)).Return(nil, errors.New("connection reset"))

		_, err := s.service.Get(ctx, 1, 9)

		s.True(dErrors.HasCode(err, dErrors.CodeInternalStoreFailure))
	})
}

// runConfirm hands course to confirm the way a store does inside its delete
// transaction, then returns localErr as the result of the local delete.
func runConfirm(course *models.Course, localErr error) func(context.Context, int64, int64, coursestore.Confirm) error {
	return func(ctx context.Context, _, _ int64, confirm coursestore.Confirm) error {
		if err := confirm(ctx, course); err != nil {
			return err
		}
		return localErr
	}
}

func (s *ServiceSuite) TestDelete() {
	ctx := context.Background()
	course := &models.Course{ID: 3, TenantID: 1, RemoteID: "remote-3"}

	s.Run("companion then local delete", func() {
		s.mockCompanion.EXPECT().DeleteCourse(gomock.Any(), "remote-3").Return(nil)
		gomock.InOrder(
			s.mockStore.EXPECT().DeleteConfirmed(gomock.Any(), int64(1), int64(3), gomock.Any()).
				DoAndReturn(runConfirm(course, nil)),
			s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, event audit.Event) error {
					s.Equal(audit.EventCourseDeleted, event.Action)
					s.Equal(int64(3), event.CourseID)
					return nil
				}),
		)

		s.Require().NoError(s.service.Delete(ctx, 1, 3))
	})

	s.Run("course with registrations is refused before the companion is called", func() {
		s.mockStore.EXPECT().DeleteConfirmed(gomock.Any(), int64(1), int64(3), gomock.Any()).
			Return(fmt.Errorf("course 3 has registrations: %w", sentinel.ErrInUse))

		err := s.service.Delete(ctx, 1, 3)

		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing course is not found", func() {
		s.mockStore.EXPECT().DeleteConfirmed(gomock.Any(), int64(1), int64(9), gomock.Any()).
			Return(fmt.Errorf("course 9: %w", sentinel.ErrNotFound))

		err := s.service.Delete(ctx, 1, 9)

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("companion failure leaves the local course", func() {
		s.mockStore.EXPECT().DeleteConfirmed(gomock.Any(), int64(1), int64(3), gomock.Any()).
			DoAndReturn(runConfirm(course, errors.New("delete must not run")))
		s.mockCompanion.EXPECT().DeleteCourse(gomock.Any(), "remote-3").Return(errors.New("status 404"))

		err := s.service.Delete(ctx, 1, 3)

		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamFailure))
	})

	s.Run("local failure after companion delete is internal", func() {
		s.mockStore.EXPECT().DeleteConfirmed(gomock.Any(), int64(1), int64(3), gomock.Any()).
			DoAndReturn(runConfirm(course, errors.New("deadlock detected")))
		s.mockCompanion.EXPECT().DeleteCourse(gomock.Any(), "remote-3").Return(nil)

		err := s.service.Delete(ctx, 1, 3)

		s.True(dErrors.HasCode(err, dErrors.CodeInternalStoreFailure))
	})
}

func TestDeleteRefusesReferencedCourse(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	companion := mocks.NewMockCompanion(ctrl)
	companion.EXPECT().DeleteCourse(gomock.Any(), gomock.Any()).Times(0)

	courses := coursestore.NewInMemoryStore(coursestore.WithReferenceCheck(
		func(context.Context, int64) (bool, error) { return true, nil },
	))
	course := &models.Course{TenantID: 1, RemoteID: "remote-referenced"}
	require.NoError(t, courses.Create(ctx, course))

	err := New(courses, companion).Delete(ctx, 1, course.ID)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	_, err = courses.FindByID(ctx, 1, course.ID)
	assert.NoError(t, err, "local course is kept")
}
