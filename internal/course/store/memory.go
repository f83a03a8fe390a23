package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"catapult/internal/course/models"
	"catapult/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	courses    map[int64]models.Course
	referenced func(ctx context.Context, courseID int64) (bool, error)
}

type MemoryOption func(*InMemoryStore)

// WithReferenceCheck reports whether registrations still point at a course.
func WithReferenceCheck(fn func(ctx context.Context, courseID int64) (bool, error)) MemoryOption {
	return func(s *InMemoryStore) {
		s.referenced = fn
	}
}

func NewInMemoryStore(opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{courses: make(map[int64]models.Course)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Create(_ context.Context, course *models.Course) error {
	stored, err := cloneCourse(*course)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	course.ID = s.nextID
	stored.ID = s.nextID
	s.courses[stored.ID] = stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, tenantID, id int64) (*models.Course, error) {
	s.mu.RLock()
	course, ok := s.courses[id]
	s.mu.RUnlock()
	if !ok || course.TenantID != tenantID {
		return nil, fmt.Errorf("course %d: %w", id, sentinel.ErrNotFound)
	}
	out, err := cloneCourse(course)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConfirmed holds the store lock across confirm, so no other write
// interleaves with the delete.
func (s *InMemoryStore) DeleteConfirmed(ctx context.Context, tenantID, id int64, confirm Confirm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	course, ok := s.courses[id]
	if !ok || course.TenantID != tenantID {
		return fmt.Errorf("course %d: %w", id, sentinel.ErrNotFound)
	}
	if s.referenced != nil {
		inUse, err := s.referenced(ctx, id)
		if err != nil {
			return fmt.Errorf("count course registrations: %w", err)
		}
		if inUse {
			return fmt.Errorf("course %d has registrations: %w", id, sentinel.ErrInUse)
		}
	}
	out, err := cloneCourse(course)
	if err != nil {
		return err
	}
	if err := confirm(ctx, &out); err != nil {
		return err
	}
	delete(s.courses, id)
	return nil
}

// cloneCourse deep-copies the structure tree through its JSON form.
func cloneCourse(c models.Course) (models.Course, error) {
	raw, err := json.Marshal(c.Structure)
	if err != nil {
		return models.Course{}, fmt.Errorf("copy course structure: %w", err)
	}
	var structure models.Structure
	if err := json.Unmarshal(raw, &structure); err != nil {
		return models.Course{}, fmt.Errorf("copy course structure: %w", err)
	}
	c.Structure = structure
	return c, nil
}
