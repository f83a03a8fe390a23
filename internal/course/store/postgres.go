// Package store persists courses and their AU structure.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catapult/internal/course/models"
	"catapult/pkg/platform/sentinel"
)

type courseMetadata struct {
	Structure models.Structure `json:"structure"`
}

// PostgresStore persists courses in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, course *models.Course) error {
	meta, err := json.Marshal(courseMetadata{Structure: course.Structure})
	if err != nil {
		return fmt.Errorf("encode course metadata: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO courses (tenant_id, remote_id, metadata)
		VALUES ($1, $2, $3)
		RETURNING id
	`, course.TenantID, course.RemoteID, string(meta)).Scan(&course.ID)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// Confirm runs inside the delete transaction, after the course row is locked
// and before it is removed. A non-nil error aborts the delete.
type Confirm func(ctx context.Context, course *models.Course) error

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID, id int64) (*models.Course, error) {
	return findCourse(ctx, s.db, tenantID, id, "")
}

// DeleteConfirmed locks the course row, refuses while registrations reference
// it, runs confirm and deletes the row, all in one transaction. The lock also
// blocks registrations being created against the course meanwhile.
func (s *PostgresStore) DeleteConfirmed(ctx context.Context, tenantID, id int64, confirm Confirm) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	course, err := findCourse(ctx, tx, tenantID, id, "FOR UPDATE")
	if err != nil {
		return err
	}

	var referenced bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE course_id = $1)`, id).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("count course registrations: %w", err)
	}
	if referenced {
		return fmt.Errorf("course %d has registrations: %w", id, sentinel.ErrInUse)
	}

	if err := confirm(ctx, course); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE tenant_id = $1 AND id = $2`, tenantID, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit course delete: %w", err)
	}
	return nil
}

func findCourse(ctx context.Context, q queryer, tenantID, id int64, lock string) (*models.Course, error) {
	var (
		course models.Course
		meta   []byte
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, tenant_id, remote_id, metadata
		FROM courses
		WHERE tenant_id = $1 AND id = $2
	`+lock, tenantID, id).Scan(&course.ID, &course.TenantID, &course.RemoteID, &meta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	var doc courseMetadata
	if err := json.Unmarshal(meta, &doc); err != nil {
		return nil, fmt.Errorf("decode course metadata: %w", err)
	}
	course.Structure = doc.Structure
	return &course, nil
}
