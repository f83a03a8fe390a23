package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"catapult/internal/registration/models"
	"catapult/pkg/platform/sentinel"
)

const pgErrUniqueViolation = "23505"

const registrationColumns = `id, tenant_id, code, course_id, remote_id, metadata`

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore persists registrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the registration and one unsatisfied row per AU in a single
// transaction. reg.ID and reg.AUs are populated on success.
func (s *PostgresStore) Create(ctx context.Context, reg *models.Registration, auCount int) error {
	meta, err := encodeMetadata(reg.Actor, reg.Rollup)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create registration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (tenant_id, code, course_id, remote_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, reg.TenantID, reg.Code, reg.CourseID, reg.RemoteID, string(meta)).Scan(&reg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("registration code %s: %w", reg.Code, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	indexes := make([]int64, auCount)
	for i := range indexes {
		indexes[i] = int64(i)
	}
	rows, err := tx.QueryContext(ctx, `
		INSERT INTO registration_course_aus (tenant_id, registration_id, au_index, is_satisfied, is_waived)
		SELECT $1, $2, unnest($3::int[]), false, false
		RETURNING id, au_index
	`, reg.TenantID, reg.ID, pq.Array(indexes))
	if err != nil {
		return fmt.Errorf("insert registration AUs: %w", err)
	}
	aus := make([]models.CourseAU, 0, auCount)
	for rows.Next() {
		au := models.CourseAU{TenantID: reg.TenantID, RegistrationID: reg.ID}
		if err := rows.Scan(&au.ID, &au.AUIndex); err != nil {
			rows.Close()
			return fmt.Errorf("scan registration AU: %w", err)
		}
		aus = append(aus, au)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate registration AUs: %w", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create registration: %w", err)
	}
	sortAUs(aus)
	reg.AUs = aus
	return nil
}

// FindByIDOrCode matches numeric input against id or code, anything else against code.
func (s *PostgresStore) FindByIDOrCode(ctx context.Context, tenantID int64, idOrCode string) (*models.Registration, error) {
	return findRegistration(ctx, s.db, tenantID, idOrCode, "")
}

func (s *PostgresStore) ListAUs(ctx context.Context, tenantID, registrationID int64) ([]models.CourseAU, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, registration_id, au_index, is_satisfied, is_waived, waived_reason
		FROM registration_course_aus
		WHERE tenant_id = $1 AND registration_id = $2
		ORDER BY au_index
	`, tenantID, registrationID)
	if err != nil {
		return nil, fmt.Errorf("list registration AUs: %w", err)
	}
	defer rows.Close()

	var aus []models.CourseAU
	for rows.Next() {
		au, err := scanAU(rows)
		if err != nil {
			return nil, err
		}
		aus = append(aus, *au)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration AUs: %w", err)
	}
	return aus, nil
}

// Delete removes the AU rows and the registration.
func (s *PostgresStore) Delete(ctx context.Context, tenantID, registrationID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete registration: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM registration_course_aus WHERE tenant_id = $1 AND registration_id = $2
	`, tenantID, registrationID); err != nil {
		return fmt.Errorf("delete registration AUs: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM registrations WHERE tenant_id = $1 AND id = $2
	`, tenantID, registrationID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("registration %d: %w", registrationID, sentinel.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete registration: %w", err)
	}
	return nil
}

// findRegistration loads one registration row. lock is appended verbatim
// (empty or a FOR UPDATE clause).
func findRegistration(ctx context.Context, q queryer, tenantID int64, idOrCode, lock string) (*models.Registration, error) {
	var row *sql.Row
	if id, ok := parseID(idOrCode); ok {
		row = q.QueryRowContext(ctx, `
			SELECT `+registrationColumns+`
			FROM registrations
			WHERE tenant_id = $1 AND (id = $2 OR code = $3)
			ORDER BY (id = $2) DESC
			LIMIT 1 `+lock, tenantID, id, idOrCode)
	} else {
		row = q.QueryRowContext(ctx, `
			SELECT `+registrationColumns+`
			FROM registrations
			WHERE tenant_id = $1 AND code = $2 `+lock, tenantID, idOrCode)
	}
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registration %s: %w", idOrCode, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (*models.Registration, error) {
	var (
		reg  models.Registration
		meta []byte
	)
	if err := row.Scan(&reg.ID, &reg.TenantID, &reg.Code, &reg.CourseID, &reg.RemoteID, &meta); err != nil {
		return nil, err
	}
	actor, rollup, err := decodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	reg.Actor = actor
	reg.Rollup = rollup
	return &reg, nil
}

func scanAU(row scanner) (*models.CourseAU, error) {
	var (
		au     models.CourseAU
		reason sql.NullString
	)
	if err := row.Scan(&au.ID, &au.TenantID, &au.RegistrationID, &au.AUIndex, &au.IsSatisfied, &au.IsWaived, &reason); err != nil {
		return nil, fmt.Errorf("scan registration AU: %w", err)
	}
	if reason.Valid {
		au.WaivedReason = &reason.String
	}
	return &au, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func sortAUs(aus []models.CourseAU) {
	slices.SortFunc(aus, func(a, b models.CourseAU) int {
		return cmp.Compare(a.AUIndex, b.AUIndex)
	})
}
