package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catapult/internal/registration/models"
	"catapult/pkg/platform/sentinel"
)

// PostgresTx implements Tx on top of an open *sql.Tx. The caller owns
// commit and rollback.
type PostgresTx struct {
	tx *sql.Tx
}

func NewPostgresTx(tx *sql.Tx) *PostgresTx {
	return &PostgresTx{tx: tx}
}

// LoadAUForChange locks the AU row with FOR UPDATE OF so concurrent
// transitions on the same AU serialise. The registration row is not locked.
func (s *PostgresTx) LoadAUForChange(ctx context.Context, tenantID int64, idOrCode string, auIndex int) (*models.Registration, *models.CourseAU, error) {
	reg, err := findRegistration(ctx, s.tx, tenantID, idOrCode, "")
	if err != nil {
		return nil, nil, err
	}

	row := s.tx.QueryRowContext(ctx, `
		SELECT rca.id, rca.tenant_id, rca.registration_id, rca.au_index, rca.is_satisfied, rca.is_waived, rca.waived_reason
		FROM registration_course_aus rca
		WHERE rca.tenant_id = $1 AND rca.registration_id = $2 AND rca.au_index = $3
		FOR UPDATE OF rca
	`, tenantID, reg.ID, auIndex)
	au, err := scanAU(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("AU %d of registration %d: %w", auIndex, reg.ID, sentinel.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("lock registration AU: %w", err)
	}
	return reg, au, nil
}

// LoadRollupForUpdate re-reads the rollup under the registration row lock so
// rollups for different AUs of one registration do not overwrite each other.
func (s *PostgresTx) LoadRollupForUpdate(ctx context.Context, tenantID, registrationID int64) (models.RollupState, error) {
	var meta []byte
	err := s.tx.QueryRowContext(ctx, `
		SELECT metadata FROM registrations
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`, tenantID, registrationID).Scan(&meta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RollupState{}, fmt.Errorf("registration %d: %w", registrationID, sentinel.ErrNotFound)
		}
		return models.RollupState{}, fmt.Errorf("lock registration rollup: %w", err)
	}
	_, rollup, err := decodeMetadata(meta)
	if err != nil {
		return models.RollupState{}, err
	}
	return rollup, nil
}

func (s *PostgresTx) MarkAUSatisfied(ctx context.Context, tenantID, auRowID int64, waiver *models.Waiver) error {
	var (
		waived bool
		reason sql.NullString
	)
	if waiver != nil {
		waived = true
		reason = sql.NullString{String: waiver.Reason, Valid: true}
	}
	res, err := s.tx.ExecContext(ctx, `
		UPDATE registration_course_aus
		SET is_satisfied = true, is_waived = $3, waived_reason = $4
		WHERE tenant_id = $1 AND id = $2 AND is_satisfied = false
	`, tenantID, auRowID, waived, reason)
	if err != nil {
		return fmt.Errorf("mark AU satisfied: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark AU satisfied: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("AU row %d: %w", auRowID, sentinel.ErrStateChanged)
	}
	return nil
}

func (s *PostgresTx) UpdateRollup(ctx context.Context, tenantID, registrationID int64, rollup models.RollupState) error {
	raw, err := encodeRollup(rollup)
	if err != nil {
		return err
	}
	res, err := s.tx.ExecContext(ctx, `
		UPDATE registrations
		SET metadata = jsonb_set(jsonb_set(metadata, '{rollup}', $3::jsonb), '{version}', to_jsonb($4::int))
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, registrationID, string(raw), metadataVersion)
	if err != nil {
		return fmt.Errorf("update rollup: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rollup: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("registration %d: %w", registrationID, sentinel.ErrNotFound)
	}
	return nil
}
