// Package store persists registrations and their per-AU satisfaction rows.
//
// Reads and lifecycle writes go through PostgresStore or MemoryStore directly.
// AU transitions go through a Tx obtained from a transaction runner so that
// the AU row lock, the statement emission and the rollup write share one
// transaction.
package store

import (
	"context"
	"strconv"

	"catapult/internal/registration/models"
)

// Tx is the transaction-scoped view used by the waive/complete workflow.
// Locks taken by its Load methods are held until the transaction ends.
type Tx interface {
	// LoadAUForChange resolves the registration by id or code and locks the AU row.
	LoadAUForChange(ctx context.Context, tenantID int64, idOrCode string, auIndex int) (*models.Registration, *models.CourseAU, error)
	// LoadRollupForUpdate re-reads the rollup document under the registration row lock.
	LoadRollupForUpdate(ctx context.Context, tenantID, registrationID int64) (models.RollupState, error)
	// MarkAUSatisfied never reverts: it only matches unsatisfied rows.
	MarkAUSatisfied(ctx context.Context, tenantID, auRowID int64, waiver *models.Waiver) error
	UpdateRollup(ctx context.Context, tenantID, registrationID int64, rollup models.RollupState) error
}

// parseID reports whether idOrCode can also be matched against the numeric id.
func parseID(idOrCode string) (int64, bool) {
	id, err := strconv.ParseInt(idOrCode, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
