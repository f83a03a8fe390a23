package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catapult/internal/registration/models"
	dErrors "catapult/pkg/domain-errors"
	"catapult/pkg/platform/sentinel"
)

// MemoryStore keeps registrations in process. Transactions take per-AU and
// per-registration locks that are held until commit or rollback, and buffer
// their writes until commit.
type MemoryStore struct {
	mu            sync.Mutex
	nextRegID     int64
	nextAUID      int64
	registrations map[int64]models.Registration
	aus           map[int64]models.CourseAU
	auLocks       map[int64]chan struct{}
	regLocks      map[int64]chan struct{}
	txTimeout     time.Duration
}

const defaultMemoryTxTimeout = 5 * time.Second

type MemoryOption func(*MemoryStore)

// WithTxTimeout bounds every transaction that arrives without a deadline.
func WithTxTimeout(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		registrations: make(map[int64]models.Registration),
		aus:           make(map[int64]models.CourseAU),
		auLocks:       make(map[int64]chan struct{}),
		regLocks:      make(map[int64]chan struct{}),
		txTimeout:     defaultMemoryTxTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, reg *models.Registration, auCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.registrations {
		if existing.Code == reg.Code {
			return fmt.Errorf("registration code %s: %w", reg.Code, sentinel.ErrAlreadyUsed)
		}
	}

	s.nextRegID++
	reg.ID = s.nextRegID
	stored := *reg
	stored.Rollup = reg.Rollup.Clone()
	stored.AUs = nil
	s.registrations[reg.ID] = stored

	aus := make([]models.CourseAU, 0, auCount)
	for i := 0; i < auCount; i++ {
		s.nextAUID++
		au := models.CourseAU{ID: s.nextAUID, TenantID: reg.TenantID, RegistrationID: reg.ID, AUIndex: i}
		s.aus[au.ID] = au
		aus = append(aus, au)
	}
	reg.AUs = aus
	return nil
}

func (s *MemoryStore) FindByIDOrCode(_ context.Context, tenantID int64, idOrCode string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.findLocked(tenantID, idOrCode)
	if !ok {
		return nil, fmt.Errorf("registration %s: %w", idOrCode, sentinel.ErrNotFound)
	}
	return &reg, nil
}

func (s *MemoryStore) ListAUs(_ context.Context, tenantID, registrationID int64) ([]models.CourseAU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CourseAU
	for _, au := range s.aus {
		if au.TenantID == tenantID && au.RegistrationID == registrationID {
			out = append(out, copyAU(au))
		}
	}
	sortAUs(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, tenantID, registrationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[registrationID]
	if !ok || reg.TenantID != tenantID {
		return fmt.Errorf("registration %d: %w", registrationID, sentinel.ErrNotFound)
	}
	for id, au := range s.aus {
		if au.RegistrationID == registrationID {
			delete(s.aus, id)
		}
	}
	delete(s.registrations, registrationID)
	return nil
}

// RunInTx runs fn with a transaction-scoped view and a context bound to the
// transaction deadline. Writes become visible to other callers only when fn
// returns nil before the deadline.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	tx := &memoryTx{
		store:          s,
		held:           make(map[chan struct{}]bool),
		pendingAUs:     make(map[int64]models.CourseAU),
		pendingRollups: make(map[int64]models.RollupState),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		if ctx.Err() != nil && !dErrors.HasCode(err, dErrors.CodeTimeout) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction deadline exceeded")
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction deadline exceeded")
	}
	return s.commit(tx)
}

func (s *MemoryStore) commit(tx *memoryTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range tx.pendingAUs {
		if _, ok := s.aus[id]; !ok {
			return fmt.Errorf("commit AU row %d: %w", id, sentinel.ErrNotFound)
		}
	}
	for id := range tx.pendingRollups {
		if _, ok := s.registrations[id]; !ok {
			return fmt.Errorf("commit registration %d: %w", id, sentinel.ErrNotFound)
		}
	}
	for id, au := range tx.pendingAUs {
		s.aus[id] = au
	}
	for id, rollup := range tx.pendingRollups {
		reg := s.registrations[id]
		reg.Rollup = rollup
		s.registrations[id] = reg
	}
	return nil
}

func (s *MemoryStore) findLocked(tenantID int64, idOrCode string) (models.Registration, bool) {
	if id, ok := parseID(idOrCode); ok {
		if reg, found := s.registrations[id]; found && reg.TenantID == tenantID {
			return cloneRegistration(reg), true
		}
	}
	for _, reg := range s.registrations {
		if reg.TenantID == tenantID && reg.Code == idOrCode {
			return cloneRegistration(reg), true
		}
	}
	return models.Registration{}, false
}

func (s *MemoryStore) lockFor(locks map[int64]chan struct{}, id int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		locks[id] = ch
	}
	return ch
}

type memoryTx struct {
	store          *MemoryStore
	held           map[chan struct{}]bool
	pendingAUs     map[int64]models.CourseAU
	pendingRollups map[int64]models.RollupState
}

func (tx *memoryTx) acquire(ctx context.Context, lock chan struct{}) error {
	if tx.held[lock] {
		return nil
	}
	select {
	case lock <- struct{}{}:
		tx.held[lock] = true
		return nil
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for row lock")
	}
}

func (tx *memoryTx) release() {
	for lock := range tx.held {
		<-lock
	}
	tx.held = nil
}

func (tx *memoryTx) LoadAUForChange(ctx context.Context, tenantID int64, idOrCode string, auIndex int) (*models.Registration, *models.CourseAU, error) {
	s := tx.store
	s.mu.Lock()
	reg, ok := s.findLocked(tenantID, idOrCode)
	var rowID int64
	if ok {
		for id, au := range s.aus {
			if au.RegistrationID == reg.ID && au.AUIndex == auIndex {
				rowID = id
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		return nil, nil, fmt.Errorf("registration %s: %w", idOrCode, sentinel.ErrNotFound)
	}
	if rowID == 0 {
		return nil, nil, fmt.Errorf("AU %d of registration %d: %w", auIndex, reg.ID, sentinel.ErrNotFound)
	}

	if err := tx.acquire(ctx, s.lockFor(s.auLocks, rowID)); err != nil {
		return nil, nil, err
	}

	au, ok := tx.currentAU(rowID)
	if !ok {
		return nil, nil, fmt.Errorf("AU %d of registration %d: %w", auIndex, reg.ID, sentinel.ErrNotFound)
	}
	return &reg, &au, nil
}

func (tx *memoryTx) LoadRollupForUpdate(ctx context.Context, tenantID, registrationID int64) (models.RollupState, error) {
	s := tx.store
	if err := tx.acquire(ctx, s.lockFor(s.regLocks, registrationID)); err != nil {
		return models.RollupState{}, err
	}
	if pending, ok := tx.pendingRollups[registrationID]; ok {
		return pending.Clone(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[registrationID]
	if !ok || reg.TenantID != tenantID {
		return models.RollupState{}, fmt.Errorf("registration %d: %w", registrationID, sentinel.ErrNotFound)
	}
	return reg.Rollup.Clone(), nil
}

func (tx *memoryTx) MarkAUSatisfied(_ context.Context, tenantID, auRowID int64, waiver *models.Waiver) error {
	au, ok := tx.currentAU(auRowID)
	if !ok || au.TenantID != tenantID {
		return fmt.Errorf("AU row %d: %w", auRowID, sentinel.ErrNotFound)
	}
	if au.IsSatisfied {
		return fmt.Errorf("AU row %d: %w", auRowID, sentinel.ErrStateChanged)
	}
	au.ApplySatisfied(waiver)
	tx.pendingAUs[auRowID] = au
	return nil
}

func (tx *memoryTx) UpdateRollup(_ context.Context, tenantID, registrationID int64, rollup models.RollupState) error {
	s := tx.store
	s.mu.Lock()
	reg, ok := s.registrations[registrationID]
	s.mu.Unlock()
	if !ok || reg.TenantID != tenantID {
		return fmt.Errorf("registration %d: %w", registrationID, sentinel.ErrNotFound)
	}
	if rollup.Version == 0 {
		rollup.Version = models.RollupStateVersion
	}
	tx.pendingRollups[registrationID] = rollup.Clone()
	return nil
}

func (tx *memoryTx) currentAU(rowID int64) (models.CourseAU, bool) {
	if au, ok := tx.pendingAUs[rowID]; ok {
		return copyAU(au), true
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	au, ok := s.aus[rowID]
	return copyAU(au), ok
}

func cloneRegistration(reg models.Registration) models.Registration {
	reg.Rollup = reg.Rollup.Clone()
	reg.AUs = nil
	return reg
}

func copyAU(au models.CourseAU) models.CourseAU {
	if au.WaivedReason != nil {
		reason := *au.WaivedReason
		au.WaivedReason = &reason
	}
	return au
}
