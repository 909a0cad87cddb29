package app

import (
	"context"
	"errors"
	"log"

	"github.com/nhussaini/BlookBankManagementAPI/internal/clock"
	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
	"github.com/nhussaini/BlookBankManagementAPI/internal/keymutex"
)

// InventoryStore is the relational side of the allocation saga: the
// durable ledger of available units.
type InventoryStore interface {
	FindClosestExpiry(ctx context.Context, location string, bloodType domain.BloodType) (*domain.BloodUnit, error)
	FindByID(ctx context.Context, id int64) (*domain.BloodUnit, error)
	Insert(ctx context.Context, unit domain.BloodUnit) error
	DeleteByID(ctx context.Context, id int64) (bool, error)
	NextID(ctx context.Context) (int64, error)
}

// EmergencyStore is the document side: allocations currently in
// emergency use.
type EmergencyStore interface {
	Insert(ctx context.Context, alloc domain.Allocation) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Allocation, error)
	DeleteByID(ctx context.Context, id string) (*domain.Allocation, error)
}

// AllocationService orchestrates the emergency allocation lifecycle.
// The two stores share no transaction; within one operation the write
// to the destination store always precedes the delete from the source
// store, so a crash mid-operation leaves the unit visible in both
// stores (reconcilable) rather than in neither (lost).
type AllocationService struct {
	inventory InventoryStore
	emergency EmergencyStore
	locks     *keymutex.KeyedMutex
	clock     clock.Clock
	logger    *log.Logger
}

func NewAllocationService(inventory InventoryStore, emergency EmergencyStore, locks *keymutex.KeyedMutex, clk clock.Clock, logger *log.Logger) *AllocationService {
	if logger == nil {
		logger = log.Default()
	}
	return &AllocationService{
		inventory: inventory,
		emergency: emergency,
		locks:     locks,
		clock:     clk,
		logger:    logger,
	}
}

type AllocateInput struct {
	Location  string
	BloodType string
}

// Allocate moves the soonest-expiring unit at (location, bloodType)
// into the Emergency Store and returns the new allocation. The keyed
// lock is held through the source delete so a concurrent Allocate for
// the same key cannot select the same candidate.
func (s *AllocationService) Allocate(ctx context.Context, in AllocateInput) (domain.Allocation, error) {
	if in.Location == "" {
		return domain.Allocation{}, domain.ErrLocationRequired
	}
	bloodType, err := domain.ParseBloodType(in.BloodType)
	if err != nil {
		return domain.Allocation{}, err
	}

	key := in.Location + "|" + string(bloodType)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	unit, err := s.inventory.FindClosestExpiry(ctx, in.Location, bloodType)
	if err != nil {
		return domain.Allocation{}, err
	}
	if unit == nil {
		return domain.Allocation{}, domain.ErrUnitNotFound
	}

	alloc := domain.Allocation{
		OriginInventoryID: unit.ID,
		Hospital:          unit.Hospital,
		DonatedAt:         unit.DonatedAt,
		BloodType:         unit.BloodType,
		Expiry:            unit.Expiry,
		Location:          unit.Location,
		Donator:           unit.Donator,
		AllocatedAt:       s.clock.Now(),
	}

	allocID, err := s.emergency.Insert(ctx, alloc)
	if err != nil {
		// Fail closed: nothing was deleted, the unit stays in inventory.
		s.logger.Printf("allocate: emergency insert failed for unit %d: %v", unit.ID, err)
		return domain.Allocation{}, domain.ErrAllocationFailed
	}
	alloc.ID = allocID

	if _, err := s.inventory.DeleteByID(ctx, unit.ID); err != nil {
		// The unit is durably represented in the Emergency Store; the
		// stale inventory row is dual presence, which the reconciler
		// resolves. Never roll back the insert here.
		s.logger.Printf("allocate: inventory delete failed for unit %d (allocation %s), leaving for reconciliation: %v",
			unit.ID, allocID, err)
	}

	return alloc, nil
}

// Inspect looks up an in-flight allocation. No lock, no mutation.
func (s *AllocationService) Inspect(ctx context.Context, allocationID string) (domain.Allocation, error) {
	alloc, err := s.emergency.FindByID(ctx, allocationID)
	if err != nil {
		return domain.Allocation{}, err
	}
	if alloc == nil {
		return domain.Allocation{}, domain.ErrAllocationNotFound
	}
	return *alloc, nil
}

// Complete consumes the allocation permanently: the document is
// deleted and the unit never returns to inventory. A second Complete
// on the same id observes ErrAllocationNotFound.
func (s *AllocationService) Complete(ctx context.Context, allocationID string) (domain.Allocation, error) {
	key := allocationKey(allocationID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	alloc, err := s.emergency.DeleteByID(ctx, allocationID)
	if err != nil {
		return domain.Allocation{}, err
	}
	if alloc == nil {
		return domain.Allocation{}, domain.ErrAllocationNotFound
	}
	return *alloc, nil
}

// Cancel returns the allocated unit to inventory under a fresh id and
// deletes the document. The origin id stays retired. The keyed lock on
// the allocation id keeps a racing Complete or second Cancel from
// resolving the same document twice.
func (s *AllocationService) Cancel(ctx context.Context, allocationID string) (domain.BloodUnit, error) {
	key := allocationKey(allocationID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	alloc, err := s.emergency.FindByID(ctx, allocationID)
	if err != nil {
		return domain.BloodUnit{}, err
	}
	if alloc == nil {
		return domain.BloodUnit{}, domain.ErrAllocationNotFound
	}

	unit, err := s.insertUnderFreshID(ctx, *alloc)
	if err != nil {
		// Fail closed: document intact, unit still represented in the
		// Emergency Store.
		s.logger.Printf("cancel: inventory insert failed for allocation %s: %v", allocationID, err)
		return domain.BloodUnit{}, domain.ErrCancelFailed
	}

	if _, err := s.emergency.DeleteByID(ctx, allocationID); err != nil {
		// Dual presence again; resolved by reconciliation. Deleting the
		// new inventory row instead would lose the unit if an upstream
		// retry already removed the document.
		s.logger.Printf("cancel: emergency delete failed for allocation %s (new unit %d), leaving for reconciliation: %v",
			allocationID, unit.ID, err)
	}

	return unit, nil
}

// allocationKey namespaces allocation-id locks away from the
// (location, blood type) keys used by Allocate.
func allocationKey(allocationID string) string {
	return "allocation|" + allocationID
}

const maxIDAttempts = 3

// insertUnderFreshID draws sequence ids until the insert lands. On a
// unique violation the existing row is inspected: identical business
// fields mean an earlier ambiguous attempt already landed (success);
// anything else is a collision with a legacy row, so a new id is drawn
// rather than trusted blindly.
func (s *AllocationService) insertUnderFreshID(ctx context.Context, alloc domain.Allocation) (domain.BloodUnit, error) {
	var lastErr error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.inventory.NextID(ctx)
		if err != nil {
			return domain.BloodUnit{}, err
		}
		unit := alloc.Unit(id)
		err = s.inventory.Insert(ctx, unit)
		if err == nil {
			return unit, nil
		}
		if !errors.Is(err, domain.ErrDuplicateID) {
			return domain.BloodUnit{}, err
		}
		existing, ferr := s.inventory.FindByID(ctx, id)
		if ferr != nil {
			return domain.BloodUnit{}, ferr
		}
		if existing != nil && alloc.SameUnit(*existing) {
			return *existing, nil
		}
		lastErr = err
	}
	return domain.BloodUnit{}, lastErr
}
