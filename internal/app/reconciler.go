package app

import (
	"context"
	"fmt"
	"log"

	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

// ReconcilerInventory is the slice of the Inventory Store the
// reconciliation scan needs.
type ReconcilerInventory interface {
	FindByID(ctx context.Context, id int64) (*domain.BloodUnit, error)
	FindMatching(ctx context.Context, alloc domain.Allocation) (*domain.BloodUnit, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
}

// ReconcilerEmergency is the slice of the Emergency Store the scan needs.
type ReconcilerEmergency interface {
	ListAll(ctx context.Context) ([]domain.Allocation, error)
	DeleteByID(ctx context.Context, id string) (*domain.Allocation, error)
}

// Reconciler repairs the dual-presence states a crash can leave behind
// mid-saga. It only ever deletes an Emergency Store document after
// verifying a field-identical inventory duplicate, and only ever
// deletes an inventory row that some document names as its origin.
type Reconciler struct {
	inventory ReconcilerInventory
	emergency ReconcilerEmergency
	logger    *log.Logger
}

func NewReconciler(inventory ReconcilerInventory, emergency ReconcilerEmergency, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{
		inventory: inventory,
		emergency: emergency,
		logger:    logger,
	}
}

// Report summarizes one reconciliation pass.
type Report struct {
	Scanned            int
	StaleInventoryRows int
	DeferredDocDeletes int
	Unresolved         int
}

// Run scans every in-flight allocation and resolves what it can.
//
// A live inventory row under a document's origin id is the footprint
// of an Allocate that crashed between its two steps: the document is
// authoritative, so the stale row is deleted. A live row under a
// different id with identical business fields is the footprint of a
// Cancel that crashed after its insert: the deferred document delete
// is completed. Anything else is logged and left alone.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	allocs, err := r.emergency.ListAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("reconcile: %w", err)
	}

	report := Report{Scanned: len(allocs)}
	for _, alloc := range allocs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		origin, err := r.inventory.FindByID(ctx, alloc.OriginInventoryID)
		if err != nil {
			report.Unresolved++
			r.logger.Printf("reconcile: origin lookup failed for allocation %s: %v", alloc.ID, err)
			continue
		}
		if origin != nil {
			if !alloc.SameUnit(*origin) {
				// Same id, different unit: the origin id was reused,
				// which the ledger forbids. Never auto-delete here.
				report.Unresolved++
				r.logger.Printf("reconcile: %v: allocation %s origin %d exists with different fields",
					domain.ErrInconsistentState, alloc.ID, alloc.OriginInventoryID)
				continue
			}
			deleted, err := r.inventory.DeleteByID(ctx, origin.ID)
			if err != nil || !deleted {
				report.Unresolved++
				r.logger.Printf("reconcile: stale origin delete failed for allocation %s (unit %d): %v",
					alloc.ID, origin.ID, err)
				continue
			}
			report.StaleInventoryRows++
			r.logger.Printf("reconcile: removed stale inventory unit %d still held by allocation %s",
				origin.ID, alloc.ID)
			continue
		}

		match, err := r.inventory.FindMatching(ctx, alloc)
		if err != nil {
			report.Unresolved++
			r.logger.Printf("reconcile: duplicate lookup failed for allocation %s: %v", alloc.ID, err)
			continue
		}
		if match == nil {
			// Normal in-flight allocation; exactly one representation.
			continue
		}

		if _, err := r.emergency.DeleteByID(ctx, alloc.ID); err != nil {
			report.Unresolved++
			r.logger.Printf("reconcile: deferred document delete failed for allocation %s: %v", alloc.ID, err)
			continue
		}
		report.DeferredDocDeletes++
		r.logger.Printf("reconcile: completed deferred delete of allocation %s (unit reinstated as %d)",
			alloc.ID, match.ID)
	}

	return report, nil
}
