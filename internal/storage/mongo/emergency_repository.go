// Package mongo implements the Emergency Store: the document-side
// working area for blood units currently allocated to an emergency.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
	"github.com/nhussaini/BlookBankManagementAPI/internal/storage/retry"
)

const CollectionName = "emergency_allocations"

type allocationDoc struct {
	ID                primitive.ObjectID `bson:"_id"`
	OriginInventoryID int64              `bson:"origin_inventory_id"`
	Hospital          string             `bson:"hospital"`
	DonatedAt         time.Time          `bson:"date"`
	BloodType         string             `bson:"blood_type"`
	Expiry            time.Time          `bson:"expiry"`
	Location          string             `bson:"location"`
	Donator           string             `bson:"donator"`
	AllocatedAt       time.Time          `bson:"allocated_at"`
}

type EmergencyRepository struct {
	coll *mongo.Collection
}

func NewEmergencyRepository(db *mongo.Database) *EmergencyRepository {
	return &EmergencyRepository{coll: db.Collection(CollectionName)}
}

// Insert stores the allocation and returns its generated id. The
// ObjectID is drawn before the first attempt so that a retry after an
// ambiguous timeout reuses it; a duplicate-key result then means the
// earlier attempt already landed.
func (r *EmergencyRepository) Insert(ctx context.Context, alloc domain.Allocation) (string, error) {
	doc := toDoc(alloc)
	doc.ID = primitive.NewObjectID()

	err := retry.Do(ctx, func(ctx context.Context) error {
		_, err := r.coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert allocation: %w", err)
	}
	return doc.ID.Hex(), nil
}

// FindByID returns the allocation or nil when absent. An id that is
// not valid ObjectID hex maps to ErrInvalidAllocationID.
func (r *EmergencyRepository) FindByID(ctx context.Context, id string) (*domain.Allocation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidAllocationID
	}

	var doc allocationDoc
	err = retry.Do(ctx, func(ctx context.Context) error {
		err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find allocation: %w", err)
	}
	alloc := fromDoc(doc)
	return &alloc, nil
}

// DeleteByID removes the allocation and returns the deleted document,
// or nil when nothing matched.
func (r *EmergencyRepository) DeleteByID(ctx context.Context, id string) (*domain.Allocation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidAllocationID
	}

	var doc allocationDoc
	err = retry.Do(ctx, func(ctx context.Context) error {
		err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete allocation: %w", err)
	}
	alloc := fromDoc(doc)
	return &alloc, nil
}

// ListAll returns every in-flight allocation, for reconciliation.
func (r *EmergencyRepository) ListAll(ctx context.Context) ([]domain.Allocation, error) {
	var allocs []domain.Allocation
	err := retry.Do(ctx, func(ctx context.Context) error {
		cur, err := r.coll.Find(ctx, bson.M{})
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		allocs = allocs[:0]
		for cur.Next(ctx) {
			var doc allocationDoc
			if err := cur.Decode(&doc); err != nil {
				return err
			}
			allocs = append(allocs, fromDoc(doc))
		}
		return cur.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocs, nil
}

func toDoc(alloc domain.Allocation) allocationDoc {
	return allocationDoc{
		OriginInventoryID: alloc.OriginInventoryID,
		Hospital:          alloc.Hospital,
		DonatedAt:         alloc.DonatedAt,
		BloodType:         string(alloc.BloodType),
		Expiry:            alloc.Expiry,
		Location:          alloc.Location,
		Donator:           alloc.Donator,
		AllocatedAt:       alloc.AllocatedAt,
	}
}

func fromDoc(doc allocationDoc) domain.Allocation {
	return domain.Allocation{
		ID:                doc.ID.Hex(),
		OriginInventoryID: doc.OriginInventoryID,
		Hospital:          doc.Hospital,
		DonatedAt:         doc.DonatedAt,
		BloodType:         domain.BloodType(doc.BloodType),
		Expiry:            doc.Expiry,
		Location:          doc.Location,
		Donator:           doc.Donator,
		AllocatedAt:       doc.AllocatedAt,
	}
}
