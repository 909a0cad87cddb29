package domain

import "time"

// Allocation is a blood unit diverted into emergency use, held in the
// document store until it is consumed or returned to inventory.
type Allocation struct {
	// ID is assigned by the Emergency Store on insert (ObjectID hex).
	ID string
	// OriginInventoryID is the inventory id the unit was taken from.
	// Required for crash reconciliation; never reused for a new row.
	OriginInventoryID int64
	Hospital          string
	DonatedAt         time.Time
	BloodType         BloodType
	Expiry            time.Time
	Location          string
	Donator           string
	AllocatedAt       time.Time
}

// Unit reconstructs the business fields as an inventory unit under the
// given id. The origin id is deliberately not reused.
func (a Allocation) Unit(id int64) BloodUnit {
	return BloodUnit{
		ID:        id,
		Hospital:  a.Hospital,
		DonatedAt: a.DonatedAt,
		BloodType: a.BloodType,
		Expiry:    a.Expiry,
		Location:  a.Location,
		Donator:   a.Donator,
	}
}

// SameUnit reports whether the unit's business fields match the
// allocation's, ignoring ids. Used by reconciliation to verify a
// duplicate before resolving it.
func (a Allocation) SameUnit(u BloodUnit) bool {
	return a.Hospital == u.Hospital &&
		a.BloodType == u.BloodType &&
		a.Location == u.Location &&
		a.Donator == u.Donator &&
		a.DonatedAt.Equal(u.DonatedAt) &&
		a.Expiry.Equal(u.Expiry)
}
