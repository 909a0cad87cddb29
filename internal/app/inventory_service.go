package app

import (
	"context"
	"time"

	"github.com/nhussaini/BlookBankManagementAPI/internal/clock"
	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

// InventoryBrowser covers the lookup and editing primitives of the
// Inventory Store used by the non-emergency endpoints.
type InventoryBrowser interface {
	InventoryStore
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListByHospital(ctx context.Context, hospital string) ([]domain.BloodUnit, error)
	ListByBloodType(ctx context.Context, bloodType domain.BloodType) ([]domain.BloodUnit, error)
	ListDonatedSince(ctx context.Context, since time.Time) ([]domain.BloodUnit, error)
	CountByBloodType(ctx context.Context) (map[domain.BloodType]int, error)
	UpdateField(ctx context.Context, id int64, field string, value any) (*domain.BloodUnit, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]domain.BloodUnit, error)
}

// InventoryService exposes the ordinary browsing and editing surface
// of the blood bank.
type InventoryService struct {
	repo  InventoryBrowser
	clock clock.Clock
}

// Donated units are retained for 22 years from donation.
const donationShelfLifeYears = 22

func NewInventoryService(repo InventoryBrowser, clk clock.Clock) *InventoryService {
	return &InventoryService{
		repo:  repo,
		clock: clk,
	}
}

func (s *InventoryService) GetByID(ctx context.Context, id int64) (domain.BloodUnit, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.BloodUnit{}, err
	}
	if unit == nil {
		return domain.BloodUnit{}, domain.ErrUnitNotFound
	}
	return *unit, nil
}

func (s *InventoryService) ListByHospital(ctx context.Context, hospital string) ([]domain.BloodUnit, error) {
	if hospital == "" {
		return nil, domain.ErrHospitalRequired
	}
	units, err := s.repo.ListByHospital(ctx, hospital)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, domain.ErrUnitNotFound
	}
	return units, nil
}

func (s *InventoryService) ListByBloodType(ctx context.Context, rawType string) ([]domain.BloodUnit, error) {
	bloodType, err := domain.ParseBloodType(rawType)
	if err != nil {
		return nil, err
	}
	units, err := s.repo.ListByBloodType(ctx, bloodType)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, domain.ErrUnitNotFound
	}
	return units, nil
}

func (s *InventoryService) ListDonatedSince(ctx context.Context, since time.Time) ([]domain.BloodUnit, error) {
	return s.repo.ListDonatedSince(ctx, since)
}

// Info aggregates total units and per-type counts. Every one of the
// eight types is present in the distribution, zero when empty.
type Info struct {
	TotalBlood   int
	BloodPerType map[domain.BloodType]int
}

func (s *InventoryService) Info(ctx context.Context) (Info, error) {
	counts, err := s.repo.CountByBloodType(ctx)
	if err != nil {
		return Info{}, err
	}

	info := Info{BloodPerType: make(map[domain.BloodType]int, len(domain.BloodTypes))}
	for _, bt := range domain.BloodTypes {
		n := counts[bt]
		info.BloodPerType[bt] = n
		info.TotalBlood += n
	}
	return info, nil
}

type DonateInput struct {
	Hospital  string
	BloodType string
	Location  string
	Donator   string
}

// Donate records a new unit under a fresh sequence id. Donation time
// comes from the injected clock; expiry follows the retention rule.
func (s *InventoryService) Donate(ctx context.Context, in DonateInput) (domain.BloodUnit, error) {
	if in.Hospital == "" {
		return domain.BloodUnit{}, domain.ErrHospitalRequired
	}
	if in.Location == "" {
		return domain.BloodUnit{}, domain.ErrLocationRequired
	}
	if in.Donator == "" {
		return domain.BloodUnit{}, domain.ErrDonatorRequired
	}
	bloodType, err := domain.ParseBloodType(in.BloodType)
	if err != nil {
		return domain.BloodUnit{}, err
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return domain.BloodUnit{}, err
	}

	now := s.clock.Now()
	unit := domain.BloodUnit{
		ID:        id,
		Hospital:  in.Hospital,
		DonatedAt: now,
		BloodType: bloodType,
		Expiry:    now.AddDate(donationShelfLifeYears, 0, 0),
		Location:  in.Location,
		Donator:   in.Donator,
	}

	if err := s.repo.Insert(ctx, unit); err != nil {
		return domain.BloodUnit{}, err
	}
	return unit, nil
}

type UpdateFieldInput struct {
	ID    int64
	Field string
	Value any
}

func (s *InventoryService) UpdateField(ctx context.Context, in UpdateFieldInput) (domain.BloodUnit, error) {
	if in.ID <= 0 {
		return domain.BloodUnit{}, domain.ErrInvalidID
	}
	if in.Field == "blood_type" {
		raw, ok := in.Value.(string)
		if !ok {
			return domain.BloodUnit{}, domain.ErrInvalidBloodType
		}
		if _, err := domain.ParseBloodType(raw); err != nil {
			return domain.BloodUnit{}, err
		}
	}

	unit, err := s.repo.UpdateField(ctx, in.ID, in.Field, in.Value)
	if err != nil {
		return domain.BloodUnit{}, err
	}
	if unit == nil {
		return domain.BloodUnit{}, domain.ErrUnitNotFound
	}
	return *unit, nil
}

// Delete removes one record and returns it. The lookup and the delete
// run in one transaction so the returned record is the row removed.
func (s *InventoryService) Delete(ctx context.Context, id int64) (domain.BloodUnit, error) {
	if id <= 0 {
		return domain.BloodUnit{}, domain.ErrInvalidID
	}

	var result domain.BloodUnit
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		unit, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if unit == nil {
			return domain.ErrUnitNotFound
		}
		if _, err := s.repo.DeleteByID(txCtx, id); err != nil {
			return err
		}
		result = *unit
		return nil
	})
	if err != nil {
		return domain.BloodUnit{}, err
	}
	return result, nil
}

// CleanExpired removes every unit expired before the cutoff and
// returns the removed rows.
func (s *InventoryService) CleanExpired(ctx context.Context, cutoff time.Time) ([]domain.BloodUnit, error) {
	return s.repo.DeleteExpired(ctx, cutoff)
}
