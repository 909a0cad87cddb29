package app

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/nhussaini/BlookBankManagementAPI/internal/clock"
	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

func TestInventoryService_Lookups(t *testing.T) {
	t.Parallel()

	units := []domain.BloodUnit{
		{ID: 1, Hospital: "General", DonatedAt: date(2024, 1, 1), BloodType: domain.BloodTypeOPositive, Expiry: date(2046, 1, 1), Location: "X", Donator: "A"},
		{ID: 2, Hospital: "General", DonatedAt: date(2024, 5, 1), BloodType: domain.BloodTypeABNegative, Expiry: date(2046, 5, 1), Location: "X", Donator: "B"},
		{ID: 3, Hospital: "Lancre", DonatedAt: date(2023, 5, 1), BloodType: domain.BloodTypeOPositive, Expiry: date(2045, 5, 1), Location: "Y", Donator: "C"},
	}
	svc := NewInventoryService(newFakeInventory(units), clock.NewSystem())
	ctx := context.Background()

	t.Run("get by id", func(t *testing.T) {
		unit, err := svc.GetByID(ctx, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if unit.Donator != "B" {
			t.Fatalf("expected donator B, got %s", unit.Donator)
		}
		if _, err := svc.GetByID(ctx, 999); err != domain.ErrUnitNotFound {
			t.Fatalf("expected ErrUnitNotFound, got %v", err)
		}
	})

	t.Run("list by hospital", func(t *testing.T) {
		got, err := svc.ListByHospital(ctx, "General")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 units, got %d", len(got))
		}
		if _, err := svc.ListByHospital(ctx, "Nowhere"); err != domain.ErrUnitNotFound {
			t.Fatalf("expected ErrUnitNotFound, got %v", err)
		}
		if _, err := svc.ListByHospital(ctx, ""); err != domain.ErrHospitalRequired {
			t.Fatalf("expected ErrHospitalRequired, got %v", err)
		}
	})

	t.Run("list by blood type", func(t *testing.T) {
		got, err := svc.ListByBloodType(ctx, "O Positive")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 units, got %d", len(got))
		}
		if _, err := svc.ListByBloodType(ctx, "bogus"); err != domain.ErrInvalidBloodType {
			t.Fatalf("expected ErrInvalidBloodType, got %v", err)
		}
	})

	t.Run("list donated since", func(t *testing.T) {
		got, err := svc.ListDonatedSince(ctx, date(2024, 1, 1))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 units donated since 2024, got %d", len(got))
		}
	})

	t.Run("info covers all eight types", func(t *testing.T) {
		info, err := svc.Info(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.TotalBlood != 3 {
			t.Fatalf("expected total 3, got %d", info.TotalBlood)
		}
		if len(info.BloodPerType) != 8 {
			t.Fatalf("expected all 8 types present, got %d", len(info.BloodPerType))
		}
		if info.BloodPerType[domain.BloodTypeOPositive] != 2 {
			t.Fatalf("expected 2 O Positive, got %d", info.BloodPerType[domain.BloodTypeOPositive])
		}
		if info.BloodPerType[domain.BloodTypeBNegative] != 0 {
			t.Fatalf("expected 0 B Negative, got %d", info.BloodPerType[domain.BloodTypeBNegative])
		}
	})
}

func TestInventoryService_Donate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	inv := newFakeInventory(nil)
	svc := NewInventoryService(inv, clock.NewFixed(now))

	unit, err := svc.Donate(context.Background(), DonateInput{
		Hospital:  "General",
		BloodType: "A Negative",
		Location:  "X",
		Donator:   "Sam Vimes",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if unit.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if !unit.DonatedAt.Equal(now) {
		t.Fatalf("expected donation date %v, got %v", now, unit.DonatedAt)
	}
	if !unit.Expiry.Equal(now.AddDate(22, 0, 0)) {
		t.Fatalf("expected expiry 22 years out, got %v", unit.Expiry)
	}
	if !inv.has(unit.ID) {
		t.Fatalf("expected unit stored")
	}

	if _, err := svc.Donate(context.Background(), DonateInput{BloodType: "A Negative", Location: "X", Donator: "D"}); err != domain.ErrHospitalRequired {
		t.Fatalf("expected ErrHospitalRequired, got %v", err)
	}
	if _, err := svc.Donate(context.Background(), DonateInput{Hospital: "H", BloodType: "nope", Location: "X", Donator: "D"}); err != domain.ErrInvalidBloodType {
		t.Fatalf("expected ErrInvalidBloodType, got %v", err)
	}
}

func TestInventoryService_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	units := []domain.BloodUnit{
		{ID: 1, Hospital: "General", DonatedAt: date(2024, 1, 1), BloodType: domain.BloodTypeOPositive, Expiry: date(2046, 1, 1), Location: "X", Donator: "A"},
	}
	inv := newFakeInventory(units)
	svc := NewInventoryService(inv, clock.NewSystem())
	ctx := context.Background()

	t.Run("update whitelisted field", func(t *testing.T) {
		unit, err := svc.UpdateField(ctx, UpdateFieldInput{ID: 1, Field: "hospital", Value: "Lancre"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if unit.Hospital != "Lancre" {
			t.Fatalf("expected hospital updated, got %s", unit.Hospital)
		}
	})

	t.Run("update rejects unknown field", func(t *testing.T) {
		_, err := svc.UpdateField(ctx, UpdateFieldInput{ID: 1, Field: "id", Value: 9})
		if err != domain.ErrFieldNotUpdatable {
			t.Fatalf("expected ErrFieldNotUpdatable, got %v", err)
		}
	})

	t.Run("update validates blood type", func(t *testing.T) {
		_, err := svc.UpdateField(ctx, UpdateFieldInput{ID: 1, Field: "blood_type", Value: "bogus"})
		if err != domain.ErrInvalidBloodType {
			t.Fatalf("expected ErrInvalidBloodType, got %v", err)
		}
	})

	t.Run("update missing id", func(t *testing.T) {
		_, err := svc.UpdateField(ctx, UpdateFieldInput{ID: 999, Field: "hospital", Value: "Quirm"})
		if err != domain.ErrUnitNotFound {
			t.Fatalf("expected ErrUnitNotFound, got %v", err)
		}
	})

	t.Run("delete returns the removed record", func(t *testing.T) {
		unit, err := svc.Delete(ctx, 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if unit.ID != 1 {
			t.Fatalf("expected unit 1, got %d", unit.ID)
		}
		if inv.has(1) {
			t.Fatalf("expected unit removed")
		}
		if inv.txCalls != 1 {
			t.Fatalf("expected find and delete in one transaction, got %d", inv.txCalls)
		}
		if _, err := svc.Delete(ctx, 1); err != domain.ErrUnitNotFound {
			t.Fatalf("expected ErrUnitNotFound on second delete, got %v", err)
		}
	})
}

func TestInventoryService_CleanExpired(t *testing.T) {
	t.Parallel()

	units := []domain.BloodUnit{
		{ID: 1, Hospital: "General", DonatedAt: date(2000, 1, 1), BloodType: domain.BloodTypeOPositive, Expiry: date(2022, 1, 1), Location: "X", Donator: "A"},
		{ID: 2, Hospital: "General", DonatedAt: date(2001, 1, 1), BloodType: domain.BloodTypeOPositive, Expiry: date(2023, 1, 1), Location: "X", Donator: "B"},
		{ID: 3, Hospital: "General", DonatedAt: date(2024, 1, 1), BloodType: domain.BloodTypeOPositive, Expiry: date(2046, 1, 1), Location: "X", Donator: "C"},
	}
	inv := newFakeInventory(units)
	svc := NewInventoryService(inv, clock.NewSystem())

	removed, err := svc.CleanExpired(context.Background(), date(2024, 1, 1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	if len(removed) != 2 || removed[0].ID != 1 || removed[1].ID != 2 {
		t.Fatalf("expected units 1 and 2 removed, got %+v", removed)
	}
	if !inv.has(3) {
		t.Fatalf("expected unexpired unit kept")
	}
}

// Browser methods for the shared fake inventory.

func (f *fakeInventory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.txCalls++
	f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeInventory) ListByHospital(_ context.Context, hospital string) ([]domain.BloodUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BloodUnit
	for _, u := range f.units {
		if u.Hospital == hospital {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeInventory) ListByBloodType(_ context.Context, bloodType domain.BloodType) ([]domain.BloodUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BloodUnit
	for _, u := range f.units {
		if u.BloodType == bloodType {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeInventory) ListDonatedSince(_ context.Context, since time.Time) ([]domain.BloodUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BloodUnit
	for _, u := range f.units {
		if !u.DonatedAt.Before(since) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeInventory) CountByBloodType(_ context.Context) (map[domain.BloodType]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.BloodType]int)
	for _, u := range f.units {
		counts[u.BloodType]++
	}
	return counts, nil
}

func (f *fakeInventory) UpdateField(_ context.Context, id int64, field string, value any) (*domain.BloodUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.units[id]
	if !ok {
		return nil, nil
	}
	switch field {
	case "hospital":
		u.Hospital = value.(string)
	case "location":
		u.Location = value.(string)
	case "donator":
		u.Donator = value.(string)
	case "blood_type":
		u.BloodType = domain.BloodType(value.(string))
	case "date":
		u.DonatedAt = value.(time.Time)
	case "expiry":
		u.Expiry = value.(time.Time)
	default:
		return nil, domain.ErrFieldNotUpdatable
	}
	f.units[id] = u
	return &u, nil
}

func (f *fakeInventory) DeleteExpired(_ context.Context, cutoff time.Time) ([]domain.BloodUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed []domain.BloodUnit
	for id, u := range f.units {
		if u.Expiry.Before(cutoff) {
			removed = append(removed, u)
			delete(f.units, id)
		}
	}
	return removed, nil
}
