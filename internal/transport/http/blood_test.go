package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nhussaini/BlookBankManagementAPI/internal/app"
	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

func TestHandleGetBlood(t *testing.T) {
	t.Parallel()

	unit := domain.BloodUnit{
		ID:        1,
		Hospital:  "General",
		DonatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		BloodType: domain.BloodTypeOPositive,
		Expiry:    time.Date(2046, 1, 1, 0, 0, 0, 0, time.UTC),
		Location:  "X",
		Donator:   "A",
	}

	tests := []struct {
		name           string
		path           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "by id",
			path:           "/get-blood/id/1",
			expectedStatus: http.StatusOK,
			expectedSubstr: `"hospital":"General"`,
		},
		{
			name:           "by id not found",
			path:           "/get-blood/id/999",
			serviceErr:     domain.ErrUnitNotFound,
			expectedStatus: http.StatusNotFound,
			expectedSubstr: `"code":"blood_unit_not_found"`,
		},
		{
			name:           "by id malformed",
			path:           "/get-blood/id/abc",
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_id"`,
		},
		{
			name:           "by hospital",
			path:           "/get-blood/hospital/General",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "by type",
			path:           "/get-blood/type/O%20Positive",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "by type invalid",
			path:           "/get-blood/type/bogus",
			serviceErr:     domain.ErrInvalidBloodType,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "by time",
			path:           "/get-blood/time/2024-01-01T00:00:00Z",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "by time malformed",
			path:           "/get-blood/time/yesterday",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown selector",
			path:           "/get-blood/color/red",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubInventory{unit: unit, units: []domain.BloodUnit{unit}, err: tt.serviceErr}
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			HandleGetBlood(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandleInfo(t *testing.T) {
	t.Parallel()

	svc := &stubInventory{info: app.Info{
		TotalBlood: 3,
		BloodPerType: map[domain.BloodType]int{
			domain.BloodTypeOPositive: 2,
			domain.BloodTypeABNegative: 1,
		},
	}}
	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rec := httptest.NewRecorder()

	HandleInfo(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"total_blood":3`) {
		t.Fatalf("expected total in response, got %q", body)
	}
	if !strings.Contains(body, `"O Positive":2`) {
		t.Fatalf("expected per-type counts, got %q", body)
	}
}

func TestHandleDonate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "success",
			body:           `{"hospital":"General","type":"A Negative","location":"X","donator":"Sam"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid json",
			body:           `{"hospital":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing hospital",
			body:           `{"hospital":"","type":"A Negative","location":"X","donator":"Sam"}`,
			serviceErr:     domain.ErrHospitalRequired,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad blood type",
			body:           `{"hospital":"General","type":"nope","location":"X","donator":"Sam"}`,
			serviceErr:     domain.ErrInvalidBloodType,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubInventory{unit: domain.BloodUnit{ID: 1001}, err: tt.serviceErr}
			req := httptest.NewRequest(http.MethodPost, "/donate", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleDonate(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

func TestHandleUpdateBlood(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "success",
			body:           `{"id":1,"hospital":"Lancre"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing id",
			body:           `{"hospital":"Lancre"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "no field",
			body:           `{"id":1}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "two fields",
			body:           `{"id":1,"hospital":"Lancre","location":"Y"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown record",
			body:           `{"id":999,"hospital":"Lancre"}`,
			serviceErr:     domain.ErrUnitNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "field not updatable",
			body:           `{"id":1,"rowid":"9"}`,
			serviceErr:     domain.ErrFieldNotUpdatable,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubInventory{unit: domain.BloodUnit{ID: 1}, err: tt.serviceErr}
			req := httptest.NewRequest(http.MethodPost, "/update-blood", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleUpdateBlood(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

func TestHandleDeleteBlood(t *testing.T) {
	t.Parallel()

	svc := &stubInventory{unit: domain.BloodUnit{ID: 1}}
	req := httptest.NewRequest(http.MethodPost, "/delete-blood", bytes.NewBufferString(`{"id":1}`))
	rec := httptest.NewRecorder()

	HandleDeleteBlood(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "deleted successfully") {
		t.Fatalf("expected confirmation message, got %q", rec.Body.String())
	}
}

func TestHandleCleanBlood(t *testing.T) {
	t.Parallel()

	svc := &stubInventory{units: []domain.BloodUnit{{ID: 1}, {ID: 2}}}
	req := httptest.NewRequest(http.MethodPost, "/clean-blood", bytes.NewBufferString(`{"expiry":"2024-01-01T00:00:00Z"}`))
	rec := httptest.NewRecorder()

	HandleCleanBlood(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":2`) {
		t.Fatalf("expected deleted records in response, got %q", rec.Body.String())
	}
}

type stubInventory struct {
	unit  domain.BloodUnit
	units []domain.BloodUnit
	info  app.Info
	err   error
}

func (s *stubInventory) GetByID(_ context.Context, _ int64) (domain.BloodUnit, error) {
	return s.unit, s.err
}

func (s *stubInventory) ListByHospital(_ context.Context, _ string) ([]domain.BloodUnit, error) {
	return s.units, s.err
}

func (s *stubInventory) ListByBloodType(_ context.Context, _ string) ([]domain.BloodUnit, error) {
	return s.units, s.err
}

func (s *stubInventory) ListDonatedSince(_ context.Context, _ time.Time) ([]domain.BloodUnit, error) {
	return s.units, s.err
}

func (s *stubInventory) Info(_ context.Context) (app.Info, error) {
	return s.info, s.err
}

func (s *stubInventory) Donate(_ context.Context, _ app.DonateInput) (domain.BloodUnit, error) {
	return s.unit, s.err
}

func (s *stubInventory) UpdateField(_ context.Context, _ app.UpdateFieldInput) (domain.BloodUnit, error) {
	return s.unit, s.err
}

func (s *stubInventory) Delete(_ context.Context, _ int64) (domain.BloodUnit, error) {
	return s.unit, s.err
}

func (s *stubInventory) CleanExpired(_ context.Context, _ time.Time) ([]domain.BloodUnit, error) {
	return s.units, s.err
}
