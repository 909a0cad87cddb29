package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nhussaini/BlookBankManagementAPI/internal/app"
	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

// Allocator is the slice of the allocation workflow used by the
// emergency endpoints.
type Allocator interface {
	Allocate(ctx context.Context, in app.AllocateInput) (domain.Allocation, error)
	Inspect(ctx context.Context, allocationID string) (domain.Allocation, error)
	Complete(ctx context.Context, allocationID string) (domain.Allocation, error)
	Cancel(ctx context.Context, allocationID string) (domain.BloodUnit, error)
}

// HandleAllocate returns the handler for POST /emergency.
func HandleAllocate(svc Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req allocateRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		alloc, err := svc.Allocate(r.Context(), app.AllocateInput{
			Location:  req.Location,
			BloodType: req.BloodType,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toAllocationResponse(alloc))
	}
}

// HandleAllocationByID routes GET /emergency/{id} plus
// POST /emergency/{id}/complete and POST /emergency/{id}/cancel.
func HandleAllocationByID(svc Allocator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseAllocationPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			alloc, err := svc.Inspect(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toAllocationResponse(alloc))

		case "complete":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			alloc, err := svc.Complete(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toAllocationResponse(alloc))

		case "cancel":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			unit, err := svc.Cancel(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toBloodResponse(unit))

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func parseAllocationPath(path string) (id, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "emergency" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		return parts[1], "", true
	}
	if parts[2] != "complete" && parts[2] != "cancel" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type allocateRequest struct {
	Location  string `json:"location"`
	BloodType string `json:"type"`
}

type allocationResponse struct {
	ID                string    `json:"id"`
	OriginInventoryID int64     `json:"origin_inventory_id"`
	Hospital          string    `json:"hospital"`
	DonatedAt         time.Time `json:"date"`
	BloodType         string    `json:"blood_type"`
	Expiry            time.Time `json:"expiry"`
	Location          string    `json:"location"`
	Donator           string    `json:"donator"`
	AllocatedAt       time.Time `json:"allocated_at"`
}

func toAllocationResponse(alloc domain.Allocation) allocationResponse {
	return allocationResponse{
		ID:                alloc.ID,
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
