package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nhussaini/BlookBankManagementAPI/internal/app"
	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

// Inventory is the slice of the inventory service used by the
// browsing and editing endpoints.
type Inventory interface {
	GetByID(ctx context.Context, id int64) (domain.BloodUnit, error)
	ListByHospital(ctx context.Context, hospital string) ([]domain.BloodUnit, error)
	ListByBloodType(ctx context.Context, rawType string) ([]domain.BloodUnit, error)
	ListDonatedSince(ctx context.Context, since time.Time) ([]domain.BloodUnit, error)
	Info(ctx context.Context) (app.Info, error)
	Donate(ctx context.Context, in app.DonateInput) (domain.BloodUnit, error)
	UpdateField(ctx context.Context, in app.UpdateFieldInput) (domain.BloodUnit, error)
	Delete(ctx context.Context, id int64) (domain.BloodUnit, error)
	CleanExpired(ctx context.Context, cutoff time.Time) ([]domain.BloodUnit, error)
}

// HandleWelcome serves the root greeting.
func HandleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Welcome to the Blood Bank Management API"))
}

// HandleGetBlood routes GET /get-blood/{id|hospital|time|type}/{value}.
func HandleGetBlood(svc Inventory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 3)
		if len(parts) != 3 || parts[0] != "get-blood" || parts[2] == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		value := parts[2]

		switch parts[1] {
		case "id":
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
				return
			}
			unit, err := svc.GetByID(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toBloodResponse(unit))

		case "hospital":
			units, err := svc.ListByHospital(r.Context(), value)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toBloodResponses(units))

		case "time":
			since, err := time.Parse(time.RFC3339, value)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid timestamp")
				return
			}
			units, err := svc.ListDonatedSince(r.Context(), since)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toBloodResponses(units))

		case "type":
			units, err := svc.ListByBloodType(r.Context(), value)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toBloodResponses(units))

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// HandleInfo returns the aggregate distribution for GET /info.
func HandleInfo(svc Inventory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		info, err := svc.Info(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		perType := make(map[string]int, len(info.BloodPerType))
		for bt, n := range info.BloodPerType {
			perType[string(bt)] = n
		}
		writeJSON(w, http.StatusOK, infoResponse{
			TotalBlood:   info.TotalBlood,
			BloodPerType: perType,
		})
	}
}

// HandleDonate registers a new donation for POST /donate.
func HandleDonate(svc Inventory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req donateRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		unit, err := svc.Donate(r.Context(), app.DonateInput{
			Hospital:  req.Hospital,
			BloodType: req.BloodType,
			Location:  req.Location,
			Donator:   req.Donator,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBloodResponse(unit))
	}
}

// HandleUpdateBlood updates one field for POST /update-blood.
func HandleUpdateBlood(svc Inventory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		id, ok := numericID(req["id"])
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
			return
		}

		var field string
		var value any
		for k, v := range req {
			if k == "id" {
				continue
			}
			if field != "" {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "exactly one field to update expected")
				return
			}
			field, value = k, v
		}
		if field == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "no field to update")
			return
		}

		unit, err := svc.UpdateField(r.Context(), app.UpdateFieldInput{ID: id, Field: field, Value: value})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBloodResponse(unit))
	}
}

// HandleDeleteBlood removes one record for POST /delete-blood.
func HandleDeleteBlood(svc Inventory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		unit, err := svc.Delete(r.Context(), req.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{
			Message: "Blood record deleted successfully.",
			Record:  toBloodResponse(unit),
		})
	}
}

// HandleCleanBlood removes expired records for POST /clean-blood.
func HandleCleanBlood(svc Inventory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req cleanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		units, err := svc.CleanExpired(r.Context(), req.Expiry)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cleanResponse{
			Message: "Expired record(s) deleted successfully.",
			Records: toBloodResponses(units),
		})
	}
}

func numericID(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) || v <= 0 {
			return 0, false
		}
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type donateRequest struct {
	Hospital  string `json:"hospital"`
	BloodType string `json:"type"`
	Location  string `json:"location"`
	Donator   string `json:"donator"`
}

type deleteRequest struct {
	ID int64 `json:"id"`
}

type cleanRequest struct {
	Expiry time.Time `json:"expiry"`
}

type deleteResponse struct {
	Message string        `json:"message"`
	Record  bloodResponse `json:"record"`
}

type cleanResponse struct {
	Message string          `json:"message"`
	Records []bloodResponse `json:"record"`
}

type infoResponse struct {
	TotalBlood   int            `json:"total_blood"`
	BloodPerType map[string]int `json:"blood_per_type"`
}

type bloodResponse struct {
	ID        int64     `json:"id"`
	Hospital  string    `json:"hospital"`
	DonatedAt time.Time `json:"date"`
	BloodType string    `json:"blood_type"`
	Expiry    time.Time `json:"expiry"`
	Location  string    `json:"location"`
	Donator   string    `json:"donator"`
}

func toBloodResponse(unit domain.BloodUnit) bloodResponse {
	return bloodResponse{
		ID:        unit.ID,
		Hospital:  unit.Hospital,
		DonatedAt: unit.DonatedAt,
		BloodType: string(unit.BloodType),
		Expiry:    unit.Expiry,
		Location:  unit.Location,
		Donator:   unit.Donator,
	}
}

func toBloodResponses(units []domain.BloodUnit) []bloodResponse {
	out := make([]bloodResponse, 0, len(units))
	for _, unit := range units {
		out = append(out, toBloodResponse(unit))
	}
	return out
}
