package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nhussaini/BlookBankManagementAPI/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeLocationRequired    = "location_required"
	codeHospitalRequired    = "hospital_required"
	codeDonatorRequired     = "donator_required"
	codeInvalidBloodType    = "invalid_blood_type"
	codeInvalidID           = "invalid_id"
	codeInvalidAllocationID = "invalid_allocation_id"
	codeUnitNotFound        = "blood_unit_not_found"
	codeAllocationNotFound  = "allocation_not_found"
	codeAllocationFailed    = "allocation_failed"
	codeCancelFailed        = "cancel_failed"
	codeFieldNotUpdatable   = "field_not_updatable"
	codeDuplicateID         = "duplicate_id"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps domain sentinels onto stable statuses. Each
// error kind keeps a distinct code so callers can branch without
// parsing messages.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrLocationRequired):
		writeError(w, http.StatusBadRequest, codeLocationRequired, err.Error())
	case errors.Is(err, domain.ErrHospitalRequired):
		writeError(w, http.StatusBadRequest, codeHospitalRequired, err.Error())
	case errors.Is(err, domain.ErrDonatorRequired):
		writeError(w, http.StatusBadRequest, codeDonatorRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidBloodType):
		writeError(w, http.StatusBadRequest, codeInvalidBloodType, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrInvalidAllocationID):
		writeError(w, http.StatusBadRequest, codeInvalidAllocationID, err.Error())
	case errors.Is(err, domain.ErrFieldNotUpdatable):
		writeError(w, http.StatusBadRequest, codeFieldNotUpdatable, err.Error())
	case errors.Is(err, domain.ErrUnitNotFound):
		writeError(w, http.StatusNotFound, codeUnitNotFound, err.Error())
	case errors.Is(err, domain.ErrAllocationNotFound):
		writeError(w, http.StatusNotFound, codeAllocationNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateID):
		writeError(w, http.StatusConflict, codeDuplicateID, err.Error())
	case errors.Is(err, domain.ErrAllocationFailed):
		writeError(w, http.StatusBadGateway, codeAllocationFailed, err.Error())
	case errors.Is(err, domain.ErrCancelFailed):
		writeError(w, http.StatusBadGateway, codeCancelFailed, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
