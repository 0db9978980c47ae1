package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type ErrorResponse struct {
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// errorStatus maps the use case error taxonomy onto HTTP.
func errorStatus(err error) (int, ErrorResponse) {
	var (
		inputErr  *usecase.InputError
		formatErr *usecase.FormatError
		domainErr *usecase.DomainError
		storeErr  *usecase.StoreError
	)

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, ErrorResponse{
			Error:   usecase.CodeValidation,
			Message: inputErr.Error(),
			Fields:  inputErr.Errors,
		}
	case errors.As(err, &formatErr):
		return http.StatusBadRequest, ErrorResponse{Error: "INVALID_FORMAT", Message: formatErr.Message}
	case errors.As(err, &domainErr):
		status := http.StatusBadRequest
		switch domainErr.Code {
		case usecase.CodeNotFound, usecase.CodeSessionNotFound:
			status = http.StatusNotFound
		case usecase.CodeInvalidTransition:
			status = http.StatusConflict
		}
		return status, ErrorResponse{Error: domainErr.Code, Message: domainErr.Message}
	case errors.As(err, &storeErr):
		return http.StatusBadGateway, ErrorResponse{Error: "STORE_ERROR", Message: "record store unavailable, please retry"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL_ERROR", Message: "internal error"}
	}
}

// writeUseCaseError logs server-side failures and writes the mapped response.
func writeUseCaseError(w http.ResponseWriter, log *zap.Logger, err error) {
	status, body := errorStatus(err)

	var se *usecase.StoreError
	if errors.As(err, &se) {
		middleware.RecordStoreError(se.Op)
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, body)
}

// ownerOr401 returns the authenticated owner or writes 401.
func ownerOr401(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := middleware.OwnerID(r.Context())
	if owner == "" {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing owner")
		return "", false
	}
	return owner, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return false
	}
	return true
}
