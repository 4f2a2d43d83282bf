package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/middleware"
	"github.com/sandeepkv93/campus-portal-backend/internal/http/response"
	"github.com/sandeepkv93/campus-portal-backend/internal/repository"
	"github.com/sandeepkv93/campus-portal-backend/internal/service"
)

var errMissingAuthContext = errors.New("missing auth context")

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		if middleware.IsBodyTooLarge(err) {
			return errors.New("request body too large")
		}
		return errors.New("invalid payload")
	}
	return nil
}

func actorFromRequest(r *http.Request) (service.Actor, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return service.Actor{}, errMissingAuthContext
	}
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil || id == 0 {
		return service.Actor{}, errMissingAuthContext
	}
	// An unknown role yields an actor with no privileges.
	role, _ := domain.ParseRole(claims.Role)
	return service.Actor{UserID: uint(id), Role: role}, nil
}

func parsePathID(input string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(n), nil
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func paginatedData[T any](items []T, page, pageSize int, total int64, totalPages int) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
		},
	}
}

// writeServiceError maps service sentinels onto the envelope. Unknown errors
// become a 500 carrying only the fallback message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var rejected *service.OTPRejectedError
	switch {
	case errors.As(err, &rejected):
		details := map[string]any{"reason": rejected.Verification.Reason}
		if rejected.Verification.RemainingAttempts > 0 {
			details["remaining_attempts"] = rejected.Verification.RemainingAttempts
		}
		response.Error(w, r, http.StatusBadRequest, "INVALID_OTP", rejected.Error(), details)
	case errors.Is(err, service.ErrWeakPassword):
		response.Error(w, r, http.StatusBadRequest, "WEAK_PASSWORD", err.Error(), map[string]any{
			"min_length": 12, "requires": []string{"uppercase", "lowercase", "digit", "special"},
		})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrSamePassword), errors.Is(err, domain.ErrInvalidRole):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
	case errors.Is(err, service.ErrAccountSuspended):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_SUSPENDED", "account suspended", nil)
	case errors.Is(err, service.ErrProtectedRole):
		response.Error(w, r, http.StatusForbidden, "PROTECTED_ROLE", err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	case errors.Is(err, service.ErrUploadNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "upload not found", nil)
	case errors.Is(err, service.ErrUnknownEmail):
		response.Error(w, r, http.StatusNotFound, "UNKNOWN_EMAIL", err.Error(), nil)
	case errors.Is(err, service.ErrGoogleAuthDisabled):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyRegistered):
		response.Error(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, service.ErrUploadNotPending):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "upload already moderated", nil)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error(), nil)
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Error(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error(), nil)
	case errors.Is(err, repository.ErrOTPStoreUnavailable), errors.Is(err, repository.ErrOTPStoreContention):
		response.Error(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", "try again shortly", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", fallback, nil)
	}
}

// errorStatus labels an error for metrics without exposing its text.
func errorStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidOTP):
		return "rejected"
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountSuspended), errors.Is(err, service.ErrForbidden):
		return "denied"
	default:
		return "failure"
	}
}
