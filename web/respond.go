package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/auth"
)

const maxRequestBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// statusFor maps an error to its HTTP status by kind.
func statusFor(err error) int {
	var unauthenticatedErr *auth.UnauthenticatedError

	switch {
	case errors.As(err, &unauthenticatedErr):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)

		message := "internal error occurred"
		if errors.Is(err, apperror.ErrTransactionFailure) {
			message = err.Error()
		}

		writeJSON(r.Context(), w, status, errorResponse{Error: message})

		return
	}

	writeJSON(r.Context(), w, status, errorResponse{Error: err.Error()})
}

type InvalidBodyError struct {
	Cause error
}

func (err InvalidBodyError) Error() string {
	return fmt.Sprintf("invalid request body: %v", err.Cause)
}

func (err InvalidBodyError) Is(target error) bool { return target == apperror.ErrValidation }

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		writeError(w, r, &InvalidBodyError{Cause: err})

		return false
	}

	return true
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperror.ValidationError{Field: key, Reason: "must be an integer"}
	}

	return n, nil
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return 0, 0, err
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}

	return page, limit, nil
}
