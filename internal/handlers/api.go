package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	"bakeline/internal/i18n"
	applog "bakeline/internal/log"
	"bakeline/internal/production"
	"bakeline/internal/staff"
)

const maxBodySize = 1 << 20

// API holds the dependencies shared by the HTTP handlers.
type API struct {
	sessions   *scs.SessionManager
	db         *gorm.DB
	production *production.Service
	staff      *staff.Store
}

// NewAPI wires handlers to an owned database handle and session manager.
func NewAPI(sessions *scs.SessionManager, db *gorm.DB, svc *production.Service) *API {
	return &API{
		sessions:   sessions,
		db:         db,
		production: svc,
		staff:      staff.NewStore(db),
	}
}

type errorResponse struct {
	Error      string                `json:"error"`
	Shortfalls []apperrors.Shortfall `json:"shortfalls,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps the engine's error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidRecipe *apperrors.InvalidRecipeError
		invalidQty    *apperrors.InvalidQuantityError
		insufficient  *apperrors.InsufficientStockError
		transition    *apperrors.InvalidTransitionError
		conflict      *apperrors.ConflictError
		notFound      *apperrors.NotFoundError
	)

	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Shortfalls: insufficient.Lines})
	case errors.As(err, &invalidRecipe), errors.As(err, &invalidQty):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &transition), errors.As(err, &conflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.As(err, &notFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		applog.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &apperrors.InvalidQuantityError{Field: name, Value: raw, Reason: "must be a positive integer"}
	}
	return uint(id), nil
}

func queryDecimal(r *http.Request, name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &apperrors.InvalidQuantityError{Field: name, Value: raw, Reason: "must be a number"}
	}
	return value, nil
}

// queryTime reads an RFC 3339 timestamp or a YYYY-MM-DD date. A bare date
// read with endOfDay covers the whole day. Absent parameters yield the zero
// time.
func queryTime(r *http.Request, name string, endOfDay bool) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, &apperrors.InvalidQuantityError{Field: name, Value: raw, Reason: "must be a date"}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// queryRange reads from/to, defaulting to the span ending now.
func queryRange(r *http.Request, defaultSpan time.Duration) (time.Time, time.Time, error) {
	from, err := queryTime(r, "from", false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryTime(r, "to", true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultSpan)
	}
	return from, to, nil
}

func locale(r *http.Request) language.Tag {
	return i18n.Match(r.Header.Get("Accept-Language"))
}
