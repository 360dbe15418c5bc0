package handlers

import (
	"errors"
	"net/http"

	applog "bakeline/internal/log"
	"bakeline/internal/staff"
	"bakeline/models"
)

const (
	sessionOperatorIDKey   = "operator:id"
	sessionOperatorNameKey = "operator:name"
)

type loginRequest struct {
	OperatorID uint   `json:"operator_id"`
	PIN        string `json:"pin"`
}

// Login signs an operator in with their PIN.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OperatorID == 0 || req.PIN == "" {
		writeJSONError(w, http.StatusBadRequest, "operator_id and pin are required")
		return
	}

	operator, err := a.staff.Authenticate(r.Context(), req.OperatorID, req.PIN)
	if err != nil {
		if errors.Is(err, staff.ErrInvalidCredentials) {
			applog.Debug(r.Context(), "operator sign-in rejected", "operator_id", req.OperatorID)
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, r, err)
		return
	}

	if err := a.establishSession(r, operator); err != nil {
		applog.Error(r.Context(), "failed to establish session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	applog.Info(r.Context(), "operator signed in", "operator_id", operator.ID)
	writeJSON(w, http.StatusOK, operator)
}

func (a *API) establishSession(r *http.Request, operator models.Operator) error {
	if err := a.sessions.RenewToken(r.Context()); err != nil {
		return err
	}
	a.sessions.Put(r.Context(), sessionOperatorIDKey, int(operator.ID))
	a.sessions.Put(r.Context(), sessionOperatorNameKey, operator.Name)
	return nil
}

// Logout destroys the current session.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context()); err != nil {
		applog.Error(r.Context(), "failed to destroy session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in operator.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	id := a.operatorID(r)
	if id == 0 {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	operator, err := a.staff.GetOperator(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, operator)
}

// RequireOperator rejects requests without a signed-in operator.
func (a *API) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.operatorID(r) == 0 {
			writeJSONError(w, http.StatusUnauthorized, "operator sign-in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) operatorID(r *http.Request) uint {
	if a.sessions == nil {
		return 0
	}
	id := a.sessions.GetInt(r.Context(), sessionOperatorIDKey)
	if id <= 0 {
		return 0
	}
	return uint(id)
}
