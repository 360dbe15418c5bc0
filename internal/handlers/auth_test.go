package handlers

import (
	"net/http"
	"testing"

	"bakeline/models"
)

func TestLoginRejectsWrongPIN(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.handle("POST /login", env.api.Login)

	w := env.do(t, http.MethodPost, "/login", map[string]any{"operator_id": 1, "pin": "0000"})
	expectStatus(t, w, http.StatusUnauthorized)

	w = env.do(t, http.MethodPost, "/login", map[string]any{"operator_id": 1})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPost, "/login", `{"operator_id": 1, "pin": "1234", "role": "admin"}`)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestLoginEstablishesSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.handle("GET /me", env.api.Me)

	w := env.do(t, http.MethodGet, "/me", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	env.signIn(t, 2)

	w = env.do(t, http.MethodGet, "/me", nil)
	expectStatus(t, w, http.StatusOK)
	var operator models.Operator
	decodeBody(t, w, &operator)
	if operator.ID != 2 || operator.Name != "Juan Pérez" {
		t.Fatalf("operator = %+v", operator)
	}
}

func TestRequireOperator(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	reached := false
	env.mux.Handle("POST /api/protected", env.api.RequireOperator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})))

	w := env.do(t, http.MethodPost, "/api/protected", nil)
	expectStatus(t, w, http.StatusUnauthorized)
	if reached {
		t.Fatal("protected handler ran without a session")
	}

	env.signIn(t, 1)
	w = env.do(t, http.MethodPost, "/api/protected", nil)
	expectStatus(t, w, http.StatusNoContent)
	if !reached {
		t.Fatal("protected handler did not run for a signed-in operator")
	}
}

func TestLogoutEndsSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.handle("POST /logout", env.api.Logout)
	env.handle("GET /me", env.api.Me)

	env.signIn(t, 1)
	w := env.do(t, http.MethodPost, "/logout", nil)
	expectStatus(t, w, http.StatusNoContent)

	w = env.do(t, http.MethodGet, "/me", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}
