package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"bakeline/internal/db/mock"
	"bakeline/internal/production"
)

type testEnv struct {
	api      *API
	db       *gorm.DB
	sessions *scs.SessionManager
	mux      *http.ServeMux
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := mock.New(context.Background())
	if err != nil {
		t.Fatalf("mock.New() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	sessions := scs.New()
	svc := production.NewService(database, production.Options{RecheckOnStart: true})
	return &testEnv{
		api:      NewAPI(sessions, database, svc),
		db:       database,
		sessions: sessions,
		mux:      http.NewServeMux(),
	}
}

func (e *testEnv) handle(pattern string, h http.HandlerFunc) {
	e.mux.HandleFunc(pattern, h)
}

func (e *testEnv) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	w := httptest.NewRecorder()
	e.sessions.LoadAndSave(e.mux).ServeHTTP(w, req)
	return w
}

// signIn logs the given operator in and keeps the session cookie for later
// requests.
func (e *testEnv) signIn(t *testing.T, operatorID uint) {
	t.Helper()
	e.handle("POST /login", e.api.Login)

	w := e.do(t, http.MethodPost, "/login", map[string]any{"operator_id": operatorID, "pin": mock.OperatorPIN})
	if w.Code != http.StatusOK {
		t.Fatalf("sign in status = %d, body %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == e.sessions.Cookie.Name {
			e.cookie = c
		}
	}
	if e.cookie == nil {
		t.Fatal("expected a session cookie after sign in")
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}
