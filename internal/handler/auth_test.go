package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/buttoners/staffroom/internal/database"
	"github.com/buttoners/staffroom/internal/middleware"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ss := store.NewSessionStore(db)
	h := NewAuthHandler(store.NewUserStore(db), ss, middleware.NewRateLimiter(), false, logger)
	return h, ss
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	return postJSONFrom(t, handler, body, "")
}

func postJSONFrom(t *testing.T, handler http.HandlerFunc, body any, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", "/", bytes.NewReader(data))
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSignup(t *testing.T) {
	h, ss := setupAuthHandler(t)

	rec := postJSON(t, h.Signup, map[string]string{
		"name": "Mina Park", "nickname": "mina", "pin": "1234",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.Role != model.RoleButtoner {
		t.Errorf("role = %q, want buttoner", user.Role)
	}
	if user.Points != 0 {
		t.Errorf("points = %d, want 0", user.Points)
	}

	// Signup sets a session cookie.
	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == sessionCookieName && c.Value != "" {
			found = true
			sess, err := ss.GetByToken(c.Value)
			if err != nil || sess == nil {
				t.Error("cookie token not backed by a session")
			}
		}
	}
	if !found {
		t.Error("no session cookie set")
	}
}

func TestSignupValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	cases := []map[string]string{
		{"name": "", "nickname": "mina", "pin": "1234"},
		{"name": "Mina", "nickname": "", "pin": "1234"},
		{"name": "Mina", "nickname": "mina", "pin": "123"},
		{"name": "Mina", "nickname": "mina", "pin": "12345"},
		{"name": "Mina", "nickname": "mina", "pin": "12ab"},
	}
	for _, body := range cases {
		rec := postJSON(t, h.Signup, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSignupDuplicateNickname(t *testing.T) {
	h, _ := setupAuthHandler(t)

	postJSON(t, h.Signup, map[string]string{"name": "Mina", "nickname": "mina", "pin": "1234"})
	rec := postJSON(t, h.Signup, map[string]string{"name": "Other", "nickname": "mina", "pin": "5678"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	h, _ := setupAuthHandler(t)
	postJSON(t, h.Signup, map[string]string{"name": "Mina", "nickname": "mina", "pin": "1234"})

	rec := postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "1234"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "0000"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong pin: status = %d, want 401", rec.Code)
	}

	// Unknown nickname gets the same 401, not a 404.
	rec = postJSON(t, h.Login, map[string]string{"nickname": "ghost", "pin": "1234"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown nickname: status = %d, want 401", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	h, _ := setupAuthHandler(t)
	postJSON(t, h.Signup, map[string]string{"name": "Mina", "nickname": "mina", "pin": "1234"})

	// Three failures exhaust the limit.
	for i := 0; i < 3; i++ {
		postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "0000"})
	}
	rec := postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "1234"})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 even with the right PIN", rec.Code)
	}
}

func TestLoginRateLimitIsPerIP(t *testing.T) {
	h, _ := setupAuthHandler(t)
	postJSON(t, h.Signup, map[string]string{"name": "Mina", "nickname": "mina", "pin": "1234"})

	// One host burns its attempts against mina's account.
	for i := 0; i < 3; i++ {
		postJSONFrom(t, h.Login, map[string]string{"nickname": "mina", "pin": "0000"}, "203.0.113.9:4000")
	}
	rec := postJSONFrom(t, h.Login, map[string]string{"nickname": "mina", "pin": "1234"}, "203.0.113.9:4000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("blocked host: status = %d, want 429", rec.Code)
	}

	// Mina herself, from a different address, is unaffected.
	rec = postJSONFrom(t, h.Login, map[string]string{"nickname": "mina", "pin": "1234"}, "198.51.100.7:5000")
	if rec.Code != http.StatusOK {
		t.Errorf("other host: status = %d, want 200", rec.Code)
	}
}

func TestLoginResetsLimiterOnSuccess(t *testing.T) {
	h, _ := setupAuthHandler(t)
	postJSON(t, h.Signup, map[string]string{"name": "Mina", "nickname": "mina", "pin": "1234"})

	// Two failures, then a success, then the counter starts over.
	postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "0000"})
	postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "0000"})
	rec := postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "1234"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "0000"})
	rec = postJSON(t, h.Login, map[string]string{"nickname": "mina", "pin": "1234"})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 after limiter reset", rec.Code)
	}
}
