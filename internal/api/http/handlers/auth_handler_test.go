package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/api/http/views"
	"github.com/spec-kit/recipe-admin/internal/audit"
	"github.com/spec-kit/recipe-admin/internal/config"
	"github.com/spec-kit/recipe-admin/internal/session"
	"github.com/spec-kit/recipe-admin/internal/upstream"
)

const testCookie = "recipe_admin_session"

// loginApp wires an auth handler against a scripted upstream.
func loginApp(t *testing.T, upstreamHandler http.Handler) *fiber.App {
	t.Helper()
	srv := httptest.NewServer(upstreamHandler)
	t.Cleanup(srv.Close)

	api := upstream.NewClient(config.UpstreamConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, zap.NewNop())
	sessions := session.NewManager(session.NewMemoryStore(), api, zap.NewNop())
	v, err := views.New()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	h := NewAuthHandler(sessions, api, v, audit.NopRecorder{}, SessionCookie{Name: testCookie}, zap.NewNop())

	app := fiber.New()
	app.Get("/login", h.LoginPage)
	app.Post("/login", h.Login)
	app.Post("/logout", h.Logout)
	return app
}

func loginRequest(email, password string) *http.Request {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return req
}

func TestLoginSetsSessionCookie(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":    9,
		"userName":  "salma",
		"userGroup": "SuperAdmin",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}

	app := loginApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"token": token, "expiresIn": 3600})
	}))

	resp, err := app.Test(loginRequest("salma@example.com", "secret123"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/dashboard") {
		t.Errorf("Location = %q, want the dashboard", loc)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testCookie {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be http-only")
	}
}

func TestLoginRejectionRendersServerReason(t *testing.T) {
	app := loginApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid email or password"})
	}))

	resp, err := app.Test(loginRequest("salma@example.com", "wrong-pass"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want the form re-rendered", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Invalid email or password") {
		t.Errorf("server reason missing from the re-rendered form")
	}
	if len(resp.Cookies()) != 0 {
		t.Error("no cookie should be issued on a rejected login")
	}
}

func TestLoginValidationShortCircuits(t *testing.T) {
	upstreamCalled := false
	app := loginApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalled = true
	}))

	resp, err := app.Test(loginRequest("not-an-email", "short"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want the form re-rendered", resp.StatusCode)
	}
	if upstreamCalled {
		t.Error("invalid input must not reach the upstream")
	}
}

func TestLogoutClearsCookieAndRedirects(t *testing.T) {
	app := loginApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "whatever"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("Location = %q, want the login screen", loc)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testCookie && cookie.Value != "" {
			t.Error("session cookie not cleared")
		}
	}
}
