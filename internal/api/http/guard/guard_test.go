package guard_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/domain"
	"github.com/spec-kit/recipe-admin/internal/session"
)

const cookieName = "recipe_admin_session"

type noLogin struct{}

func (noLogin) Login(context.Context, string, string) (session.Credential, error) {
	return session.Credential{}, nil
}

// seedSession persists a live credential for the given role and returns
// the manager plus the seeded session ID.
func seedSession(t *testing.T, role domain.Role) (*session.Manager, string) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":    5,
		"userName":  "nour",
		"userGroup": string(role),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	store := session.NewMemoryStore()
	sessionID := "test-session"
	if err := store.Save(context.Background(), sessionID, session.Credential{
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}
	return session.NewManager(store, noLogin{}, zap.NewNop()), sessionID
}

func newApp(g *guard.Guard) *fiber.App {
	app := fiber.New()
	dash := app.Group("/dashboard", g.Handle)
	dash.Get("/", func(c *fiber.Ctx) error {
		identity, _ := guard.IdentityFromContext(c)
		return c.SendString("hello " + identity.UserName)
	})
	dash.Get("/users", func(c *fiber.Ctx) error { return c.SendString("users") })
	dash.Get("/favourites", func(c *fiber.Ctx) error { return c.SendString("favourites") })
	dash.Post("/recipes", g.RequireRoles(domain.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return c.SendString("created")
	})
	return app
}

func request(method, path, sessionID string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	}
	return req
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	sessions, _ := seedSession(t, domain.RoleSuperAdmin)
	app := newApp(guard.New(sessions, session.DefaultPolicy(), cookieName, zap.NewNop()))

	resp, err := app.Test(request("GET", "/dashboard/", ""))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != guard.LoginPath {
		t.Errorf("Location = %q, want %q", loc, guard.LoginPath)
	}
}

func TestGuardAdmitsAuthenticatedSession(t *testing.T) {
	sessions, sessionID := seedSession(t, domain.RoleSuperAdmin)
	app := newApp(guard.New(sessions, session.DefaultPolicy(), cookieName, zap.NewNop()))

	resp, err := app.Test(request("GET", "/dashboard/", sessionID))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "hello nour") {
		t.Errorf("body = %q, want the resolved identity", body)
	}
}

func TestGuardRedirectsDeniedRoleToHome(t *testing.T) {
	sessions, sessionID := seedSession(t, domain.RoleSystemUser)
	app := newApp(guard.New(sessions, session.DefaultPolicy(), cookieName, zap.NewNop()))

	resp, err := app.Test(request("GET", "/dashboard/users", sessionID))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != guard.HomePath {
		t.Errorf("Location = %q, want %q", loc, guard.HomePath)
	}
}

func TestGuardAllowsPolicyMatchedRole(t *testing.T) {
	sessions, sessionID := seedSession(t, domain.RoleSystemUser)
	app := newApp(guard.New(sessions, session.DefaultPolicy(), cookieName, zap.NewNop()))

	resp, err := app.Test(request("GET", "/dashboard/favourites", sessionID))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRequireRolesBlocksOtherRoles(t *testing.T) {
	sessions, sessionID := seedSession(t, domain.RoleSystemUser)
	app := newApp(guard.New(sessions, session.DefaultPolicy(), cookieName, zap.NewNop()))

	resp, err := app.Test(request("POST", "/dashboard/recipes", sessionID))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != guard.HomePath {
		t.Errorf("Location = %q, want %q", loc, guard.HomePath)
	}
}
