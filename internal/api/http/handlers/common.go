package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/session"
	"github.com/spec-kit/recipe-admin/internal/upstream"
	apperrors "github.com/spec-kit/recipe-admin/pkg/util"
)

const defaultPageSize = 10

// SessionCookie carries the one cookie the gateway sets: the opaque
// session ID. The credential itself never reaches the browser.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set issues the session cookie, capped at the credential expiry.
func (sc SessionCookie) Set(c *fiber.Ctx, sessionID string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   sc.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// Clear drops the session cookie.
func (sc SessionCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   sc.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// bearer resolves the stored credential for the request's session. On a
// miss the session evaporated between the guard and the handler: the
// cookie is cleared, the login redirect is written and ok is false.
func bearer(c *fiber.Ctx, sessions *session.Manager, cookie SessionCookie) (string, bool) {
	token, ok := sessions.Credential(c.UserContext(), guard.SessionIDFromContext(c))
	if !ok {
		cookie.Clear(c)
		_ = c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
	}
	return token, ok
}

// upstreamFailure routes an upstream error: a rejected credential becomes
// a logout transition plus a trip to the login screen, anything else
// surfaces as a gateway error. This is the single place that binds the
// API client's 401 signal to the session manager.
func upstreamFailure(c *fiber.Ctx, sessions *session.Manager, cookie SessionCookie, err error) error {
	if upstream.IsUnauthorized(err) {
		sessions.Logout(c.UserContext(), guard.SessionIDFromContext(c))
		cookie.Clear(c)
		return c.Redirect(guard.LoginPath, fiber.StatusSeeOther)
	}
	return apperrors.NewBadGateway(err)
}

// serverMessage extracts the upstream-provided reason, if any.
func serverMessage(err error) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return ""
}

// rejected reports whether the upstream actively refused the request.
func rejected(err error) bool {
	var apiErr *upstream.APIError
	return errors.As(err, &apiErr) && apiErr.Rejected()
}

// noticeRedirect sends the browser on with a one-shot notice.
func noticeRedirect(c *fiber.Ctx, path, notice string) error {
	return c.Redirect(path+"?notice="+url.QueryEscape(notice), fiber.StatusSeeOther)
}

// pageParam reads the requested page number, defaulting to the first.
func pageParam(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// intParam parses a route parameter as an integer ID.
func intParam(c *fiber.Ctx, name string) (int, error) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, nil)
	}
	return id, nil
}
