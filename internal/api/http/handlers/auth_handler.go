package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/api/dto"
	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/api/http/views"
	"github.com/spec-kit/recipe-admin/internal/audit"
	"github.com/spec-kit/recipe-admin/internal/session"
	"github.com/spec-kit/recipe-admin/internal/upstream"
	apperrors "github.com/spec-kit/recipe-admin/pkg/util"
)

// AuthHandler owns the credential lifecycle screens: login, logout,
// registration, verification and the password flows.
type AuthHandler struct {
	sessions *session.Manager
	api      *upstream.Client
	views    *views.Views
	auditor  audit.Recorder
	cookie   SessionCookie
	log      *zap.Logger
}

func NewAuthHandler(sessions *session.Manager, api *upstream.Client, v *views.Views, auditor audit.Recorder, cookie SessionCookie, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		api:      api,
		views:    v,
		auditor:  auditor,
		cookie:   cookie,
		log:      logger,
	}
}

// LoginPage renders the login screen. An already-authenticated visitor is
// sent straight to the dashboard.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	if _, ok := h.sessions.Current(c.UserContext(), c.Cookies(h.cookie.Name)); ok {
		return c.Redirect(guard.HomePath, fiber.StatusSeeOther)
	}
	return h.views.Render(c, "login", views.Page{
		Title:  "Login",
		Notice: c.Query("notice"),
		Data:   dto.LoginForm{},
	})
}

// Login exchanges the submitted credentials for a fresh session. The
// previous session ID, if any, is handed to the manager so a superseded
// attempt gets cancelled and the ID rotates on success.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.views.Render(c, "login", views.Page{
			Title:  "Login",
			Errors: fieldErrors,
			Data:   form,
		})
	}

	previous := c.Cookies(h.cookie.Name)
	sessionID, identity, err := h.sessions.Login(c.UserContext(), previous, form.Email, form.Password)
	if err != nil {
		return h.views.Render(c, "login", views.Page{
			Title:  "Login",
			Errors: map[string]string{"form": loginFailureMessage(err)},
			Data:   form,
		})
	}

	h.cookie.Set(c, sessionID, identity.ExpiresAt)
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:  identity.UserName,
		Role:   identity.Role,
		Action: "login",
	})
	return noticeRedirect(c, guard.HomePath, fmt.Sprintf("Welcome back, %s", identity.UserName))
}

// loginFailureMessage turns a manager error into screen copy. A rejected
// login keeps the upstream's reason, everything else is a transient fault.
func loginFailureMessage(err error) string {
	if errors.Is(err, session.ErrLoginRejected) {
		return err.Error()
	}
	return "Could not reach the recipe service, please try again"
}

// Logout tears the session down. It always lands on the login screen,
// even when clearing the stored credential fails.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(h.cookie.Name)
	if identity, ok := h.sessions.Current(c.UserContext(), sessionID); ok {
		h.auditor.Record(c.UserContext(), audit.Event{
			Actor:  identity.UserName,
			Role:   identity.Role,
			Action: "logout",
		})
	}
	h.sessions.Logout(c.UserContext(), sessionID)
	h.cookie.Clear(c)
	return noticeRedirect(c, guard.LoginPath, "You have been logged out")
}

// RegisterPage renders the self-registration screen.
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return h.views.Render(c, "register", views.Page{
		Title: "Register",
		Data:  dto.RegisterForm{},
	})
}

// Register submits a new account and sends the visitor on to the
// verification screen.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.views.Render(c, "register", views.Page{
			Title:  "Register",
			Errors: fieldErrors,
			Data:   form,
		})
	}

	err := h.api.Register(c.UserContext(), upstream.RegisterForm{
		UserName:        form.UserName,
		Email:           form.Email,
		Country:         form.Country,
		PhoneNumber:     form.PhoneNumber,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		if rejected(err) {
			return h.views.Render(c, "register", views.Page{
				Title:  "Register",
				Errors: map[string]string{"form": serverMessage(err)},
				Data:   form,
			})
		}
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return noticeRedirect(c, "/verify-account", "Account created, check your email for the verification code")
}

// VerifyAccountPage renders the verification screen.
func (h *AuthHandler) VerifyAccountPage(c *fiber.Ctx) error {
	return h.views.Render(c, "verify_account", views.Page{
		Title:  "Verify Account",
		Notice: c.Query("notice"),
		Data:   dto.VerifyAccountForm{Email: c.Query("email")},
	})
}

// VerifyAccount confirms a freshly registered account.
func (h *AuthHandler) VerifyAccount(c *fiber.Ctx) error {
	var form dto.VerifyAccountForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.views.Render(c, "verify_account", views.Page{
			Title:  "Verify Account",
			Errors: fieldErrors,
			Data:   form,
		})
	}

	if err := h.api.VerifyAccount(c.UserContext(), form.Email, form.Code); err != nil {
		if rejected(err) {
			return h.views.Render(c, "verify_account", views.Page{
				Title:  "Verify Account",
				Errors: map[string]string{"form": serverMessage(err)},
				Data:   form,
			})
		}
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return noticeRedirect(c, guard.LoginPath, "Account verified, you can log in now")
}

// ForgotPasswordPage renders the reset-request screen.
func (h *AuthHandler) ForgotPasswordPage(c *fiber.Ctx) error {
	return h.views.Render(c, "forgot_password", views.Page{
		Title: "Forgot Password",
		Data:  dto.ForgotPasswordForm{},
	})
}

// ForgotPassword asks the service to mail an OTP seed.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var form dto.ForgotPasswordForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.views.Render(c, "forgot_password", views.Page{
			Title:  "Forgot Password",
			Errors: fieldErrors,
			Data:   form,
		})
	}

	if err := h.api.RequestPasswordReset(c.UserContext(), form.Email); err != nil {
		if rejected(err) {
			return h.views.Render(c, "forgot_password", views.Page{
				Title:  "Forgot Password",
				Errors: map[string]string{"form": serverMessage(err)},
				Data:   form,
			})
		}
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return noticeRedirect(c, "/reset-password", "Check your email for the reset code")
}

// ResetPasswordPage renders the reset-completion screen.
func (h *AuthHandler) ResetPasswordPage(c *fiber.Ctx) error {
	return h.views.Render(c, "reset_password", views.Page{
		Title:  "Reset Password",
		Notice: c.Query("notice"),
		Data:   dto.ResetPasswordForm{},
	})
}

// ResetPassword completes a reset with the emailed seed.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var form dto.ResetPasswordForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.views.Render(c, "reset_password", views.Page{
			Title:  "Reset Password",
			Errors: fieldErrors,
			Data:   form,
		})
	}

	err := h.api.ResetPassword(c.UserContext(), form.Email, form.Seed, form.Password, form.ConfirmPassword)
	if err != nil {
		if rejected(err) {
			return h.views.Render(c, "reset_password", views.Page{
				Title:  "Reset Password",
				Errors: map[string]string{"form": serverMessage(err)},
				Data:   form,
			})
		}
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return noticeRedirect(c, guard.LoginPath, "Password reset, log in with your new password")
}

// ChangePasswordPage renders the change-password screen for the signed-in
// admin.
func (h *AuthHandler) ChangePasswordPage(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	return h.views.Render(c, "change_password", views.Page{
		Title:    "Change Password",
		Identity: &identity,
		Data:     dto.ChangePasswordForm{},
	})
}

// ChangePassword updates the caller's password against the upstream.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	var form dto.ChangePasswordForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.views.Render(c, "change_password", views.Page{
			Title:    "Change Password",
			Identity: &identity,
			Errors:   fieldErrors,
			Data:     form,
		})
	}

	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	err := h.api.ChangePassword(c.UserContext(), token, form.OldPassword, form.NewPassword, form.ConfirmNewPassword)
	if err != nil {
		if rejected(err) {
			return h.views.Render(c, "change_password", views.Page{
				Title:    "Change Password",
				Identity: &identity,
				Errors:   map[string]string{"form": serverMessage(err)},
				Data:     form,
			})
		}
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}

	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:  identity.UserName,
		Role:   identity.Role,
		Action: "change_password",
	})
	return noticeRedirect(c, guard.HomePath, "Password changed")
}
