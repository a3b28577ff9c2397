package upstream

import (
	"context"
	"net/http"
	"time"

	"github.com/spec-kit/recipe-admin/internal/session"
)

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// Login exchanges email/password for a bearer token. The declared expiry
// comes back as a relative lifetime; when the service omits it the session
// manager falls back to the token's own expiry claim.
func (c *Client) Login(ctx context.Context, email, password string) (session.Credential, error) {
	body, contentType, err := jsonBody(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return session.Credential{}, err
	}

	var resp loginResponse
	if err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Users/Login",
		body:        body,
		contentType: contentType,
	}, &resp); err != nil {
		return session.Credential{}, err
	}

	cred := session.Credential{Token: resp.Token}
	if resp.ExpiresIn > 0 {
		cred.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return cred, nil
}

// RegisterForm carries the self-registration fields.
type RegisterForm struct {
	UserName        string
	Email           string
	Country         string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
}

// Register creates a new account. The endpoint expects a multipart form.
func (c *Client) Register(ctx context.Context, form RegisterForm) error {
	body, contentType, err := multipartBody(map[string]string{
		"userName":        form.UserName,
		"email":           form.Email,
		"country":         form.Country,
		"phoneNumber":     form.PhoneNumber,
		"password":        form.Password,
		"confirmPassword": form.ConfirmPassword,
	}, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Users/Register",
		body:        body,
		contentType: contentType,
	}, nil)
}

// RequestPasswordReset asks the service to email an OTP seed.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body, contentType, err := jsonBody(map[string]string{"email": email})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Users/Reset/Request",
		body:        body,
		contentType: contentType,
	}, nil)
}

// ResetPassword completes the reset using the emailed seed.
func (c *Client) ResetPassword(ctx context.Context, email, seed, password, confirmPassword string) error {
	body, contentType, err := jsonBody(map[string]string{
		"email":           email,
		"seed":            seed,
		"password":        password,
		"confirmPassword": confirmPassword,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Users/Reset",
		body:        body,
		contentType: contentType,
	}, nil)
}

// VerifyAccount confirms a freshly registered account with its emailed
// code.
func (c *Client) VerifyAccount(ctx context.Context, email, code string) error {
	body, contentType, err := jsonBody(map[string]string{
		"email": email,
		"code":  code,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPut,
		path:        "/Users/verify",
		body:        body,
		contentType: contentType,
	}, nil)
}

// ChangePassword updates the caller's own password.
func (c *Client) ChangePassword(ctx context.Context, token, oldPassword, newPassword, confirmNewPassword string) error {
	body, contentType, err := jsonBody(map[string]string{
		"oldPassword":        oldPassword,
		"newPassword":        newPassword,
		"confirmNewPassword": confirmNewPassword,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPut,
		path:        "/Users/ChangePassword",
		body:        body,
		contentType: contentType,
		token:       token,
	}, nil)
}
