package http

import (
	"context"
	"encoding/base64"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/recipe-admin/internal/api/http/views"
	"github.com/spec-kit/recipe-admin/internal/config"
	"github.com/spec-kit/recipe-admin/internal/observability"
	apperrors "github.com/spec-kit/recipe-admin/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, v *views.Views) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	// The request logger wraps the error renderer so it observes the
	// final status, not the pre-render 200.
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, v))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, v *views.Views) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				var fiberErr *fiber.Error
				if errors.As(err, &fiberErr) {
					switch fiberErr.Code {
					case fiber.StatusNotFound:
						err = apperrors.NewNotFound("page")
					case fiber.StatusForbidden:
						err = apperrors.NewForbidden(fiberErr.Message)
					default:
						err = apperrors.NewDomainError("HTTP_ERROR", fiberErr.Message, fiberErr.Code, nil)
					}
				}
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				if strings.HasPrefix(c.Path(), "/ops") {
					response := fiber.Map{"error": fiber.Map{
						"code":    domainErr.Code,
						"message": domainErr.Message,
					}}
					_ = c.JSON(response)
				} else if renderErr := v.Render(c, "error", views.Page{
					Title: domainErr.Code,
					Data:  domainErr.Message,
				}); renderErr != nil {
					logger.Error("error page render failed", zap.Error(renderErr))
					c.Type("html", "utf-8")
					_ = c.SendString("<!doctype html><html><body><h1>" + domainErr.Code +
						"</h1><p>" + domainErr.Message + `</p><p><a href="/dashboard">Back</a></p></body></html>`)
				}
				err = nil
			}
		}()
		return c.Next()
	}
}

// OpsAuth protects the operational endpoints with basic auth against a
// bcrypt hash. Leaving both settings empty keeps the endpoints open, for
// development setups.
func OpsAuth(cfg config.OpsConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.User == "" && cfg.PasswordHash == "" {
			return c.Next()
		}

		user, password, ok := basicCredentials(c.Get(fiber.HeaderAuthorization))
		if !ok || user != cfg.User {
			return challenge(c)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)); err != nil {
			return challenge(c)
		}
		return c.Next()
	}
}

func challenge(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="ops"`)
	return apperrors.NewUnauthorized("ops credentials required")
}

func basicCredentials(header string) (user, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	user, password, found := strings.Cut(string(decoded), ":")
	return user, password, found
}
