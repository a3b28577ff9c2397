package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/api/http/handlers"
	"github.com/spec-kit/recipe-admin/internal/config"
	"github.com/spec-kit/recipe-admin/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Auth       *handlers.AuthHandler
	Dashboard  *handlers.DashboardHandler
	Categories *handlers.CategoriesHandler
	Recipes    *handlers.RecipesHandler
	Favourites *handlers.FavouritesHandler
	Users      *handlers.UsersHandler
	Ops        *handlers.OpsHandler
	Guard      *guard.Guard
	OpsConfig  config.OpsConfig
}

// RegisterRoutes wires the screens, the session actions and the ops
// endpoints. Everything under /dashboard sits behind the route guard;
// recipe and account mutations additionally require SuperAdmin.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(guard.HomePath, fiber.StatusSeeOther)
	})

	app.Get("/login", cfg.Auth.LoginPage)
	app.Post("/login", cfg.Auth.Login)
	app.Post("/logout", cfg.Auth.Logout)
	app.Get("/register", cfg.Auth.RegisterPage)
	app.Post("/register", cfg.Auth.Register)
	app.Get("/verify-account", cfg.Auth.VerifyAccountPage)
	app.Post("/verify-account", cfg.Auth.VerifyAccount)
	app.Get("/forgot-password", cfg.Auth.ForgotPasswordPage)
	app.Post("/forgot-password", cfg.Auth.ForgotPassword)
	app.Get("/reset-password", cfg.Auth.ResetPasswordPage)
	app.Post("/reset-password", cfg.Auth.ResetPassword)

	dash := app.Group("/dashboard", cfg.Guard.Handle)
	dash.Get("/", cfg.Dashboard.Home)
	dash.Get("/change-password", cfg.Auth.ChangePasswordPage)
	dash.Post("/change-password", cfg.Auth.ChangePassword)

	dash.Get("/categories", cfg.Categories.List)
	dash.Post("/categories", cfg.Categories.Create)
	dash.Post("/categories/:id/update", cfg.Categories.Update)
	dash.Post("/categories/:id/delete", cfg.Categories.Delete)

	dash.Get("/recipes", cfg.Recipes.List)
	manage := cfg.Guard.RequireRoles(domain.RoleSuperAdmin)
	dash.Get("/recipes/new", manage, cfg.Recipes.NewForm)
	dash.Post("/recipes", manage, cfg.Recipes.Create)
	dash.Get("/recipes/:id/edit", manage, cfg.Recipes.EditForm)
	dash.Post("/recipes/:id/update", manage, cfg.Recipes.Update)
	dash.Post("/recipes/:id/delete", manage, cfg.Recipes.Delete)

	dash.Get("/favourites", cfg.Favourites.List)
	dash.Post("/favourites", cfg.Favourites.Add)
	dash.Post("/favourites/:id/delete", cfg.Favourites.Remove)

	dash.Get("/users", manage, cfg.Users.List)
	dash.Get("/users/:id", manage, cfg.Users.Detail)
	dash.Post("/users/:id/delete", manage, cfg.Users.Delete)

	ops := app.Group("/ops", OpsAuth(cfg.OpsConfig))
	ops.Get("/health/live", cfg.Ops.Live)
	ops.Get("/health/ready", cfg.Ops.Ready)
	ops.Get("/metrics", cfg.Ops.Metrics)
	ops.Get("/version", cfg.Ops.Version)
}
