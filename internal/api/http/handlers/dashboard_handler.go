package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/api/http/views"
)

// DashboardHandler renders the authenticated landing screen.
type DashboardHandler struct {
	views *views.Views
}

func NewDashboardHandler(v *views.Views) *DashboardHandler {
	return &DashboardHandler{views: v}
}

// Home greets the signed-in admin.
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	return h.views.Render(c, "dashboard", views.Page{
		Title:    "Dashboard",
		Identity: &identity,
		Notice:   c.Query("notice"),
	})
}
