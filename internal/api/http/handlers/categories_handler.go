package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/api/dto"
	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/api/http/views"
	"github.com/spec-kit/recipe-admin/internal/audit"
	"github.com/spec-kit/recipe-admin/internal/domain"
	"github.com/spec-kit/recipe-admin/internal/session"
	"github.com/spec-kit/recipe-admin/internal/upstream"
	apperrors "github.com/spec-kit/recipe-admin/pkg/util"
)

// CategoriesHandler serves the category list and its inline CRUD forms.
type CategoriesHandler struct {
	sessions *session.Manager
	api      *upstream.Client
	views    *views.Views
	auditor  audit.Recorder
	cookie   SessionCookie
	log      *zap.Logger
}

func NewCategoriesHandler(sessions *session.Manager, api *upstream.Client, v *views.Views, auditor audit.Recorder, cookie SessionCookie, logger *zap.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		sessions: sessions,
		api:      api,
		views:    v,
		auditor:  auditor,
		cookie:   cookie,
		log:      logger,
	}
}

type categoriesView struct {
	Page      domain.Page[domain.Category]
	Form      dto.CategoryForm
	CanManage bool
}

// List renders one page of categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}

	page, err := h.api.Categories(c.UserContext(), token, pageParam(c), defaultPageSize)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return h.views.Render(c, "categories", views.Page{
		Title:    "Categories",
		Identity: &identity,
		Notice:   c.Query("notice"),
		Data: categoriesView{
			Page:      page,
			CanManage: identity.Role == domain.RoleSuperAdmin,
		},
	})
}

// Create adds a category and returns to the list.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	var form dto.CategoryForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		token, ok := bearer(c, h.sessions, h.cookie)
		if !ok {
			return nil
		}
		page, err := h.api.Categories(c.UserContext(), token, 1, defaultPageSize)
		if err != nil {
			return upstreamFailure(c, h.sessions, h.cookie, err)
		}
		return h.views.Render(c, "categories", views.Page{
			Title:    "Categories",
			Identity: &identity,
			Errors:   fieldErrors,
			Data: categoriesView{
				Page:      page,
				Form:      form,
				CanManage: identity.Role == domain.RoleSuperAdmin,
			},
		})
	}

	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	if err := h.api.CreateCategory(c.UserContext(), token, form.Name); err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "category_create",
		Resource: form.Name,
	})
	return noticeRedirect(c, "/dashboard/categories", "Category added")
}

// Update renames a category.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var form dto.CategoryForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return noticeRedirect(c, "/dashboard/categories", "Category name is required")
	}

	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	if err := h.api.UpdateCategory(c.UserContext(), token, id, form.Name); err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "category_update",
		Resource: strconv.Itoa(id),
		Detail:   form.Name,
	})
	return noticeRedirect(c, "/dashboard/categories", "Category updated")
}

// Delete removes a category.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	if err := h.api.DeleteCategory(c.UserContext(), token, id); err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "category_delete",
		Resource: strconv.Itoa(id),
	})
	return noticeRedirect(c, "/dashboard/categories", "Category deleted")
}
