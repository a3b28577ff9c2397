package handlers

import (
	"strconv"

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

// FavouritesHandler serves the SystemUser favourites screen.
type FavouritesHandler struct {
	sessions *session.Manager
	api      *upstream.Client
	views    *views.Views
	auditor  audit.Recorder
	cookie   SessionCookie
	log      *zap.Logger
}

func NewFavouritesHandler(sessions *session.Manager, api *upstream.Client, v *views.Views, auditor audit.Recorder, cookie SessionCookie, logger *zap.Logger) *FavouritesHandler {
	return &FavouritesHandler{
		sessions: sessions,
		api:      api,
		views:    v,
		auditor:  auditor,
		cookie:   cookie,
		log:      logger,
	}
}

// List renders the caller's favourite recipes.
func (h *FavouritesHandler) List(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	page, err := h.api.Favourites(c.UserContext(), token, pageParam(c), defaultPageSize)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return h.views.Render(c, "favourites", views.Page{
		Title:    "Favourites",
		Identity: &identity,
		Notice:   c.Query("notice"),
		Data:     page,
	})
}

// Add marks a recipe as a favourite and returns to the recipe list.
func (h *FavouritesHandler) Add(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	var form dto.FavouriteForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return apperrors.NewValidationError("a recipe is required", nil)
	}

	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	if err := h.api.AddFavourite(c.UserContext(), token, form.RecipeID); err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "favourite_add",
		Resource: strconv.Itoa(form.RecipeID),
	})
	return noticeRedirect(c, "/dashboard/recipes", "Added to favourites")
}

// Remove unmarks a favourite.
func (h *FavouritesHandler) Remove(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	if err := h.api.RemoveFavourite(c.UserContext(), token, id); err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "favourite_remove",
		Resource: strconv.Itoa(id),
	})
	return noticeRedirect(c, "/dashboard/favourites", "Removed from favourites")
}
