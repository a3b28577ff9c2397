package handlers

import (
	"fmt"
	"mime/multipart"
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

// lookupPageSize is used when loading tags and categories for dropdowns.
const lookupPageSize = 100

// RecipesHandler serves the recipe list, the create/edit forms and the
// delete action. Mutations are reached through the SuperAdmin route gate.
type RecipesHandler struct {
	sessions *session.Manager
	api      *upstream.Client
	views    *views.Views
	auditor  audit.Recorder
	cookie   SessionCookie
	log      *zap.Logger
}

func NewRecipesHandler(sessions *session.Manager, api *upstream.Client, v *views.Views, auditor audit.Recorder, cookie SessionCookie, logger *zap.Logger) *RecipesHandler {
	return &RecipesHandler{
		sessions: sessions,
		api:      api,
		views:    v,
		auditor:  auditor,
		cookie:   cookie,
		log:      logger,
	}
}

type recipesView struct {
	Page       domain.Page[domain.Recipe]
	Tags       []domain.Tag
	Categories []domain.Category
	Filter     upstream.RecipeFilter
	CanManage  bool
}

type recipeFormView struct {
	Action     string
	Form       dto.RecipeForm
	Tags       []domain.Tag
	Categories []domain.Category
}

// lookups fetches the tag and category dropdown data.
func (h *RecipesHandler) lookups(c *fiber.Ctx, token string) ([]domain.Tag, []domain.Category, error) {
	tags, err := h.api.Tags(c.UserContext(), token)
	if err != nil {
		return nil, nil, err
	}
	categories, err := h.api.Categories(c.UserContext(), token, 1, lookupPageSize)
	if err != nil {
		return nil, nil, err
	}
	return tags, categories.Data, nil
}

// List renders one filtered page of recipes.
func (h *RecipesHandler) List(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}

	filter := upstream.RecipeFilter{
		Name: c.Query("name"),
		Page: pageParam(c),
		Size: defaultPageSize,
	}
	filter.TagID, _ = strconv.Atoi(c.Query("tagId"))
	filter.CategoryID, _ = strconv.Atoi(c.Query("categoryId"))

	page, err := h.api.Recipes(c.UserContext(), token, filter)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	tags, categories, err := h.lookups(c, token)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}

	return h.views.Render(c, "recipes", views.Page{
		Title:    "Recipes",
		Identity: &identity,
		Notice:   c.Query("notice"),
		Data: recipesView{
			Page:       page,
			Tags:       tags,
			Categories: categories,
			Filter:     filter,
			CanManage:  identity.Role == domain.RoleSuperAdmin,
		},
	})
}

// NewForm renders an empty recipe form.
func (h *RecipesHandler) NewForm(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	tags, categories, err := h.lookups(c, token)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return h.views.Render(c, "recipe_form", views.Page{
		Title:    "New Recipe",
		Identity: &identity,
		Data: recipeFormView{
			Action:     "/dashboard/recipes",
			Tags:       tags,
			Categories: categories,
		},
	})
}

// Create submits a new recipe, forwarding the optional image upload.
func (h *RecipesHandler) Create(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}

	var form dto.RecipeForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.renderForm(c, identity, token, "New Recipe", "/dashboard/recipes", form, fieldErrors)
	}

	upForm, file, err := h.upstreamForm(c, form)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := h.api.CreateRecipe(c.UserContext(), token, upForm); err != nil {
		if rejected(err) {
			return h.renderForm(c, identity, token, "New Recipe", "/dashboard/recipes", form,
				map[string]string{"form": serverMessage(err)})
		}
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "recipe_create",
		Resource: form.Name,
	})
	return noticeRedirect(c, "/dashboard/recipes", "Recipe added")
}

// EditForm renders the form pre-filled from the stored recipe.
func (h *RecipesHandler) EditForm(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}

	recipe, err := h.api.Recipe(c.UserContext(), token, id)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	form := dto.RecipeForm{
		Name:        recipe.Name,
		Description: recipe.Description,
		Price:       strconv.FormatFloat(recipe.Price, 'f', -1, 64),
		TagID:       recipe.Tag.ID,
	}
	if len(recipe.Categories) > 0 {
		form.CategoryID = recipe.Categories[0].ID
	}
	return h.renderForm(c, identity, token, "Edit Recipe",
		fmt.Sprintf("/dashboard/recipes/%d/update", id), form, nil)
}

// Update saves changes to an existing recipe.
func (h *RecipesHandler) Update(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}

	action := fmt.Sprintf("/dashboard/recipes/%d/update", id)
	var form dto.RecipeForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("malformed form", nil)
	}
	if fieldErrors := dto.Validate(form); fieldErrors != nil {
		return h.renderForm(c, identity, token, "Edit Recipe", action, form, fieldErrors)
	}

	upForm, file, err := h.upstreamForm(c, form)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	if err := h.api.UpdateRecipe(c.UserContext(), token, id, upForm); err != nil {
		if rejected(err) {
			return h.renderForm(c, identity, token, "Edit Recipe", action, form,
				map[string]string{"form": serverMessage(err)})
		}
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "recipe_update",
		Resource: strconv.Itoa(id),
		Detail:   form.Name,
	})
	return noticeRedirect(c, "/dashboard/recipes", "Recipe updated")
}

// Delete removes a recipe.
func (h *RecipesHandler) Delete(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	if err := h.api.DeleteRecipe(c.UserContext(), token, id); err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "recipe_delete",
		Resource: strconv.Itoa(id),
	})
	return noticeRedirect(c, "/dashboard/recipes", "Recipe deleted")
}

// renderForm redraws the recipe form with its dropdown lookups.
func (h *RecipesHandler) renderForm(c *fiber.Ctx, identity domain.Identity, token, title, action string, form dto.RecipeForm, fieldErrors map[string]string) error {
	tags, categories, err := h.lookups(c, token)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return h.views.Render(c, "recipe_form", views.Page{
		Title:    title,
		Identity: &identity,
		Errors:   fieldErrors,
		Data: recipeFormView{
			Action:     action,
			Form:       form,
			Tags:       tags,
			Categories: categories,
		},
	})
}

// upstreamForm converts the parsed form plus the optional multipart image
// into the upstream payload. The returned file, when present, must be
// closed by the caller after the request is sent.
func (h *RecipesHandler) upstreamForm(c *fiber.Ctx, form dto.RecipeForm) (upstream.RecipeForm, multipart.File, error) {
	upForm := upstream.RecipeForm{
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		CategoryID:  form.CategoryID,
		TagID:       form.TagID,
	}

	header, err := c.FormFile("recipeImage")
	if err != nil {
		// No image attached; the upstream keeps the existing one.
		return upForm, nil, nil
	}
	file, err := header.Open()
	if err != nil {
		return upstream.RecipeForm{}, nil, apperrors.NewValidationError("could not read uploaded image", nil)
	}
	upForm.Image = &upstream.Upload{FileName: header.Filename, Reader: file}
	return upForm, file, nil
}
