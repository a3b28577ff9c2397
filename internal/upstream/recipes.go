package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// RecipeFilter narrows the recipe list. Zero values mean "no filter".
type RecipeFilter struct {
	Name       string
	TagID      int
	CategoryID int
	Page       int
	Size       int
}

// Recipes lists recipes with optional name/tag/category filters.
func (c *Client) Recipes(ctx context.Context, token string, filter RecipeFilter) (domain.Page[domain.Recipe], error) {
	query := url.Values{}
	query.Set("pageNumber", strconv.Itoa(filter.Page))
	query.Set("pageSize", strconv.Itoa(filter.Size))
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}
	if filter.TagID > 0 {
		query.Set("tagId", strconv.Itoa(filter.TagID))
	}
	if filter.CategoryID > 0 {
		query.Set("categoryId", strconv.Itoa(filter.CategoryID))
	}

	var out domain.Page[domain.Recipe]
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/Recipe/",
		query:  query,
		token:  token,
	}, &out)
	return out, err
}

// Recipe fetches a single recipe.
func (c *Client) Recipe(ctx context.Context, token string, id int) (domain.Recipe, error) {
	var out domain.Recipe
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/Recipe/%d", id),
		token:  token,
	}, &out)
	return out, err
}

// RecipeForm carries the create/update fields. Image is optional on
// update; the upstream keeps the old image when none is sent.
type RecipeForm struct {
	Name        string
	Description string
	Price       string
	CategoryID  int
	TagID       int
	Image       *Upload
}

func (f RecipeForm) fields() map[string]string {
	return map[string]string{
		"name":          f.Name,
		"description":   f.Description,
		"price":         f.Price,
		"categoriesIds": strconv.Itoa(f.CategoryID),
		"tagId":         strconv.Itoa(f.TagID),
	}
}

// CreateRecipe adds a recipe via multipart form.
func (c *Client) CreateRecipe(ctx context.Context, token string, form RecipeForm) error {
	body, contentType, err := multipartBody(form.fields(), map[string]*Upload{"recipeImage": form.Image})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Recipe/",
		body:        body,
		contentType: contentType,
		token:       token,
	}, nil)
}

// UpdateRecipe edits an existing recipe.
func (c *Client) UpdateRecipe(ctx context.Context, token string, id int, form RecipeForm) error {
	body, contentType, err := multipartBody(form.fields(), map[string]*Upload{"recipeImage": form.Image})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPut,
		path:        fmt.Sprintf("/Recipe/%d", id),
		body:        body,
		contentType: contentType,
		token:       token,
	}, nil)
}

// DeleteRecipe removes a recipe.
func (c *Client) DeleteRecipe(ctx context.Context, token string, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/Recipe/%d", id),
		token:  token,
	}, nil)
}

// Tags lists the fixed recipe tags.
func (c *Client) Tags(ctx context.Context, token string) ([]domain.Tag, error) {
	var out []domain.Tag
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/tag/",
		token:  token,
	}, &out)
	return out, err
}
