package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// Favourites lists the caller's marked recipes.
func (c *Client) Favourites(ctx context.Context, token string, page, size int) (domain.Page[domain.Favourite], error) {
	query := url.Values{}
	query.Set("pageNumber", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(size))

	var out domain.Page[domain.Favourite]
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/userRecipe/",
		query:  query,
		token:  token,
	}, &out)
	return out, err
}

// AddFavourite marks a recipe for the caller.
func (c *Client) AddFavourite(ctx context.Context, token string, recipeID int) error {
	body, contentType, err := jsonBody(map[string]int{"recipeId": recipeID})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/userRecipe/",
		body:        body,
		contentType: contentType,
		token:       token,
	}, nil)
}

// RemoveFavourite unmarks a favourite by its own ID (not the recipe's).
func (c *Client) RemoveFavourite(ctx context.Context, token string, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/userRecipe/%d", id),
		token:  token,
	}, nil)
}
