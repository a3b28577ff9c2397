package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// Categories lists recipe categories, paginated.
func (c *Client) Categories(ctx context.Context, token string, page, size int) (domain.Page[domain.Category], error) {
	query := url.Values{}
	query.Set("pageNumber", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(size))

	var out domain.Page[domain.Category]
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/Category/",
		query:  query,
		token:  token,
	}, &out)
	return out, err
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, token, name string) error {
	body, contentType, err := jsonBody(map[string]string{"name": name})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/Category/",
		body:        body,
		contentType: contentType,
		token:       token,
	}, nil)
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, token string, id int, name string) error {
	body, contentType, err := jsonBody(map[string]string{"name": name})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPut,
		path:        fmt.Sprintf("/Category/%d", id),
		body:        body,
		contentType: contentType,
		token:       token,
	}, nil)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, token string, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/Category/%d", id),
		token:  token,
	}, nil)
}
