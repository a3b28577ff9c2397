package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/recipe-admin/internal/domain"
)

// AccountFilter narrows the user list. Zero values mean "no filter".
type AccountFilter struct {
	UserName string
	Email    string
	Country  string
	GroupID  int
	Page     int
	Size     int
}

// Accounts lists platform user accounts, paginated and filtered.
func (c *Client) Accounts(ctx context.Context, token string, filter AccountFilter) (domain.Page[domain.Account], error) {
	query := url.Values{}
	query.Set("pageNumber", strconv.Itoa(filter.Page))
	query.Set("pageSize", strconv.Itoa(filter.Size))
	if filter.UserName != "" {
		query.Set("userName", filter.UserName)
	}
	if filter.Email != "" {
		query.Set("email", filter.Email)
	}
	if filter.Country != "" {
		query.Set("country", filter.Country)
	}
	if filter.GroupID > 0 {
		query.Set("groups", strconv.Itoa(filter.GroupID))
	}

	var out domain.Page[domain.Account]
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/Users/",
		query:  query,
		token:  token,
	}, &out)
	return out, err
}

// Account fetches one user account.
func (c *Client) Account(ctx context.Context, token string, id int) (domain.Account, error) {
	var out domain.Account
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/Users/%d", id),
		token:  token,
	}, &out)
	return out, err
}

// DeleteAccount removes a user account.
func (c *Client) DeleteAccount(ctx context.Context, token string, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/Users/%d", id),
		token:  token,
	}, nil)
}

// Groups lists the role groups used by the account filter dropdown.
func (c *Client) Groups(ctx context.Context, token string) ([]domain.Group, error) {
	var out []domain.Group
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/userGroup",
		token:  token,
	}, &out)
	return out, err
}
