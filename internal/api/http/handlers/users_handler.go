package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-admin/internal/api/http/guard"
	"github.com/spec-kit/recipe-admin/internal/api/http/views"
	"github.com/spec-kit/recipe-admin/internal/audit"
	"github.com/spec-kit/recipe-admin/internal/domain"
	"github.com/spec-kit/recipe-admin/internal/session"
	"github.com/spec-kit/recipe-admin/internal/upstream"
)

// UsersHandler serves the SuperAdmin account screens.
type UsersHandler struct {
	sessions *session.Manager
	api      *upstream.Client
	views    *views.Views
	auditor  audit.Recorder
	cookie   SessionCookie
	log      *zap.Logger
}

func NewUsersHandler(sessions *session.Manager, api *upstream.Client, v *views.Views, auditor audit.Recorder, cookie SessionCookie, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		sessions: sessions,
		api:      api,
		views:    v,
		auditor:  auditor,
		cookie:   cookie,
		log:      logger,
	}
}

type usersView struct {
	Page   domain.Page[domain.Account]
	Groups []domain.Group
	Filter upstream.AccountFilter
}

// List renders one filtered page of accounts.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}

	filter := upstream.AccountFilter{
		UserName: c.Query("userName"),
		Email:    c.Query("email"),
		Country:  c.Query("country"),
		Page:     pageParam(c),
		Size:     defaultPageSize,
	}
	filter.GroupID, _ = strconv.Atoi(c.Query("groupId"))

	page, err := h.api.Accounts(c.UserContext(), token, filter)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	groups, err := h.api.Groups(c.UserContext(), token)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}

	return h.views.Render(c, "users", views.Page{
		Title:    "Users",
		Identity: &identity,
		Notice:   c.Query("notice"),
		Data: usersView{
			Page:   page,
			Groups: groups,
			Filter: filter,
		},
	})
}

// Detail renders a single account.
func (h *UsersHandler) Detail(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	account, err := h.api.Account(c.UserContext(), token, id)
	if err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	return h.views.Render(c, "user_detail", views.Page{
		Title:    account.UserName,
		Identity: &identity,
		Data:     account,
	})
}

// Delete removes an account.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	identity, _ := guard.IdentityFromContext(c)
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	token, ok := bearer(c, h.sessions, h.cookie)
	if !ok {
		return nil
	}
	if err := h.api.DeleteAccount(c.UserContext(), token, id); err != nil {
		return upstreamFailure(c, h.sessions, h.cookie, err)
	}
	h.auditor.Record(c.UserContext(), audit.Event{
		Actor:    identity.UserName,
		Role:     identity.Role,
		Action:   "user_delete",
		Resource: strconv.Itoa(id),
	})
	return noticeRedirect(c, "/dashboard/users", "User deleted")
}
