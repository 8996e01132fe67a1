package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AdminUsersRepo interface {
	List(ctx context.Context, f user.ListFilter) ([]user.User, error)
	UpdateRole(ctx context.Context, id string, newRole role.Role) (user.User, error)
	SetActive(ctx context.Context, id string, active bool) (user.User, error)
}

type RoleChangePublisher interface {
	Publish(ctx context.Context, ch auth.RoleChange) error
}

type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

type AdminUsersHandler struct {
	users   AdminUsersRepo
	broker  RoleChangePublisher
	revoker TokenRevoker
	log     *slog.Logger
}

func NewAdminUsersHandler(users AdminUsersRepo, broker RoleChangePublisher, revoker TokenRevoker, log *slog.Logger) *AdminUsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminUsersHandler{users: users, broker: broker, revoker: revoker, log: log}
}

// GET /admin/users?role=AUTH_LOGIN&limit=50
func (h *AdminUsersHandler) List(ctx *gin.Context) {
	f := user.ListFilter{Limit: parseIntDefault(ctx.Query("limit"), 50)}
	if f.Limit < 1 || f.Limit > 200 {
		RespondBadRequest(ctx, "limit must be between 1 and 200", nil)
		return
	}

	if v := ctx.Query("role"); v != "" {
		r, ok := role.Parse(v)
		if !ok {
			RespondBadRequest(ctx, "unknown role", nil)
			return
		}
		f.Role = &r
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	items, err := h.users.List(cctx, f)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list users")
		return
	}
	if items == nil {
		items = []user.User{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// PATCH /admin/users/:id/role
func (h *AdminUsersHandler) ChangeRole(ctx *gin.Context) {
	var req user.ChangeRoleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	r, _ := role.Parse(req.Role)
	// NOT_ACCESS is the anonymous role; nobody is stored with it
	if r == role.NotAccess {
		RespondBadRequest(ctx, user.ErrInvalidRole.Error(), nil)
		return
	}

	h.apply(ctx, "role_changed", func(cctx context.Context, id string) (user.User, error) {
		return h.users.UpdateRole(cctx, id, r)
	})
}

// POST /admin/users/:id/ban
func (h *AdminUsersHandler) Ban(ctx *gin.Context) {
	h.apply(ctx, "banned", func(cctx context.Context, id string) (user.User, error) {
		return h.users.UpdateRole(cctx, id, role.BlockedLogin)
	})
}

// POST /admin/users/:id/deactivate. Users are never hard-deleted.
func (h *AdminUsersHandler) Deactivate(ctx *gin.Context) {
	h.apply(ctx, "deactivated", func(cctx context.Context, id string) (user.User, error) {
		return h.users.SetActive(cctx, id, false)
	})
}

func (h *AdminUsersHandler) apply(ctx *gin.Context, action string, fn func(context.Context, string) (user.User, error)) {
	id := ctx.Param("id")
	if id == "" {
		RespondBadRequest(ctx, "invalid user id", nil)
		return
	}

	adminID, _ := middlewares.UserIDFromContext(ctx)
	if id == adminID {
		RespondConflict(ctx, "self_change", "Admins cannot change their own account here.")
		return
	}

	cctx, cancel := requestCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := fn(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update user")
		return
	}

	if u.Role.IsBlocked() || !u.Active {
		if err := h.revoker.RevokeAllForUser(cctx, u.ID); err != nil {
			h.log.ErrorContext(cctx, "revoke sessions failed", "user_id", u.ID, "err", err)
		}
	}

	// a failed publish only delays other processes until their cache expires
	if err := h.broker.Publish(cctx, auth.RoleChange{UserID: u.ID, Role: u.Role, Active: u.Active}); err != nil {
		h.log.WarnContext(cctx, "role change not broadcast", "user_id", u.ID, "err", err)
	}

	h.log.InfoContext(cctx, "user "+action, "user_id", u.ID, "role", u.Role, "active", u.Active, "admin_id", adminID)

	ctx.JSON(http.StatusOK, u)
}
