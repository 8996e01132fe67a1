package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProfileWriter interface {
	UpdateNickname(ctx context.Context, id, nickname string) (user.User, error)
}

// SessionCache is the resolver's per-user cache.
type SessionCache interface {
	Invalidate(userID string)
}

type MeHandler struct {
	users ProfileWriter
	cache SessionCache
}

func NewMeHandler(users ProfileWriter, cache SessionCache) *MeHandler {
	return &MeHandler{users: users, cache: cache}
}

type meResponse struct {
	Authenticated bool              `json:"authenticated"`
	Source        auth.Source       `json:"source"`
	User          *user.User        `json:"user"`
	Role          role.Role         `json:"role"`
	Capabilities  role.Capabilities `json:"capabilities"`
}

// GET /auth/me never fails; anonymous callers get the anonymous session.
func (h *MeHandler) Get(ctx *gin.Context) {
	s := middlewares.SessionFrom(ctx)

	ctx.JSON(http.StatusOK, meResponse{
		Authenticated: !s.IsAnonymous(),
		Source:        s.Source,
		User:          s.User,
		Role:          s.Role(),
		Capabilities:  s.Caps,
	})
}

// PATCH /me
func (h *MeHandler) UpdateProfile(ctx *gin.Context) {
	s := middlewares.SessionFrom(ctx)

	if s.IsAnonymous() {
		RespondUnAuthorized(ctx, "unauthorized", "Please sign in to continue.")
		return
	}
	if !s.Can(role.CanView) {
		RespondForbidden(ctx, "Your account cannot edit its profile.")
		return
	}
	if s.Source == auth.SourceMock {
		RespondConflict(ctx, "mock_session", "Mock sessions have no stored profile.")
		return
	}

	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	nickname := strings.TrimSpace(req.Nickname)
	if len(nickname) < 2 {
		RespondBadRequest(ctx, "nickname is too short", nil)
		return
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.UpdateNickname(cctx, s.UserID(), nickname)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update profile")
		return
	}

	if h.cache != nil {
		h.cache.Invalidate(u.ID)
	}

	ctx.JSON(http.StatusOK, u)
}
