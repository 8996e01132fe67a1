package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	refreshCookie = "refresh_token"
	stateCookie   = "oauth_state"
)

type AuthUsers interface {
	UpsertSocial(ctx context.Context, p user.SocialProfile) (user.User, bool, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

// SocialLogin is one identity provider's half of the authorization code flow.
type SocialLogin interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (user.SocialProfile, error)
}

type AuthHandler struct {
	users     AuthUsers
	providers map[user.Provider]SocialLogin
	jwt       *auth.Manager
	refresh   auth.RefreshStore
	cfg       config.Config
	log       *slog.Logger
}

func NewAuthHandler(users AuthUsers, providers map[user.Provider]SocialLogin, jwtManager *auth.Manager, refresh auth.RefreshStore, cfg config.Config, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:     users,
		providers: providers,
		jwt:       jwtManager,
		refresh:   refresh,
		cfg:       cfg,
		log:       log,
	}
}

func identityOf(u user.User) auth.Identity {
	return auth.Identity{
		UserID:   u.ID,
		Nickname: u.Nickname,
		Role:     u.Role.String(),
		Provider: string(u.SocialProvider),
	}
}

func (h *AuthHandler) provider(ctx *gin.Context) (SocialLogin, bool) {
	p, ok := h.providers[user.Provider(ctx.Param("provider"))]
	if !ok || p == nil {
		RespondNotFound(ctx, "Unknown login provider")
		return nil, false
	}
	return p, true
}

// GET /auth/:provider/login
func (h *AuthHandler) Login(ctx *gin.Context) {
	p, ok := h.provider(ctx)
	if !ok {
		return
	}

	state := uuid.NewString()

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(stateCookie, state, 600, "/auth", "", h.secure(), true)

	ctx.Redirect(http.StatusFound, p.LoginURL(state))
}

// GET /auth/:provider/callback
func (h *AuthHandler) Callback(ctx *gin.Context) {
	p, ok := h.provider(ctx)
	if !ok {
		return
	}

	want, err := ctx.Cookie(stateCookie)
	if err != nil || want == "" || ctx.Query("state") != want {
		RespondUnAuthorized(ctx, "invalid_state", "Login state did not match. Please try again.")
		return
	}
	h.clearCookie(ctx, stateCookie, "/auth")

	code := ctx.Query("code")
	if code == "" {
		RespondBadRequest(ctx, "code is required", nil)
		return
	}

	cctx, cancel := requestCtx(ctx, 10*time.Second)
	defer cancel()

	profile, err := p.Exchange(cctx, code)
	if err != nil {
		h.log.WarnContext(cctx, "social login exchange failed", "provider", ctx.Param("provider"), "err", err)
		RespondUnAuthorized(ctx, "login_failed", "Could not sign in with this provider.")
		return
	}

	u, created, err := h.users.UpsertSocial(cctx, profile)
	if err != nil {
		RespondServiceError(ctx, err, "Could not sign in")
		return
	}
	if created {
		h.log.InfoContext(cctx, "user created", "user_id", u.ID, "provider", u.SocialProvider)
	}

	accessToken, ok := h.issue(ctx, cctx, u)
	if !ok {
		return
	}

	if h.cfg.OAuthReturnURL == "" {
		ctx.JSON(http.StatusOK, gin.H{
			"accessToken": accessToken,
			"user":        u,
			"created":     created,
		})
		return
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.AccessCookie, accessToken, int(h.cfg.AccessTTL().Seconds()), "/", "", h.secure(), true)
	ctx.Redirect(http.StatusFound, h.cfg.OAuthReturnURL)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookie)
	if err != nil || raw == "" {
		RespondUnAuthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	cctx, cancel := requestCtx(ctx, 3*time.Second)
	defer cancel()

	// role and nickname come from the stored user, not the old claims
	u, err := h.users.GetByID(cctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
			return
		}
		RespondServiceError(ctx, err, "Could not refresh session")
		return
	}

	newRaw, newJTI, expiresAt, err := h.jwt.GenerateRefreshToken(identityOf(u))
	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	next := auth.RefreshToken{
		ID:        newJTI,
		UserID:    u.ID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refresh.Rotate(cctx, claims.JTI, h.jwt.HashRefreshToken(raw), next)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenNotFound),
			errors.Is(err, auth.ErrRefreshTokenMismatch):
			RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		case errors.Is(err, auth.ErrRefreshTokenRevoked):
			RespondUnAuthorized(ctx, "expired_refresh", "Refresh token expired or revoked.")
		default:
			RespondServiceError(ctx, err, "Could not refresh session")
		}
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(identityOf(u))
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.setRefreshCookie(ctx, newRaw, expiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
	})
}

// POST /auth/logout revokes the presented refresh token only.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	defer func() {
		h.clearCookie(ctx, refreshCookie, "/auth")
		h.clearCookie(ctx, middlewares.AccessCookie, "/")
		ctx.Status(http.StatusNoContent)
	}()

	raw, err := ctx.Cookie(refreshCookie)
	if err != nil || raw == "" {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return
	}

	cctx, cancel := requestCtx(ctx, 3*time.Second)
	defer cancel()

	if err := h.refresh.Revoke(cctx, claims.JTI); err != nil {
		h.log.WarnContext(cctx, "refresh token revoke failed", "jti", claims.JTI, "err", err)
	}
}

func (h *AuthHandler) issue(ctx *gin.Context, cctx context.Context, u user.User) (string, bool) {
	id := identityOf(u)

	accessToken, err := h.jwt.GenerateAccessToken(id)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return "", false
	}

	raw, jti, expiresAt, err := h.jwt.GenerateRefreshToken(id)
	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return "", false
	}

	err = h.refresh.Create(cctx, auth.RefreshToken{
		ID:        jti,
		UserID:    u.ID,
		TokenHash: h.jwt.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		RespondServiceError(ctx, err, "Could not create session")
		return "", false
	}

	h.setRefreshCookie(ctx, raw, expiresAt)
	return accessToken, true
}

func (h *AuthHandler) secure() bool {
	return h.cfg.Env == "prod"
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookie, raw, maxAge, "/auth", "", h.secure(), true)
}

func (h *AuthHandler) clearCookie(ctx *gin.Context, name, path string) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(name, "", -1, path, "", h.secure(), true)
}
