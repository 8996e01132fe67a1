package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/gin-gonic/gin"
)

// MockAuthHandler lets e2e tooling pin the session. Its routes are only
// registered when mock auth was enabled at startup.
type MockAuthHandler struct {
	store auth.MockStore
	log   *slog.Logger
}

func NewMockAuthHandler(store auth.MockStore, log *slog.Logger) *MockAuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MockAuthHandler{store: store, log: log}
}

// PUT /test/mock-auth
func (h *MockAuthHandler) Set(ctx *gin.Context) {
	var rec auth.MockRecord
	if !BindJSON(ctx, &rec) {
		return
	}
	rec.User.Role, _ = role.Parse(string(rec.User.Role))

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	if err := h.store.Set(cctx, rec); err != nil {
		RespondServiceError(ctx, err, "Could not store mock session")
		return
	}

	h.log.WarnContext(cctx, "mock auth record set", "user_id", rec.User.ID, "role", rec.User.Role, "authenticated", rec.IsAuthenticated)
	ctx.JSON(http.StatusOK, rec)
}

// GET /test/mock-auth
func (h *MockAuthHandler) Get(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	rec, err := h.store.Get(cctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoMockRecord) {
			RespondNotFound(ctx, "No mock session set")
			return
		}
		RespondServiceError(ctx, err, "Could not read mock session")
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

// DELETE /test/mock-auth
func (h *MockAuthHandler) Clear(ctx *gin.Context) {
	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	if err := h.store.Clear(cctx); err != nil {
		RespondServiceError(ctx, err, "Could not clear mock session")
		return
	}

	ctx.Status(http.StatusNoContent)
}
