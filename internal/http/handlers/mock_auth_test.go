package handlers_test

import (
	"net/http"
	"testing"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestMockAuth_Lifecycle(t *testing.T) {
	store := auth.NewMemoryMockStore()
	h := handlers.NewMockAuthHandler(store, nil)

	r := gin.New()
	r.PUT("/test/mock-auth", h.Set)
	r.GET("/test/mock-auth", h.Get)
	r.DELETE("/test/mock-auth", h.Clear)

	if w := do(t, r, http.MethodGet, "/test/mock-auth", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty store = %d", w.Code)
	}

	rec := map[string]any{
		"user":            map[string]any{"id": "e2e-admin", "nickname": "E2E", "role": "admin"},
		"isAuthenticated": true,
	}
	if w := do(t, r, http.MethodPut, "/test/mock-auth", "", rec); w.Code != http.StatusOK {
		t.Fatalf("set = %d body=%s", w.Code, w.Body.String())
	}

	got := decode[auth.MockRecord](t, do(t, r, http.MethodGet, "/test/mock-auth", "", nil))
	if got.User.ID != "e2e-admin" || got.User.Role != role.Admin || !got.IsAuthenticated {
		t.Fatalf("record = %+v", got)
	}

	bad := map[string]any{
		"user":            map[string]any{"id": "x", "nickname": "X", "role": "overlord"},
		"isAuthenticated": true,
	}
	if w := do(t, r, http.MethodPut, "/test/mock-auth", "", bad); w.Code != http.StatusBadRequest {
		t.Fatalf("bad role = %d", w.Code)
	}

	if w := do(t, r, http.MethodDelete, "/test/mock-auth", "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("clear = %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/test/mock-auth", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("after clear = %d", w.Code)
	}
}
