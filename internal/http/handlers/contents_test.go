package handlers_test

import (
	"net/http"
	"testing"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/geocoder89/learnhub/internal/moderation"
	"github.com/geocoder89/learnhub/internal/repo/memory"
	"github.com/geocoder89/learnhub/internal/utils"
	"github.com/gin-gonic/gin"
)

func newContentsRouter() (*gin.Engine, *memory.JobsRepo) {
	jobsRepo := memory.NewJobsRepo()
	wf := moderation.NewWorkflow(memory.NewContentsRepo(), jobsRepo, nil, nil)
	h := handlers.NewContentsHandler(wf)

	r := gin.New()
	r.Use(withSession(map[string]auth.Session{
		"author":  sessionAs("author-1", role.AuthLogin),
		"other":   sessionAs("author-2", role.AuthPremium),
		"newbie":  sessionAs("newbie-1", role.LoginNotAuth),
		"admin":   sessionAs("admin-1", role.Admin),
		"blocked": sessionAs("blocked-1", role.BlockedLogin),
	}))
	r.POST("/contents", h.Submit)
	r.GET("/contents", h.ListPublic)
	r.GET("/contents/:id", h.Get)
	r.GET("/me/contents", h.ListMine)
	r.GET("/admin/contents", h.ListAll)
	r.POST("/admin/contents/:id/moderate", h.Moderate)
	return r, jobsRepo
}

func review(title string) map[string]any {
	return map[string]any{
		"kind":       "review",
		"title":      title,
		"body":       "This course explained goroutines really well.",
		"courseName": "Go 101",
		"rating":     5,
	}
}

func TestSubmit_ByRole(t *testing.T) {
	r, _ := newContentsRouter()

	tests := []struct {
		as   string
		want int
	}{
		{"author", http.StatusCreated},
		{"admin", http.StatusCreated},
		{"newbie", http.StatusForbidden},
		{"blocked", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run("as "+tt.as, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/contents", tt.as, review("Great course"))
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusCreated {
				return
			}
			item := decode[content.Item](t, w)
			if item.Status != content.StatusPending || item.ID == "" {
				t.Fatalf("unexpected item %+v", item)
			}
		})
	}
}

func TestSubmit_InvalidBody(t *testing.T) {
	r, _ := newContentsRouter()

	w := do(t, r, http.MethodPost, "/contents", "author", `{"kind":"essay","title":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}
}

func TestModerationFlow(t *testing.T) {
	r, jobsRepo := newContentsRouter()

	w := do(t, r, http.MethodPost, "/contents", "author", review("Pending review"))
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body.String())
	}
	item := decode[content.Item](t, w)

	// pending items are hidden from the public and from other members
	if w := do(t, r, http.MethodGet, "/contents/"+item.ID, "other", nil); w.Code != http.StatusNotFound {
		t.Fatalf("other member saw pending item: %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/contents/"+item.ID, "author", nil); w.Code != http.StatusOK {
		t.Fatalf("author could not see own item: %d", w.Code)
	}

	page := decode[moderation.Page](t, do(t, r, http.MethodGet, "/contents", "", nil))
	if page.Count != 0 {
		t.Fatalf("public list should be empty, got %d", page.Count)
	}

	if w := do(t, r, http.MethodPost, "/admin/contents/"+item.ID+"/moderate", "author", map[string]any{"decision": "approve"}); w.Code != http.StatusForbidden {
		t.Fatalf("author moderated: %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/admin/contents/"+item.ID+"/moderate", "admin", map[string]any{"decision": "approve"})
	if w.Code != http.StatusOK {
		t.Fatalf("moderate: %d %s", w.Code, w.Body.String())
	}
	if got := decode[content.Item](t, w); got.Status != content.StatusApproved {
		t.Fatalf("status = %s", got.Status)
	}

	// second decision on the same item is rejected
	w = do(t, r, http.MethodPost, "/admin/contents/"+item.ID+"/moderate", "admin", map[string]any{"decision": "reject"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("second moderation: %d", w.Code)
	}

	page = decode[moderation.Page](t, do(t, r, http.MethodGet, "/contents?kind=review", "", nil))
	if page.Count != 1 || page.Items[0].ID != item.ID {
		t.Fatalf("public list = %+v", page.Items)
	}

	jobsPage, err := jobsRepo.ListCursor(t.Context(), nil, 10, utils.FirstPageDesc())
	if err != nil {
		t.Fatal(err)
	}
	if jobsPage.Count != 2 {
		t.Fatalf("expected notify and summarize jobs, got %d", jobsPage.Count)
	}
}

func TestListMine_IncludesEveryStatus(t *testing.T) {
	r, _ := newContentsRouter()

	for _, title := range []string{"First review", "Second review"} {
		if w := do(t, r, http.MethodPost, "/contents", "author", review(title)); w.Code != http.StatusCreated {
			t.Fatalf("submit: %d", w.Code)
		}
	}
	if w := do(t, r, http.MethodPost, "/contents", "other", review("Not mine")); w.Code != http.StatusCreated {
		t.Fatalf("submit: %d", w.Code)
	}

	page := decode[moderation.Page](t, do(t, r, http.MethodGet, "/me/contents", "author", nil))
	if page.Count != 2 {
		t.Fatalf("count = %d", page.Count)
	}
	for _, it := range page.Items {
		if it.AuthorID != "author-1" {
			t.Fatalf("foreign item in my list: %+v", it)
		}
	}

	if w := do(t, r, http.MethodGet, "/me/contents", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", w.Code)
	}
}

func TestListAll_PendingQueue(t *testing.T) {
	r, _ := newContentsRouter()
	do(t, r, http.MethodPost, "/contents", "author", review("Queue me"))

	page := decode[moderation.Page](t, do(t, r, http.MethodGet, "/admin/contents?status=pending", "admin", nil))
	if page.Count != 1 {
		t.Fatalf("pending count = %d", page.Count)
	}

	if w := do(t, r, http.MethodGet, "/admin/contents", "author", nil); w.Code != http.StatusForbidden {
		t.Fatalf("member listed queue: %d", w.Code)
	}
}

func TestContents_BadQuery(t *testing.T) {
	r, _ := newContentsRouter()

	tests := []struct {
		name string
		path string
	}{
		{"bad id", "/contents/not-a-uuid"},
		{"bad kind", "/contents?kind=essay"},
		{"bad limit", "/contents?limit=500"},
		{"bad cursor", "/contents?cursor=bogus"},
		{"bad status", "/admin/contents?status=archived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodGet, tt.path, "admin", nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
			}
		})
	}
}
