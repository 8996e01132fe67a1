package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/geocoder89/learnhub/internal/moderation"
	"github.com/geocoder89/learnhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type ContentService interface {
	Submit(ctx context.Context, s auth.Session, req content.SubmitRequest) (content.Item, error)
	Moderate(ctx context.Context, s auth.Session, id string, d content.Decision, reason string) (content.Item, error)
	ListPublic(ctx context.Context, s auth.Session, q moderation.ListQuery) (moderation.Page, error)
	ListMine(ctx context.Context, s auth.Session, q moderation.ListQuery) (moderation.Page, error)
	ListAll(ctx context.Context, s auth.Session, q moderation.ListQuery) (moderation.Page, error)
	Get(ctx context.Context, s auth.Session, id string) (content.Item, error)
}

type ContentsHandler struct {
	svc ContentService
}

func NewContentsHandler(svc ContentService) *ContentsHandler {
	return &ContentsHandler{svc: svc}
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// parseListQuery reads kind, status, limit and cursor. It writes the 400 itself.
func parseListQuery(ctx *gin.Context) (moderation.ListQuery, bool) {
	q := moderation.ListQuery{
		Limit:  parseIntDefault(ctx.Query("limit"), moderation.DefaultPageSize),
		Cursor: ctx.Query("cursor"),
	}

	if q.Limit < 1 || q.Limit > moderation.MaxPageSize {
		RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
		return q, false
	}

	if v := ctx.Query("kind"); v != "" {
		k := content.Kind(v)
		if !k.Valid() {
			RespondBadRequest(ctx, "kind must be review or roadmap", nil)
			return q, false
		}
		q.Kind = &k
	}

	if v := ctx.Query("status"); v != "" {
		st := content.Status(v)
		if !st.Valid() {
			RespondBadRequest(ctx, "status must be pending, approved or rejected", nil)
			return q, false
		}
		q.Status = &st
	}

	if q.Cursor != "" {
		if _, err := utils.DecodeCursor(q.Cursor); err != nil {
			RespondBadRequest(ctx, "cursor is invalid", nil)
			return q, false
		}
	}

	return q, true
}

func contentID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid content id", nil)
		return "", false
	}
	return id, true
}

// POST /contents
func (h *ContentsHandler) Submit(ctx *gin.Context) {
	var req content.SubmitRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx, 3*time.Second)
	defer cancel()

	item, err := h.svc.Submit(cctx, middlewares.SessionFrom(ctx), req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not submit content")
		return
	}

	ctx.JSON(http.StatusCreated, item)
}

// GET /contents?kind=review&limit=20&cursor=...
func (h *ContentsHandler) ListPublic(ctx *gin.Context) {
	q, ok := parseListQuery(ctx)
	if !ok {
		return
	}
	// public listings are approved-only whatever the query says
	q.Status = nil

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	page, err := h.svc.ListPublic(cctx, middlewares.SessionFrom(ctx), q)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list content")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

// GET /contents/:id
func (h *ContentsHandler) Get(ctx *gin.Context) {
	id, ok := contentID(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	item, err := h.svc.Get(cctx, middlewares.SessionFrom(ctx), id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch content")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, item)
}

// GET /me/contents
func (h *ContentsHandler) ListMine(ctx *gin.Context) {
	q, ok := parseListQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	page, err := h.svc.ListMine(cctx, middlewares.SessionFrom(ctx), q)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list content")
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// GET /admin/contents?status=pending
func (h *ContentsHandler) ListAll(ctx *gin.Context) {
	q, ok := parseListQuery(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	page, err := h.svc.ListAll(cctx, middlewares.SessionFrom(ctx), q)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list content")
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// POST /admin/contents/:id/moderate
func (h *ContentsHandler) Moderate(ctx *gin.Context) {
	id, ok := contentID(ctx)
	if !ok {
		return
	}

	var req content.ModerateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestCtx(ctx, 3*time.Second)
	defer cancel()

	item, err := h.svc.Moderate(cctx, middlewares.SessionFrom(ctx), id, req.Decision, req.Reason)
	if err != nil {
		RespondServiceError(ctx, err, "Could not moderate content")
		return
	}

	ctx.JSON(http.StatusOK, item)
}
