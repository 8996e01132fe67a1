package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/actorctx"
	"github.com/geocoder89/learnhub/internal/domain/job"
	"github.com/geocoder89/learnhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type AdminJobsRepo interface {
	ListCursor(ctx context.Context, status *job.Status, limit int, after utils.Cursor) (job.Page, error)
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
}

type AdminJobsHandler struct {
	repo AdminJobsRepo
}

func NewAdminJobsHandler(repo AdminJobsRepo) *AdminJobsHandler {
	return &AdminJobsHandler{
		repo: repo,
	}
}

// Get /admin/jobs?status=failed&limit=50&cursor=...

func (h *AdminJobsHandler) List(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
		return
	}

	var statusPtr *job.Status
	if s := ctx.Query("status"); s != "" {
		st := job.Status(s)
		statusPtr = &st
	}

	after := utils.FirstPageDesc()
	if cursor := ctx.Query("cursor"); cursor != "" {
		cur, err := utils.DecodeCursor(cursor)
		if err != nil {
			RespondBadRequest(ctx, "cursor is invalid", nil)
			return
		}
		after = cur
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	page, err := h.repo.ListCursor(cctx, statusPtr, limit, after)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list jobs")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

// Get /admin/jobs/:id

func (h *AdminJobsHandler) GetByID(ctx *gin.Context) {
	id, ok := jobID(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	j, err := h.repo.GetByID(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch job")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, j)
}

// POST /admin/jobs/:id/retry
func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	id, ok := jobID(ctx)
	if !ok {
		return
	}

	cctx, cancel := requestCtx(ctx, 2*time.Second)
	defer cancel()

	err := h.repo.Retry(cctx, id)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFailed) {
			RespondConflict(ctx, "job_not_failed", "Only failed jobs can be retried")
			return
		}
		RespondServiceError(ctx, err, "Could not retry job")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"jobId":  id,
		"status": job.StatusPending,
	})
}

// jobID validates :id and tags the request so its log line carries job_id.
func jobID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid job id", nil)
		return "", false
	}
	ctx.Request = ctx.Request.WithContext(actorctx.WithJobID(ctx.Request.Context(), id))
	return id, true
}
