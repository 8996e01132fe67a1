package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/moderation"
	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes payload with a weak validator and answers 304
// when a GET or HEAD already holds the same version.
func RespondJSONWithETag(ctx *gin.Context, status int, payload any) {
	etag, err := buildETag(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	ctx.Header("ETag", etag)

	method := ctx.Request.Method
	if (method == http.MethodGet || method == http.MethodHead) && ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

// versionKey reduces known payloads to the fields that change when a reader
// would see something new. Items are versioned by updated_at, so a summary
// landing or a moderation decision both bump it. The page cursor is derived
// from the last item and is left out.
func versionKey(payload any) ([]byte, bool) {
	switch p := payload.(type) {
	case content.Item:
		return []byte(itemVersion(p)), true
	case moderation.Page:
		var b strings.Builder
		for _, it := range p.Items {
			b.WriteString(itemVersion(it))
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatBool(p.HasMore))
		return []byte(b.String()), true
	default:
		return nil, false
	}
}

func itemVersion(it content.Item) string {
	return it.ID + "@" + string(it.Status) + "@" + it.UpdatedAt.UTC().Format(time.RFC3339Nano)
}

func buildETag(payload any) (string, error) {
	b, ok := versionKey(payload)
	if !ok {
		var err error
		if b, err = json.Marshal(payload); err != nil {
			return "", err
		}
	}

	sum := sha256.Sum256(b)

	// weak: the body is JSON re-encoded per request, not byte-stable storage
	return `W/"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	if strings.TrimSpace(headerValue) == "" || strings.TrimSpace(currentETag) == "" {
		return false
	}

	if strings.TrimSpace(headerValue) == "*" {
		return true
	}

	current := normalizeETag(currentETag)

	for _, part := range strings.Split(headerValue, ",") {
		if normalizeETag(part) == current {
			return true
		}
	}

	return false
}

// normalizeETag applies weak comparison.
func normalizeETag(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "W/")
}
