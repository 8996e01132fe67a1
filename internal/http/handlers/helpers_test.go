package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionAs(id string, r role.Role) auth.Session {
	now := time.Now().UTC()
	u := &user.User{ID: id, Nickname: id, Role: r, Active: true, CreatedAt: now, UpdatedAt: now}
	return auth.Session{User: u, Source: auth.SourceToken, Caps: auth.DeriveCapabilities(u)}
}

// withSession stands in for the Session middleware: the X-Test-User header
// picks a session from the table.
func withSession(sessions map[string]auth.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessions[c.GetHeader("X-Test-User")]
		if !ok {
			s = auth.Anonymous()
		}
		c.Set(middlewares.CtxSession, s)
		c.Next()
	}
}

func do(t *testing.T, h http.Handler, method, path, as string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set("X-Test-User", as)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v, body=%s", err, w.Body.String())
	}
	return out
}

type errorBody struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newRequestWithHeader(method, path, key, value string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(key, value)
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
