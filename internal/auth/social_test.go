package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/geocoder89/learnhub/internal/domain/user"
)

func newProviderServer(t *testing.T, userInfo string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userInfo))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(t *testing.T, name user.Provider, userInfo string) *SocialProvider {
	t.Helper()
	srv := newProviderServer(t, userInfo)

	p, err := NewSocialProvider(name, SocialConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func TestSocialProvider_Exchange(t *testing.T) {
	tests := []struct {
		name     user.Provider
		userInfo string
		want     user.SocialProfile
	}{
		{
			name:     user.ProviderGoogle,
			userInfo: `{"sub":"g-1","email":"a@example.com","name":"Ada"}`,
			want:     user.SocialProfile{Provider: user.ProviderGoogle, SocialID: "g-1", Email: "a@example.com", Nickname: "Ada"},
		},
		{
			name:     user.ProviderKakao,
			userInfo: `{"id":42,"kakao_account":{"email":"k@example.com","profile":{"nickname":"kim"}}}`,
			want:     user.SocialProfile{Provider: user.ProviderKakao, SocialID: "42", Email: "k@example.com", Nickname: "kim"},
		},
		{
			name:     user.ProviderNaver,
			userInfo: `{"resultcode":"00","message":"success","response":{"id":"n-9","email":"n@example.com","nickname":"lee"}}`,
			want:     user.SocialProfile{Provider: user.ProviderNaver, SocialID: "n-9", Email: "n@example.com", Nickname: "lee"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			p := testProvider(t, tt.name, tt.userInfo)

			got, err := p.Exchange(context.Background(), "good-code")
			if err != nil {
				t.Fatalf("exchange: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSocialProvider_BadCode(t *testing.T) {
	p := testProvider(t, user.ProviderGoogle, `{"sub":"g-1"}`)

	if _, err := p.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatalf("expected exchange error")
	}
}

func TestSocialProvider_UnusableProfile(t *testing.T) {
	p := testProvider(t, user.ProviderNaver, `{"resultcode":"024","message":"auth failed"}`)

	_, err := p.Exchange(context.Background(), "good-code")
	if !errors.Is(err, ErrProviderProfile) {
		t.Fatalf("expected ErrProviderProfile, got %v", err)
	}
}

func TestSocialProvider_LoginURL(t *testing.T) {
	p := testProvider(t, user.ProviderKakao, `{}`)

	u, err := url.Parse(p.LoginURL("state-xyz"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.HasSuffix(u.Path, "/auth") {
		t.Fatalf("unexpected path %s", u.Path)
	}
	q := u.Query()
	if q.Get("state") != "state-xyz" || q.Get("client_id") != "cid" || q.Get("response_type") != "code" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestNewSocialProvider_Unknown(t *testing.T) {
	if _, err := NewSocialProvider(user.Provider("myspace"), SocialConfig{}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}
