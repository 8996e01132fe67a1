package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/geocoder89/learnhub/internal/domain/user"
	"golang.org/x/oauth2"
)

var (
	ErrUnknownProvider = errors.New("unknown social provider")
	ErrProviderProfile = errors.New("provider returned an unusable profile")
)

type SocialConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// overridable for tests
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

type SocialProvider struct {
	name        user.Provider
	oauth       *oauth2.Config
	userInfoURL string
	parse       func([]byte) (user.SocialProfile, error)
}

type providerDefaults struct {
	authURL, tokenURL, userInfoURL string
	scopes                         []string
	authStyle                      oauth2.AuthStyle
	parse                          func([]byte) (user.SocialProfile, error)
}

var defaults = map[user.Provider]providerDefaults{
	user.ProviderGoogle: {
		authURL:     "https://accounts.google.com/o/oauth2/auth",
		tokenURL:    "https://oauth2.googleapis.com/token",
		userInfoURL: "https://www.googleapis.com/oauth2/v3/userinfo",
		scopes:      []string{"openid", "email", "profile"},
		authStyle:   oauth2.AuthStyleInParams,
		parse:       parseGoogle,
	},
	user.ProviderKakao: {
		authURL:     "https://kauth.kakao.com/oauth/authorize",
		tokenURL:    "https://kauth.kakao.com/oauth/token",
		userInfoURL: "https://kapi.kakao.com/v2/user/me",
		scopes:      []string{"profile_nickname", "account_email"},
		authStyle:   oauth2.AuthStyleInParams,
		parse:       parseKakao,
	},
	user.ProviderNaver: {
		authURL:     "https://nid.naver.com/oauth2.0/authorize",
		tokenURL:    "https://nid.naver.com/oauth2.0/token",
		userInfoURL: "https://openapi.naver.com/v1/nid/me",
		authStyle:   oauth2.AuthStyleInParams,
		parse:       parseNaver,
	},
}

func NewSocialProvider(name user.Provider, cfg SocialConfig) (*SocialProvider, error) {
	d, ok := defaults[name]
	if !ok {
		return nil, ErrUnknownProvider
	}

	if cfg.AuthURL == "" {
		cfg.AuthURL = d.authURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = d.tokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = d.userInfoURL
	}

	return &SocialProvider{
		name: name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       d.scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: d.authStyle,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		parse:       d.parse,
	}, nil
}

func (p *SocialProvider) Name() user.Provider {
	return p.name
}

func (p *SocialProvider) LoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for the caller's provider profile.
func (p *SocialProvider) Exchange(ctx context.Context, code string) (user.SocialProfile, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return user.SocialProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return user.SocialProfile{}, err
	}

	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return user.SocialProfile{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.SocialProfile{}, fmt.Errorf("read user info: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return user.SocialProfile{}, fmt.Errorf("user info status %d", resp.StatusCode)
	}

	profile, err := p.parse(body)
	if err != nil {
		return user.SocialProfile{}, err
	}

	profile.Provider = p.name
	if profile.Nickname == "" {
		profile.Nickname = string(p.name) + "-user"
	}
	return profile, nil
}

func parseGoogle(b []byte) (user.SocialProfile, error) {
	var in struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return user.SocialProfile{}, fmt.Errorf("%w: %v", ErrProviderProfile, err)
	}
	if in.Sub == "" {
		return user.SocialProfile{}, ErrProviderProfile
	}
	return user.SocialProfile{SocialID: in.Sub, Email: in.Email, Nickname: in.Name}, nil
}

func parseKakao(b []byte) (user.SocialProfile, error) {
	var in struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname string `json:"nickname"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return user.SocialProfile{}, fmt.Errorf("%w: %v", ErrProviderProfile, err)
	}
	if in.ID == 0 {
		return user.SocialProfile{}, ErrProviderProfile
	}
	return user.SocialProfile{
		SocialID: strconv.FormatInt(in.ID, 10),
		Email:    in.KakaoAccount.Email,
		Nickname: in.KakaoAccount.Profile.Nickname,
	}, nil
}

func parseNaver(b []byte) (user.SocialProfile, error) {
	var in struct {
		ResultCode string `json:"resultcode"`
		Response   struct {
			ID       string `json:"id"`
			Email    string `json:"email"`
			Nickname string `json:"nickname"`
		} `json:"response"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return user.SocialProfile{}, fmt.Errorf("%w: %v", ErrProviderProfile, err)
	}
	if in.ResultCode != "00" || in.Response.ID == "" {
		return user.SocialProfile{}, ErrProviderProfile
	}
	return user.SocialProfile{SocialID: in.Response.ID, Email: in.Response.Email, Nickname: in.Response.Nickname}, nil
}
