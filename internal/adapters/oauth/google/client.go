// Package google implementa el proveedor OAuth2 contra los endpoints de
// Google (authorization code flow, scopes openid/email/profile).
package google

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"vet-clinic-api/internal/platform/httpclient"
	"vet-clinic-api/internal/ports/oauth"
)

const (
	authEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// ConfigFromEnv lee GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET y
// GOOGLE_REDIRECT_URL.
func ConfigFromEnv() Config {
	return Config{
		ClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		RedirectURL:  strings.TrimSpace(os.Getenv("GOOGLE_REDIRECT_URL")),
	}
}

type Client struct {
	cfg  Config
	http *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Client {
	if hc == nil {
		hc = httpclient.New(httpclient.DefaultTimeout)
	}
	return &Client{cfg: cfg, http: hc}
}

var _ oauth.Provider = (*Client)(nil)

func (c *Client) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("access_type", "online")
	q.Set("state", state)
	return authEndpoint + "?" + q.Encode()
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (oauth.Token, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return oauth.Token{}, oauth.ErrExchangeFailed
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("redirect_uri", c.cfg.RedirectURL)
	form.Set("grant_type", "authorization_code")

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.http.PostForm(ctx, tokenEndpoint, form, &resp); err != nil {
		return oauth.Token{}, fmt.Errorf("%w: %v", oauth.ErrExchangeFailed, err)
	}
	if resp.AccessToken == "" {
		return oauth.Token{}, oauth.ErrExchangeFailed
	}
	return oauth.Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
	}, nil
}

func (c *Client) FetchProfile(ctx context.Context, tok oauth.Token) (oauth.Profile, error) {
	if tok.AccessToken == "" {
		return oauth.Profile{}, oauth.ErrProfileFailed
	}

	var resp struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
	}
	headers := map[string]string{"Authorization": "Bearer " + tok.AccessToken}
	if err := c.http.GetJSON(ctx, userinfoEndpoint, headers, &resp); err != nil {
		return oauth.Profile{}, fmt.Errorf("%w: %v", oauth.ErrProfileFailed, err)
	}
	if resp.Email == "" {
		return oauth.Profile{}, oauth.ErrProfileFailed
	}
	return oauth.Profile{
		Email:         resp.Email,
		VerifiedEmail: resp.VerifiedEmail,
		GivenName:     resp.GivenName,
		FamilyName:    resp.FamilyName,
		Picture:       resp.Picture,
	}, nil
}
