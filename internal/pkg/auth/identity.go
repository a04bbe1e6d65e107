package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
)

// IdentitySession is a verified delegated session at the external provider.
type IdentitySession struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// IdentityUser is the provider-side identity record.
type IdentityUser struct {
	ID             string   `json:"id"`
	EmailAddresses []string `json:"email_addresses"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	AvatarURL      string   `json:"avatar_url"`
}

// PrimaryEmail returns the first email address, or empty.
func (u *IdentityUser) PrimaryEmail() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return u.EmailAddresses[0]
}

// IdentityProvider resolves delegated session credentials at the external
// identity service.
type IdentityProvider interface {
	ResolveSession(ctx context.Context, sessionToken string) (*IdentitySession, error)
	FetchUser(ctx context.Context, userID string) (*IdentityUser, error)
}

// HTTPIdentityProvider talks to the identity service over its REST API.
type HTTPIdentityProvider struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewHTTPIdentityProviderFromEnv reads IDENTITY_API_URL and
// IDENTITY_SECRET_KEY.
func NewHTTPIdentityProviderFromEnv() *HTTPIdentityProvider {
	return &HTTPIdentityProvider{
		BaseURL:   strings.TrimRight(env.GetEnv("IDENTITY_API_URL", ""), "/"),
		SecretKey: strings.TrimSpace(env.GetEnv("IDENTITY_SECRET_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ResolveSession verifies a delegated session token and returns the
// provider-side session and user ids.
func (p *HTTPIdentityProvider) ResolveSession(ctx context.Context, sessionToken string) (*IdentitySession, error) {
	payload, err := json.Marshal(map[string]string{"token": sessionToken})
	if err != nil {
		return nil, err
	}

	var out IdentitySession
	if err := p.do(ctx, http.MethodPost, "/sessions/verify", payload, &out); err != nil {
		return nil, err
	}
	if out.UserID == "" {
		return nil, apperror.New(apperror.KindUpstreamAuth, "Identity provider returned no user for session")
	}
	return &out, nil
}

// FetchUser loads the provider-side identity record.
func (p *HTTPIdentityProvider) FetchUser(ctx context.Context, userID string) (*IdentityUser, error) {
	var out IdentityUser
	if err := p.do(ctx, http.MethodGet, "/users/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *HTTPIdentityProvider) do(ctx context.Context, method, path string, payload []byte, out any) error {
	if p.BaseURL == "" {
		return apperror.New(apperror.KindUpstreamAuth, "Identity provider is not configured")
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return apperror.Wrap(apperror.KindUpstreamTimeout, "Identity provider did not respond in time", err)
		}
		return apperror.Wrap(apperror.KindUpstreamAuth, "Identity provider unreachable", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.New(apperror.KindUpstreamAuth, fmt.Sprintf("Identity provider rejected the request: status=%d", resp.StatusCode))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Wrap(apperror.KindUpstreamAuth, "Malformed identity provider response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
