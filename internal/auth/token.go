package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// TokenAuthenticator verifies a bearer token against an auth service and
// caches the result for the session. Sign-in here means "validate the
// token"; interactive enrollment is out of scope.
type TokenAuthenticator struct {
	httpClient *http.Client
	baseURL    string
	token      string

	mu       sync.Mutex
	signedIn bool
}

// NewTokenAuthenticator builds an authenticator over a retrying HTTP
// client. Transient auth-service errors are retried before surfacing.
func NewTokenAuthenticator(baseURL, token string) *TokenAuthenticator {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	return &TokenAuthenticator{
		httpClient: retryClient.StandardClient(),
		baseURL:    baseURL,
		token:      token,
	}
}

// IsSignedIn reports whether a prior SignIn succeeded this session.
func (a *TokenAuthenticator) IsSignedIn(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signedIn
}

// SignIn validates the token against the auth service.
func (a *TokenAuthenticator) SignIn(ctx context.Context) error {
	if a.token == "" {
		return fmt.Errorf("no auth token configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/session", nil)
	if err != nil {
		return fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("session check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("session check failed: status %d", resp.StatusCode)
	}

	a.mu.Lock()
	a.signedIn = true
	a.mu.Unlock()
	return nil
}
