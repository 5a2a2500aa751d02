package moltin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RenewalSafetyMargin is subtracted from the reported token lifetime so a
// token is renewed before it can expire mid-request, tolerating clock skew
// between this process and the issuer.
const RenewalSafetyMargin = 200 * time.Second

// accessToken is the single process-wide token shared by all sessions. It is
// replaced wholesale on renewal, never partially mutated.
type accessToken struct {
	value      string
	expiresIn  int
	obtainedAt time.Time
}

// stale reports whether the token must be renewed before use.
func (t accessToken) stale(now time.Time) bool {
	if t.value == "" {
		return true
	}
	elapsed := now.Sub(t.obtainedAt)
	return elapsed+RenewalSafetyMargin > time.Duration(t.expiresIn)*time.Second
}

// ensureToken returns a token that is valid for the request about to be made,
// renewing the cached one first if it is stale. Renewal is a critical
// section: the mutex is held across the token request, and waiters re-check
// staleness after acquiring it, so concurrent stale observations collapse
// into a single renewal and every caller leaves with the same new token.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.token.stale(c.now()) {
		return c.token.value, nil
	}

	slog.Debug("moltin: renewing access token", "had_token", c.token.value != "")
	token, err := c.fetchToken(ctx)
	if err != nil {
		return "", fmt.Errorf("renew access token: %w", err)
	}
	c.token = token
	slog.Info("moltin: access token renewed", "expires_in", token.expiresIn)
	return token.value, nil
}

// fetchToken requests a fresh client-credentials token from the issuer.
func (c *Client) fetchToken(ctx context.Context) (accessToken, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return accessToken{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return accessToken{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return accessToken{}, &UpstreamError{Op: "fetch access token", Status: resp.StatusCode}
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return accessToken{}, fmt.Errorf("decode token response: %w", err)
	}

	return accessToken{
		value:      body.AccessToken,
		expiresIn:  body.ExpiresIn,
		obtainedAt: c.now(),
	}, nil
}
