// Package membersonly implements the client for the Members Only API.
//
// Members Only is the band's membership site. Calchart delegates
// authentication to it: users log in there, get redirected back with an API
// token, and the token is used for per-user API calls such as committee
// membership checks.
package membersonly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/shared"
)

// requestTimeout bounds every call to the Members Only API. Committee checks
// happen inline while serving pages, so a slow upstream must fail fast.
const requestTimeout = time.Second

// CommitteeChecker answers committee membership queries for a user.
type CommitteeChecker interface {
	// CheckCommittee reports whether the user is part of the given committee.
	CheckCommittee(ctx context.Context, user *models.User, committee string) (bool, error)
}

// Client provides access to the Members Only API.
type Client struct {
	domain     string
	appName    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Members Only API client from configuration.
//
// The rate limit throttles outbound calls so a burst of page loads cannot
// hammer the membership site.
func NewClient(cfg shared.MembersOnlyConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	limit := rate.Limit(cfg.Rate)
	if cfg.Rate <= 0 {
		limit = rate.Inf
	}

	return &Client{
		domain:     cfg.Domain,
		appName:    cfg.AppName,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// LoginURL builds the URL for the auth-login endpoint in the Members Only API.
//
// After authenticating, Members Only redirects the user back to bridgeURL
// with identity parameters; next is preserved through the round trip.
func (c *Client) LoginURL(bridgeURL, next string) string {
	redirectURI := url.QueryEscape(fmt.Sprintf("%s?next=%s", bridgeURL, next))
	return fmt.Sprintf("%s/api/auth-login/?redirect_uri=%s&app_name=%s", c.domain, redirectURI, c.appName)
}

// CallEndpoint calls the given Members Only API endpoint on behalf of the
// given user, returning the decoded JSON response.
func (c *Client) CallEndpoint(ctx context.Context, endpoint string, user *models.User, params url.Values) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("token", user.APIToken())

	fullURL := fmt.Sprintf("%s/api/%s/?%s", c.domain, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("members only request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("members only endpoint %s returned status %d", endpoint, resp.StatusCode)
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return data, nil
}

// CheckCommittee reports whether the user is part of the given committee.
//
// Superusers are on every committee; local Calchart users are on none.
func (c *Client) CheckCommittee(ctx context.Context, user *models.User, committee string) (bool, error) {
	if user.IsSuperuser() {
		return true, nil
	}
	if !user.IsMembersOnlyUser() {
		return false, nil
	}

	params := url.Values{}
	params.Set("committee", committee)

	data, err := c.CallEndpoint(ctx, "check-committee", user, params)
	if err != nil {
		return false, err
	}

	has, _ := data["has_committee"].(bool)
	return has, nil
}
