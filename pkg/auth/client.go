package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// forwardedHeaders carry the caller's session to the identity endpoint.
var forwardedHeaders = []string{"Cookie", "Authorization", "X-ZUMO-AUTH"}

// Client asks the platform identity endpoint who the caller is.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Principal resolves the principal of the incoming request r.
func (c *Client) Principal(ctx context.Context, r *http.Request) (*Principal, error) {
	if c.endpoint == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityEndpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	for _, h := range forwardedHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityEndpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrIdentityEndpoint, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNoPrincipal
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrIdentityEndpoint, resp.StatusCode)
	}
	return parsePrincipals(body)
}
