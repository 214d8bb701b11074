package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
)

// ErrSessionInvalid signals a 401 from any endpoint. It means the token is
// gone or revoked, not that this particular request was wrong, so callers
// treat it as a session event rather than an operation failure.
var ErrSessionInvalid = errors.New("session is not valid")

// APIError is a non-401 error response from the server.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Identity describes the authenticated operator as reported by the server.
type Identity struct {
	ID    uuid.UUID     `json:"id"`
	Name  string        `json:"name"`
	Roles []domain.Role `json:"roles"`
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role domain.Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ArchiveResult is the server's reply to an archive request.
type ArchiveResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Client is a typed HTTP client for the pigweb API.
type Client struct {
	http *resty.Client
}

// New creates a new API client.
// Parameters:
//   - baseURL: server base URL, e.g. http://localhost:8080.
//   - token: bearer token identifying the operator.
// Returns:
//   - *Client: initialized client.
func New(baseURL, token string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient}
}

// CheckAuth probes the session and returns the operator's identity.
func (c *Client) CheckAuth(ctx context.Context) (*Identity, error) {
	var identity Identity
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&identity).
		Get("/api/auth")
	if err != nil {
		return nil, fmt.Errorf("auth check failed: %w", err)
	}
	if err := c.apiError(resp); err != nil {
		return nil, err
	}
	return &identity, nil
}

// CreateImport submits the raw name list and returns the classified import.
func (c *Client) CreateImport(ctx context.Context, names []string) (*domain.BulkImport, error) {
	var imp domain.BulkImport
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(names).
		SetResult(&imp).
		Post("/api/bulk/create")
	if err != nil {
		return nil, fmt.Errorf("bulk create failed: %w", err)
	}
	if err := c.apiError(resp); err != nil {
		return nil, err
	}
	return &imp, nil
}

// PatchImport applies the actions server-side. The patch is returned on
// success so the caller can merge the exact same actions into its cache.
func (c *Client) PatchImport(ctx context.Context, patch *domain.BulkPatch) (*domain.BulkPatch, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(patch).
		Patch("/api/bulk/patch")
	if err != nil {
		return nil, fmt.Errorf("bulk patch failed: %w", err)
	}
	if err := c.apiError(resp); err != nil {
		return nil, err
	}
	return patch, nil
}

// FetchImports lists imports matching the filter.
func (c *Client) FetchImports(ctx context.Context, filter domain.BulkFilter) ([]domain.BulkImport, error) {
	req := c.http.R().SetContext(ctx)
	for _, id := range filter.IDs {
		req.QueryParam.Add("id", id.String())
	}
	for _, creator := range filter.Creators {
		req.QueryParam.Add("creator", creator.String())
	}
	if filter.Limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", filter.Limit))
	}
	if filter.Offset > 0 {
		req.SetQueryParam("offset", fmt.Sprintf("%d", filter.Offset))
	}

	var imports []domain.BulkImport
	resp, err := req.SetResult(&imports).Get("/api/bulk/fetch")
	if err != nil {
		return nil, fmt.Errorf("bulk fetch failed: %w", err)
	}
	if err := c.apiError(resp); err != nil {
		return nil, err
	}
	return imports, nil
}

// ArchiveImport asks the server to export a finished import.
func (c *Client) ArchiveImport(ctx context.Context, id uuid.UUID) (*ArchiveResult, error) {
	var result ArchiveResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", id.String()).
		SetResult(&result).
		Post("/api/bulk/archive")
	if err != nil {
		return nil, fmt.Errorf("bulk archive failed: %w", err)
	}
	if err := c.apiError(resp); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreatePig creates one canonical record directly.
func (c *Client) CreatePig(ctx context.Context, name string) (*domain.Pig, error) {
	var pig domain.Pig
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		SetResult(&pig).
		Post("/api/pigs/create")
	if err != nil {
		return nil, fmt.Errorf("pig create failed: %w", err)
	}
	if err := c.apiError(resp); err != nil {
		return nil, err
	}
	return &pig, nil
}

// FetchPigs queries records by name, by IDs, or both.
func (c *Client) FetchPigs(ctx context.Context, name string, ids []uuid.UUID) ([]domain.Pig, error) {
	req := c.http.R().SetContext(ctx)
	if name != "" {
		req.SetQueryParam("name", name)
	}
	for _, id := range ids {
		req.QueryParam.Add("id", id.String())
	}

	var pigs []domain.Pig
	resp, err := req.SetResult(&pigs).Get("/api/pigs/fetch")
	if err != nil {
		return nil, fmt.Errorf("pig fetch failed: %w", err)
	}
	if err := c.apiError(resp); err != nil {
		return nil, err
	}
	return pigs, nil
}

// apiError converts a non-2xx response into an error, pulling the message
// out of the standard error body when present.
func (c *Client) apiError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}

	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(resp.Body(), &body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status()
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrSessionInvalid, msg)
	}
	return &APIError{Code: resp.StatusCode(), Message: msg}
}
