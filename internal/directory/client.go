// Package directory implements the external directory validation
// collaborator. The authorization core consults it only at grant time, to
// confirm a free-text identifier names a real directory principal and to
// obtain its display name.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fundtrack/internal/domain"
)

var _ domain.DirectoryValidator = (*HTTPValidator)(nil)

// HTTPValidator validates identifiers against a directory gateway exposing
// GET {base}/principals/{identifier} returning {"identifier": ..., "display_name": ...}.
// A 404 means the identifier is unknown, which Search reports as (nil, nil).
type HTTPValidator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPValidator creates a validator for the given gateway base URL.
func NewHTTPValidator(baseURL string, timeout time.Duration) *HTTPValidator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPValidator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Search looks up the identifier in the directory.
func (v *HTTPValidator) Search(ctx context.Context, identifier string) (*domain.DirectoryPrincipal, error) {
	u := v.baseURL + "/principals/" + url.PathEscape(identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Identifier  string `json:"identifier"`
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode directory response: %w", err)
		}
		if body.Identifier == "" {
			body.Identifier = identifier
		}
		return &domain.DirectoryPrincipal{
			Identifier:  body.Identifier,
			DisplayName: body.DisplayName,
		}, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}
}

// StaticValidator resolves identifiers from a fixed in-memory set. It backs
// deployments without a directory gateway and the admin CLI's seed command.
type StaticValidator struct {
	principals map[string]string // identifier -> display name
}

// NewStaticValidator creates a validator over a fixed identifier set.
func NewStaticValidator(principals map[string]string) *StaticValidator {
	return &StaticValidator{principals: principals}
}

// Search looks up the identifier in the fixed set.
func (v *StaticValidator) Search(_ context.Context, identifier string) (*domain.DirectoryPrincipal, error) {
	name, ok := v.principals[identifier]
	if !ok {
		return nil, nil
	}
	return &domain.DirectoryPrincipal{Identifier: identifier, DisplayName: name}, nil
}
