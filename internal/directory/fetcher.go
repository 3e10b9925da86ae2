package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Fetcher retrieves the full user list.
type Fetcher interface {
	FetchUsers(ctx context.Context) ([]User, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]User, error)

// FetchUsers calls f.
func (f FetcherFunc) FetchUsers(ctx context.Context) ([]User, error) {
	return f(ctx)
}

// HTTPFetcher loads users with a GET on URL. The endpoint takes no
// parameters and returns a JSON array; filtering happens client side.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher for the given users endpoint.
func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{URL: url, Client: client}
}

// FetchUsers implements Fetcher.
func (f *HTTPFetcher) FetchUsers(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build users request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch users: %w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
