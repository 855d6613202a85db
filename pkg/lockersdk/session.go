package lockersdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Session is an authenticated handle. It is safe for concurrent use; its
// fields never change after creation.
type Session struct {
	client      *Client
	accessToken string
	expiresAt   time.Time
}

// NewSession wraps an access token obtained elsewhere. expiresIn is in
// seconds; zero or less means the expiry is unknown and never checked locally.
func (c *Client) NewSession(accessToken string, expiresIn int64) *Session {
	s := &Session{client: c, accessToken: accessToken}
	if expiresIn > 0 {
		s.expiresAt = c.now().Add(time.Duration(expiresIn) * time.Second)
	}
	return s
}

func (s *Session) AccessToken() string { return s.accessToken }

func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// Expired reports whether the token has passed its expiry.
func (s *Session) Expired() bool {
	return !s.expiresAt.IsZero() && !s.client.now().Before(s.expiresAt)
}

func (s *Session) token() (string, error) {
	if s.Expired() {
		return "", ErrSessionExpired
	}
	return s.accessToken, nil
}

// Me returns the authenticated user and the first page of their items.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}

	resp, err := s.client.doRequest(ctx, http.MethodGet, "/v1/users/me", tok, nil, nil)
	if err != nil {
		return nil, err
	}

	var user MeResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListItems returns the caller's items. It is never nil on success.
func (s *Session) ListItems(ctx context.Context, opts ListOptions) ([]ItemResponse, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/v1/items"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.client.doRequest(ctx, http.MethodGet, path, tok, nil, nil)
	if err != nil {
		return nil, err
	}

	items := []ItemResponse{}
	if err := decodeJSON(resp, &items, http.StatusOK); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem stores a new item owned by the caller.
func (s *Session) CreateItem(ctx context.Context, req ItemRequest) (*ItemResponse, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}

	resp, err := s.client.doJSON(ctx, http.MethodPost, "/v1/items", tok, req)
	if err != nil {
		return nil, err
	}

	var item ItemResponse
	if err := decodeJSON(resp, &item, http.StatusCreated); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Session) GetItem(ctx context.Context, id int64) (*ItemResponse, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}

	resp, err := s.client.doRequest(ctx, http.MethodGet, itemPath(id), tok, nil, nil)
	if err != nil {
		return nil, err
	}

	var item ItemResponse
	if err := decodeJSON(resp, &item, http.StatusOK); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Session) DeleteItem(ctx context.Context, id int64) error {
	tok, err := s.token()
	if err != nil {
		return err
	}

	resp, err := s.client.doRequest(ctx, http.MethodDelete, itemPath(id), tok, nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func itemPath(id int64) string {
	return fmt.Sprintf("/v1/items/%d", id)
}
