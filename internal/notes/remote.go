package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnexpectedStatus is wrapped when the notes API answers with a non-2xx
// status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Envelope is a note on the wire: an id plus a JSON-encoded body string.
type Envelope struct {
	ID   string `json:"id,omitempty"`
	Body string `json:"body"`
}

// Body is the decoded content of Envelope.Body.
type Body struct {
	Title         string `json:"title"`
	Text          string `json:"text"`
	LastUpdatedAt string `json:"last_updated_at,omitempty"`
	IsDeleted     bool   `json:"is_deleted,omitempty"`
}

// EncodeEnvelope builds the wire form of n. A zero update time is sent as
// now.
func EncodeEnvelope(n Note, now time.Time) (Envelope, error) {
	ts := n.LastUpdatedAt
	if ts.IsZero() {
		ts = now
	}
	b, err := json.Marshal(Body{
		Title:         n.Title,
		Text:          n.Text,
		LastUpdatedAt: ts.UTC().Format(time.RFC3339Nano),
		IsDeleted:     n.IsDeleted,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("encode body: %w", err)
	}
	return Envelope{ID: n.ID, Body: string(b)}, nil
}

// DecodeEnvelope parses the wire form. An unparsable timestamp leaves
// LastUpdatedAt zero.
func DecodeEnvelope(e Envelope) (Note, error) {
	var b Body
	if err := json.Unmarshal([]byte(e.Body), &b); err != nil {
		return Note{}, fmt.Errorf("decode body of %s: %w", e.ID, err)
	}
	n := Note{ID: e.ID, Title: b.Title, Text: b.Text, IsDeleted: b.IsDeleted}
	if t, err := time.Parse(time.RFC3339Nano, b.LastUpdatedAt); err == nil {
		n.LastUpdatedAt = t
	}
	return n, nil
}

// Client is the remote notes backend.
type Client struct {
	base   string
	client *http.Client
	now    func() time.Time
}

// NewClient returns a client for {baseURL}/{sessionID}. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL, sessionID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(sessionID),
		client: httpClient,
		now:    time.Now,
	}
}

// List returns the notes that are not deleted, newest first.
func (c *Client) List(ctx context.Context) ([]Note, error) {
	var envs []Envelope
	if err := c.do(ctx, http.MethodGet, "/notes", nil, &envs); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	notes := make([]Note, 0, len(envs))
	for _, e := range envs {
		n, err := DecodeEnvelope(e)
		if err != nil {
			return nil, err
		}
		if !n.IsDeleted {
			notes = append(notes, n)
		}
	}
	SortByDate(notes)
	return notes, nil
}

// Get fetches one note. A 404 or a deleted note yields ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*Note, error) {
	var e Envelope
	if err := c.do(ctx, http.MethodGet, "/notes/"+url.PathEscape(id), nil, &e); err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	n, err := DecodeEnvelope(e)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted {
		return nil, fmt.Errorf("get note: %w: %s", ErrNotFound, id)
	}
	return &n, nil
}

// Create posts a new note and returns it as stored by the server.
func (c *Client) Create(ctx context.Context, n Note) (*Note, error) {
	n.ID = ""
	n.LastUpdatedAt = c.now()
	return c.send(ctx, http.MethodPost, "/notes", n)
}

// Update replaces a note.
func (c *Client) Update(ctx context.Context, n Note) (*Note, error) {
	n.LastUpdatedAt = c.now()
	return c.send(ctx, http.MethodPut, "/notes/"+url.PathEscape(n.ID), n)
}

// Delete marks a note deleted with a PUT.
func (c *Client) Delete(ctx context.Context, n Note) error {
	n.IsDeleted = true
	n.LastUpdatedAt = c.now()
	_, err := c.send(ctx, http.MethodPut, "/notes/"+url.PathEscape(n.ID), n)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, n Note) (*Note, error) {
	env, err := EncodeEnvelope(n, c.now())
	if err != nil {
		return nil, err
	}
	var out Envelope
	if err := c.do(ctx, method, path, Envelope{Body: env.Body}, &out); err != nil {
		return nil, fmt.Errorf("%s note: %w", strings.ToLower(method), err)
	}
	saved, err := DecodeEnvelope(out)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
