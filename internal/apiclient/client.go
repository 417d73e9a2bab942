// Package apiclient talks to the time-ledger API and implements
// store.Backend over it.
package apiclient

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

	"time-ledger/internal/tracker"
)

// APIError is a failed API call as reported by the server envelope.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%d): %s", e.Status, e.Code, e.Message)
}

// IsUnauthorized reports whether err means the token is missing or expired.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsConflict reports whether err is a 409, e.g. a second active timer.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is an authenticated API client.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// do sends body as JSON and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// ---------- auth ----------

type User struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, username, password string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/register", credentials{username, password}, &out)
	return out.User, err
}

// Login stores the issued token on c and returns it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{username, password}, &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/me", nil, &out)
	return out.User, err
}

// ---------- store.Backend ----------

func (c *Client) ListClients(ctx context.Context) ([]tracker.Client, error) {
	var out struct {
		Items []tracker.Client `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/clients", nil, &out)
	return out.Items, err
}

func (c *Client) CreateClient(ctx context.Context, name, color string) (tracker.Client, error) {
	var out struct {
		Client tracker.Client `json:"client"`
	}
	body := map[string]string{"name": name, "color": color}
	err := c.do(ctx, http.MethodPost, "/api/clients", body, &out)
	return out.Client, err
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/clients/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListEntries(ctx context.Context) ([]tracker.TimeEntry, error) {
	var out struct {
		Items []tracker.TimeEntry `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/entries", nil, &out)
	return out.Items, err
}

func (c *Client) CreateEntry(ctx context.Context, e tracker.TimeEntry) (tracker.TimeEntry, error) {
	var out struct {
		Entry tracker.TimeEntry `json:"entry"`
	}
	err := c.do(ctx, http.MethodPost, "/api/entries", e, &out)
	return out.Entry, err
}

func (c *Client) CreateEntries(ctx context.Context, es []tracker.TimeEntry) ([]tracker.TimeEntry, error) {
	var out struct {
		Items []tracker.TimeEntry `json:"items"`
	}
	body := map[string][]tracker.TimeEntry{"entries": es}
	err := c.do(ctx, http.MethodPost, "/api/entries/bulk", body, &out)
	return out.Items, err
}

func (c *Client) UpdateEntry(ctx context.Context, e tracker.TimeEntry) (tracker.TimeEntry, error) {
	var out struct {
		Entry tracker.TimeEntry `json:"entry"`
	}
	err := c.do(ctx, http.MethodPut, "/api/entries/"+url.PathEscape(e.ID), e, &out)
	return out.Entry, err
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/entries/"+url.PathEscape(id), nil, nil)
}

// ---------- server-side views ----------

// Analytics is the server's aggregation for a filter.
type Analytics struct {
	Report      tracker.Report `json:"report"`
	RecentTasks []string       `json:"recent_tasks"`
}

func (c *Client) Analytics(ctx context.Context, filter tracker.DateFilter) (Analytics, error) {
	var out Analytics
	err := c.do(ctx, http.MethodGet, "/api/analytics?filter="+url.QueryEscape(string(filter)), nil, &out)
	return out, err
}

// Timer is the server's view of the active entry. Entry is nil when idle.
type Timer struct {
	Entry     *tracker.TimeEntry  `json:"entry"`
	State     string              `json:"state"`
	Effective int64               `json:"effective"`
	Display   string              `json:"display"`
	Goal      *tracker.GoalStatus `json:"goal"`
}

func (c *Client) Timer(ctx context.Context) (Timer, error) {
	var out Timer
	err := c.do(ctx, http.MethodGet, "/api/timer", nil, &out)
	return out, err
}

// Backup is one stored snapshot.
type Backup struct {
	ID        uint      `json:"id"`
	FileName  string    `json:"file_name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) CreateBackup(ctx context.Context) (Backup, error) {
	var out struct {
		Backup Backup `json:"backup"`
	}
	err := c.do(ctx, http.MethodPost, "/api/backups", nil, &out)
	return out.Backup, err
}

func (c *Client) ListBackups(ctx context.Context) ([]Backup, error) {
	var out struct {
		Items []Backup `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/backups", nil, &out)
	return out.Items, err
}

func (c *Client) RestoreBackup(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/backups/%d/restore", id), nil, nil)
}
