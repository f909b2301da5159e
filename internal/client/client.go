package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"advocatehub/pkg/models"
)

const DefaultBaseURL = "http://localhost:8080"

// ErrLoadFailed is what callers see for any search failure other than
// cancellation.
var ErrLoadFailed = errors.New("failed to load advocates")

// Client talks to the directory's HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Search calls GET /advocates. limit and offset are sent only when
// positive so the server applies its defaults otherwise.
func (c *Client) Search(ctx context.Context, q string, limit, offset int) (models.Page, error) {
	u, err := url.Parse(c.BaseURL + "/advocates")
	if err != nil {
		return models.Page{}, fmt.Errorf("invalid base url: %w", err)
	}
	qv := u.Query()
	if q != "" {
		qv.Set("q", q)
	}
	if limit > 0 {
		qv.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		qv.Set("offset", strconv.Itoa(offset))
	}
	u.RawQuery = qv.Encode()

	var page models.Page
	if err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &page); err != nil {
		return models.Page{}, err
	}
	if page.Data == nil {
		page.Data = []models.Advocate{}
	}
	return page, nil
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login exchanges the admin password for a token and keeps it on c.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var resp loginResponse
	payload := map[string]string{"password": password}
	if err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/auth/login", payload, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("empty token in login response")
	}
	c.Token = resp.Token
	return resp.Token, nil
}

// Seed asks the server to load its bundled dataset into the store.
func (c *Client) Seed(ctx context.Context) (int, error) {
	var resp struct {
		Inserted int `json:"inserted"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.BaseURL+"/advocates/seed", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Inserted, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
