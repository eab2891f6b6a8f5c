package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"hidehate/internal/metrics"
	"hidehate/internal/model"
	"hidehate/internal/timeline"
)

// TokenSource supplies the bearer token for user-scoped calls. The second
// return is false when no session token exists.
type TokenSource interface {
	CurrentToken() (string, bool)
}

// APIError is a non-2xx response from the hide-hate API. Msg carries the
// server's {"msg": ...} body when present.
type APIError struct {
	Status     int
	StatusText string
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("api status %d %s: %s", e.Status, e.StatusText, e.Msg)
	}
	return fmt.Sprintf("api status %d %s", e.Status, e.StatusText)
}

// PostResponse is the result of POST /post. An empty Timelines together with
// MayHate means the post was held back pending user confirmation.
type PostResponse struct {
	MayHate   bool              `json:"may_hate"`
	Timelines []timeline.Record `json:"timelines"`
}

// Client is a bearer-token JSON client for the hide-hate API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client for baseURL. tokens may be nil for a fully
// unauthenticated client.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    newDefaultLimiter(),
	}
}

// FetchTimelines performs GET /fetch. No token is attached; the timeline is
// public.
func (c *Client) FetchTimelines(ctx context.Context) ([]timeline.Record, error) {
	var out struct {
		Timelines []timeline.Record `json:"timelines"`
	}
	if err := c.do(ctx, http.MethodGet, "/fetch", nil, false, &out); err != nil {
		return nil, err
	}
	return out.Timelines, nil
}

// GetUser performs POST /user/get with the bearer token.
func (c *Client) GetUser(ctx context.Context) (model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/get", struct{}{}, true, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// CreatePost performs POST /post. acceptMayHate is the explicit go-ahead for
// content the server flagged on a prior attempt.
func (c *Client) CreatePost(ctx context.Context, content string, acceptMayHate bool) (PostResponse, error) {
	body := struct {
		Content       string `json:"content"`
		AcceptMayHate bool   `json:"accept_may_hate"`
	}{Content: content, AcceptMayHate: acceptMayHate}
	var out PostResponse
	if err := c.do(ctx, http.MethodPost, "/post", body, true, &out); err != nil {
		return PostResponse{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	var req *http.Request
	var err error
	if rd != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=utf-8")
	}
	if authed && c.tokens != nil {
		if tok, ok := c.tokens.CurrentToken(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	metrics.IncAPIRequest(path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIError(path)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		metrics.IncAPIError(path)
		var eb struct {
			Msg string `json:"msg"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &APIError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Msg:        eb.Msg,
		}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
