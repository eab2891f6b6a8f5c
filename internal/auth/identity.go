package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// IdentityClient signs in against the Identity Platform password endpoint
// and holds the resulting ID token for the session. It is used from the one
// command goroutine and does no locking.
type IdentityClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client

	token     string
	listeners map[int]func()
	nextID    int
}

// NewIdentityClient builds a client for endpoint (the emulator URL in
// development, the public endpoint otherwise).
func NewIdentityClient(endpoint, apiKey string) *IdentityClient {
	return &IdentityClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		listeners:  map[int]func(){},
	}
}

// SignIn exchanges email/password for an ID token.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) error {
	body := struct {
		Email             string `json:"email"`
		Password          string `json:"password"`
		ReturnSecureToken bool   `json:"returnSecureToken"`
	}{Email: email, Password: password, ReturnSecureToken: true}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/v1/accounts:signInWithPassword?key=%s", c.endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var eb struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error.Message != "" {
			return fmt.Errorf("sign-in failed: %s", eb.Error.Message)
		}
		return fmt.Errorf("sign-in failed: status %d", resp.StatusCode)
	}
	var out struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if out.IDToken == "" {
		return fmt.Errorf("sign-in failed: no token in response")
	}
	c.token = out.IDToken
	c.notify()
	return nil
}

// UseToken seeds a token restored from the session file.
func (c *IdentityClient) UseToken(token string) {
	c.token = token
	c.notify()
}

func (c *IdentityClient) CurrentToken() (string, bool) {
	return c.token, c.token != ""
}

func (c *IdentityClient) SignOut() {
	c.token = ""
	c.notify()
}

func (c *IdentityClient) Subscribe(fn func()) (cancel func()) {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *IdentityClient) notify() {
	for _, fn := range c.listeners {
		fn()
	}
}
