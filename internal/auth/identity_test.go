package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestSignInStoresTokenAndNotifies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:signInWithPassword") {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("key: %s", r.URL.RawQuery)
		}
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "a@example.com" || body.Password != "pw" {
			t.Errorf("body: %+v", body)
		}
		_, _ = w.Write([]byte(`{"idToken":"tok-123","localId":"u1"}`))
	}))
	defer ts.Close()

	c := NewIdentityClient(ts.URL, "api-key")
	fired := 0
	cancel := c.Subscribe(func() { fired++ })
	defer cancel()

	if err := c.SignIn(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	tok, ok := c.CurrentToken()
	if !ok || tok != "tok-123" {
		t.Fatalf("token: %q %v", tok, ok)
	}
	if fired != 1 {
		t.Fatalf("listener fired %d times", fired)
	}
}

func TestSignInSurfacesServerMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"INVALID_PASSWORD"}}`))
	}))
	defer ts.Close()

	c := NewIdentityClient(ts.URL, "k")
	err := c.SignIn(context.Background(), "a@example.com", "bad")
	if err == nil || !strings.Contains(err.Error(), "INVALID_PASSWORD") {
		t.Fatalf("err: %v", err)
	}
	if _, ok := c.CurrentToken(); ok {
		t.Fatal("failed sign-in must not leave a token")
	}
}

func TestSignOutClearsTokenAndNotifies(t *testing.T) {
	c := NewIdentityClient("http://unused", "k")
	c.UseToken("tok")
	fired := 0
	cancel := c.Subscribe(func() { fired++ })

	c.SignOut()
	if _, ok := c.CurrentToken(); ok {
		t.Fatal("token survived sign-out")
	}
	if fired != 1 {
		t.Fatalf("listener fired %d times", fired)
	}
	cancel()
	c.UseToken("again")
	if fired != 1 {
		t.Fatal("cancelled listener still fired")
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	if tok, err := LoadToken(path); err != nil || tok != "" {
		t.Fatalf("missing file: tok=%q err=%v", tok, err)
	}
	if err := SaveToken(path, "tok-1"); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadToken(path)
	if err != nil || tok != "tok-1" {
		t.Fatalf("tok=%q err=%v", tok, err)
	}
	if err := ClearToken(path); err != nil {
		t.Fatal(err)
	}
	if err := ClearToken(path); err != nil {
		t.Fatal("clearing an absent token must be a no-op")
	}
}
