package auth

import (
	"context"
	"os"
	"strings"
)

// Provider is the opaque identity capability: password sign-in, a current
// token accessor, sign-out, and a change subscription. User-scoped API calls
// are skipped entirely when no token is available.
type Provider interface {
	SignIn(ctx context.Context, email, password string) error
	CurrentToken() (string, bool)
	SignOut()
	// Subscribe registers fn to run after every auth-state change. The
	// returned cancel removes the registration. Callbacks fire on the
	// goroutine that changed the state.
	Subscribe(fn func()) (cancel func())
}

// SaveToken writes the session token to path, owner-readable only.
func SaveToken(path, token string) error {
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

// LoadToken reads a previously saved session token. An absent file is not an
// error; it returns the empty token.
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ClearToken removes the saved session token if present.
func ClearToken(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
