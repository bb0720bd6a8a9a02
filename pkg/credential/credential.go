// Package credential resolves the viewer's Chozy access token.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrTokenNotFound = errors.New("token not found")

	// ErrUnauthorized marks failures where the server rejected the credential.
	ErrUnauthorized = errors.New("credential rejected")
)

const (
	defaultTokenType = "Bearer"
	tokenFile        = "token.json"

	// DevTokenEnv holds a development token used when no login has been stored.
	DevTokenEnv = "CHOZY_DEV_ACCESS_TOKEN"
)

// Credential is an access token plus its scheme.
type Credential struct {
	AccessToken string `json:"access_token"` // #nosec G117 - JSON field for the access token, not an exposed secret
	TokenType   string `json:"token_type"`
}

// Header returns the Authorization header value.
func (c Credential) Header() string {
	typ := c.TokenType
	if typ == "" {
		typ = defaultTokenType
	}
	return typ + " " + c.AccessToken
}

// Source yields the current viewer credential, if any.
type Source interface {
	Credential(ctx context.Context) (Credential, bool)
}

// Static always returns the same credential; an empty token means absent.
type Static Credential

func (s Static) Credential(context.Context) (Credential, bool) {
	return Credential(s), s.AccessToken != ""
}

// EnvSource reads the development token from the environment.
type EnvSource struct {
	Key string
}

func (e EnvSource) Credential(context.Context) (Credential, bool) {
	key := e.Key
	if key == "" {
		key = DevTokenEnv
	}
	token := strings.TrimSpace(os.Getenv(key))
	if token == "" {
		return Credential{}, false
	}
	return Credential{AccessToken: token, TokenType: defaultTokenType}, true
}

// Chain tries each source in order and returns the first credential found.
type Chain []Source

func (c Chain) Credential(ctx context.Context) (Credential, bool) {
	for _, s := range c {
		if cred, ok := s.Credential(ctx); ok {
			return cred, true
		}
	}
	return Credential{}, false
}

// Store persists the logged-in credential as JSON in a directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, tokenFile)
}

func (s *Store) Save(cred Credential) error {
	if cred.AccessToken == "" {
		return errors.New("empty access token")
	}
	if cred.TokenType == "" {
		cred.TokenType = defaultTokenType
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	return os.WriteFile(s.path(), data, 0600)
}

func (s *Store) Load() (Credential, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return Credential{}, ErrTokenNotFound
		}
		return Credential{}, fmt.Errorf("failed to read token: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	if cred.AccessToken == "" {
		return Credential{}, ErrTokenNotFound
	}

	return cred, nil
}

// Clear removes the stored credential. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// Credential implements Source.
func (s *Store) Credential(context.Context) (Credential, bool) {
	cred, err := s.Load()
	if err != nil {
		return Credential{}, false
	}
	return cred, true
}
