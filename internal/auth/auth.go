// Package auth provides admin session token management.
// Tokens come from a provider chain (token file, then environment) and are
// held by a Session that the API client consults for every request.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenEnvVar is the environment variable checked by EnvProvider.
const TokenEnvVar = "LEARNHUB_TOKEN"

// ErrNoToken indicates a provider has no token to offer.
var ErrNoToken = errors.New("no token available")

// TokenProvider defines the interface for obtaining a bearer token.
// Implementations may use different sources (files, environment variables, etc).
type TokenProvider interface {
	GetToken() (string, error)
}

// TokenStore is a TokenProvider that can also persist and forget tokens.
type TokenStore interface {
	TokenProvider
	SaveToken(token string) error
	DeleteToken() error
}

// FileProvider keeps the token in a file readable only by the current user.
// It is the terminal equivalent of browser local storage.
type FileProvider struct {
	Path string
}

// GetToken reads the token file.
// Returns ErrNoToken if the file does not exist or is empty.
func (f *FileProvider) GetToken() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SaveToken writes the token with 0600 permissions, creating parent directories.
func (f *FileProvider) SaveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// DeleteToken removes the token file. A missing file is not an error.
func (f *FileProvider) DeleteToken() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// EnvProvider obtains tokens from the LEARNHUB_TOKEN environment variable.
// This is the fallback for scripted use where no login has happened.
type EnvProvider struct{}

// GetToken reads the LEARNHUB_TOKEN environment variable.
// Returns ErrNoToken if the variable is not set or is empty.
func (e *EnvProvider) GetToken() (string, error) {
	token := strings.TrimSpace(os.Getenv(TokenEnvVar))
	if token == "" {
		return "", fmt.Errorf("%w: %s environment variable not set or empty", ErrNoToken, TokenEnvVar)
	}
	return token, nil
}

// GetToken tries each provider in order and returns the first token found.
// Provider errors other than ErrNoToken are returned immediately.
func GetToken(providers ...TokenProvider) (string, error) {
	for _, p := range providers {
		token, err := p.GetToken()
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNoToken) {
			return "", err
		}
	}
	return "", ErrNoToken
}
