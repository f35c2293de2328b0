package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const keyringService = "gmail-probe"

// OpenKeyring opens the system keyring used to store access tokens.
func OpenKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/gmail-probe/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("gmail-probe-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// KeyringSource reads the token stored under Key.
type KeyringSource struct {
	Ring keyring.Keyring
	Key  string
}

func (s KeyringSource) AccessToken(_ context.Context) (string, error) {
	if s.Ring == nil || s.Key == "" {
		return "", ErrTokenNotSet
	}

	item, err := s.Ring.Get(s.Key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrTokenNotSet
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", s.Key, err)
	}
	if len(item.Data) == 0 {
		return "", ErrTokenNotSet
	}

	return string(item.Data), nil
}
