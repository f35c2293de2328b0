// Package auth supplies Gmail bearer tokens obtained outside this program.
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// ErrTokenNotSet indicates no OAuth token is available.
var ErrTokenNotSet = errors.New("no token defined")

// Source yields an access token or ErrTokenNotSet.
type Source interface {
	AccessToken(ctx context.Context) (string, error)
}

// NewTokenSource resolves src once and wraps the token for oauth2 HTTP clients.
func NewTokenSource(ctx context.Context, src Source) (oauth2.TokenSource, error) {
	tok, err := src.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("src.AccessToken failed: %w", err)
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil, ErrTokenNotSet
	}

	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}), nil
}

// EnvSource reads the token from an environment variable.
type EnvSource struct {
	Name string
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

func (s EnvSource) AccessToken(_ context.Context) (string, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	v, ok := lookup(s.Name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", ErrTokenNotSet
	}
	return strings.TrimSpace(v), nil
}

// FileSource reads an oauth2.Token persisted as JSON, e.g. a token cached by another Gmail tool.
// A missing file is reported as ErrTokenNotSet.
type FileSource struct {
	Path string
}

func (s FileSource) AccessToken(_ context.Context) (string, error) {
	if s.Path == "" {
		return "", ErrTokenNotSet
	}

	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrTokenNotSet
		}
		return "", fmt.Errorf("os.Open failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return "", fmt.Errorf("json.NewDecoder.Decode failed: %w", err)
	}
	if token.AccessToken == "" {
		return "", ErrTokenNotSet
	}

	return token.AccessToken, nil
}

// PromptSource asks for the token on Out and reads one line from In.
type PromptSource struct {
	In     io.Reader
	Out    io.Writer
	Prompt string
}

func (s PromptSource) AccessToken(_ context.Context) (string, error) {
	if s.Prompt != "" {
		if _, err := fmt.Fprintln(s.Out, s.Prompt); err != nil {
			return "", fmt.Errorf("fmt.Fprintln failed: %w", err)
		}
	}

	sc := bufio.NewScanner(s.In)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return "", ErrTokenNotSet
	}

	tok := strings.TrimSpace(sc.Text())
	if tok == "" {
		return "", ErrTokenNotSet
	}
	return tok, nil
}

// Chain tries each source in order and returns the first token found.
type Chain []Source

func (c Chain) AccessToken(ctx context.Context) (string, error) {
	for _, src := range c {
		tok, err := src.AccessToken(ctx)
		if errors.Is(err, ErrTokenNotSet) {
			continue
		}
		if err != nil {
			return "", err
		}
		return tok, nil
	}
	return "", ErrTokenNotSet
}
