package client

import (
	"strings"
	"sync"
)

// AuthToken is the credential returned by the login endpoint. ExpiresIn is
// informational only: the client never checks it and never refreshes.
type AuthToken struct {
	TokenType   *string
	AccessToken *string
	ExpiresIn   *int64

	// Raw holds the decoded login response as received.
	Raw map[string]any
}

// Valid reports whether both the token type and the access token are present.
func (t *AuthToken) Valid() bool {
	return t != nil && t.TokenType != nil && t.AccessToken != nil
}

func (t *AuthToken) clone() *AuthToken {
	if t == nil {
		return nil
	}

	c := &AuthToken{}
	if t.TokenType != nil {
		v := *t.TokenType
		c.TokenType = &v
	}
	if t.AccessToken != nil {
		v := *t.AccessToken
		c.AccessToken = &v
	}
	if t.ExpiresIn != nil {
		v := *t.ExpiresIn
		c.ExpiresIn = &v
	}
	if t.Raw != nil {
		c.Raw = make(map[string]any, len(t.Raw))
		for k, v := range t.Raw {
			c.Raw[k] = v
		}
	}

	return c
}

// parseAuthToken turns a login response body into a token. It returns nil
// when the body is not valid JSON. Any other JSON value is accepted.
func parseAuthToken(body string) *AuthToken {
	var v any
	if err := jsonAPI.UnmarshalFromString(body, &v); err != nil || v == nil {
		return nil
	}

	t := &AuthToken{}

	obj, ok := v.(map[string]any)
	if !ok {
		return t
	}
	t.Raw = obj

	t.TokenType = tokenField(obj["token_type"])
	t.AccessToken = tokenField(obj["access_token"])
	if n, ok := obj["expires_in"].(float64); ok {
		secs := int64(n)
		t.ExpiresIn = &secs
	}

	return t
}

// tokenField renders a token field as header text. Only null and missing
// fields are absent; numbers and booleans are formatted, objects and arrays
// are kept as compact JSON.
func tokenField(v any) *string {
	var s string

	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case map[string]any, []any:
		raw, err := jsonAPI.MarshalToString(t)
		if err != nil {
			return nil
		}
		s = raw
	default:
		s = formatQueryValue(t)
	}

	return &s
}

// session is the per-client auth state. Login is the only writer; every
// request reads it while composing headers.
type session struct {
	baseURL string

	mu    sync.RWMutex
	token *AuthToken
}

func newSession(baseURL string) *session {
	return &session{baseURL: normalizeBaseURL(baseURL)}
}

// normalizeBaseURL makes sure the URL ends in exactly one slash.
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}

	return strings.TrimRight(baseURL, "/") + "/"
}

func (s *session) url(path string) string {
	return s.baseURL + strings.TrimLeft(path, "/")
}

func (s *session) setToken(t *AuthToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = t
}

// currentToken returns the stored token. Callers must not modify it.
func (s *session) currentToken() *AuthToken {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}
