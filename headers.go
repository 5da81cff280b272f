package client

import (
	"net/http"
	"strings"
)

const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "x-Authorization"

	mimeJSON = "application/json"
)

// ComposeHeaders builds the ordered header lines sent with a request: the two
// JSON defaults, the auth header when token is valid, and then overrides as
// given. Lines are not de-duplicated; when applied, a later line replaces an
// earlier one with the same name.
func ComposeHeaders(token *AuthToken, overrides []string) []string {
	headers := make([]string, 0, 3+len(overrides))
	headers = append(headers,
		headerContentType+": "+mimeJSON,
		headerAccept+": "+mimeJSON,
	)

	if token.Valid() {
		headers = append(headers, headerAuthorization+": "+*token.TokenType+" "+*token.AccessToken)
	}

	return append(headers, overrides...)
}

// applyHeaders writes header lines into h in order. A line "Name:" with an
// empty value removes the header; lines without a name are skipped.
func applyHeaders(h http.Header, lines []string) {
	for _, line := range lines {
		name, value, ok := splitHeaderLine(line)
		if !ok {
			continue
		}

		if value == "" {
			h.Del(name)
			continue
		}

		h.Set(name, value)
	}
}

func splitHeaderLine(line string) (name, value string, ok bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}

	return name, strings.TrimSpace(value), true
}

// HeaderLine formats a header name and value as a single line.
func HeaderLine(name, value string) string {
	return name + ": " + value
}
