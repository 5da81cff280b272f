package client

import "net/http"

// StatusText returns the canonical reason phrase for an HTTP status code,
// or an empty string when the code is not a registered status. The API's
// own extension codes (456, 529) have no reason phrase.
func StatusText(code int) string {
	return http.StatusText(code)
}
