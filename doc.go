// Package client provides an HTTP client for the export management API:
// exports (recurring or one-off data extraction jobs) and the export files
// they generate.
//
// The client wraps [github.com/go-resty/resty/v2]. Every call performs
// exactly one request and reports its outcome as a [Result], whichever
// endpoint was called.
//
// # Basic Usage
//
//	c := client.New("https://exports.example.com/api",
//	    client.WithCredentials("user", "secret"),
//	    client.WithZapLogger(logger),
//	)
//
//	if err := c.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	reply, err := c.GetExport(ctx, "42", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := reply.Err(); err != nil {
//	    log.Printf("transport failure: %v", err)
//	}
//	fmt.Println(reply.StatusCode, reply.Status, reply.Data)
//
// # Results and Errors
//
// Methods return a Go error only when a request cannot be made at all: the
// client is not connected, the download destination cannot be opened, and
// so on. HTTP error statuses are not errors; they are reported through
// [Result.StatusCode] and [Result.Status] with the body intact. Failures
// below HTTP (DNS, connect, TLS, timeouts) set [Result.ErrorCode] to a
// non-zero [ErrorCode] and leave the body empty.
//
// Reply bodies are decoded as JSON into [Reply.Data]. A body that does not
// decode yields an empty map rather than an error.
//
// There are no retries: a failed attempt is final.
//
// # Authentication
//
// [Client.Login] posts the credentials and stores the returned token. Every
// later request carries it as "x-Authorization: <token_type> <access_token>"
// when both fields are present. The token's expiry is not tracked and it is
// never refreshed. A login whose response is not JSON clears the token.
//
// # Transport
//
// Connections time out after 3 seconds and whole requests after 30
// ([WithConnectTimeout], [WithTimeout]). Redirects are returned, not
// followed. Environment proxies are ignored. TLS certificates are NOT
// verified by default; call [WithInsecureSkipVerify] with false to verify
// them.
//
// # Headers
//
// Each request starts with "Content-Type: application/json" and
// "Accept: application/json", then the auth header, then any headers passed
// with [WithHeader] or [WithHeaderLines]. A later header replaces an earlier
// one with the same name.
//
// # Logging
//
// Implement [RequestLogger], or pass a zap logger with [WithZapLogger]. The
// default [NoopLogger] discards everything. Passwords and tokens are never
// logged, and export file hashes are masked in logged URLs.
package client
