package client

import (
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RequestLogger receives the client's request, transport and login events.
// It is also handed to resty, so the method set matches [resty.Logger].
// A *zap.SugaredLogger satisfies it; see [WithZapLogger].
type RequestLogger interface {
	Errorf(format string, v ...any)
	Warnf(format string, v ...any)
	Debugf(format string, v ...any)
}

var (
	_ resty.Logger  = RequestLogger(nil)
	_ RequestLogger = (*zap.SugaredLogger)(nil)
)

// NoopLogger discards everything. It is the default.
type NoopLogger struct{}

func (l *NoopLogger) Errorf(_ string, _ ...any) {}
func (l *NoopLogger) Warnf(_ string, _ ...any)  {}
func (l *NoopLogger) Debugf(_ string, _ ...any) {}

// redactedQueryKeys hold values that grant access to an export file.
var redactedQueryKeys = []string{"hash"}

// loggableURL masks secrets in a request URL before it is logged.
func loggableURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.User = nil

	if u.RawQuery == "" {
		return u.String()
	}

	q := u.Query()
	masked := false
	for _, key := range redactedQueryKeys {
		if q.Has(key) {
			q.Set(key, "REDACTED")
			masked = true
		}
	}
	if masked {
		u.RawQuery = q.Encode()
	}

	return u.String()
}
