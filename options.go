package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Option func(*Options)

type Options struct {
	connectTimeout     time.Duration
	timeout            time.Duration
	insecureSkipVerify bool
	requestLogger      RequestLogger
	username           string
	password           string
	rateLimit          float64
	rateBurst          int
	metricsRegisterer  prometheus.Registerer
	userAgent          string
}

func newClientOptions() *Options {
	return &Options{
		connectTimeout:     3 * time.Second,
		timeout:            30 * time.Second,
		insecureSkipVerify: true,
		requestLogger:      &NoopLogger{},
	}
}

// Validate reports the first invalid setting.
func (o *Options) Validate() error {
	if o.connectTimeout <= 0 {
		return errors.New("connectTimeout must be positive")
	}

	if o.connectTimeout > time.Minute {
		return fmt.Errorf("connectTimeout must not exceed %v", time.Minute)
	}

	if o.timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if o.timeout > 10*time.Minute {
		return fmt.Errorf("timeout must not exceed %v", 10*time.Minute)
	}

	if o.timeout < o.connectTimeout {
		return fmt.Errorf("timeout (%v) must be greater than or equal to connectTimeout (%v)", o.timeout, o.connectTimeout)
	}

	if o.requestLogger == nil {
		return errors.New("requestLogger must not be nil")
	}

	if o.rateLimit < 0 {
		return errors.New("rateLimit must be non-negative")
	}

	if o.password != "" && o.username == "" {
		return errors.New("username must be set when a password is given")
	}

	return nil
}

// WithConnectTimeout bounds connection setup, TLS handshake included.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithTimeout bounds a whole request, reading the body included.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithInsecureSkipVerify controls TLS certificate and host name verification.
// Verification is skipped by default; pass false to enable it.
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *Options) {
		o.insecureSkipVerify = skip
	}
}

func WithRequestLogger(logger RequestLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger
		}
	}
}

// WithZapLogger logs through a zap logger.
func WithZapLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger.Sugar()
		}
	}
}

// WithCredentials makes [Client.Connect] log in with the given credentials.
func WithCredentials(username, password string) Option {
	return func(o *Options) {
		o.username = strings.TrimSpace(username)
		o.password = password
	}
}

// WithRateLimit caps the client at rps requests per second. Zero disables
// the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		if rps >= 0 {
			o.rateLimit = rps
			o.rateBurst = burst
		}
	}
}

// WithMetricsRegisterer registers request metrics with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.metricsRegisterer = reg
	}
}

func WithUserAgent(userAgent string) Option {
	return func(o *Options) {
		o.userAgent = strings.TrimSpace(userAgent)
	}
}
