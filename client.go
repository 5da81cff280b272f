package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const loginPath = "login"

// Client talks to the export API. Create it with [New] and call
// [Client.Connect] before anything else. A Client is safe for concurrent use;
// login replaces the session token atomically.
type Client struct {
	baseURL string
	options *Options
	session *session

	mu        sync.RWMutex
	connected bool
	resty     *resty.Client
	transport *http.Transport
	limiter   *rate.Limiter
	metrics   *requestMetrics
}

// New creates a client for the API at baseURL. It never fails: invalid
// option values are ignored, and everything is validated by Connect.
func New(baseURL string, opts ...Option) *Client {
	options := newClientOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	return &Client{
		baseURL: strings.TrimSpace(baseURL),
		options: options,
		session: newSession(baseURL),
	}
}

// Connect validates the configuration and prepares the transport. It is a
// no-op once it has succeeded, except that it logs in again when credentials
// were given with [WithCredentials] and the session holds no usable token.
func (c *Client) Connect(ctx context.Context) error {
	if c == nil {
		return errors.New("export client is nil")
	}

	if err := c.connect(); err != nil {
		return err
	}

	if c.options.username == "" || c.session.currentToken().Valid() {
		return nil
	}

	reply, err := c.Login(ctx, c.options.username, c.options.password)
	if err != nil {
		return fmt.Errorf("failed to log in to export API: %w", err)
	}

	if err := reply.Err(); err != nil {
		return fmt.Errorf("failed to log in to export API: %w", err)
	}

	if !reply.IsSuccess() {
		return fmt.Errorf("failed to log in to export API: %d %s: %s", reply.StatusCode, reply.Status, errorDetail(reply.Body))
	}

	if !c.session.currentToken().Valid() {
		return errors.New("failed to log in to export API: response carries no token")
	}

	return nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	if c.baseURL == "" {
		return errors.New("base URL must be set")
	}

	if err := c.options.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	transport, err := newTransport(c.options)
	if err != nil {
		return err
	}

	metrics, err := newRequestMetrics(c.options.metricsRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	limit, burst := rate.Inf, 0
	if c.options.rateLimit > 0 {
		limit, burst = rate.Limit(c.options.rateLimit), max(c.options.rateBurst, 1)
	}

	c.transport = transport
	c.resty = newRestyClient(c.options, transport)
	c.limiter = rate.NewLimiter(limit, burst)
	c.metrics = metrics
	c.connected = true

	return nil
}

// Close releases transport resources. The client must be connected again
// before further use.
func (c *Client) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	c.connected = false
}

// BaseURL returns the API root, always ending in a single slash.
func (c *Client) BaseURL() string {
	return c.session.baseURL
}

// Token returns a copy of the current session token, or nil.
func (c *Client) Token() *AuthToken {
	return c.session.currentToken().clone()
}

// Login posts the credentials and replaces the session token with whatever
// the response carries. A response that is not JSON clears the token.
func (c *Client) Login(ctx context.Context, username, password string, opts ...CallOption) (*Reply, error) {
	spec := RequestSpec{
		Operation: "login",
		Method:    MethodPost,
		Path:      loginPath,
		Body:      NewParams().Set("username", username).Set("password", password),
	}

	res, err := c.Do(ctx, spec.with(opts))
	if err != nil {
		return nil, err
	}

	token := parseAuthToken(res.Body)
	c.session.setToken(token)

	if token.Valid() {
		c.options.requestLogger.Debugf("login: session token stored")
	} else {
		c.options.requestLogger.Debugf("login: no usable token in response (status %d), session token cleared", res.StatusCode)
	}

	return newReply(res), nil
}

func (c *Client) state() (*resty.Client, *rate.Limiter, *requestMetrics, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return nil, nil, nil, errors.New("client not connected - call Connect() first")
	}

	return c.resty, c.limiter, c.metrics, nil
}

// errorDetail extracts a readable message from an error response body.
func errorDetail(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return "(empty error body)"
	}

	if obj, ok := decodeBody(body).(map[string]any); ok {
		for _, key := range []string{"error", "message"} {
			if msg, ok := obj[key].(string); ok && msg != "" {
				return msg
			}
		}
	}

	return body
}
