package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// Method is the kind of request executed by [Client.Do].
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	// MethodDownload is a GET whose body is streamed into a file.
	MethodDownload Method = "DOWNLOAD"
)

func (m Method) valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodDownload:
		return true
	default:
		return false
	}
}

func (m Method) sendsBody() bool {
	return m == MethodPost || m == MethodPut
}

// RequestSpec describes one request.
type RequestSpec struct {
	// Operation names the request in logs and metrics.
	Operation string
	Method    Method
	// Path is relative to the base URL and may carry an encoded query.
	Path string
	// Body is sent as indented JSON with POST and PUT. Nil sends no body.
	Body *Params
	// Headers are "Name: Value" lines applied after the defaults.
	Headers []string
	// Destination is the file a download is written to.
	Destination string
}

// CallOption adjusts a single endpoint call.
type CallOption func(*RequestSpec)

// WithHeader adds a header to one call. It replaces a default or auth header
// of the same name; an empty value removes it.
func WithHeader(name, value string) CallOption {
	return func(s *RequestSpec) {
		s.Headers = append(s.Headers, HeaderLine(name, value))
	}
}

// WithHeaderLines adds raw "Name: Value" header lines to one call.
func WithHeaderLines(lines ...string) CallOption {
	return func(s *RequestSpec) {
		s.Headers = append(s.Headers, lines...)
	}
}

func (s RequestSpec) with(opts []CallOption) RequestSpec {
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	return s
}

// Do executes exactly one request and normalises its outcome.
//
// The returned error is reserved for failures that prevent the request from
// being made: an unconnected client, an invalid spec, a body that cannot be
// encoded, a download destination that cannot be opened, or a context that
// ends while waiting for the rate limiter. Everything that happens on the
// wire, HTTP error statuses included, is reported through the Result.
func (c *Client) Do(ctx context.Context, spec RequestSpec) (Result, error) {
	if c == nil {
		return Result{}, errors.New("export client is nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rc, limiter, metrics, err := c.state()
	if err != nil {
		return Result{}, err
	}

	if !spec.Method.valid() {
		return Result{}, fmt.Errorf("unsupported method %q", spec.Method)
	}

	if spec.Operation == "" {
		spec.Operation = "custom"
	}

	var body []byte
	if spec.Method.sendsBody() {
		if body, err = encodeBody(spec.Body); err != nil {
			return Result{}, err
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limiter: %w", err)
	}

	var dest *os.File
	if spec.Method == MethodDownload {
		if dest, err = openDestination(spec.Destination); err != nil {
			c.options.requestLogger.Errorf("%s: %v", spec.Operation, err)
			return Result{}, err
		}
		defer func() {
			if cerr := dest.Close(); cerr != nil {
				c.options.requestLogger.Errorf("%s: failed to close %s: %v", spec.Operation, spec.Destination, cerr)
			}
		}()
	}

	url := c.session.url(spec.Path)

	req := rc.R().SetContext(ctx)
	applyHeaders(req.Header, ComposeHeaders(c.session.currentToken(), spec.Headers))
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()

	var res Result
	if dest != nil {
		res = c.download(req, url, dest)
	} else {
		res = execute(req, spec.Method, url)
	}

	elapsed := time.Since(start)
	metrics.observe(spec.Operation, spec.Method, res, elapsed)

	if res.ErrorCode != CodeOK {
		c.options.requestLogger.Warnf("%s: %s %s failed after %v: %v", spec.Operation, spec.Method, loggableURL(url), elapsed, res.Err())
	} else {
		c.options.requestLogger.Debugf("%s: %s %s -> %d %s (%v)", spec.Operation, spec.Method, loggableURL(url), res.StatusCode, res.Status, elapsed)
	}

	return res, nil
}

func execute(req *resty.Request, method Method, url string) Result {
	resp, err := req.Execute(string(method), url)
	if err != nil {
		return transportFailure(statusCode(resp), err)
	}

	code := resp.StatusCode()

	return Result{
		StatusCode: code,
		Status:     StatusText(code),
		Body:       string(resp.Body()),
	}
}

// download streams the response body into dest, whatever the status, and
// keeps a copy for the Result.
func (c *Client) download(req *resty.Request, url string, dest *os.File) Result {
	req.SetDoNotParseResponse(true)

	resp, err := req.Execute(http.MethodGet, url)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		return transportFailure(statusCode(resp), err)
	}

	code := resp.StatusCode()
	if resp.RawBody() == nil {
		return Result{StatusCode: code, Status: StatusText(code)}
	}

	var buf bytes.Buffer
	sink := &fileSink{f: dest}

	if _, err := io.Copy(io.MultiWriter(sink, &buf), resp.RawBody()); err != nil {
		c.options.requestLogger.Errorf("download to %s failed: %v", dest.Name(), err)
		res := transportFailure(code, err)
		if sink.err != nil {
			res.ErrorCode = CodeWriteError
		}
		return res
	}

	return Result{
		StatusCode: code,
		Status:     StatusText(code),
		Body:       buf.String(),
	}
}

func statusCode(resp *resty.Response) int {
	if resp == nil {
		return 0
	}

	return resp.StatusCode()
}

func openDestination(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.New("download destination must be set")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open download destination: %w", err)
	}

	return f, nil
}

// fileSink remembers write failures so they can be told apart from read
// failures on the response body.
type fileSink struct {
	f   *os.File
	err error
}

func (s *fileSink) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		s.err = err
	}

	return n, err
}
