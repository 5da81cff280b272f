package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_NilClient(t *testing.T) {
	t.Parallel()

	var c *Client

	_, err := c.Do(context.Background(), RequestSpec{Method: MethodGet})
	require.EqualError(t, err, "export client is nil")
}

func TestDo_UnsupportedMethod(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	_, err := c.Do(context.Background(), RequestSpec{Method: "PATCH", Path: "exports"})
	require.EqualError(t, err, `unsupported method "PATCH"`)
	assert.Zero(t, rec.count())
}

func TestDo_DefaultHeaders(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	res, err := c.Do(context.Background(), RequestSpec{Method: MethodGet, Path: "exports"})
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())

	got := rec.last(t)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Empty(t, got.Header.Get("X-Authorization"))
}

func TestDo_HeaderOverrides(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)
	c.session.setToken(parseAuthToken(`{"token_type":"Bearer","access_token":"abc"}`))

	_, err := c.Do(context.Background(), RequestSpec{
		Method: MethodGet,
		Path:   "exports",
		Headers: []string{
			"Accept: text/csv",
			"X-Trace: one",
			"X-Trace: two",
		},
	})
	require.NoError(t, err)

	got := rec.last(t)
	assert.Equal(t, "text/csv", got.Header.Get("Accept"))
	assert.Equal(t, []string{"two"}, got.Header.Values("X-Trace"))
	assert.Equal(t, "Bearer abc", got.Header.Get("X-Authorization"))

	_, err = c.ListExport(context.Background(), nil, WithHeader("x-Authorization", ""))
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Header.Get("X-Authorization"))
}

func TestDo_UserAgent(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL, WithUserAgent("export-cli/1.0"))

	_, err := c.ListExportTrendingBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "export-cli/1.0", rec.last(t).Header.Get("User-Agent"))
}

func TestDo_BodyEncoding(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	export := NewParams().
		Set("name", "Résumé ü").
		Set("html", "<b>bold</b>").
		Set("days", []int{1, 2})

	_, err := c.CreateExport(context.Background(), export)
	require.NoError(t, err)

	got := rec.last(t)
	body := string(got.Body)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Contains(t, body, "Résumé ü")
	assert.Contains(t, body, "<b>bold</b>")
	assert.Contains(t, body, "\n    \"name\"")
	assert.Less(t, strings.Index(body, `"name"`), strings.Index(body, `"html"`))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got.Body, &decoded))
	assert.Equal(t, "Résumé ü", decoded["name"])
	assert.Equal(t, []any{1.0, 2.0}, decoded["days"])
}

func TestDo_NoBody(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	_, err := c.CreateExport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.last(t).Method)
	assert.Empty(t, rec.last(t).Body)

	// Bodies are ignored for GET.
	_, err = c.Do(context.Background(), RequestSpec{
		Method: MethodGet,
		Path:   "exports",
		Body:   NewParams().Set("ignored", true),
	})
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Body)
}

func TestDo_HTTPErrorIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid frequency"}`))
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	reply, err := c.CreateExport(context.Background(), NewParams().Set("frequency", "never"))
	require.NoError(t, err)

	assert.Equal(t, CodeOK, reply.ErrorCode)
	assert.Empty(t, reply.ErrorMessage)
	assert.NoError(t, reply.Err())
	assert.False(t, reply.IsSuccess())
	assert.Equal(t, http.StatusUnprocessableEntity, reply.StatusCode)
	assert.Equal(t, "Unprocessable Entity", reply.Status)
	assert.Equal(t, `{"error":"invalid frequency"}`, reply.Body)
	assert.Equal(t, "invalid frequency", reply.Object()["error"])
}

func TestDo_BodyKeptVerbatim(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("  not json\n"))
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	reply, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "  not json\n", reply.Body)
	assert.Equal(t, map[string]any{}, reply.Data)
}

func TestDo_ConnectionRefused(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	c := newConnectedClient(t, url)

	reply, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, CodeCouldNotConnect, reply.ErrorCode)
	assert.NotEmpty(t, reply.ErrorMessage)
	assert.Zero(t, reply.StatusCode)
	assert.Empty(t, reply.Status)
	assert.Empty(t, reply.Body)
	assert.Equal(t, map[string]any{}, reply.Data)

	var terr *TransportError
	require.ErrorAs(t, reply.Err(), &terr)
	assert.Equal(t, CodeCouldNotConnect, terr.Code)
}

func TestDo_RedirectNotFollowed(t *testing.T) {
	t.Parallel()

	rec := newRecorder(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	})
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	reply, err := c.GetExport(context.Background(), "1", false)
	require.NoError(t, err)

	assert.Equal(t, CodeOK, reply.ErrorCode)
	assert.Equal(t, http.StatusFound, reply.StatusCode)
	assert.Equal(t, "Found", reply.Status)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "/exports/1", rec.last(t).Path)
}

func TestDo_TLSInsecureByDefault(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	reply, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, CodeOK, reply.ErrorCode)
	assert.Equal(t, http.StatusOK, reply.StatusCode)
	assert.Equal(t, true, reply.Object()["ok"])
}

func TestDo_TLSVerification(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL, WithInsecureSkipVerify(false))

	reply, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, CodePeerFailedVerification, reply.ErrorCode)
	assert.Zero(t, reply.StatusCode)
	assert.Empty(t, reply.Body)
}

func TestDo_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL,
		WithConnectTimeout(50*time.Millisecond),
		WithTimeout(100*time.Millisecond),
	)

	reply, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, CodeOperationTimedOut, reply.ErrorCode)
	assert.Empty(t, reply.Body)
}

func TestDo_ContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	reply, err := c.ListExport(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, CodeAborted, reply.ErrorCode)
}

func TestDo_ContextDoneBeforeSend(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListExport(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rec.count())
}

func TestDo_RateLimit(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL, WithRateLimit(0.001, 1))

	_, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.ListExport(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, 1, rec.count())
}

func TestDownload_WritesBody(t *testing.T) {
	t.Parallel()

	content := "%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"

	rec := newRecorder(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(content))
	})
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)
	dest := filepath.Join(t.TempDir(), "export.pdf")

	d, err := c.DownloadExportFile(context.Background(), "5", "abc", dest)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)

	assert.Equal(t, content, string(written))
	assert.Equal(t, content, d.Body)
	assert.Equal(t, int64(len(content)), d.Size)
	assert.Equal(t, dest, d.Path)
	assert.Equal(t, "application/pdf", d.MIME)
	assert.Equal(t, http.StatusOK, d.StatusCode)

	got := rec.last(t)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/export-files/5", got.Path)
	assert.Equal(t, "hash=abc", got.Query)
}

func TestDownload_WritesErrorBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL)
	dest := filepath.Join(t.TempDir(), "export.csv")

	d, err := c.DownloadExportFile(context.Background(), "5", "abc", dest)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)

	assert.Equal(t, `{"error":"not found"}`, string(written))
	assert.Equal(t, http.StatusNotFound, d.StatusCode)
	assert.Equal(t, "Not Found", d.Status)
	assert.Equal(t, "not found", d.Object()["error"])
}

func TestDownload_TruncatesExistingFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL)
	dest := filepath.Join(t.TempDir(), "export.txt")
	require.NoError(t, os.WriteFile(dest, []byte("much longer old content"), 0o600))

	_, err := c.DownloadExportFile(context.Background(), "5", "abc", dest)
	require.NoError(t, err)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(written))
}

func TestDownload_UnwritableDestination(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)
	dest := filepath.Join(t.TempDir(), "missing", "export.csv")

	d, err := c.DownloadExportFile(context.Background(), "5", "abc", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open download destination")
	assert.Nil(t, d)
	assert.Zero(t, rec.count())
}

func TestDownload_EmptyDestination(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	server := httptest.NewServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	_, err := c.DownloadExportFile(context.Background(), "5", "abc", "")
	require.EqualError(t, err, "download destination must be set")
	assert.Zero(t, rec.count())
}

func TestDownload_TransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	c := newConnectedClient(t, url)
	dest := filepath.Join(t.TempDir(), "export.csv")

	d, err := c.DownloadExportFile(context.Background(), "5", "abc", dest)
	require.NoError(t, err)

	assert.Equal(t, CodeCouldNotConnect, d.ErrorCode)
	assert.Empty(t, d.Body)
	assert.Zero(t, d.Size)
	assert.Empty(t, d.MIME)
}

func TestDo_IgnoresEnvironmentProxy(t *testing.T) {
	// Not parallel: t.Setenv.
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:1")
	t.Setenv("HTTP_PROXY", "http://127.0.0.1:1")

	rec := newRecorder(nil)
	server := httptest.NewTLSServer(rec)
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	// Loopback hosts are never proxied from the environment, so the
	// transport is checked as well as the round trip.
	assert.Nil(t, c.transport.Proxy)

	reply, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, CodeOK, reply.ErrorCode)
	assert.Equal(t, http.StatusOK, reply.StatusCode)
	assert.Equal(t, 1, rec.count())
}

func TestDo_PrefersHTTP2(t *testing.T) {
	t.Parallel()

	rec := newRecorder(loginHandler(t, `{"token_type":"Bearer","access_token":"abc"}`))
	server := httptest.NewUnstartedServer(rec)
	server.EnableHTTP2 = true
	server.StartTLS()
	defer server.Close()

	c := newConnectedClient(t, server.URL, WithCredentials("user", "secret"))

	_, err := c.CreateExport(context.Background(), NewParams().Set("name", "monthly"))
	require.NoError(t, err)

	d, err := c.DownloadExportFile(context.Background(), "5", "abc", filepath.Join(t.TempDir(), "export.json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, d.StatusCode)

	requests := rec.all()
	require.Len(t, requests, 3)
	for _, r := range requests {
		assert.Equal(t, 2, r.ProtoMajor, "%s %s", r.Method, r.Path)
	}
}

func TestDo_UnregisteredStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(456)
		_, _ = w.Write([]byte(`{"error":"quota"}`))
	}))
	defer server.Close()

	c := newConnectedClient(t, server.URL)

	reply, err := c.ListExport(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, CodeOK, reply.ErrorCode)
	assert.Equal(t, 456, reply.StatusCode)
	assert.Empty(t, reply.Status)
	assert.Equal(t, "quota", reply.Object()["error"])
}
