package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"slurpsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/api", Timeout: timeout}, staticToken("tok-123"))
}

// captured records request details from handler goroutines.
type captured struct {
	mu     sync.Mutex
	values map[string]string
}

func (c *captured) set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = value
}

func (c *captured) get(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type ping struct {
	Name string `json:"name"`
}

func TestDo_DecodesEnvelope(t *testing.T) {
	t.Parallel()
	var got captured
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.set("auth", r.Header.Get("Authorization"))
		got.set("contentType", r.Header.Get("Content-Type"))
		got.set("path", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"data":       map[string]any{"name": "tonkotsu"},
			"pagination": map[string]any{"total": 1, "limit": 20, "offset": 0, "hasMore": false},
		})
	}, time.Second)

	env, err := Do[ping](context.Background(), c, MethodGet, "/ping", nil, true)
	require.NoError(t, err)
	require.NotNil(t, env.Data)
	assert.Equal(t, "tonkotsu", env.Data.Name)
	assert.Equal(t, 1, env.Pagination.Total)
	assert.Equal(t, "Bearer tok-123", got.get("auth"))
	assert.Equal(t, "application/json", got.get("contentType"))
	assert.Equal(t, "/api/ping", got.get("path"))
}

func TestDo_NoAuthHeaderWhenNotRequired(t *testing.T) {
	t.Parallel()
	var got captured
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.set("auth", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, time.Second)

	_, err := Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	require.NoError(t, err)
	assert.Empty(t, got.get("auth"))
}

func TestDo_TokenOverride(t *testing.T) {
	t.Parallel()
	var got captured
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.set("auth", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, time.Second)

	ctx := ContextWithToken(context.Background(), "captured")
	require.NoError(t, c.DoVoid(ctx, MethodPost, "/auth/logout", nil, true))
	assert.Equal(t, "Bearer captured", got.get("auth"))
}

func TestDo_EncodesBody(t *testing.T) {
	t.Parallel()
	var got captured
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]string
		_ = json.Unmarshal(raw, &body)
		got.set("content", body["content"])
		got.set("at", body["at"])
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
	}, time.Second)

	when := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	body := map[string]any{"content": "rich broth", "at": models.NewTimestamp(when)}
	require.NoError(t, c.DoVoid(context.Background(), MethodPost, "/posts/p1/comments", body, true))
	assert.Equal(t, "rich broth", got.get("content"))
	assert.Equal(t, "2024-01-15T10:30:00Z", got.get("at"))
}

func TestDo_ServerError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"error":   map[string]any{"code": "emailAlreadyExists", "message": "Email taken"},
		})
	}, time.Second)

	_, err := Do[ping](context.Background(), c, MethodPost, "/auth/signup", nil, false)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "emailAlreadyExists", serverErr.Code)
	assert.Equal(t, "Email taken", serverErr.Message)
	assert.Equal(t, http.StatusConflict, serverErr.Status)
	assert.Equal(t, "emailAlreadyExists", ServerCode(err))
}

func TestDo_ServerErrorDefaults(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
	}, time.Second)

	_, err := Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "unknown", serverErr.Code)
	assert.Equal(t, "Unknown error", serverErr.Message)
}

func TestDo_HTTPError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}, time.Second)

	_, err := Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestDo_DecodeError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"name": 42}})
	}, time.Second)

	_, err := Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestDo_InvalidURLBeforeIO(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, time.Second)

	_, err := Do[ping](context.Background(), c, MethodGet, "/posts/%zz", nil, false)
	assert.ErrorIs(t, err, ErrInvalidURL)

	bad := NewClient(Options{BaseURL: "slurpsocial.app/api"}, nil)
	_, err = Do[ping](context.Background(), bad, MethodGet, "/posts", nil, false)
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Zero(t, calls.Load())
}

func TestDo_RetriesOnceAfterTimeout(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"name": "warm"}})
	}, 150*time.Millisecond)

	env, err := Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "warm", env.Data.Name)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDo_SecondTimeoutPropagates(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 100*time.Millisecond)

	_, err := Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDo_ConnectionFailureNotRetried(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewClient(Options{BaseURL: "http://" + addr + "/api", Timeout: time.Second}, nil)
	_, err = Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestDo_CallerCancellationNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := Do[ping](ctx, c, MethodGet, "/ping", nil, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.EqualValues(t, 1, calls.Load())
}

func TestDo_NonHTTPResponse(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 1024)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte("SLURP nonsense\r\n\r\n"))
		_ = conn.Close()
	}()

	c := NewClient(Options{BaseURL: "http://" + ln.Addr().String() + "/api", Timeout: time.Second}, nil)
	_, err = Do[ping](context.Background(), c, MethodGet, "/ping", nil, false)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	wg.Wait()
}

func TestFetch(t *testing.T) {
	t.Parallel()
	var got captured
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got.set("auth", r.Header.Get("Authorization"))
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	}, time.Second)

	root := c.BaseURL()[:len(c.BaseURL())-len("/api")]
	data, err := c.Fetch(context.Background(), root+"/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
	assert.Empty(t, got.get("auth"))

	_, err = c.Fetch(context.Background(), root+"/missing.jpg")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	_, err = c.Fetch(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestDo_RateLimited(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Options{BaseURL: srv.URL + "/api", Timeout: time.Second, RequestsPerSecond: 20}, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.DoVoid(context.Background(), http.MethodGet, "/health", nil, false))
	}
	// Burst of one: the second and third calls each wait about 50ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
