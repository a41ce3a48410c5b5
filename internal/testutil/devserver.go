// Package testutil provides shared fixtures for tests that talk to a real
// HTTP backend.
package testutil

import (
	"context"
	"net"
	"testing"
	"time"

	"slurpsocial/internal/apiclient"
	"slurpsocial/internal/devserver"
	"slurpsocial/internal/events"
	"slurpsocial/internal/session"
	"slurpsocial/internal/store"

	"github.com/stretchr/testify/require"
)

// TestJWTSecret signs tokens issued by StartDevServer.
const TestJWTSecret = "testutil_secret_that_is_long_enough_0123"

// StartDevServer serves a fresh dev server on a loopback port and returns it
// with its API base URL. The server is shut down when the test ends.
func StartDevServer(t *testing.T) (*devserver.Server, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := devserver.New(devserver.Config{JWTSecret: TestJWTSecret})
	go func() {
		_ = srv.Serve(ln)
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return srv, "http://" + ln.Addr().String() + "/api"
}

// Harness bundles a session and client pointed at baseURL.
type Harness struct {
	Store   store.Store
	Session *session.Session
	Client  *apiclient.Client
	Bus     *events.Bus
}

// NewHarness wires an in-memory session store, client and event bus.
func NewHarness(t *testing.T, baseURL string) *Harness {
	t.Helper()
	st := store.NewMemoryStore()
	sess := session.New(st)
	client := apiclient.NewClient(apiclient.Options{BaseURL: baseURL, Timeout: 5 * time.Second}, sess)
	return &Harness{Store: st, Session: sess, Client: client, Bus: events.NewBus()}
}
