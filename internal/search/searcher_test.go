package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"slurpsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) deliver(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) snapshot() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func TestSupersededResultsAreDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	fn := func(ctx context.Context, query string) ([]models.Post, error) {
		started <- query
		if query == "slow" {
			<-release
		}
		return []models.Post{{ID: query}}, nil
	}

	rec := &recorder{}
	s := New(fn, 0, rec.deliver)
	ctx := context.Background()

	s.Submit(ctx, "slow")
	require.Equal(t, "slow", <-started)
	second := s.Submit(ctx, "fast")
	assert.Equal(t, uint64(2), second)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	time.Sleep(30 * time.Millisecond)

	results := rec.snapshot()
	require.Len(t, results, 1)
	assert.Equal(t, "fast", results[0].Query)
	assert.Equal(t, second, results[0].Seq)
	assert.Equal(t, "fast", results[0].Posts[0].ID)
}

func TestDebounceSendsOnlyTheLastQuery(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	fn := func(ctx context.Context, query string) ([]models.Post, error) {
		mu.Lock()
		calls = append(calls, query)
		mu.Unlock()
		return nil, nil
	}

	rec := &recorder{}
	s := New(fn, 40*time.Millisecond, rec.deliver)
	for _, q := range []string{"t", "to", "ton"} {
		s.Submit(context.Background(), q)
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"ton"}, calls)
	mu.Unlock()

	res := rec.snapshot()[0]
	assert.NotNil(t, res.Posts, "nil results are delivered as an empty list")
	assert.Empty(t, res.Posts)
}

func TestBlankQueryDeliversEmpty(t *testing.T) {
	fn := func(ctx context.Context, query string) ([]models.Post, error) {
		t.Fatalf("blank queries must not search, got %q", query)
		return nil, nil
	}
	rec := &recorder{}
	s := New(fn, DefaultDebounce, rec.deliver)

	s.Submit(context.Background(), "   ")
	results := rec.snapshot()
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Posts)
	assert.NoError(t, results[0].Err)
}

func TestStopDeliversNothing(t *testing.T) {
	fn := func(ctx context.Context, query string) ([]models.Post, error) {
		return []models.Post{{ID: "x"}}, nil
	}
	rec := &recorder{}
	s := New(fn, 20*time.Millisecond, rec.deliver)

	s.Submit(context.Background(), "miso")
	s.Stop()
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, uint64(1), s.Latest())
}
