// Package search runs type-ahead post searches where only the newest query
// may deliver results.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"slurpsocial/internal/models"
	"slurpsocial/internal/observability"
)

// DefaultDebounce is the quiet period before a query is sent.
const DefaultDebounce = 300 * time.Millisecond

// Func performs one search.
type Func func(ctx context.Context, query string) ([]models.Post, error)

// Result is one delivered search outcome.
type Result struct {
	Seq   uint64
	Query string
	Posts []models.Post
	Err   error
}

// Searcher numbers every submitted query and drops the results of any query
// that has been superseded by the time it completes.
type Searcher struct {
	search   Func
	debounce time.Duration
	deliver  func(Result)
	logger   *observability.ServiceLogger

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// New returns a Searcher. deliver is called with the Searcher's lock held
// and must not call back into it. A zero debounce sends queries immediately.
func New(search Func, debounce time.Duration, deliver func(Result)) *Searcher {
	if debounce < 0 {
		debounce = 0
	}
	return &Searcher{
		search:   search,
		debounce: debounce,
		deliver:  deliver,
		logger:   observability.NewServiceLogger("search"),
	}
}

// Submit supersedes any pending query with query and returns its sequence
// number. A blank query delivers an empty result without searching.
func (s *Searcher) Submit(ctx context.Context, query string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.seq
	}

	s.seq++
	seq := s.seq
	s.stopPendingLocked()

	query = strings.TrimSpace(query)
	if query == "" {
		s.deliver(Result{Seq: seq, Query: query, Posts: []models.Post{}})
		return seq
	}

	if s.debounce == 0 {
		go s.run(ctx, seq, query)
	} else {
		s.timer = time.AfterFunc(s.debounce, func() { s.run(ctx, seq, query) })
	}
	return seq
}

// Latest returns the newest issued sequence number.
func (s *Searcher) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Stop cancels pending work. Nothing is delivered afterwards.
func (s *Searcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopPendingLocked()
}

func (s *Searcher) stopPendingLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(ctx context.Context, seq uint64, query string) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	posts, err := s.search(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq {
		s.logger.LogCall(ctx, "Submit.stale", map[string]interface{}{"seq": seq, "query": query})
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	s.deliver(Result{Seq: seq, Query: query, Posts: posts, Err: err})
}
