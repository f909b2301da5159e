package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"advocatehub/pkg/models"
)

// SearchFunc runs one query. Client.Search fits once limit/offset are bound.
type SearchFunc func(ctx context.Context, q string) (models.Page, error)

// Result is one committed answer.
type Result struct {
	Seq   uint64
	Query string
	Page  models.Page
	Err   error
}

// Searcher runs at most one useful query at a time. Submitting a query
// cancels the one in flight, and a response is committed only if no newer
// query was submitted meanwhile, so a slow stale answer can never replace
// a fresh one.
type Searcher struct {
	search SearchFunc
	commit func(Result)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSearcher returns a Searcher. commit is called with the searcher's lock
// held and must not call Submit.
func NewSearcher(search SearchFunc, commit func(Result)) *Searcher {
	return &Searcher{search: search, commit: commit}
}

// Submit starts q and supersedes every earlier query. It returns the
// sequence number assigned to q.
func (s *Searcher) Submit(ctx context.Context, q string) uint64 {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		page, err := s.search(ctx, q)

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.seq {
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			err = fmt.Errorf("%w: %v", ErrLoadFailed, err)
			page = models.Page{Data: []models.Advocate{}}
		}
		s.commit(Result{Seq: seq, Query: q, Page: page, Err: err})
	}()
	return seq
}

// Superseded reports whether seq is no longer the latest submission.
func (s *Searcher) Superseded(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq != s.seq
}

// Close cancels the query in flight and waits for every worker to exit.
func (s *Searcher) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	// anything still running is now stale
	s.seq++
	s.mu.Unlock()
	s.wg.Wait()
}

// Wait blocks until every submitted query has finished or been dropped.
func (s *Searcher) Wait() {
	s.wg.Wait()
}
