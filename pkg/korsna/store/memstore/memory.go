package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/korsna/pkg/korsna/internalerr"
	"github.com/cognicore/korsna/pkg/korsna/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu         sync.RWMutex
	posts      map[string]store.Post
	runs       map[string]store.Run
	terms      map[string][]store.Term
	edges      map[string][]store.Edge
	partitions map[string][]store.Membership
	stoplist   map[string]struct{}
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		posts:      make(map[string]store.Post),
		runs:       make(map[string]store.Run),
		terms:      make(map[string][]store.Term),
		edges:      make(map[string][]store.Edge),
		partitions: make(map[string][]store.Membership),
		stoplist:   make(map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertPost inserts or updates a post, keyed by URL.
func (s *Store) UpsertPost(ctx context.Context, p store.Post) error {
	if p.URL == "" {
		return fmt.Errorf("post without url: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.URL] = p
	return nil
}

func (s *Store) GetPostByURL(ctx context.Context, url string) (store.Post, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[url]
	return p, ok, nil
}

func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

// CreateRun stores a new run, assigning an id and start time when missing.
func (s *Store) CreateRun(ctx context.Context, r store.Run) (store.Run, error) {
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	if r.ID == "" {
		r.ID = store.NewRunID(r.StartedAt)
	}
	if r.Status == "" {
		r.Status = store.StatusRunning
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[r.ID]; exists {
		return store.Run{}, fmt.Errorf("run %s exists: %w", r.ID, internalerr.ErrInvalidInput)
	}
	s.runs[r.ID] = r
	return r, nil
}

func (s *Store) FinishRun(ctx context.Context, id, status string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	r.Status = status
	r.FinishedAt = finishedAt
	s.runs[id] = r
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *Store) SaveTerms(ctx context.Context, runID string, terms []store.Term) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms[runID] = copyTerms(terms)
	return nil
}

func (s *Store) GetTerms(ctx context.Context, runID string) ([]store.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTerms(s.terms[runID]), nil
}

func (s *Store) SaveEdges(ctx context.Context, runID string, edges []store.Edge) error {
	cp := copyEdges(edges)
	for i := range cp {
		cp[i].Pos = i
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[runID] = cp
	return nil
}

func (s *Store) GetEdges(ctx context.Context, runID string) ([]store.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEdges(s.edges[runID]), nil
}

// TopNeighbors returns the k terms most strongly linked to term, by weight
// and then NPMI.
func (s *Store) TopNeighbors(ctx context.Context, runID, term string, k int) ([]store.Neighbor, error) {
	if k <= 0 {
		k = 10
	}
	s.mu.RLock()
	var out []store.Neighbor
	for _, e := range s.edges[runID] {
		switch term {
		case e.Source:
			out = append(out, store.Neighbor{Term: e.Target, Weight: e.Weight, NPMI: e.NPMI})
		case e.Target:
			out = append(out, store.Neighbor{Term: e.Source, Weight: e.Weight, NPMI: e.NPMI})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].NPMI > out[j].NPMI
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (s *Store) SavePartition(ctx context.Context, runID string, members []store.Membership, modularity float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	r.Modularity = modularity
	s.runs[runID] = r
	s.partitions[runID] = append([]store.Membership(nil), members...)
	return nil
}

func (s *Store) GetPartition(ctx context.Context, runID string) ([]store.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.partitions[runID]
	if members == nil {
		return nil, nil
	}
	return append([]store.Membership(nil), members...), nil
}

func (s *Store) UpsertStoplist(ctx context.Context, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range tokens {
		if tok != "" {
			s.stoplist[tok] = struct{}{}
		}
	}
	return nil
}

// Stoplist returns the curated stoplist in sorted order.
func (s *Store) Stoplist(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.stoplist) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(s.stoplist))
	for tok := range s.stoplist {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out, nil
}

func copyTerms(in []store.Term) []store.Term {
	if in == nil {
		return nil
	}
	return append([]store.Term(nil), in...)
}

func copyEdges(in []store.Edge) []store.Edge {
	if in == nil {
		return nil
	}
	return append([]store.Edge(nil), in...)
}

var _ store.Store = (*Store)(nil)
