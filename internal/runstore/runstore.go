package runstore

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/gammazero/deque"

	"github.com/HMasataka/avgap/payload/analyze"
)

func NewID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

type Store struct {
	mu    sync.RWMutex
	limit int
	order deque.Deque[string]
	runs  map[string]*analyze.Result
}

func NewStore(limit int) *Store {
	if limit < 1 {
		limit = 1
	}

	return &Store{
		limit: limit,
		runs:  make(map[string]*analyze.Result),
	}
}

func (s *Store) Add(res *analyze.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[res.RunID]; ok {
		s.runs[res.RunID] = res
		return
	}

	s.order.PushBack(res.RunID)
	s.runs[res.RunID] = res

	for s.order.Len() > s.limit {
		evicted := s.order.PopFront()
		delete(s.runs, evicted)
	}
}

func (s *Store) Get(id string) (*analyze.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.runs[id]

	return res, ok
}

// Recent returns up to n results, newest first.
func (s *Store) Recent(n int) []*analyze.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > s.order.Len() {
		n = s.order.Len()
	}

	out := make([]*analyze.Result, 0, n)

	for i := s.order.Len() - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[s.order.At(i)])
	}

	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.order.Len()
}
