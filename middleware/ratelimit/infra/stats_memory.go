package infra

import (
	"context"
	"sync"
	"time"

	"document-submitter/middleware/ratelimit/domain"
)

type Counters struct {
	Admitted int64
	Rejected int64
	// TotalWait soma o tempo de espera das admissões.
	TotalWait time.Duration
}

func (c Counters) add(ev domain.StatsEvent) Counters {
	if ev.Allowed {
		c.Admitted++
		c.TotalWait += ev.Wait
	} else {
		c.Rejected++
	}
	return c
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e para execuções locais do submitter.
//
// Não faz expiração.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	byKey   map[string]Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = s.total.add(ev)
	s.byRoute[route] = s.byRoute[route].add(ev)
	if s.trackKeys {
		key := string(ev.Key)
		s.byKey[key] = s.byKey[key].add(ev)
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byRoute)
}

func (s *MemoryStatsStore) ByKey() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byKey)
}

func copyCounters(in map[string]Counters) map[string]Counters {
	out := make(map[string]Counters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
