// Package memory disponibiliza um quota storage em memória com TTL,
// adequado a instância única e a testes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mokapos/ratelimit-gate/internal/core/ports"
)

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

type Storage struct {
	mu       sync.Mutex
	counters map[string]*counterEntry
	blocks   map[string]time.Time

	cleanupEvery time.Duration
	now          func() time.Time
}

var _ ports.QuotaStorage = (*Storage)(nil)

type Option func(*Storage)

func WithCleanupEvery(d time.Duration) Option {
	return func(s *Storage) { s.cleanupEvery = d }
}

// withClock troca a fonte de tempo, usado apenas em testes.
func withClock(now func() time.Time) Option {
	return func(s *Storage) { s.now = now }
}

func New(opts ...Option) *Storage {
	s := &Storage{
		counters:     make(map[string]*counterEntry),
		blocks:       make(map[string]time.Time),
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment avança o contador da chave dentro do mutex, o que o torna
// linearizável por chave. Janela expirada é recriada com contador zerado
// e novo vencimento.
func (s *Storage) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counters[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &counterEntry{expiresAt: now.Add(window)}
		s.counters[key] = entry
	}
	entry.count++
	return entry.count, nil
}

func (s *Storage) IsBlocked(_ context.Context, key string) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.blocks[key]
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		delete(s.blocks, key)
		return false, nil
	}
	return true, nil
}

func (s *Storage) SetBlock(_ context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if duration <= 0 {
		delete(s.blocks, key)
		return nil
	}
	s.blocks[key] = s.now().Add(duration)
	return nil
}

// Cleanup remove entradas vencidas. A expiração já é checada a cada
// acesso; isto só devolve memória de chaves que pararam de receber tráfego.
func (s *Storage) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.counters {
		if now.After(entry.expiresAt) {
			delete(s.counters, key)
		}
	}
	for key, expiresAt := range s.blocks {
		if now.After(expiresAt) {
			delete(s.blocks, key)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves vencidas
// periodicamente. Pare cancelando o contexto.
func (s *Storage) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	ticker := time.NewTicker(s.cleanupEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}
