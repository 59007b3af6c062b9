// Package matcher resolve quais políticas se aplicam a um par
// (uri, método), com cache por endpoint.
package matcher

import (
	"sort"
	"sync"
	"time"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/ports"
)

// PolicyMatcher filtra, deduplica e ordena as políticas configuradas.
// O cache é lido e escrito por handlers concorrentes; resultados vazios
// também são cacheados como desfecho terminal.
type PolicyMatcher struct {
	policies []domain.Policy

	mu    sync.RWMutex
	cache map[string][]domain.Policy
}

var _ ports.PolicyResolver = (*PolicyMatcher)(nil)

func New(policies []domain.Policy) *PolicyMatcher {
	return &PolicyMatcher{
		policies: append([]domain.Policy(nil), policies...),
		cache:    make(map[string][]domain.Policy),
	}
}

// Resolve retorna as políticas aplicáveis em ordem ascendente de duração
// de janela. Lista vazia significa endpoint sem enforcement.
func (m *PolicyMatcher) Resolve(uri, method string) []domain.Policy {
	cacheKey := uri + "\x00" + method

	m.mu.RLock()
	cached, ok := m.cache[cacheKey]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	resolved := m.resolve(uri, method)

	m.mu.Lock()
	m.cache[cacheKey] = resolved
	m.mu.Unlock()

	return resolved
}

func (m *PolicyMatcher) resolve(uri, method string) []domain.Policy {
	// Exclusão tem precedência sobre inclusão: basta um excludeRoute
	// casar para a política sair da disputa.
	byDuration := make(map[time.Duration]domain.Policy)
	for _, policy := range m.policies {
		if anyRouteMatches(policy.ExcludeRoutes, uri, method) {
			continue
		}
		if !anyRouteMatches(policy.Routes, uri, method) {
			continue
		}

		// Por duração, vence a política mais estrita (menor quota);
		// empate fica com a primeira na ordem de configuração.
		current, exists := byDuration[policy.Duration]
		if !exists || policy.Count < current.Count {
			byDuration[policy.Duration] = policy
		}
	}

	resolved := make([]domain.Policy, 0, len(byDuration))
	for _, policy := range byDuration {
		resolved = append(resolved, policy)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Duration < resolved[j].Duration
	})

	return resolved
}

func anyRouteMatches(routes []domain.Route, uri, method string) bool {
	for _, route := range routes {
		if route.Matches(uri, method) {
			return true
		}
	}
	return false
}
