// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
)

// Admitter decide se uma requisição pode prosseguir.
type Admitter interface {
	Admit(ctx context.Context, req domain.Request) (domain.Decision, error)
}

// QuotaConsumer executa uma operação atômica de consumo de quota.
type QuotaConsumer interface {
	Consume(ctx context.Context, policy domain.RatePolicy) (domain.Rate, error)
}

// PolicyResolver resolve as políticas aplicáveis a um par (uri, método),
// já deduplicadas por duração e ordenadas da janela mais curta à mais longa.
type PolicyResolver interface {
	Resolve(uri, method string) []domain.Policy
}

// KeyGenerator deriva a chave de identidade determinística de uma
// requisição para uma política.
type KeyGenerator interface {
	GenerateKey(req domain.Request, policy domain.Policy) (string, error)
}
