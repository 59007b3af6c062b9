// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"
)

// QuotaStorage é a fronteira com o armazenamento compartilhado de quotas.
// Increment precisa ser atômico por chave (incremento + TTL na mesma
// operação); é o único mecanismo de correção sob concorrência.
type QuotaStorage interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	IsBlocked(ctx context.Context, key string) (bool, error)
	SetBlock(ctx context.Context, key string, duration time.Duration) error
}
