// Package services implementa a lógica central de admissão: o motor de
// quota e o orquestrador por requisição.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/ports"
)

const defaultStoreTimeout = 500 * time.Millisecond

// QuotaEngine executa o consumo atômico de quota sobre o storage
// compartilhado, aplicando a máquina de estados janela + bloqueio.
type QuotaEngine struct {
	storage      ports.QuotaStorage
	storeTimeout time.Duration
}

var _ ports.QuotaConsumer = (*QuotaEngine)(nil)

func NewQuotaEngine(storage ports.QuotaStorage, storeTimeout time.Duration) (*QuotaEngine, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &QuotaEngine{storage: storage, storeTimeout: storeTimeout}, nil
}

// Consume avalia e consome uma unidade de quota para a chave da política.
//
// Bloqueio ativo domina o estado da janela: a requisição é rejeitada sem
// avançar o contador. Fora de bloqueio, o contador avança de forma
// atômica (incremento + TTL na mesma operação) e o bloqueio é armado no
// exato consumo em que a quota é ultrapassada pela primeira vez.
//
// Falha ou timeout do storage retorna domain.ErrStoreUnavailable; a
// decisão fail-open/fail-closed é do chamador.
func (e *QuotaEngine) Consume(ctx context.Context, policy domain.RatePolicy) (domain.Rate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	blocked, err := e.storage.IsBlocked(ctx, blockKey(policy.Key))
	if err != nil {
		return domain.Rate{}, storeFailure("check block", err)
	}
	if blocked {
		return domain.Rate{Exceeded: true, Blocked: true}, nil
	}

	count, err := e.storage.Increment(ctx, counterKey(policy.Key), policy.Duration)
	if err != nil {
		return domain.Rate{}, storeFailure("increment", err)
	}

	rate := domain.Rate{
		Count:    count,
		Exceeded: count > int64(policy.Count),
	}

	// O bloqueio é armado apenas na primeira passagem do limite dentro
	// da janela; consumos seguintes já o encontram ativo no storage.
	if rate.Exceeded && policy.BlockDuration > 0 && count == int64(policy.Count)+1 {
		if err := e.storage.SetBlock(ctx, blockKey(policy.Key), policy.BlockDuration); err != nil {
			return domain.Rate{}, storeFailure("set block", err)
		}
	}

	return rate, nil
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

func counterKey(key string) string {
	return "ratelimit:" + key
}

func blockKey(key string) string {
	return "ratelimit:" + key + ":block"
}
