package services

import (
	"context"
	"fmt"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/keygen"
	"github.com/mokapos/ratelimit-gate/internal/core/ports"
	"github.com/mokapos/ratelimit-gate/internal/observability"
)

// Enforcer orquestra a decisão de admissão por requisição: resolve as
// políticas aplicáveis, deriva a chave de cada uma e consome quota na
// ordem retornada pelo matcher (janela mais curta primeiro). A primeira
// violação interrompe a avaliação; políticas seguintes não pagam quota.
type Enforcer struct {
	resolver   ports.PolicyResolver
	generators keygen.Registry
	consumer   ports.QuotaConsumer
	failOpen   bool
	log        *observability.Logger
}

var _ ports.Admitter = (*Enforcer)(nil)

func NewEnforcer(
	resolver ports.PolicyResolver,
	generators keygen.Registry,
	consumer ports.QuotaConsumer,
	failOpen bool,
	log *observability.Logger,
) (*Enforcer, error) {
	if resolver == nil {
		return nil, fmt.Errorf("policy resolver is required")
	}
	if consumer == nil {
		return nil, fmt.Errorf("quota consumer is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Enforcer{
		resolver:   resolver,
		generators: generators,
		consumer:   consumer,
		failOpen:   failOpen,
		log:        log,
	}, nil
}

func (e *Enforcer) Admit(ctx context.Context, req domain.Request) (domain.Decision, error) {
	policies := e.resolver.Resolve(req.URI, req.Method)

	for _, policy := range policies {
		generator, ok := e.generators.Get(policy.KeyGenerator)
		if !ok {
			// Referências são validadas na carga da configuração.
			return domain.Decision{}, fmt.Errorf("unknown key generator %q for policy %q", policy.KeyGenerator, policy.Name)
		}

		key, err := generator.GenerateKey(req, policy)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("policy %q: %w", policy.Name, err)
		}

		rate, err := e.consumer.Consume(ctx, domain.RatePolicy{
			Key:           key,
			Duration:      policy.Duration,
			Count:         policy.Count,
			BlockDuration: policy.BlockDuration,
		})
		if err != nil {
			if !domain.IsStoreUnavailableError(err) {
				return domain.Decision{}, err
			}
			if e.failOpen {
				e.log.Warnw("quota store unavailable, failing open", "policy", policy.Name, "error", err)
				continue
			}
			e.log.Errorw("quota store unavailable, failing closed", "policy", policy.Name, "error", err)
			return domain.Decision{Allowed: false, Policy: policy}, nil
		}

		if rate.Exceeded || rate.Blocked {
			return domain.Decision{Allowed: false, Rate: rate, Policy: policy}, nil
		}
	}

	return domain.Decision{Allowed: true}, nil
}
