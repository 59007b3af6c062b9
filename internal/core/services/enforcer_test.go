package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/keygen"
	"github.com/mokapos/ratelimit-gate/internal/observability"
)

type fakeResolver struct {
	policies []domain.Policy
}

func (f fakeResolver) Resolve(string, string) []domain.Policy { return f.policies }

type fakeConsumer struct {
	rates    map[string]domain.Rate
	err      error
	consumed []domain.RatePolicy
}

func (f *fakeConsumer) Consume(_ context.Context, policy domain.RatePolicy) (domain.Rate, error) {
	if f.err != nil {
		return domain.Rate{}, f.err
	}
	f.consumed = append(f.consumed, policy)
	return f.rates[policy.Key], nil
}

func testGenerators(t *testing.T) keygen.Registry {
	t.Helper()
	registry, err := keygen.NewRegistry([]keygen.Spec{
		{Name: "phone", Type: keygen.TypeBody, Params: []string{"phone-number"}},
	})
	require.NoError(t, err)
	return registry
}

func testPolicies() []domain.Policy {
	return []domain.Policy{
		{
			Name:         "SHORT",
			Duration:     time.Second,
			Count:        10,
			KeyGenerator: "phone",
			Routes:       []domain.Route{{URI: "/test"}},
		},
		{
			Name:         "LONG",
			Duration:     time.Hour,
			Count:        100,
			KeyGenerator: "phone",
			Routes:       []domain.Route{{URI: "/test"}},
		},
	}
}

func bodyRequest() domain.Request {
	return domain.Request{
		Method: "GET",
		URI:    "/test",
		Body:   []byte(`{"phone-number":213213213}`),
	}
}

func newTestEnforcer(t *testing.T, consumer *fakeConsumer, failOpen bool, policies []domain.Policy) *Enforcer {
	t.Helper()
	enforcer, err := NewEnforcer(fakeResolver{policies: policies}, testGenerators(t), consumer, failOpen, observability.NewNop())
	require.NoError(t, err)
	return enforcer
}

func TestEnforcer_AllowsWhenNoPolicyMatches(t *testing.T) {
	consumer := &fakeConsumer{}
	enforcer := newTestEnforcer(t, consumer, false, nil)

	decision, err := enforcer.Admit(context.Background(), bodyRequest())
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Empty(t, consumer.consumed)
}

func TestEnforcer_AllowsWhenEveryPolicyPasses(t *testing.T) {
	consumer := &fakeConsumer{rates: map[string]domain.Rate{}}
	enforcer := newTestEnforcer(t, consumer, false, testPolicies())

	decision, err := enforcer.Admit(context.Background(), bodyRequest())
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Len(t, consumer.consumed, 2)

	// a chave carrega a identidade completa da política
	require.Equal(t, "/test_GET_PT1S_10_213213213", consumer.consumed[0].Key)
	require.Equal(t, "/test_GET_PT1H_100_213213213", consumer.consumed[1].Key)
}

func TestEnforcer_ShortCircuitsOnFirstViolation(t *testing.T) {
	consumer := &fakeConsumer{rates: map[string]domain.Rate{
		"/test_GET_PT1S_10_213213213": {Count: 11, Exceeded: true},
	}}
	enforcer := newTestEnforcer(t, consumer, false, testPolicies())

	decision, err := enforcer.Admit(context.Background(), bodyRequest())
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, "SHORT", decision.Policy.Name)
	require.True(t, decision.Rate.Exceeded)

	// a política de janela longa não paga quota
	require.Len(t, consumer.consumed, 1)
}

func TestEnforcer_RejectsWhenBlocked(t *testing.T) {
	consumer := &fakeConsumer{rates: map[string]domain.Rate{
		"/test_GET_PT1S_10_213213213": {Exceeded: true, Blocked: true},
	}}
	enforcer := newTestEnforcer(t, consumer, false, testPolicies())

	decision, err := enforcer.Admit(context.Background(), bodyRequest())
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.True(t, decision.Rate.Blocked)
}

func TestEnforcer_FieldNotPresentedPropagates(t *testing.T) {
	consumer := &fakeConsumer{}
	enforcer := newTestEnforcer(t, consumer, false, testPolicies())

	req := domain.Request{Method: "GET", URI: "/test", Body: []byte(`{"other":1}`)}
	_, err := enforcer.Admit(context.Background(), req)
	require.True(t, domain.IsFieldNotPresentedError(err))
	require.Empty(t, consumer.consumed)
}

func TestEnforcer_StoreFailureFailsClosedByDefault(t *testing.T) {
	consumer := &fakeConsumer{err: storeFailure("increment", errMockStoreDown)}
	enforcer := newTestEnforcer(t, consumer, false, testPolicies())

	decision, err := enforcer.Admit(context.Background(), bodyRequest())
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, "SHORT", decision.Policy.Name)
}

func TestEnforcer_StoreFailureFailsOpenWhenConfigured(t *testing.T) {
	consumer := &fakeConsumer{err: storeFailure("increment", errMockStoreDown)}
	enforcer := newTestEnforcer(t, consumer, true, testPolicies())

	decision, err := enforcer.Admit(context.Background(), bodyRequest())
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestEnforcer_UnknownGeneratorIsAnError(t *testing.T) {
	policies := testPolicies()
	policies[0].KeyGenerator = "missing"
	consumer := &fakeConsumer{}
	enforcer := newTestEnforcer(t, consumer, false, policies)

	_, err := enforcer.Admit(context.Background(), bodyRequest())
	require.ErrorContains(t, err, "unknown key generator")
}
