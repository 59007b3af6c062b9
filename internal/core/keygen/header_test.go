package keygen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
)

func TestHeaderGenerator_BuildsKeyFromHeaders(t *testing.T) {
	generator, err := NewHeaderGenerator([]string{"X-Api-Key"})
	require.NoError(t, err)

	req := domain.Request{
		Method:  "POST",
		URI:     "/orders",
		Headers: map[string][]string{"X-Api-Key": {"abc123"}},
	}
	policy := domain.Policy{Name: "ORDERS", Duration: 30 * time.Minute, Count: 5}

	key, err := generator.GenerateKey(req, policy)
	require.NoError(t, err)
	require.Equal(t, "/orders_POST_PT30M_5_abc123", key)
}

func TestHeaderGenerator_LookupIsCaseInsensitive(t *testing.T) {
	generator, err := NewHeaderGenerator([]string{"x-api-key"})
	require.NoError(t, err)

	req := domain.Request{
		Method:  "GET",
		URI:     "/test",
		Headers: map[string][]string{"X-Api-Key": {"abc123"}},
	}

	key, err := generator.GenerateKey(req, testPolicy())
	require.NoError(t, err)
	require.Equal(t, "/test_GET_PT1H_3_abc123", key)
}

func TestHeaderGenerator_MissingHeaderNamesIt(t *testing.T) {
	generator, err := NewHeaderGenerator([]string{"X-Api-Key"})
	require.NoError(t, err)

	_, err = generator.GenerateKey(testRequest(`{}`), testPolicy())
	require.True(t, domain.IsFieldNotPresentedError(err))
	require.Contains(t, err.Error(), "X-Api-Key")
}

func TestHeaderGenerator_RequiresHeaders(t *testing.T) {
	_, err := NewHeaderGenerator(nil)
	require.Error(t, err)
}
