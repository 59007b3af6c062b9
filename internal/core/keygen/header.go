package keygen

import (
	"fmt"
	"net/textproto"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/ports"
)

// HeaderGenerator deriva a chave a partir de headers HTTP, na ordem
// declarada na configuração.
type HeaderGenerator struct {
	headers []string
}

var _ ports.KeyGenerator = (*HeaderGenerator)(nil)

func NewHeaderGenerator(headers []string) (*HeaderGenerator, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("header key generator requires at least one header")
	}
	return &HeaderGenerator{headers: append([]string(nil), headers...)}, nil
}

func (g *HeaderGenerator) GenerateKey(req domain.Request, policy domain.Policy) (string, error) {
	key := baseKey(req, policy)

	for _, name := range g.headers {
		value := headerValue(req.Headers, name)
		if value == "" {
			return "", &domain.FieldNotPresentedError{
				Field:  name,
				Reason: "not presented in the request headers for " + req.URI,
			}
		}
		key.WriteString(keySeparator)
		key.WriteString(value)
	}

	return key.String(), nil
}

func headerValue(headers map[string][]string, name string) string {
	if headers == nil {
		return ""
	}
	values := headers[textproto.CanonicalMIMEHeaderKey(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
