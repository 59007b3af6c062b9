// Package keygen implementa os geradores de chave de identidade por
// requisição. A chave resultante é a única partição do controle de quota,
// então a derivação precisa ser determinística entre processos.
package keygen

import (
	"strconv"
	"strings"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
)

const keySeparator = "_"

// baseKey monta o prefixo comum {uri}_{método}_{duração ISO-8601}_{quota}.
func baseKey(req domain.Request, policy domain.Policy) *strings.Builder {
	var b strings.Builder
	b.WriteString(req.URI)
	b.WriteString(keySeparator)
	b.WriteString(req.Method)
	b.WriteString(keySeparator)
	b.WriteString(domain.FormatDurationISO8601(policy.Duration))
	b.WriteString(keySeparator)
	b.WriteString(strconv.Itoa(policy.Count))
	return &b
}
