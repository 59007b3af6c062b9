package domain

import "github.com/bmatcuk/doublestar/v4"

// Matches informa se a rota casa com o par (uri, método).
// O padrão de URI segue a sintaxe glob do doublestar (ex.: /api/**).
// Padrões inválidos são rejeitados na carga da configuração; aqui um
// erro de matching é tratado como "não casa".
func (r Route) Matches(uri, method string) bool {
	ok, err := doublestar.Match(r.URI, uri)
	if err != nil || !ok {
		return false
	}
	return r.Method == "" || r.Method == method
}
