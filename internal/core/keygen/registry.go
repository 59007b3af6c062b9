package keygen

import (
	"fmt"

	"github.com/mokapos/ratelimit-gate/internal/core/ports"
)

// Tipos de gerador aceitos na configuração.
const (
	TypeBody   = "body"
	TypeHeader = "header"
)

// Spec descreve um gerador declarado na configuração: um nome pelo qual
// as políticas o referenciam, o tipo da implementação e a sequência
// ordenada de campos/headers.
type Spec struct {
	Name   string
	Type   string
	Params []string
}

// Registry mapeia nome configurado -> gerador, resolvido uma única vez
// na inicialização.
type Registry map[string]ports.KeyGenerator

func NewRegistry(specs []Spec) (Registry, error) {
	registry := make(Registry, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("key generator must have a name")
		}
		if _, exists := registry[spec.Name]; exists {
			return nil, fmt.Errorf("duplicated key generator %q", spec.Name)
		}

		var (
			generator ports.KeyGenerator
			err       error
		)
		switch spec.Type {
		case TypeBody:
			generator, err = NewBodyGenerator(spec.Params)
		case TypeHeader:
			generator, err = NewHeaderGenerator(spec.Params)
		default:
			return nil, fmt.Errorf("unknown key generator type %q for %q", spec.Type, spec.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("key generator %q: %w", spec.Name, err)
		}

		registry[spec.Name] = generator
	}
	return registry, nil
}

func (r Registry) Get(name string) (ports.KeyGenerator, bool) {
	generator, ok := r[name]
	return generator, ok
}
