package keygen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/ports"
)

// BodyGenerator deriva a chave a partir de campos do body JSON da
// requisição. A lista de campos é uma sequência ordenada vinda da
// configuração, nunca um conjunto: a ordem participa da chave.
type BodyGenerator struct {
	fields []string
}

var _ ports.KeyGenerator = (*BodyGenerator)(nil)

func NewBodyGenerator(fields []string) (*BodyGenerator, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("body key generator requires at least one field")
	}
	return &BodyGenerator{fields: append([]string(nil), fields...)}, nil
}

func (g *BodyGenerator) GenerateKey(req domain.Request, policy domain.Policy) (string, error) {
	key := baseKey(req, policy)

	if len(req.Body) == 0 {
		return "", &domain.FieldNotPresentedError{
			Field:  g.fields[0],
			Reason: "request body is empty for " + req.URI,
		}
	}

	dec := json.NewDecoder(bytes.NewReader(req.Body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return "", &domain.FieldNotPresentedError{
			Field:  g.fields[0],
			Reason: "request body is not a JSON object for " + req.URI,
		}
	}

	for _, field := range g.fields {
		value, ok := payload[field]
		if !ok || value == nil {
			return "", &domain.FieldNotPresentedError{
				Field:  field,
				Reason: "not presented in the request body for " + req.URI,
			}
		}
		key.WriteString(keySeparator)
		key.WriteString(stringifyField(value))
	}

	return key.String(), nil
}

// stringifyField converte valores JSON em texto estável. Números passam
// como json.Number para preservar a representação literal do body.
func stringifyField(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
