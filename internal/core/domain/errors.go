package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStoreUnavailable = errors.New("quota store unavailable")
)

func IsStoreUnavailableError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// FieldNotPresentedError indica que a derivação de chave falhou: body
// ilegível, não parseável ou campo/header configurado ausente.
type FieldNotPresentedError struct {
	Field  string
	Reason string
}

func (e *FieldNotPresentedError) Error() string {
	return fmt.Sprintf("field %q not presented: %s", e.Field, e.Reason)
}

func IsFieldNotPresentedError(err error) bool {
	var target *FieldNotPresentedError
	return errors.As(err, &target)
}
