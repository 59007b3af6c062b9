// Package observability encapsula o logger estruturado da aplicação.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.SugaredLogger
}

// NewLogger cria um logger zap de produção no nível informado
// (debug, info, warn, error). Nível vazio assume info.
func NewLogger(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{logger.Sugar()}, nil
}

// NewNop devolve um logger que descarta tudo, útil em testes.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}
