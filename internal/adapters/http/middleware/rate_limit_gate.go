// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/ports"
	"github.com/mokapos/ratelimit-gate/internal/observability"
)

const rateLimitExceededMessage = "you have reached the maximum number of requests or actions allowed within a certain time frame"

// NewRateLimitGate devolve o middleware que submete cada requisição ao
// controle de admissão. O body é bufferizado antes da decisão para que
// os geradores de chave possam lê-lo sem consumi-lo para o handler
// seguinte.
func NewRateLimitGate(admitter ports.Admitter, log *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if admitter == nil {
				next.ServeHTTP(w, r)
				return
			}

			body, err := bufferBody(r)
			if err != nil {
				log.Warnw("failed to read request body", "uri", r.URL.Path, "error", err)
				writeError(w, http.StatusBadRequest, "request body could not be read")
				return
			}

			decision, err := admitter.Admit(r.Context(), domain.Request{
				Method:  r.Method,
				URI:     r.URL.Path,
				Body:    body,
				Headers: r.Header,
			})
			if err != nil {
				if domain.IsFieldNotPresentedError(err) {
					log.Warnw("key derivation failed", "uri", r.URL.Path, "error", err)
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}

				log.Errorw("admission failed", "uri", r.URL.Path, "error", err)
				writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				return
			}

			if !decision.Allowed {
				writeTooManyRequests(w, decision)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bufferBody lê o body inteiro e o repõe em r.Body, mantendo-o legível
// pelos handlers seguintes.
func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func writeTooManyRequests(w http.ResponseWriter, decision domain.Decision) {
	retryAfter := decision.Policy.Duration
	if decision.Rate.Blocked && decision.Policy.BlockDuration > 0 {
		retryAfter = decision.Policy.BlockDuration
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": rateLimitExceededMessage,
		"policy":  decision.Policy.Name,
		"blocked": decision.Rate.Blocked,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
