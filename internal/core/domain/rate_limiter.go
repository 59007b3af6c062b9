// Package domain concentra entidades e estruturas centrais do rate limiter.
package domain

import "time"

// Route descreve um padrão de URI (glob) com método HTTP opcional.
// Método vazio casa com qualquer método.
type Route struct {
	URI    string
	Method string
}

// Policy é a unidade imutável de configuração de uma regra de quota.
type Policy struct {
	Name          string
	Duration      time.Duration
	Count         int
	KeyGenerator  string
	Routes        []Route
	ExcludeRoutes []Route
	// BlockDuration define o cool-down após estourar a quota.
	// Zero significa sem bloqueio.
	BlockDuration time.Duration
}

// RatePolicy é a entrada resolvida de uma única operação de consumo:
// a chave de identidade já derivada mais os parâmetros da janela.
type RatePolicy struct {
	Key           string
	Duration      time.Duration
	Count         int
	BlockDuration time.Duration
}

// Rate é o resultado de um consumo.
type Rate struct {
	Count    int64
	Exceeded bool
	Blocked  bool
}

// Request é a superfície da requisição consumida pelo núcleo,
// sem dependência de net/http. Body precisa continuar legível pelo
// handler seguinte; o adapter HTTP é responsável pelo buffering.
type Request struct {
	Method  string
	URI     string
	Body    []byte
	Headers map[string][]string
}

// Decision é o veredito de admissão de uma requisição.
// Quando Allowed é falso, Rate e Policy carregam a violação.
type Decision struct {
	Allowed bool
	Rate    Rate
	Policy  Policy
}
