package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mokapos/ratelimit-gate/internal/core/domain"
	"github.com/mokapos/ratelimit-gate/internal/core/keygen"
)

// PolicySet é o resultado validado do arquivo de políticas: pronto para
// alimentar matcher, registry e wiring do middleware.
type PolicySet struct {
	FilterOrder   int
	Policies      []domain.Policy
	KeyGenerators []keygen.Spec
}

type policyFile struct {
	FilterOrder   int             `yaml:"filterOrder"`
	KeyGenerators []generatorYAML `yaml:"keyGenerators"`
	Policies      []policyYAML    `yaml:"policies"`
}

type generatorYAML struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Params []string `yaml:"params"`
}

type policyYAML struct {
	Name          string      `yaml:"name"`
	Duration      string      `yaml:"duration"`
	Count         int         `yaml:"count"`
	KeyGenerator  string      `yaml:"keyGenerator"`
	Routes        []routeYAML `yaml:"routes"`
	ExcludeRoutes []routeYAML `yaml:"excludeRoutes"`
	Block         *blockYAML  `yaml:"block"`
}

type routeYAML struct {
	URI    string `yaml:"uri"`
	Method string `yaml:"method"`
}

type blockYAML struct {
	Duration string `yaml:"duration"`
}

// LoadPolicies lê e valida o arquivo de políticas. Qualquer política
// malformada é erro fatal de inicialização; nada é descoberto em
// tempo de requisição.
func LoadPolicies(path string) (PolicySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PolicySet{}, fmt.Errorf("read policies file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return PolicySet{}, fmt.Errorf("parse policies file: %w", err)
	}

	generatorNames := make(map[string]bool, len(file.KeyGenerators))
	specs := make([]keygen.Spec, 0, len(file.KeyGenerators))
	for _, g := range file.KeyGenerators {
		if strings.TrimSpace(g.Name) == "" {
			return PolicySet{}, fmt.Errorf("key generator must have a name")
		}
		if generatorNames[g.Name] {
			return PolicySet{}, fmt.Errorf("duplicated key generator %q", g.Name)
		}
		generatorNames[g.Name] = true
		specs = append(specs, keygen.Spec{Name: g.Name, Type: g.Type, Params: g.Params})
	}

	policies := make([]domain.Policy, 0, len(file.Policies))
	policyNames := make(map[string]bool, len(file.Policies))
	for _, p := range file.Policies {
		policy, err := buildPolicy(p, generatorNames)
		if err != nil {
			return PolicySet{}, err
		}
		if policyNames[policy.Name] {
			return PolicySet{}, fmt.Errorf("duplicated policy %q", policy.Name)
		}
		policyNames[policy.Name] = true
		policies = append(policies, policy)
	}

	return PolicySet{
		FilterOrder:   file.FilterOrder,
		Policies:      policies,
		KeyGenerators: specs,
	}, nil
}

func buildPolicy(p policyYAML, generatorNames map[string]bool) (domain.Policy, error) {
	if strings.TrimSpace(p.Name) == "" {
		return domain.Policy{}, fmt.Errorf("policy must have a name")
	}

	duration, err := time.ParseDuration(p.Duration)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("policy %q: invalid duration: %w", p.Name, err)
	}
	if duration <= 0 {
		return domain.Policy{}, fmt.Errorf("policy %q: duration must be positive", p.Name)
	}

	if p.Count < 1 {
		return domain.Policy{}, fmt.Errorf("policy %q: count must be at least 1", p.Name)
	}

	if !generatorNames[p.KeyGenerator] {
		return domain.Policy{}, fmt.Errorf("policy %q: unknown key generator %q", p.Name, p.KeyGenerator)
	}

	if len(p.Routes) == 0 {
		return domain.Policy{}, fmt.Errorf("policy %q: routes must not be empty", p.Name)
	}

	routes, err := buildRoutes(p.Name, p.Routes)
	if err != nil {
		return domain.Policy{}, err
	}
	excludeRoutes, err := buildRoutes(p.Name, p.ExcludeRoutes)
	if err != nil {
		return domain.Policy{}, err
	}

	var blockDuration time.Duration
	if p.Block != nil {
		blockDuration, err = time.ParseDuration(p.Block.Duration)
		if err != nil {
			return domain.Policy{}, fmt.Errorf("policy %q: invalid block duration: %w", p.Name, err)
		}
		if blockDuration <= 0 {
			return domain.Policy{}, fmt.Errorf("policy %q: block duration must be positive", p.Name)
		}
	}

	return domain.Policy{
		Name:          p.Name,
		Duration:      duration,
		Count:         p.Count,
		KeyGenerator:  p.KeyGenerator,
		Routes:        routes,
		ExcludeRoutes: excludeRoutes,
		BlockDuration: blockDuration,
	}, nil
}

func buildRoutes(policyName string, routes []routeYAML) ([]domain.Route, error) {
	built := make([]domain.Route, 0, len(routes))
	for _, r := range routes {
		if strings.TrimSpace(r.URI) == "" {
			return nil, fmt.Errorf("policy %q: route uri must not be empty", policyName)
		}
		if !doublestar.ValidatePattern(r.URI) {
			return nil, fmt.Errorf("policy %q: invalid route pattern %q", policyName, r.URI)
		}
		built = append(built, domain.Route{
			URI:    r.URI,
			Method: strings.ToUpper(strings.TrimSpace(r.Method)),
		})
	}
	return built, nil
}
