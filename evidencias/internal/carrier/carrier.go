// Package carrier maps driver names to the carrier company (permisionario)
// they work for.
package carrier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Unknown is returned for operators with no configured carrier.
const Unknown = "UNKNOWN"

// Resolver is an immutable operator -> carrier lookup. Safe for concurrent use.
type Resolver struct {
	carriers map[string]string
}

// NewResolver copies mapping into a new Resolver.
func NewResolver(mapping map[string]string) *Resolver {
	carriers := make(map[string]string, len(mapping))
	for operador, permisionario := range mapping {
		carriers[operador] = permisionario
	}
	return &Resolver{carriers: carriers}
}

// Resolve returns the carrier for operador, or Unknown when the operator is
// empty, unmapped, or mapped to an empty name.
func (r *Resolver) Resolve(operador string) string {
	if r == nil || operador == "" {
		return Unknown
	}
	if permisionario := r.carriers[operador]; permisionario != "" {
		return permisionario
	}
	return Unknown
}

// Len returns the number of configured operators.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.carriers)
}

// LoadFile reads an operator -> carrier mapping from a JSON or YAML file,
// e.g. permisionarios.json:
//
//	{"Juan Perez": "Transportes Vepo", "Luis": "Fletes del Norte"}
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read carrier map: %w", err)
	}

	mapping := map[string]string{}
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse carrier map %s: %w", path, err)
	}

	return mapping, nil
}

// Merge combines mappings left to right; later maps override earlier ones.
func Merge(mappings ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, m := range mappings {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
