// Package contract defines structured-output contracts: JSON Schema
// documents a session's terminal payload must satisfy. Contracts are
// typically generated from Go struct tags, forwarded to the CLI so the
// service shapes its output, and then enforced again client-side before a
// payload is surfaced as a success.
package contract

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Contract couples a name with a JSON Schema document.
type Contract struct {
	Name   string
	Schema json.RawMessage
}

// New wraps a hand-written schema document.
func New(name string, schema json.RawMessage) *Contract {
	return &Contract{Name: name, Schema: schema}
}

// ForType generates a contract from T's struct tags. Fields without
// omitempty are required; enum constraints come from jsonschema tags.
func ForType[T any](name string) (*Contract, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %q: %w", name, err)
	}

	return &Contract{Name: name, Schema: data}, nil
}

// MustForType is ForType for package-level contract variables; it panics on
// reflection failure.
func MustForType[T any](name string) *Contract {
	c, err := ForType[T](name)
	if err != nil {
		panic(err)
	}
	return c
}

// Decode validates payload against c and unmarshals it into T.
func Decode[T any](c *Contract, payload []byte) (T, error) {
	var out T
	if err := c.Validate(payload); err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("decode %q payload: %w", c.Name, err)
	}
	return out, nil
}
