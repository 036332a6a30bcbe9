package contract

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ViolationError reports every way a payload failed its contract, not just
// the first.
type ViolationError struct {
	Contract string
	Details  []string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("output violates contract %q: %s", e.Contract, strings.Join(e.Details, "; "))
}

// Validate checks payload against the contract's schema. The check is
// structural: declared types must agree, required members must be present,
// and enum values must be within their declared sets. Constraints outside
// that subset (patterns, bounds, formats) are not evaluated.
func (c *Contract) Validate(payload []byte) error {
	var schema map[string]interface{}
	if err := json.Unmarshal(c.Schema, &schema); err != nil {
		return fmt.Errorf("contract %q has invalid schema: %w", c.Name, err)
	}

	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return &ViolationError{
			Contract: c.Name,
			Details:  []string{fmt.Sprintf("payload is not valid JSON: %v", err)},
		}
	}

	v := &validator{}
	v.check(schema, value, "$")
	if len(v.details) > 0 {
		return &ViolationError{Contract: c.Name, Details: v.details}
	}
	return nil
}

type validator struct {
	details []string
}

func (v *validator) fail(path, format string, args ...interface{}) {
	v.details = append(v.details, path+": "+fmt.Sprintf(format, args...))
}

func (v *validator) check(schema map[string]interface{}, value interface{}, path string) {
	typ, _ := schema["type"].(string)

	switch typ {
	case "object":
		v.checkObject(schema, value, path)
	case "array":
		v.checkArray(schema, value, path)
	case "string":
		s, ok := value.(string)
		if !ok {
			v.fail(path, "expected string, got %s", jsonKind(value))
			return
		}
		v.checkEnum(schema, s, path)
	case "number":
		if _, ok := value.(float64); !ok {
			v.fail(path, "expected number, got %s", jsonKind(value))
		}
	case "integer":
		n, ok := value.(float64)
		if !ok {
			v.fail(path, "expected integer, got %s", jsonKind(value))
			return
		}
		if n != math.Trunc(n) {
			v.fail(path, "expected integer, got %v", n)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			v.fail(path, "expected boolean, got %s", jsonKind(value))
		}
	default:
		// Untyped subschema: enum may still constrain it.
		if s, ok := value.(string); ok {
			v.checkEnum(schema, s, path)
		}
	}
}

func (v *validator) checkObject(schema map[string]interface{}, value interface{}, path string) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		v.fail(path, "expected object, got %s", jsonKind(value))
		return
	}

	if required, ok := schema["required"].([]interface{}); ok {
		for _, r := range required {
			name, ok := r.(string)
			if !ok {
				continue
			}
			if _, present := obj[name]; !present {
				v.fail(path, "missing required field %q", name)
			}
		}
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return
	}
	for name, sub := range props {
		subSchema, ok := sub.(map[string]interface{})
		if !ok {
			continue
		}
		fieldValue, present := obj[name]
		if !present {
			continue
		}
		v.check(subSchema, fieldValue, path+"."+name)
	}
}

func (v *validator) checkArray(schema map[string]interface{}, value interface{}, path string) {
	arr, ok := value.([]interface{})
	if !ok {
		v.fail(path, "expected array, got %s", jsonKind(value))
		return
	}

	items, ok := schema["items"].(map[string]interface{})
	if !ok {
		return
	}
	for i, item := range arr {
		v.check(items, item, fmt.Sprintf("%s[%d]", path, i))
	}
}

func (v *validator) checkEnum(schema map[string]interface{}, value string, path string) {
	enum, ok := schema["enum"].([]interface{})
	if !ok {
		return
	}
	for _, e := range enum {
		if s, ok := e.(string); ok && s == value {
			return
		}
	}
	v.fail(path, "value %q not in enum %v", value, enum)
}

// jsonKind names the JSON kind of a decoded value for error messages.
func jsonKind(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
