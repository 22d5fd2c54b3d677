package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FormValidator validates submitted form fields against a panel schema.
type FormValidator interface {
	Validate(def PanelDefinition, fields map[string]any) error
}

// JSONSchemaValidator compiles panel schemas and validates form payloads.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures the provided fields satisfy the panel schema. Schema
// violations are returned as validation errors with one entry per field.
func (v *JSONSchemaValidator) Validate(def PanelDefinition, fields map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	var payload map[string]any
	if fields == nil {
		payload = map[string]any{}
	} else {
		data, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("dashboard: marshal fields for %s: %w", def.Code, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("dashboard: normalize fields for %s: %w", def.Code, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return goerrors.NewValidation(def.Name+" is invalid", fieldErrors(verr)...)
		}
		return fmt.Errorf("dashboard: validate %s: %w", def.Code, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(def PanelDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Code]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Code, err)
	}
	compiler := jsonschema.NewCompiler()
	name := def.Code + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Code, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Code, err)
	}
	v.mu.Lock()
	v.compiled[def.Code] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// fieldErrors flattens the leaves of a schema error tree.
func fieldErrors(verr *jsonschema.ValidationError) []goerrors.FieldError {
	if len(verr.Causes) == 0 {
		field := strings.TrimPrefix(verr.InstanceLocation, "/")
		if field == "" {
			field = "form"
		}
		return []goerrors.FieldError{{Field: field, Message: verr.Message}}
	}
	var out []goerrors.FieldError
	for _, cause := range verr.Causes {
		out = append(out, fieldErrors(cause)...)
	}
	return out
}
