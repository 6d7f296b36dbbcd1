package bpmn

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/bpmnlayout/pkg/errors"
)

const schemaURL = "https://bpmnlayout.dev/schemas/model.json"

//go:embed schema.json
var modelSchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the embedded JSON Schema (draft 2020-12) of model files.
func Schema() string { return modelSchemaJSON }

func modelSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(modelSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("unmarshal model schema: %w", err)
			return
		}
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add model schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile model schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateSchema validates raw JSON model bytes against the model schema.
// Violations are reported as an *errors.Error with code INVALID_MODEL whose
// message lists every violated location.
func ValidateSchema(data []byte) error {
	schema, err := modelSchema()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "model schema unavailable")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "model is not valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return toModelError(err)
	}
	return nil
}

// ValidateSchemaYAML validates a YAML model against the model schema by
// converting it to its JSON equivalent first.
func ValidateSchemaYAML(data []byte) error {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "model is not valid YAML")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "model cannot be represented as JSON")
	}
	return ValidateSchema(b)
}

func toModelError(err error) error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidModel, err, "schema validation failed")
	}
	violations := collectViolations(verr)
	switch len(violations) {
	case 0:
		return errors.New(errors.ErrCodeInvalidModel, "%s", verr.Error())
	case 1:
		return errors.New(errors.ErrCodeInvalidModel, "%s", violations[0])
	default:
		return errors.New(errors.ErrCodeInvalidModel, "schema validation failed with %d errors: %s",
			len(violations), strings.Join(violations, "; "))
	}
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
