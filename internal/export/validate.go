package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/trabalhosfenix/planconv/internal/utils"
)

//go:embed schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "https://github.com/trabalhosfenix/planconv/schema/project.json"

// Schema returns the embedded JSON Schema for exported documents.
func Schema() []byte {
	out := make([]byte, len(embeddedSchema))
	copy(out, embeddedSchema)
	return out
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // path to the offending value, e.g. tasks[0].id
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath overrides the embedded schema. If it cannot be loaded,
	// validation falls back to minimal checks and reports a warning.
	SchemaPath string
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool
}

// Err returns the first validation error wrapped with a count of the rest,
// or nil if the document is valid.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid || len(r.Errors) == 0 {
		return nil
	}
	if len(r.Errors) == 1 {
		return fmt.Errorf("invalid document: %w", r.Errors[0])
	}
	return fmt.Errorf("invalid document: %w (and %d more)", r.Errors[0], len(r.Errors)-1)
}

// Validate checks the document against the JSON Schema.
func (d *Document) Validate(opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	schema, warning := compileSchema(opts.SchemaPath)
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	if schema == nil {
		result.Warnings = append(result.Warnings, "JSON Schema validation not available, using minimal checks")
		d.validateMinimal(result)
		return result
	}
	result.UsedSchema = true

	data, err := json.Marshal(d)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to marshal document for validation: %w", err),
		})
		return result
	}
	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("failed to unmarshal document for validation: %w", err),
		})
		return result
	}

	if err := schema.Validate(obj); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}
	return result
}

func compileSchema(path string) (*jsonschema.Schema, string) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Sprintf("invalid schema path: %v", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Sprintf("schema file not found: %s", absPath)
			}
			return nil, fmt.Sprintf("failed to read schema file: %v", err)
		}
		schema, err := compiler.Compile(absPath)
		if err != nil {
			return nil, fmt.Sprintf("invalid schema file: %v", err)
		}
		return schema, ""
	}

	if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, fmt.Sprintf("invalid embedded schema: %v", err)
	}
	schema, err := compiler.Compile(embeddedSchemaURL)
	if err != nil {
		return nil, fmt.Sprintf("invalid embedded schema: %v", err)
	}
	return schema, ""
}

// validateMinimal performs the structural checks that do not need a schema.
func (d *Document) validateMinimal(result *ValidationResult) {
	if d.Tasks == nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "tasks",
			Err:  errors.New("missing required field"),
		})
		return
	}

	for i, task := range d.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		if task.ID == 0 {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".id",
				Err:  errors.New("must be non-zero"),
			})
		}
		if task.PercentComplete < 0 || task.PercentComplete > 100 {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".percentComplete",
				Err:  fmt.Errorf("must be between 0 and 100, got %v", task.PercentComplete),
			})
		}
		if task.ResourceNames != nil && *task.ResourceNames == "" {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".resourceNames",
				Err:  errors.New("must be null when empty"),
			})
		}
		if task.Predecessors != nil && *task.Predecessors == "" {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: path + ".predecessors",
				Err:  errors.New("must be null when empty"),
			})
		}
	}
}

func appendSchemaErrors(result *ValidationResult, err error) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		result.Errors = append(result.Errors, err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}
