package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func hasErrorPath(result *ValidationResult, prefix string) bool {
	for _, err := range result.Errors {
		var ve *ValidationError
		if errors.As(err, &ve) && strings.HasPrefix(ve.Path, prefix) {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	t.Run("demo document is valid", func(t *testing.T) {
		doc := Normalize(demoProject(), Options{})
		result := doc.Validate(ValidationOptions{})
		if !result.Valid {
			t.Fatalf("expected valid, got %v", result.Errors)
		}
		if !result.UsedSchema {
			t.Error("expected the embedded schema to be used")
		}
		if result.Err() != nil {
			t.Errorf("Err() = %v, want nil", result.Err())
		}
	})

	tests := []struct {
		name string
		edit func(*Document)
		path string
	}{
		{"zero id", func(d *Document) { d.Tasks[0].ID = 0 }, "tasks[0].id"},
		{"percent above 100", func(d *Document) { d.Tasks[1].PercentComplete = 120 }, "tasks[1].percentComplete"},
		{"empty resource names", func(d *Document) {
			empty := ""
			d.Tasks[0].ResourceNames = &empty
		}, "tasks[0].resourceNames"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Normalize(demoProject(), Options{})
			tt.edit(doc)

			result := doc.Validate(ValidationOptions{})
			if result.Valid {
				t.Fatal("expected invalid document")
			}
			if !hasErrorPath(result, tt.path) {
				t.Errorf("no error at %s: %v", tt.path, result.Errors)
			}
			if err := result.Err(); err == nil || !strings.Contains(err.Error(), "invalid document") {
				t.Errorf("Err() = %v", err)
			}
		})
	}
}

func TestValidateSchemaPath(t *testing.T) {
	t.Run("missing schema falls back to minimal checks", func(t *testing.T) {
		doc := Normalize(demoProject(), Options{})
		doc.Tasks[0].ID = 0

		result := doc.Validate(ValidationOptions{SchemaPath: filepath.Join(t.TempDir(), "missing.json")})
		if result.UsedSchema {
			t.Error("schema should not be used")
		}
		if len(result.Warnings) != 2 {
			t.Errorf("expected 2 warnings, got %v", result.Warnings)
		}
		if result.Valid || !hasErrorPath(result, "tasks[0].id") {
			t.Errorf("minimal checks should reject the zero id: %v", result.Errors)
		}
	})

	t.Run("custom schema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.json")
		schema := `{"$schema": "https://json-schema.org/draft/2020-12/schema", "type": "object", "required": ["author"]}`
		if err := os.WriteFile(path, []byte(schema), 0644); err != nil {
			t.Fatal(err)
		}

		result := Normalize(demoProject(), Options{}).Validate(ValidationOptions{SchemaPath: path})
		if !result.UsedSchema {
			t.Fatalf("custom schema not used: %v", result.Warnings)
		}
		if result.Valid {
			t.Error("custom schema requires author")
		}
	})
}

func TestSchemaIsCopy(t *testing.T) {
	s := Schema()
	s[0] = 'x'
	if Schema()[0] == 'x' {
		t.Error("Schema should return a copy")
	}
}
