package source

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator checks raw rows against a JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a schema document.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

func embeddedValidator(name string) (*Validator, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read embedded schema %s: %w", name, err)
	}

	return NewValidator(data)
}

// ProfileValidator validates instagram profile rows.
func ProfileValidator() (*Validator, error) { return embeddedValidator("profile.json") }

// EventValidator validates whatsapp event rows.
func EventValidator() (*Validator, error) { return embeddedValidator("event.json") }

// Validate returns nil for a conforming row, or ErrInvalidRow listing every
// violation.
func (v *Validator) Validate(row any) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(row))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRow, err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidRow, strings.Join(msgs, "; "))
}
