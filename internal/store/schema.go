// ABOUTME: JSON schema check for persisted habit forests
// ABOUTME: Rejects documents that parse as JSON but are not shaped like a forest

package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed forest.schema.json
var forestSchemaJSON []byte

const forestSchemaURL = "forest.schema.json"

var forestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(forestSchemaURL, bytes.NewReader(forestSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(forestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// validateForest checks that data is a JSON array of habit objects.
// Returns an error wrapping ErrCorrupt when it is not.
func validateForest(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrCorrupt, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after forest", ErrCorrupt)
	}

	schema, err := forestSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrCorrupt, schemaErrorSummary(err))
	}
	return nil
}

// schemaErrorSummary flattens a schema validation error to its leaf causes.
func schemaErrorSummary(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var msgs []string
	collectSchemaCauses(ve, &msgs)
	if len(msgs) == 0 {
		return ve.Error()
	}
	return strings.Join(msgs, "; ")
}

func collectSchemaCauses(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		location := ve.InstanceLocation
		if location == "" {
			location = "/"
		}
		*msgs = append(*msgs, location+": "+ve.Message)
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaCauses(cause, msgs)
	}
}
