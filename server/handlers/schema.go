package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFiles embed.FS

const schemaBaseURL = "https://procsim.schemas.local/"

// Schema names.
const (
	assignSchema = "assign"
	actionSchema = "action"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// bodySchemas holds the compiled request body schemas keyed by name.
var bodySchemas = mustCompileSchemas(assignSchema, actionSchema)

func mustCompileSchemas(names ...string) map[string]*jsonschema.Schema {
	schemas, err := compileSchemas(names...)
	if err != nil {
		panic(err)
	}
	return schemas
}

func compileSchemas(names ...string) (map[string]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	schemas := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		data, err := schemaFiles.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		url := schemaBaseURL + name + ".schema.json"
		if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("schema %s load failed: %w", name, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema %s compile failed: %w", name, err)
		}
		schemas[name] = compiled
	}
	return schemas, nil
}

// decodeBody reads a JSON body, validates it against the named schema and
// decodes it into v.
func decodeBody(w http.ResponseWriter, r *http.Request, schema string, v any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return badRequest("failed to read request body", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return badRequest("invalid JSON", err)
	}
	if err := bodySchemas[schema].Validate(doc); err != nil {
		return badRequest("invalid request body", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("invalid request body", err)
	}
	return nil
}
