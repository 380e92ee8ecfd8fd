package process

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_process.yaml
var defaultDefinition []byte

// Default returns the built-in "Product Delivery Lifecycle" definition.
func Default() Process {
	p, err := Decode(bytes.NewReader(defaultDefinition))
	if err != nil {
		panic(fmt.Sprintf("built-in process definition: %v", err))
	}
	return p
}

// Decode reads and validates a YAML process definition.
func Decode(r io.Reader) (Process, error) {
	var p Process
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Process{}, fmt.Errorf("failed to decode process definition: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Process{}, err
	}
	return p, nil
}

// LoadDefinition returns the process served by the catalog. An empty path
// selects the built-in definition. A non-empty key overrides the definition's key.
func LoadDefinition(path, key string) (Process, error) {
	var p Process
	if path == "" {
		p = Default()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return Process{}, fmt.Errorf("failed to open process definition %s: %w", path, err)
		}
		defer f.Close()

		p, err = Decode(f)
		if err != nil {
			return Process{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if key != "" {
		p.Key = key
	}
	return p, nil
}
