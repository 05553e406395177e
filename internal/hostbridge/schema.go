package hostbridge

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Schema names, one per inbound message shape.
const (
	schemaWorldEvent     = "world_event.schema.json"
	schemaBlockEvent     = "block_event.schema.json"
	schemaBlockState     = "block_state.schema.json"
	schemaPlayerInteract = "player_interact.schema.json"
)

// validators holds the compiled inbound schemas.
type validators map[string]*jsonschema.Schema

func compileSchemas() (validators, error) {
	names := []string{schemaWorldEvent, schemaBlockEvent, schemaBlockState, schemaPlayerInteract}

	compiler := jsonschema.NewCompiler()
	for _, name := range names {
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("adding schema %s: %w", name, err)
		}
	}

	out := make(validators, len(names))
	for _, name := range names {
		s, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}

// decode validates payload against the named schema and unmarshals it
// into dst. An empty payload is treated as an empty object.
func (v validators) decode(name string, payload []byte, dst any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := v[name].Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}
