package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Verifier validates finalized records against each schema's JSON Schema.
type Verifier struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// NewVerifier returns an empty verifier; schemas compile on first use.
func NewVerifier() *Verifier {
	return &Verifier{compiled: make(map[string]*jsonschema.Schema)}
}

// Verify reports whether record satisfies s.JSONSchema().
func (v *Verifier) Verify(s *Schema, record map[string]any) error {
	compiled, err := v.compile(s)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("%s record: %w", s.Name, err)
	}
	return nil
}

func (v *Verifier) compile(s *Schema) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.compiled[s.Name]; ok {
		return c, nil
	}
	doc, err := s.JSONSchema()
	if err != nil {
		return nil, fmt.Errorf("render %s schema: %w", s.Name, err)
	}
	url := "mem://schemas/" + s.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", s.Name, err)
	}
	c, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", s.Name, err)
	}
	v.compiled[s.Name] = c
	return c, nil
}
