package canned

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

//go:embed rules.schema.json
var rulesSchema string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("rules.schema.json", strings.NewReader(rulesSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("rules.schema.json")
	})
	return schema, schemaErr
}

var (
	defaultOnce    sync.Once
	defaultMatcher *Matcher
)

// Default returns the matcher built from the embedded rule table. The
// matcher is immutable and shared.
func Default() *Matcher {
	defaultOnce.Do(func() {
		m, err := Load(defaultRules)
		if err != nil {
			panic(fmt.Sprintf("canned: embedded rules are invalid: %v", err))
		}
		defaultMatcher = m
	})
	return defaultMatcher
}

// LoadFile reads a rule table from path. An empty path yields Default().
func LoadFile(path string) (*Matcher, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Load(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load validates a YAML rule table against the schema and builds a Matcher.
func Load(b []byte) (*Matcher, error) {
	if err := validate(b); err != nil {
		return nil, err
	}

	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("decode rules: multiple documents are not allowed")
		}
		return nil, err
	}
	return NewMatcher(t)
}

func validate(b []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile rules schema: %w", err)
	}

	// yaml -> generic value -> json, so the validator sees JSON types.
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode rules: %w", err)
	}
	j, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("decode rules: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode rules: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	return nil
}
