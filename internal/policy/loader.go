package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// File names expected under policy_root/<jurisdiction>/.
const (
	RulesFile    = "policy.yaml"
	MappingsFile = "mappings.yaml"
)

// ReservedDefaultTask is the fallback-checks entry in the mappings document.
// It is excluded from coverage computation.
const ReservedDefaultTask = "_default_"

// PolicyPack is a jurisdiction's loaded configuration bundle. Immutable once
// loaded; lifetime is one pipeline run.
type PolicyPack struct {
	Jurisdiction string
	Rules        map[string]any
	Mappings     map[string]any
}

// CheckDeclaration is one declared safety check for a task type.
type CheckDeclaration struct {
	Kind   CheckKind
	Params map[string]any
}

// mappingsSchema structurally validates the mappings document before any
// coverage math runs. The kind enum mirrors AllKinds so a typo in a config
// file is rejected at load time.
const mappingsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "tasks": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["kind"],
          "properties": {
            "kind": {
              "enum": ["require_provenance", "mask_pii", "budget_limit", "age_gate", "content_policy"]
            },
            "params": {"type": "object"}
          }
        }
      }
    }
  }
}`

var compiledMappingsSchema = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := "https://policyassurance.schemas.local/mappings.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(mappingsSchema)); err != nil {
		panic(fmt.Sprintf("mappings schema load failed: %v", err))
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("mappings schema compile failed: %v", err))
	}
	return schema
}()

// Load reads a jurisdiction's rules and mappings documents from the policy
// root and returns them as an in-memory pack. Pure read, no side effects.
func Load(policyRoot, jurisdiction string) (*PolicyPack, error) {
	dir := filepath.Join(policyRoot, jurisdiction)

	rules, err := loadDocument(filepath.Join(dir, RulesFile))
	if err != nil {
		return nil, err
	}

	mappings, err := loadDocument(filepath.Join(dir, MappingsFile))
	if err != nil {
		return nil, err
	}

	if err := compiledMappingsSchema.Validate(mappings); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, MappingsFile, err)
	}

	return &PolicyPack{
		Jurisdiction: jurisdiction,
		Rules:        rules,
		Mappings:     mappings,
	}, nil
}

// loadDocument parses one YAML config file into a generic document.
func loadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// TaskChecks extracts the ordered check declarations for every task in the
// mappings document, including the reserved default entry.
func (p *PolicyPack) TaskChecks() (map[string][]CheckDeclaration, error) {
	tasks, _ := p.Mappings["tasks"].(map[string]any)
	out := make(map[string][]CheckDeclaration, len(tasks))

	for task, raw := range tasks {
		entries, _ := raw.([]any)
		decls := make([]CheckDeclaration, 0, len(entries))
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: task %q has a non-mapping check entry", ErrConfigParse, task)
			}
			name, _ := m["kind"].(string)
			kind := ParseKind(name)
			if kind == "" {
				return nil, fmt.Errorf("%w: task %q declares %q", ErrUnknownKind, task, name)
			}
			params, _ := m["params"].(map[string]any)
			decls = append(decls, CheckDeclaration{Kind: kind, Params: params})
		}
		out[task] = decls
	}
	return out, nil
}
