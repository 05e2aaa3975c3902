package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// The tracking directory holds two JSON file shapes side by side
// (relationship files and tree-snapshot files), and a reader must refuse to
// return one as the other. The shape discriminator catches mislabeled
// envelopes; these schemas additionally catch hand-edited or truncated files
// whose envelope says the right thing but whose body does not hold the
// promised structure.

const relationshipFileSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["shape", "relationship"],
	"properties": {
		"shape": {"const": "relationship"},
		"relationship": {
			"type": "object",
			"required": ["SourceEntryID", "TargetEntryID"],
			"properties": {
				"SourceEntryID": {"type": "string", "minLength": 1},
				"TargetEntryID": {"type": "string", "minLength": 1},
				"FieldHashes": {"type": ["object", "null"]},
				"CloneMapping": {"type": ["object", "null"]}
			}
		}
	}
}`

const treeFileSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["shape", "tree"],
	"properties": {
		"shape": {"const": "tree"},
		"tree": {
			"type": ["object", "null"],
			"properties": {
				"SourceEntryID": {"type": "string"},
				"TargetEntryID": {"type": "string"},
				"MaxDepth": {"type": "integer"},
				"FlattenedRefs": {"type": ["object", "null"]}
			}
		}
	}
}`

var (
	compileOnce        sync.Once
	relationshipSchema *jsonschema.Schema
	treeSchema         *jsonschema.Schema
	compileErr         error
)

func compileFileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("relationship.json", bytes.NewReader([]byte(relationshipFileSchema))); err != nil {
		compileErr = err
		return
	}
	if err := compiler.AddResource("tree.json", bytes.NewReader([]byte(treeFileSchema))); err != nil {
		compileErr = err
		return
	}
	if relationshipSchema, compileErr = compiler.Compile("relationship.json"); compileErr != nil {
		return
	}
	treeSchema, compileErr = compiler.Compile("tree.json")
}

func validateFileShape(path string, data []byte, wantTree bool) error {
	compileOnce.Do(compileFileSchemas)
	if compileErr != nil {
		return fmt.Errorf("store: compile file schemas: %w", compileErr)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("store: decode %q: %w", path, err)
	}

	schema := relationshipSchema
	kind := "relationship"
	if wantTree {
		schema = treeSchema
		kind = "tree snapshot"
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("store: %q is not a valid %s file: %w", path, kind, err)
	}
	return nil
}
