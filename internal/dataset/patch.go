package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-legend/internal/legend"
)

// PatchSchemaID is the value every patch file carries in its schema field.
const PatchSchemaID = "legend-patch"

const patchSchemaURL = "patch.schema.json"

//go:embed schema/patch.schema.json
var patchSchemaJSON []byte

var compilePatchSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(patchSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse patch schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(patchSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add patch schema resource: %w", err)
	}
	return c.Compile(patchSchemaURL)
})

// patchFile is the on-disk layout shared by the JSON and YAML encodings.
type patchFile struct {
	Version  string       `json:"version" yaml:"version"`
	Schema   string       `json:"schema" yaml:"schema"`
	Provider string       `json:"provider" yaml:"provider"`
	Entries  []patchEntry `json:"entries" yaml:"entries"`
}

type patchEntry struct {
	Op       legend.OpKind `json:"op" yaml:"op"`
	SymbolID string        `json:"symbol_id,omitempty" yaml:"symbol_id,omitempty"`
	Target   legend.Target `json:"target" yaml:"target"`
	Set      legend.Fields `json:"set,omitempty" yaml:"set,omitempty"`
}

// LoadPatch reads a patch file, choosing JSON or YAML by extension.
func LoadPatch(path string) (legend.Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return legend.Patch{}, fmt.Errorf("read patch: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return DecodePatchJSON(data)
	case ".yaml", ".yml":
		return DecodePatchYAML(data)
	default:
		return legend.Patch{}, fmt.Errorf("unsupported patch format %q", ext)
	}
}

// DecodePatchJSON validates and decodes a JSON patch file.
func DecodePatchJSON(data []byte) (legend.Patch, error) {
	if err := validatePatch(data); err != nil {
		return legend.Patch{}, err
	}
	var f patchFile
	if err := json.Unmarshal(data, &f); err != nil {
		return legend.Patch{}, fmt.Errorf("%w: failed to decode patch: %v", legend.ErrMalformedDataset, err)
	}
	return f.patch()
}

// DecodePatchYAML validates and decodes a YAML patch file. The YAML document
// is re-encoded as JSON for schema validation.
func DecodePatchYAML(data []byte) (legend.Patch, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return legend.Patch{}, fmt.Errorf("%w: failed to parse patch: %v", legend.ErrMalformedDataset, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return legend.Patch{}, fmt.Errorf("%w: patch is not JSON compatible: %v", legend.ErrMalformedDataset, err)
	}
	if err := validatePatch(asJSON); err != nil {
		return legend.Patch{}, err
	}
	var f patchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return legend.Patch{}, fmt.Errorf("%w: failed to decode patch: %v", legend.ErrMalformedDataset, err)
	}
	return f.patch()
}

func validatePatch(data []byte) error {
	schema, err := compilePatchSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: failed to parse patch: %v", legend.ErrMalformedDataset, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: patch schema validation failed: %v", legend.ErrMalformedDataset, err)
	}
	return nil
}

func (f patchFile) patch() (legend.Patch, error) {
	p := legend.Patch{
		Provider:   strings.TrimSpace(f.Provider),
		Operations: make([]legend.Operation, 0, len(f.Entries)),
	}
	for i, e := range f.Entries {
		switch e.Op {
		case legend.OpAlias:
			p.Operations = append(p.Operations, legend.Alias{SymbolID: e.SymbolID, Target: e.Target})
		case legend.OpNightVariant:
			p.Operations = append(p.Operations, legend.NightVariant{SymbolID: e.SymbolID, Day: e.Target})
		case legend.OpOverride:
			p.Operations = append(p.Operations, legend.Override{Target: e.Target, Set: e.Set})
		default:
			return legend.Patch{}, fmt.Errorf("%w: entry %d has unknown op %q", legend.ErrMalformedDataset, i+1, e.Op)
		}
	}
	return p, nil
}
