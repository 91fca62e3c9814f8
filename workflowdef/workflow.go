// Package workflowdef holds the durable workflow document: a named, ordered
// action tree with JSON and YAML (de)serialization through the action
// factory.
package workflowdef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/browserflow/action"
)

// Workflow is one editable, runnable automation: an ordered action tree plus
// display metadata. The workflow owns its actions; runners only borrow them.
type Workflow struct {
	Name        string
	Description string
	Actions     []action.Action
}

// document is the serialized shape.
type document struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Actions     []action.Record `json:"actions" yaml:"actions"`
}

// Validate checks the workflow and every action in its tree.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	for i, a := range w.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// ToRecords serializes the top-level action list.
func (w *Workflow) ToRecords() []action.Record {
	return action.ToRecords(w.Actions)
}

// ToJSON renders the workflow as indented JSON.
func (w *Workflow) ToJSON() ([]byte, error) {
	doc := document{Name: w.Name, Description: w.Description, Actions: w.ToRecords()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal workflow to JSON: %w", err)
	}
	return data, nil
}

// ToYAML renders the workflow as YAML.
func (w *Workflow) ToYAML() ([]byte, error) {
	doc := document{Name: w.Name, Description: w.Description, Actions: w.ToRecords()}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal workflow to YAML: %w", err)
	}
	return data, nil
}

// FromJSON parses a workflow document, rebuilding the action tree through
// the factory and validating the result.
func FromJSON(data []byte, factory *action.Factory) (*Workflow, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal workflow from JSON: %w", err)
	}
	return fromDocument(doc, factory)
}

// FromYAML parses a YAML workflow document.
func FromYAML(data []byte, factory *action.Factory) (*Workflow, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal workflow from YAML: %w", err)
	}
	// YAML decodes nested maps as map[string]any already with yaml.v3.
	return fromDocument(doc, factory)
}

func fromDocument(doc document, factory *action.Factory) (*Workflow, error) {
	actions, err := factory.FromRecordList(doc.Actions)
	if err != nil {
		return nil, fmt.Errorf("rebuild workflow %q: %w", doc.Name, err)
	}
	w := &Workflow{Name: doc.Name, Description: doc.Description, Actions: actions}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return w, nil
}

// LoadFile loads a workflow from a .json, .yaml, or .yml file.
func LoadFile(path string, factory *action.Factory) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data, factory)
	default:
		return FromJSON(data, factory)
	}
}

// SaveFile writes a workflow to path; the extension selects the format.
func (w *Workflow) SaveFile(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = w.ToYAML()
	default:
		data, err = w.ToJSON()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write workflow file: %w", err)
	}
	return nil
}
