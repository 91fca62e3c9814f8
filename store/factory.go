package store

import (
	"fmt"

	"github.com/BaSui01/browserflow/action"
)

// Config selects and parameterizes a backend.
type Config struct {
	Type Type   `yaml:"type"`
	Path string `yaml:"path"` // file: base directory; gorm: sqlite path
}

// Stores bundles the three persistence interfaces one backend provides.
type Stores struct {
	Workflows WorkflowStore
	Templates TemplateStore
	Logs      LogStore
}

// New builds the backend named by cfg.Type. The factory is needed by
// backends that rebuild action trees from serialized records.
func New(cfg Config, factory *action.Factory) (*Stores, error) {
	switch cfg.Type {
	case TypeMemory, "":
		m := NewMemoryStore()
		return &Stores{Workflows: m, Templates: m, Logs: m}, nil
	case TypeFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file store requires a path")
		}
		f, err := NewFileStore(cfg.Path, factory)
		if err != nil {
			return nil, err
		}
		return &Stores{Workflows: f, Templates: f, Logs: f}, nil
	case TypeGorm:
		if cfg.Path == "" {
			return nil, fmt.Errorf("gorm store requires a sqlite path")
		}
		g, err := OpenSQLite(cfg.Path, factory)
		if err != nil {
			return nil, err
		}
		return &Stores{Workflows: g, Templates: g, Logs: g}, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
