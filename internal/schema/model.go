// Package schema holds the schema model: the complete set of data-definition
// modules currently loaded by the system, and the registry that exposes the
// current model to the rest of the process.
package schema

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// YangLibraryModuleName is the module that defines the module-library record
	YangLibraryModuleName = "ietf-yang-library"

	// MonitoringModuleName is the module that defines the capabilities record
	MonitoringModuleName = "ietf-restconf-monitoring"

	// revisionLayout is the date format used by module revisions
	revisionLayout = "2006-01-02"
)

// ErrInvalidModel is returned when a model cannot be constructed from the given modules.
var ErrInvalidModel = errors.New("invalid schema model")

// Generation tags one accepted model update. Values are strictly increasing
// and never reused within a process.
type Generation uint64

// String returns the decimal form used as the module-set-id.
func (g Generation) String() string {
	return strconv.FormatUint(uint64(g), 10)
}

// Submodule describes a submodule included by a module.
type Submodule struct {
	Name     string `yaml:"name" json:"name"`
	Revision string `yaml:"revision,omitempty" json:"revision,omitempty"`
}

// Module describes one loaded data-definition module.
type Module struct {
	Name       string      `yaml:"name" json:"name"`
	Revision   string      `yaml:"revision,omitempty" json:"revision,omitempty"`
	Namespace  string      `yaml:"namespace" json:"namespace"`
	Features   []string    `yaml:"features,omitempty" json:"features,omitempty"`
	Submodules []Submodule `yaml:"submodules,omitempty" json:"submodules,omitempty"`
}

// ID returns name@revision, or just the name for modules without a revision.
func (m Module) ID() string {
	if m.Revision == "" {
		return m.Name
	}
	return m.Name + "@" + m.Revision
}

func (m Module) clone() Module {
	out := m
	out.Features = slices.Clone(m.Features)
	out.Submodules = slices.Clone(m.Submodules)
	return out
}

// Model is an immutable snapshot of every loaded module. A *Model obtained
// from NewModel is always fully valid; a nil *Model means "no model yet".
type Model struct {
	modules []Module
	digest  string
}

// NewModel validates the given modules and returns a model holding a private,
// sorted copy of them. Modules are ordered by name and then by revision.
func NewModel(modules []Module) (*Model, error) {
	seen := make(map[string]struct{}, len(modules))
	sorted := make([]Module, 0, len(modules))

	for i, mod := range modules {
		mod.Name = strings.TrimSpace(mod.Name)
		mod.Revision = strings.TrimSpace(mod.Revision)
		mod.Namespace = strings.TrimSpace(mod.Namespace)

		if err := validateModule(mod); err != nil {
			return nil, fmt.Errorf("%w: module[%d]: %w", ErrInvalidModel, i, err)
		}

		id := mod.ID()
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: module[%d]: duplicate module %s", ErrInvalidModel, i, id)
		}
		seen[id] = struct{}{}

		mod = mod.clone()
		slices.Sort(mod.Features)
		mod.Features = slices.Compact(mod.Features)
		sorted = append(sorted, mod)
	}

	slices.SortFunc(sorted, func(a, b Module) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Revision, b.Revision)
	})

	return &Model{
		modules: sorted,
		digest:  digestModules(sorted),
	}, nil
}

func validateModule(mod Module) error {
	if mod.Name == "" {
		return errors.New("name is required")
	}
	if mod.Namespace == "" {
		return fmt.Errorf("%s: namespace is required", mod.Name)
	}
	if mod.Revision != "" {
		if _, err := time.Parse(revisionLayout, mod.Revision); err != nil {
			return fmt.Errorf("%s: revision must be a YYYY-MM-DD date, got %q", mod.Name, mod.Revision)
		}
	}
	for _, sub := range mod.Submodules {
		if strings.TrimSpace(sub.Name) == "" {
			return fmt.Errorf("%s: submodule name is required", mod.Name)
		}
	}
	return nil
}

// digestModules hashes the canonical module list so equal models compare equal
// regardless of the order they were declared in.
func digestModules(modules []Module) string {
	h := sha256.New()
	for _, mod := range modules {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00", mod.Name, mod.Revision, mod.Namespace)
		for _, f := range mod.Features {
			fmt.Fprintf(h, "f:%s\x00", f)
		}
		for _, s := range mod.Submodules {
			fmt.Fprintf(h, "s:%s@%s\x00", s.Name, s.Revision)
		}
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Modules returns a copy of the model's modules in canonical order.
func (m *Model) Modules() []Module {
	if m == nil {
		return nil
	}
	out := make([]Module, len(m.modules))
	for i, mod := range m.modules {
		out[i] = mod.clone()
	}
	return out
}

// Len returns the number of modules in the model.
func (m *Model) Len() int {
	if m == nil {
		return 0
	}
	return len(m.modules)
}

// Digest returns a stable content hash of the model.
func (m *Model) Digest() string {
	if m == nil {
		return ""
	}
	return m.digest
}

// FindModule returns the latest revision of the named module, or nil when the
// model does not contain it.
func (m *Model) FindModule(name string) *Module {
	if m == nil {
		return nil
	}
	var found *Module
	for i := range m.modules {
		if m.modules[i].Name != name {
			continue
		}
		// modules are sorted by revision within a name, so the last match wins
		mod := m.modules[i].clone()
		found = &mod
	}
	return found
}
