// Package inventory maps a schema model into the metadata trees published to
// the shared store: the module library (which modules are loaded, tagged with
// the generation that produced the list) and the server capabilities.
package inventory

import (
	"errors"
	"fmt"

	"github.com/stacklok/toolhive-schema-sync/internal/datatree"
	"github.com/stacklok/toolhive-schema-sync/internal/schema"
)

//go:generate mockgen -destination=mocks/mock_mapper.go -package=mocks -source=mapper.go Mapper

// Conformance types reported for a module in the library tree
const (
	ConformanceImplement = "implement"
	ConformanceImport    = "import"
)

// Capability URIs advertised in the capabilities tree
const (
	CapabilityDepth        = "urn:ietf:params:restconf:capability:depth:1.0"
	CapabilityFields       = "urn:ietf:params:restconf:capability:fields:1.0"
	CapabilityFilter       = "urn:ietf:params:restconf:capability:filter:1.0"
	CapabilityReplay       = "urn:ietf:params:restconf:capability:replay:1.0"
	CapabilityWithDefaults = "urn:ietf:params:restconf:capability:with-defaults:1.0"
)

var (
	// LibraryKind is the declared kind of the module-library tree
	LibraryKind = datatree.Kind{Module: schema.YangLibraryModuleName, Name: "modules-state"}

	// CapabilitiesKind is the declared kind of the capabilities tree
	CapabilitiesKind = datatree.Kind{Module: schema.MonitoringModuleName, Name: "restconf-state"}
)

// ErrNilModel is returned when a library tree is requested for an absent model.
var ErrNilModel = errors.New("schema model is required to map the module library")

// Mapper produces the published metadata trees. Implementations must be pure:
// the same inputs always yield logically equal trees.
type Mapper interface {
	// LibraryTree maps every module of the model into a module-library tree tagged with gen
	LibraryTree(model *schema.Model, gen schema.Generation) (datatree.Tree, error)

	// CapabilitiesTree builds the capabilities tree. monitoring may be nil when the
	// model does not contain the monitoring module.
	CapabilitiesTree(monitoring *schema.Module) (datatree.Tree, error)
}

// ModuleSet is the module-library tree.
type ModuleSet struct {
	ModuleSetID string        `json:"module-set-id"`
	Modules     []ModuleEntry `json:"module"`

	generation schema.Generation
}

// Kind implements datatree.Tree
func (*ModuleSet) Kind() datatree.Kind { return LibraryKind }

// Generation returns the generation the module set was produced for.
func (s *ModuleSet) Generation() schema.Generation { return s.generation }

// ModuleEntry describes one module in the library tree.
type ModuleEntry struct {
	Name            string           `json:"name"`
	Revision        string           `json:"revision"`
	Namespace       string           `json:"namespace"`
	Features        []string         `json:"feature,omitempty"`
	ConformanceType string           `json:"conformance-type"`
	Submodules      []SubmoduleEntry `json:"submodule,omitempty"`
}

// SubmoduleEntry describes a submodule of a library entry.
type SubmoduleEntry struct {
	Name     string `json:"name"`
	Revision string `json:"revision"`
}

// RestconfState is the capabilities tree.
type RestconfState struct {
	Capabilities Capabilities `json:"capabilities"`
}

// Kind implements datatree.Tree
func (*RestconfState) Kind() datatree.Kind { return CapabilitiesKind }

// Capabilities lists the advertised capability URIs.
type Capabilities struct {
	Capability []string `json:"capability"`
}

type defaultMapper struct{}

// NewMapper returns the default Mapper.
func NewMapper() Mapper {
	return defaultMapper{}
}

// LibraryTree implements Mapper
func (defaultMapper) LibraryTree(model *schema.Model, gen schema.Generation) (datatree.Tree, error) {
	if model == nil {
		return nil, ErrNilModel
	}

	modules := model.Modules()
	entries := make([]ModuleEntry, 0, len(modules))
	for _, mod := range modules {
		entry := ModuleEntry{
			Name:            mod.Name,
			Revision:        mod.Revision,
			Namespace:       mod.Namespace,
			Features:        mod.Features,
			ConformanceType: ConformanceImplement,
		}
		for _, sub := range mod.Submodules {
			entry.Submodules = append(entry.Submodules, SubmoduleEntry{Name: sub.Name, Revision: sub.Revision})
		}
		entries = append(entries, entry)
	}

	return &ModuleSet{
		ModuleSetID: gen.String(),
		Modules:     entries,
		generation:  gen,
	}, nil
}

// CapabilitiesTree implements Mapper
func (defaultMapper) CapabilitiesTree(monitoring *schema.Module) (datatree.Tree, error) {
	if monitoring != nil && monitoring.Name != schema.MonitoringModuleName {
		return nil, fmt.Errorf("capabilities must be mapped from %s, got %s", schema.MonitoringModuleName, monitoring.Name)
	}

	return &RestconfState{
		Capabilities: Capabilities{
			Capability: []string{
				CapabilityDepth,
				CapabilityFields,
				CapabilityFilter,
				CapabilityReplay,
				CapabilityWithDefaults,
			},
		},
	}, nil
}
