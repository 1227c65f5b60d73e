// Package datatree defines the normalized trees that are published to the
// shared store, and their JSON encoding.
package datatree

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the top-level node a tree is rooted at, as module:name.
type Kind struct {
	Module string
	Name   string
}

// String returns the qualified module:name form.
func (k Kind) String() string {
	return k.Module + ":" + k.Name
}

// Tree is a normalized data tree with a declared kind. The kind alone decides
// where the tree is written in the store.
type Tree interface {
	Kind() Kind
}

// Encode renders a tree as a JSON document whose single top-level member is
// named after the tree's qualified kind, e.g. {"ietf-yang-library:modules-state": {...}}.
func Encode(tree Tree) ([]byte, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is required")
	}
	data, err := json.Marshal(map[string]Tree{tree.Kind().String(): tree})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", tree.Kind(), err)
	}
	return data, nil
}
