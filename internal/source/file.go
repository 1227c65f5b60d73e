// Package source reads the schema model from a local YAML or JSON file and
// watches the file for changes.
package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-schema-sync/internal/schema"
)

// Document is the on-disk layout of a model file.
//
//	modules:
//	  - name: ietf-interfaces
//	    revision: "2018-02-20"
//	    namespace: urn:ietf:params:xml:ns:yang:ietf-interfaces
//	    features: [arbitrary-names]
type Document struct {
	Modules []schema.Module `yaml:"modules" json:"modules"`
}

// FetchResult is a model read from a source together with the hash of the
// bytes it was parsed from.
type FetchResult struct {
	Model *schema.Model
	Hash  string
}

// FileSource reads the model from a file on the local filesystem
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path
func NewFileSource(path string) (*FileSource, error) {
	if path == "" {
		return nil, fmt.Errorf("model file path cannot be empty")
	}
	return &FileSource{path: path}, nil
}

// Path returns the model file path
func (s *FileSource) Path() string {
	return s.path
}

// Fetch reads, hashes and parses the model file
func (s *FileSource) Fetch(ctx context.Context) (*FetchResult, error) {
	data, hash, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	model, err := ParseModel(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", s.path, err)
	}

	return &FetchResult{Model: model, Hash: hash}, nil
}

// CurrentHash returns the hash of the file without parsing it
func (s *FileSource) CurrentHash(ctx context.Context) (string, error) {
	_, hash, err := s.read(ctx)
	return hash, err
}

func (s *FileSource) read(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("model file not found: %s", s.path)
		}
		return nil, "", fmt.Errorf("failed to read model file %s: %w", s.path, err)
	}

	return data, Hash(data), nil
}

// Hash returns the content hash used for change detection
func Hash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// ParseModel decodes a model document. JSON input is accepted as YAML.
// Unknown fields are rejected so that typos do not silently drop data.
func ParseModel(data []byte) (*schema.Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: document is empty", schema.ErrInvalidModel)
		}
		return nil, fmt.Errorf("%w: %w", schema.ErrInvalidModel, err)
	}

	return schema.NewModel(doc.Modules)
}
