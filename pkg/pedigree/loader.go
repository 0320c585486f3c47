// Package pedigree provides the record model and the record-file loader.
// This file handles JSON and YAML record exports.
package pedigree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a record file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Records is the on-disk shape of a pedigree export.
//
// Example (YAML):
//
//	individuals:
//	  - id: "@I1@"
//	    name: "Ada /Lovelace/"
//	    famc: "@F1@"
//	    events: [{type: exid, value: "A-77"}]
//	families:
//	  - {id: "@F1@", husb: "@I2@", wife: "@I3@"}
type Records struct {
	Individuals []*Individual `json:"individuals" yaml:"individuals"`
	Families    []*Family     `json:"families" yaml:"families"`
}

// FormatFromPath picks the format from a file extension. Unknown extensions
// are read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads a record export from disk and builds a Pedigree.
//
// The format follows the file extension (.json, .yaml, .yml). Reference
// problems (a famc pointing nowhere, a husband that was never exported) are
// not fatal here; call Validate to list them.
//
// Example:
//
//	p, err := pedigree.LoadFile("./export/tree.json")
//	if err != nil {
//		log.Fatalf("loading tree: %v", err)
//	}
//	fmt.Printf("%d individuals, %d families\n", p.Len(), p.FamilyCount())
func LoadFile(path string) (*Pedigree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return Decode(data, FormatFromPath(path))
}

// Load reads a record export from r.
func Load(r io.Reader, format Format) (*Pedigree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return Decode(data, format)
}

// Decode builds a Pedigree from encoded records.
func Decode(data []byte, format Format) (*Pedigree, error) {
	var recs Records
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&recs); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}

	p, err := New(recs.Individuals, recs.Families)
	if err != nil {
		return nil, fmt.Errorf("building pedigree: %w", err)
	}
	return p, nil
}

// Records returns the pedigree contents in input order, ready to encode.
func (p *Pedigree) Records() *Records {
	return &Records{
		Individuals: p.Individuals(),
		Families:    p.Families(),
	}
}

// Encode serializes the pedigree in the given format.
func (p *Pedigree) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(p.Records())
	case FormatJSON:
		return json.Marshal(p.Records())
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}
}
