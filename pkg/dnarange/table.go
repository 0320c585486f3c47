// Package dnarange holds the expected shared-cM range for each relationship.
//
// The table ships with the binary (ranges.yaml, embedded at build time) and is
// decoded once on first use. It is read-only for the life of the process.
//
// Example:
//
//	r, ok := dnarange.Default().Lookup("1C")
//	if ok && r.Contains(866) {
//		fmt.Println("866 cM is within first-cousin range")
//	}
//
// Labels missing from the table (very distant relationships, "self") have no
// expected range and never match.
package dnarange

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRange is returned by Parse for inconsistent entries.
var ErrInvalidRange = errors.New("invalid cM range")

//go:embed ranges.yaml
var embedded []byte

// Range is the observed spread of shared cM for one relationship.
type Range struct {
	Min     int `yaml:"min" json:"min"`
	Max     int `yaml:"max" json:"max"`
	Average int `yaml:"average" json:"average"`
}

// Contains reports whether cm lies within the range, both bounds inclusive.
func (r Range) Contains(cm int) bool {
	return r.Min <= cm && cm <= r.Max
}

type entry struct {
	Label string `yaml:"label"`
	Range `yaml:",inline"`
}

type document struct {
	Ranges []entry `yaml:"ranges"`
}

// Table maps relationship labels to cM ranges.
type Table struct {
	ranges map[string]Range
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded table. It panics if the embedded asset is
// malformed, which the package tests rule out.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("dnarange: embedded table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Parse decodes a YAML range document.
//
// Every entry needs a label, unique across the document, and must satisfy
// 0 <= min <= average <= max.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding ranges: %w", err)
	}

	t := &Table{ranges: make(map[string]Range, len(doc.Ranges))}
	for i, e := range doc.Ranges {
		if e.Label == "" {
			return nil, fmt.Errorf("entry %d: missing label: %w", i+1, ErrInvalidRange)
		}
		if _, dup := t.ranges[e.Label]; dup {
			return nil, fmt.Errorf("entry %d: duplicate label %q: %w", i+1, e.Label, ErrInvalidRange)
		}
		if e.Min < 0 || e.Min > e.Average || e.Average > e.Max {
			return nil, fmt.Errorf("entry %d (%s): min %d, average %d, max %d: %w",
				i+1, e.Label, e.Min, e.Average, e.Max, ErrInvalidRange)
		}
		t.ranges[e.Label] = e.Range
	}
	return t, nil
}

// Lookup returns the range for label.
func (t *Table) Lookup(label string) (Range, bool) {
	r, ok := t.ranges[label]
	return r, ok
}

// Matches reports whether label has a range containing cm.
func (t *Table) Matches(label string, cm int) bool {
	r, ok := t.ranges[label]
	return ok && r.Contains(cm)
}

// Labels returns every label in sorted order.
func (t *Table) Labels() []string {
	out := make([]string, 0, len(t.ranges))
	for label := range t.ranges {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.ranges)
}
