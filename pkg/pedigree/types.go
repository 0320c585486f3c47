// Package pedigree holds the genealogical records the matcher works on.
//
// A Pedigree is a read-only set of individuals and families. Individuals point up
// to the family they were born into (ParentFamily) and across to the families in
// which they are a parent (Families). Families point down to at most one husband
// and one wife; single-parent families are valid.
//
// Records come from an external genealogy export. This package does not parse
// GEDCOM; it loads the already-extracted records from JSON or YAML (see LoadFile).
//
// Example Usage:
//
//	p, err := pedigree.LoadFile("./tree.yaml")
//	if err != nil {
//		return err
//	}
//	for _, indi := range p.Individuals() {
//		fmt.Println(indi.ID, indi.Name)
//	}
//
// Ordering:
//
//	Individuals() and Families() return records in input order. Every traversal
//	built on top of a Pedigree iterates in this order, so two runs over the same
//	file produce identical results.
package pedigree

import (
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidID    = errors.New("invalid id")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrDanglingLink = errors.New("dangling reference")
)

// IndividualID identifies an individual record, e.g. "@I12@".
type IndividualID string

// FamilyID identifies a family record, e.g. "@F3@".
type FamilyID string

// Event is a typed event attached to an individual, such as
// {Type: "exid", Value: "A-77"}. Testers can be located by event value.
type Event struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// Individual is one person in the tree.
type Individual struct {
	ID IndividualID `json:"id" yaml:"id"`
	// XRef is the numeric external reference. Zero means "derive from ID".
	XRef int    `json:"xref,omitempty" yaml:"xref,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// ParentFamily is the family in which the individual is a child (famc).
	ParentFamily FamilyID `json:"famc,omitempty" yaml:"famc,omitempty"`
	// Families are the families in which the individual is a parent (fams).
	Families []FamilyID        `json:"fams,omitempty" yaml:"fams,omitempty"`
	Events   []Event           `json:"events,omitempty" yaml:"events,omitempty"`
	Tags     map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasParentFamily reports whether the individual is a child in some family.
func (i *Individual) HasParentFamily() bool {
	return i.ParentFamily != ""
}

// DisplayName returns a name suitable for labels. GEDCOM surname slashes are
// dropped and the "[?]" unknown marker is shown as "unknown".
func (i *Individual) DisplayName() string {
	name := i.Name
	if name == "" {
		return string(i.ID)
	}
	if strings.Contains(name, "?") && strings.Contains(name, "[") && strings.Contains(name, "]") {
		return "unknown"
	}
	return strings.TrimSpace(strings.ReplaceAll(name, "/", ""))
}

// Family is a parental union.
type Family struct {
	ID      FamilyID     `json:"id" yaml:"id"`
	Husband IndividualID `json:"husb,omitempty" yaml:"husb,omitempty"`
	Wife    IndividualID `json:"wife,omitempty" yaml:"wife,omitempty"`
}

// Parents returns the partners present in the family, husband first.
func (f *Family) Parents() []IndividualID {
	parents := make([]IndividualID, 0, 2)
	if f.Husband != "" {
		parents = append(parents, f.Husband)
	}
	if f.Wife != "" {
		parents = append(parents, f.Wife)
	}
	return parents
}

// Pedigree is an immutable set of individuals and families.
type Pedigree struct {
	individuals map[IndividualID]*Individual
	families    map[FamilyID]*Family
	indiOrder   []IndividualID
	famOrder    []FamilyID
	position    map[IndividualID]int
}

// clone copies an input record so derived fields never reach the caller's copy.
func (i *Individual) clone() *Individual {
	cp := *i
	cp.Families = slices.Clone(i.Families)
	cp.Events = slices.Clone(i.Events)
	cp.Tags = maps.Clone(i.Tags)
	return &cp
}

// New builds a Pedigree from records in input order.
//
// Empty and duplicate ids are rejected. A missing XRef is derived from the
// digits of the individual id ("@I12@" -> 12). References between records are
// not checked here; see Validate.
func New(individuals []*Individual, families []*Family) (*Pedigree, error) {
	p := &Pedigree{
		individuals: make(map[IndividualID]*Individual, len(individuals)),
		families:    make(map[FamilyID]*Family, len(families)),
		indiOrder:   make([]IndividualID, 0, len(individuals)),
		famOrder:    make([]FamilyID, 0, len(families)),
		position:    make(map[IndividualID]int, len(individuals)),
	}

	for _, indi := range individuals {
		if indi == nil || indi.ID == "" {
			return nil, ErrInvalidID
		}
		if _, exists := p.individuals[indi.ID]; exists {
			return nil, &RecordError{ID: string(indi.ID), Err: ErrDuplicateID}
		}
		indi = indi.clone()
		if indi.XRef == 0 {
			indi.XRef = XRefFromID(string(indi.ID))
		}
		p.individuals[indi.ID] = indi
		p.position[indi.ID] = len(p.indiOrder)
		p.indiOrder = append(p.indiOrder, indi.ID)
	}

	for _, fam := range families {
		if fam == nil || fam.ID == "" {
			return nil, ErrInvalidID
		}
		if _, exists := p.families[fam.ID]; exists {
			return nil, &RecordError{ID: string(fam.ID), Err: ErrDuplicateID}
		}
		cp := *fam
		p.families[fam.ID] = &cp
		p.famOrder = append(p.famOrder, fam.ID)
	}

	return p, nil
}

// Individual returns the individual with the given id.
func (p *Pedigree) Individual(id IndividualID) (*Individual, error) {
	indi, ok := p.individuals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return indi, nil
}

// Family returns the family with the given id.
func (p *Pedigree) Family(id FamilyID) (*Family, error) {
	fam, ok := p.families[id]
	if !ok {
		return nil, ErrNotFound
	}
	return fam, nil
}

// Individuals returns all individuals in input order.
func (p *Pedigree) Individuals() []*Individual {
	out := make([]*Individual, 0, len(p.indiOrder))
	for _, id := range p.indiOrder {
		out = append(out, p.individuals[id])
	}
	return out
}

// IndividualIDs returns all individual ids in input order.
func (p *Pedigree) IndividualIDs() []IndividualID {
	out := make([]IndividualID, len(p.indiOrder))
	copy(out, p.indiOrder)
	return out
}

// Families returns all families in input order.
func (p *Pedigree) Families() []*Family {
	out := make([]*Family, 0, len(p.famOrder))
	for _, id := range p.famOrder {
		out = append(out, p.families[id])
	}
	return out
}

// Position returns the input position of an individual, or -1.
func (p *Pedigree) Position(id IndividualID) int {
	if pos, ok := p.position[id]; ok {
		return pos
	}
	return -1
}

// Len returns the number of individuals.
func (p *Pedigree) Len() int {
	return len(p.indiOrder)
}

// FamilyCount returns the number of families.
func (p *Pedigree) FamilyCount() int {
	return len(p.famOrder)
}

// Validate checks that every famc, fams, husb and wife reference points at an
// existing record. All problems are collected; the returned error joins them.
func (p *Pedigree) Validate() error {
	var errs []error
	for _, indi := range p.Individuals() {
		if indi.ParentFamily != "" {
			if _, ok := p.families[indi.ParentFamily]; !ok {
				errs = append(errs, &RecordError{ID: string(indi.ID), Ref: string(indi.ParentFamily), Err: ErrDanglingLink})
			}
		}
		for _, fam := range indi.Families {
			if _, ok := p.families[fam]; !ok {
				errs = append(errs, &RecordError{ID: string(indi.ID), Ref: string(fam), Err: ErrDanglingLink})
			}
		}
	}
	for _, fam := range p.Families() {
		for _, parent := range fam.Parents() {
			if _, ok := p.individuals[parent]; !ok {
				errs = append(errs, &RecordError{ID: string(fam.ID), Ref: string(parent), Err: ErrDanglingLink})
			}
		}
	}
	return errors.Join(errs...)
}

// RecordError ties a record-level problem to the record that caused it.
type RecordError struct {
	ID  string
	Ref string
	Err error
}

func (e *RecordError) Error() string {
	if e.Ref != "" {
		return e.ID + " -> " + e.Ref + ": " + e.Err.Error()
	}
	return e.ID + ": " + e.Err.Error()
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// XRefFromID extracts the numeric part of a record id such as "@I12@".
// Returns 0 when the id holds no digits.
func XRefFromID(id string) int {
	var digits strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
