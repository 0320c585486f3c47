// Package pedigreetest builds small pedigrees for tests.
//
//	b := pedigreetest.New()
//	b.Family("F1", "GP1", "GP2")
//	b.Child("A", "F1")
//	p := b.Build(t)
package pedigreetest

import (
	"testing"

	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Builder accumulates individuals and families in the order they are mentioned.
type Builder struct {
	indis  map[string]*pedigree.Individual
	fams   map[string]*pedigree.Family
	order  []string
	forder []string
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{
		indis: make(map[string]*pedigree.Individual),
		fams:  make(map[string]*pedigree.Family),
	}
}

// Person makes sure an individual exists and returns it for further tweaks.
func (b *Builder) Person(id string) *pedigree.Individual {
	if indi, ok := b.indis[id]; ok {
		return indi
	}
	indi := &pedigree.Individual{ID: pedigree.IndividualID(id), Name: id}
	b.indis[id] = indi
	b.order = append(b.order, id)
	return indi
}

// Family adds a family with the given partners. Either partner may be "".
func (b *Builder) Family(id, husband, wife string) *Builder {
	fam := &pedigree.Family{ID: pedigree.FamilyID(id)}
	if husband != "" {
		b.Person(husband).Families = append(b.Person(husband).Families, fam.ID)
		fam.Husband = pedigree.IndividualID(husband)
	}
	if wife != "" {
		b.Person(wife).Families = append(b.Person(wife).Families, fam.ID)
		fam.Wife = pedigree.IndividualID(wife)
	}
	b.fams[id] = fam
	b.forder = append(b.forder, id)
	return b
}

// Child records id as a child of family fam.
func (b *Builder) Child(id, fam string) *Builder {
	b.Person(id).ParentFamily = pedigree.FamilyID(fam)
	return b
}

// Children records several children of the same family.
func (b *Builder) Children(fam string, ids ...string) *Builder {
	for _, id := range ids {
		b.Child(id, fam)
	}
	return b
}

// Build returns the pedigree, failing the test on error.
func (b *Builder) Build(t testing.TB) *pedigree.Pedigree {
	t.Helper()
	indis := make([]*pedigree.Individual, 0, len(b.order))
	for _, id := range b.order {
		indis = append(indis, b.indis[id])
	}
	fams := make([]*pedigree.Family, 0, len(b.forder))
	for _, id := range b.forder {
		fams = append(fams, b.fams[id])
	}
	p, err := pedigree.New(indis, fams)
	if err != nil {
		t.Fatalf("building pedigree: %v", err)
	}
	return p
}

// Cousins returns three first cousins (A1, B1, C1) who share the
// grandparents GP1 and GP2. The cousins carry xrefs 101, 201 and 301.
//
//	F1: GP1 + GP2 -> A, B, C
//	F2: A + SA -> A1
//	F3: B + SB -> B1
//	F4: C + SC -> C1
func Cousins(t testing.TB) *pedigree.Pedigree {
	t.Helper()
	b := New()
	b.Family("F1", "GP1", "GP2")
	b.Children("F1", "A", "B", "C")
	b.Family("F2", "A", "SA").Child("A1", "F2")
	b.Family("F3", "B", "SB").Child("B1", "F3")
	b.Family("F4", "C", "SC").Child("C1", "F4")
	b.Person("A1").XRef = 101
	b.Person("B1").XRef = 201
	b.Person("C1").XRef = 301
	return b.Build(t)
}
