// Package ancestry computes, for every individual in a pedigree, the families on
// their direct ancestral line and the number of generations to each.
//
// The index is built once per run and is read-only afterwards:
//
//	idx, err := ancestry.Build(p)
//	if err != nil {
//		return err // ancestry.ErrCycleDetected on malformed input
//	}
//	fams := idx.Of("@I12@")
//	fams.Each(func(fam pedigree.FamilyID, d int) bool {
//		fmt.Printf("%s at %d generations\n", fam, d)
//		return true
//	})
//
// Distances:
//
//	An individual's own parental family is at distance 1. Every family reached
//	through a parent is at that parent's distance + 1. Parents are visited
//	husband first, then wife; when both reach the same ancestor family the
//	wife's distance overwrites the husband's. This is not a minimum: pedigree
//	collapse (parents sharing an ancestor) can record the longer path.
//
// Complexity:
//
//   - Time:   O(V + S) where S is the total size of all ancestor sets
//   - Memory: O(S), one memoized set per individual
package ancestry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// ErrCycleDetected is returned when an individual is their own ancestor.
var ErrCycleDetected = errors.New("ancestry: cycle detected")

// CycleError carries the chain of individuals that closed the loop.
type CycleError struct {
	Path []pedigree.IndividualID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return fmt.Sprintf("%v: %s", ErrCycleDetected, strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// Stats describes the work done while building an index.
type Stats struct {
	Individuals int // individuals indexed
	Entries     int // total ancestor-family entries across all individuals
	MemoHits    int // lookups answered from the memo instead of recursing
}

// Index holds the ancestor families of every individual.
type Index struct {
	sets  map[pedigree.IndividualID]*Families
	stats Stats
}

type builder struct {
	p        *pedigree.Pedigree
	memo     map[pedigree.IndividualID]*Families
	visiting map[pedigree.IndividualID]bool
	path     []pedigree.IndividualID
	hits     int
}

// Build computes the ancestor families of every individual in p.
//
// Results are memoized per individual, so shared ancestors are walked once.
// A parent link that leads back to an individual still being expanded aborts
// the build with a *CycleError.
func Build(p *pedigree.Pedigree) (*Index, error) {
	b := &builder{
		p:        p,
		memo:     make(map[pedigree.IndividualID]*Families, p.Len()),
		visiting: make(map[pedigree.IndividualID]bool),
	}

	for _, id := range p.IndividualIDs() {
		if _, err := b.compute(id); err != nil {
			return nil, err
		}
	}

	idx := &Index{sets: b.memo}
	idx.stats.Individuals = len(b.memo)
	idx.stats.MemoHits = b.hits
	for _, fams := range b.memo {
		idx.stats.Entries += fams.Len()
	}
	return idx, nil
}

func (b *builder) compute(id pedigree.IndividualID) (*Families, error) {
	if fams, ok := b.memo[id]; ok {
		b.hits++
		return fams, nil
	}
	if b.visiting[id] {
		path := append(append([]pedigree.IndividualID{}, b.path...), id)
		return nil, &CycleError{Path: path}
	}

	indi, err := b.p.Individual(id)
	if err != nil {
		// a parent that was never exported contributes nothing
		return newFamilies(0), nil
	}

	b.visiting[id] = true
	b.path = append(b.path, id)
	defer func() {
		delete(b.visiting, id)
		b.path = b.path[:len(b.path)-1]
	}()

	result := newFamilies(4)
	if indi.HasParentFamily() {
		result.set(indi.ParentFamily, 1)

		if fam, err := b.p.Family(indi.ParentFamily); err == nil {
			for _, parent := range fam.Parents() {
				parentFams, err := b.compute(parent)
				if err != nil {
					return nil, err
				}
				parentFams.Each(func(ancestor pedigree.FamilyID, d int) bool {
					result.set(ancestor, d+1)
					return true
				})
			}
		}
	}

	b.memo[id] = result
	return result, nil
}

// Of returns the ancestor families of id. Unknown ids yield an empty set.
func (idx *Index) Of(id pedigree.IndividualID) *Families {
	if fams, ok := idx.sets[id]; ok {
		return fams
	}
	return newFamilies(0)
}

// Stats reports how much work the build did.
func (idx *Index) Stats() Stats {
	return idx.stats
}
