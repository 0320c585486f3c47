package kinship

import (
	"fmt"

	"github.com/orneryd/dnamatch/pkg/ancestry"
	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Kind tells which resolution pass found a relationship.
type Kind int

const (
	// Ancestor: the relative is a partner in one of the tester's ancestor families.
	Ancestor Kind = iota + 1
	// Descendant: one of the relative's ancestor families is a family in which
	// the tester is a parent.
	Descendant
	// Collateral: tester and relative share an ancestor family.
	Collateral
)

func (k Kind) String() string {
	switch k {
	case Ancestor:
		return "ancestor"
	case Descendant:
		return "descendant"
	case Collateral:
		return "collateral"
	default:
		return "unknown"
	}
}

// Relationship describes how one individual is related to a tester.
type Relationship struct {
	// Closest is the shared ancestor family the relationship is measured from.
	Closest pedigree.FamilyID `json:"closest"`
	// GenMe is the number of generations from the tester to Closest.
	GenMe int `json:"gen_me"`
	// GenThem is the number of generations from the relative to Closest.
	GenThem int    `json:"gen_them"`
	Label   string `json:"label"`
	Kind    Kind   `json:"-"`
}

func newRelationship(kind Kind, closest pedigree.FamilyID, genMe, genThem int) Relationship {
	return Relationship{
		Closest: closest,
		GenMe:   genMe,
		GenThem: genThem,
		Label:   Classify(genMe, genThem),
		Kind:    kind,
	}
}

// Relations holds every blood relative of one tester, in the order the
// resolver found them (ancestors, then descendants, then collateral kin).
type Relations struct {
	Tester pedigree.IndividualID
	order  []pedigree.IndividualID
	byID   map[pedigree.IndividualID]Relationship
}

func newRelations(tester pedigree.IndividualID) *Relations {
	return &Relations{
		Tester: tester,
		byID:   make(map[pedigree.IndividualID]Relationship),
	}
}

func (r *Relations) put(id pedigree.IndividualID, rel Relationship) {
	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = rel
}

// Get returns the relationship to id. Unrelated individuals are absent.
func (r *Relations) Get(id pedigree.IndividualID) (Relationship, bool) {
	rel, ok := r.byID[id]
	return rel, ok
}

// Len returns the number of blood relatives.
func (r *Relations) Len() int {
	return len(r.order)
}

// IDs returns the relatives in resolution order.
func (r *Relations) IDs() []pedigree.IndividualID {
	out := make([]pedigree.IndividualID, len(r.order))
	copy(out, r.order)
	return out
}

// Each calls fn for every relative in resolution order until fn returns false.
func (r *Relations) Each(fn func(id pedigree.IndividualID, rel Relationship) bool) {
	for _, id := range r.order {
		if !fn(id, r.byID[id]) {
			return
		}
	}
}

// Nearest selects how the collateral pass picks the shared ancestor family.
type Nearest int

const (
	// NearestFirstFound stops at the first of the tester's ancestor families,
	// in discovery order, that the relative shares. This is the default and
	// matches the behaviour existing result sets were produced with.
	NearestFirstFound Nearest = iota
	// NearestMinimumDistance picks the shared family with the fewest
	// generations from the tester (ties broken by the relative's distance,
	// then discovery order).
	NearestMinimumDistance
)

// ParseNearest accepts "first" or "minimum".
func ParseNearest(s string) (Nearest, error) {
	switch s {
	case "", "first":
		return NearestFirstFound, nil
	case "minimum", "min":
		return NearestMinimumDistance, nil
	default:
		return NearestFirstFound, fmt.Errorf("unknown nearest-ancestor strategy %q", s)
	}
}

func (n Nearest) String() string {
	if n == NearestMinimumDistance {
		return "minimum"
	}
	return "first"
}

// Resolver finds the blood relatives of testers in one pedigree.
type Resolver struct {
	p       *pedigree.Pedigree
	idx     *ancestry.Index
	nearest Nearest
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNearest sets the collateral-pass strategy.
func WithNearest(n Nearest) Option {
	return func(r *Resolver) { r.nearest = n }
}

// NewResolver returns a resolver over p using the prebuilt ancestry index.
func NewResolver(p *pedigree.Pedigree, idx *ancestry.Index, opts ...Option) *Resolver {
	r := &Resolver{p: p, idx: idx}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns every blood relative of tester with the nearest common
// ancestor family and generation distances, labelled by Classify.
//
// Three passes run in priority order; an individual recorded by an earlier
// pass is skipped by later ones:
//
//  1. ancestors: each partner of each of the tester's ancestor families, at
//     the tester's distance to that family and 0 for the partner. A partner
//     appearing in several ancestor families keeps the last one scanned.
//  2. descendants: each individual whose ancestor families include a family
//     in which the tester is a parent, at 0 for the tester. When several such
//     families match, the last in the relative's discovery order is kept.
//  3. collateral kin: each remaining individual sharing an ancestor family
//     with the tester, chosen by the resolver's Nearest strategy.
//
// Individuals sharing no ancestor family are unrelated and omitted. The
// tester never appears in their own relations.
func (r *Resolver) Resolve(tester pedigree.IndividualID) (*Relations, error) {
	me, err := r.p.Individual(tester)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", tester, err)
	}

	rels := newRelations(tester)
	mine := r.idx.Of(tester)

	mine.Each(func(fam pedigree.FamilyID, d int) bool {
		family, err := r.p.Family(fam)
		if err != nil {
			return true
		}
		for _, partner := range family.Parents() {
			rels.put(partner, newRelationship(Ancestor, fam, d, 0))
		}
		return true
	})

	asParent := make(map[pedigree.FamilyID]bool, len(me.Families))
	for _, fam := range me.Families {
		asParent[fam] = true
	}

	if len(asParent) > 0 {
		for _, them := range r.p.IndividualIDs() {
			if them == tester {
				continue
			}
			if _, done := rels.Get(them); done {
				continue
			}
			var (
				found bool
				rel   Relationship
			)
			r.idx.Of(them).Each(func(fam pedigree.FamilyID, d int) bool {
				if asParent[fam] {
					found = true
					rel = newRelationship(Descendant, fam, 0, d)
				}
				return true
			})
			if found {
				rels.put(them, rel)
			}
		}
	}

	for _, them := range r.p.IndividualIDs() {
		if them == tester {
			continue
		}
		if _, done := rels.Get(them); done {
			continue
		}
		if rel, ok := r.nearestShared(mine, r.idx.Of(them)); ok {
			rels.put(them, rel)
		}
	}

	return rels, nil
}

func (r *Resolver) nearestShared(mine, theirs *ancestry.Families) (Relationship, bool) {
	var (
		best  Relationship
		found bool
	)
	mine.Each(func(fam pedigree.FamilyID, genMe int) bool {
		genThem, ok := theirs.Distance(fam)
		if !ok {
			return true
		}
		if r.nearest == NearestFirstFound {
			best, found = newRelationship(Collateral, fam, genMe, genThem), true
			return false
		}
		if !found || genMe < best.GenMe || (genMe == best.GenMe && genThem < best.GenThem) {
			best, found = newRelationship(Collateral, fam, genMe, genThem), true
		}
		return true
	})
	return best, found
}

// Resolve is a shorthand for NewResolver(p, idx).Resolve(tester).
func Resolve(p *pedigree.Pedigree, idx *ancestry.Index, tester pedigree.IndividualID) (*Relations, error) {
	return NewResolver(p, idx).Resolve(tester)
}
