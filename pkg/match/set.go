package match

import (
	"sort"

	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Set is a set of individuals.
type Set map[pedigree.IndividualID]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...pedigree.IndividualID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(id pedigree.IndividualID) bool {
	_, ok := s[id]
	return ok
}

// Equal reports whether both sets hold the same ids.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Ordered returns the members in pedigree input order. Ids unknown to p sort
// last, by id.
func (s Set) Ordered(p *pedigree.Pedigree) []pedigree.IndividualID {
	out := make([]pedigree.IndividualID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := p.Position(out[i]), p.Position(out[j])
		switch {
		case pi < 0 && pj < 0:
			return out[i] < out[j]
		case pi < 0:
			return false
		case pj < 0:
			return true
		default:
			return pi < pj
		}
	})
	return out
}

// Intersect returns the ids present in every set.
//
// The operation is commutative and associative. A single set is returned as
// an equal copy; no sets yield an empty set.
func Intersect(sets ...Set) Set {
	if len(sets) == 0 {
		return Set{}
	}

	smallest := 0
	for i, s := range sets {
		if len(s) < len(sets[smallest]) {
			smallest = i
		}
	}

	out := make(Set, len(sets[smallest]))
	for id := range sets[smallest] {
		inAll := true
		for i, s := range sets {
			if i == smallest {
				continue
			}
			if !s.Has(id) {
				inAll = false
				break
			}
		}
		if inAll {
			out[id] = struct{}{}
		}
	}
	return out
}
