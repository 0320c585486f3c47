package match

import (
	"github.com/orneryd/dnamatch/pkg/dnarange"
	"github.com/orneryd/dnamatch/pkg/kinship"
	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Candidate is a relative whose expected cM range contains the tester's value.
type Candidate struct {
	ID           pedigree.IndividualID `json:"id"`
	Relationship kinship.Relationship  `json:"relationship"`
}

// Listing is one tester's candidates, in relationship-resolution order.
type Listing struct {
	Tester     Tester      `json:"tester"`
	Candidates []Candidate `json:"candidates"`
}

// Set returns the candidate ids.
func (l Listing) Set() Set {
	s := make(Set, len(l.Candidates))
	for _, c := range l.Candidates {
		s[c.ID] = struct{}{}
	}
	return s
}

// Filter keeps the relatives of t whose relationship label has a range in
// table containing t's reported cM value (bounds inclusive). Labels without a
// range never match.
func Filter(t Tester, rels *kinship.Relations, table *dnarange.Table) Listing {
	listing := Listing{Tester: t}
	rels.Each(func(id pedigree.IndividualID, rel kinship.Relationship) bool {
		if table.Matches(rel.Label, t.CM) {
			listing.Candidates = append(listing.Candidates, Candidate{ID: id, Relationship: rel})
		}
		return true
	})
	return listing
}
