// Package render turns a match result into output: a Graphviz DOT drawing
// of the people of interest and the families that connect them, or a JSON
// report.
//
// Example Usage:
//
//	result, _, err := engine.Run(ctx, testers)
//	if err != nil {
//		return err
//	}
//	err = render.DOT(os.Stdout, p, result, render.Options{Orientation: "tb"})
package render

import (
	"github.com/orneryd/dnamatch/pkg/match"
	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Role says how a person takes part in the drawing.
type Role int

const (
	// RoleNone: drawn only because they partner a family on a path
	RoleNone Role = iota
	// RoleCandidate: in the shared candidate set
	RoleCandidate
	// RoleTester: one of the testers
	RoleTester
)

// Person is a drawn individual.
type Person struct {
	ID   pedigree.IndividualID
	Name string
	Role Role
	// CM is the tester's reported value; zero for non-testers
	CM int
}

// FamilyNode is a drawn family, partners in husband-then-wife order.
type FamilyNode struct {
	ID       pedigree.FamilyID
	Partners []Person
}

// Role returns the strongest role among the partners.
func (f FamilyNode) Role() Role {
	role := RoleNone
	for _, p := range f.Partners {
		if p.Role > role {
			role = p.Role
		}
	}
	return role
}

// Edge joins a child to its parents' family. From is the child; when the
// child partners a drawn family, FromFamily names that family.
type Edge struct {
	From       pedigree.IndividualID
	FromFamily pedigree.FamilyID
	To         pedigree.FamilyID
}

// Graph is the drawing model shared by the renderers.
type Graph struct {
	Testers []Person
	// Loose are people of interest not drawn inside a family node
	Loose    []Person
	Families []FamilyNode
	Edges    []Edge
}

// BuildGraph selects what to draw.
//
// Starting from each person of interest it climbs parent families, stopping
// above a shared family: the shared family is drawn but its partners' own
// parents are not, since they connect nobody else in the result.
func BuildGraph(p *pedigree.Pedigree, r *match.Result) *Graph {
	roles := make(map[pedigree.IndividualID]Role, len(r.People))
	for _, id := range r.Candidates {
		roles[id] = RoleCandidate
	}
	cms := make(map[pedigree.IndividualID]int, len(r.Testers))
	for _, t := range r.Testers {
		roles[t.ID] = RoleTester
		cms[t.ID] = t.CM
	}
	shared := make(map[pedigree.FamilyID]bool, len(r.SharedFamilies))
	for _, f := range r.SharedFamilies {
		shared[f] = true
	}

	person := func(id pedigree.IndividualID) Person {
		name := string(id)
		if indi, err := p.Individual(id); err == nil {
			name = indi.DisplayName()
		}
		return Person{ID: id, Name: name, Role: roles[id], CM: cms[id]}
	}

	g := &Graph{}
	for _, t := range r.Testers {
		g.Testers = append(g.Testers, person(t.ID))
	}

	drawn := make(map[pedigree.FamilyID]bool)
	var order []pedigree.FamilyID
	var queue []pedigree.FamilyID
	visit := func(f pedigree.FamilyID) {
		if f == "" || drawn[f] {
			return
		}
		if _, err := p.Family(f); err != nil {
			return
		}
		drawn[f] = true
		order = append(order, f)
		queue = append(queue, f)
	}

	for _, id := range r.People {
		if indi, err := p.Individual(id); err == nil {
			visit(indi.ParentFamily)
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if shared[f] {
			continue
		}
		fam, _ := p.Family(f)
		for _, partner := range fam.Parents() {
			if indi, err := p.Individual(partner); err == nil {
				visit(indi.ParentFamily)
			}
		}
	}

	inFamily := make(map[pedigree.IndividualID]pedigree.FamilyID)
	for _, f := range order {
		fam, _ := p.Family(f)
		node := FamilyNode{ID: f}
		for _, partner := range fam.Parents() {
			node.Partners = append(node.Partners, person(partner))
			if _, seen := inFamily[partner]; !seen {
				inFamily[partner] = f
			}
		}
		g.Families = append(g.Families, node)
	}

	for _, id := range r.People {
		if _, ok := inFamily[id]; !ok {
			g.Loose = append(g.Loose, person(id))
		}
	}

	type edgeKey struct {
		from pedigree.IndividualID
		to   pedigree.FamilyID
	}
	seen := make(map[edgeKey]bool)
	addEdge := func(id pedigree.IndividualID) {
		indi, err := p.Individual(id)
		if err != nil || !drawn[indi.ParentFamily] {
			return
		}
		k := edgeKey{id, indi.ParentFamily}
		if seen[k] {
			return
		}
		seen[k] = true
		g.Edges = append(g.Edges, Edge{From: id, FromFamily: inFamily[id], To: indi.ParentFamily})
	}

	for _, id := range r.People {
		addEdge(id)
	}
	for _, node := range g.Families {
		if shared[node.ID] {
			continue
		}
		for _, partner := range node.Partners {
			addEdge(partner.ID)
		}
	}
	return g
}
