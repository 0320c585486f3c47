package render

import (
	"encoding/json"
	"io"

	"github.com/orneryd/dnamatch/pkg/match"
	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Report is the JSON shape of a result.
type Report struct {
	RunID          string              `json:"run_id"`
	Testers        []ReportTester      `json:"testers"`
	Candidates     []ReportCandidate   `json:"candidates"`
	PathFamilies   []pedigree.FamilyID `json:"path_families"`
	SharedFamilies []pedigree.FamilyID `json:"shared_families"`
}

// ReportTester is one tester.
type ReportTester struct {
	ID   pedigree.IndividualID `json:"id"`
	Name string                `json:"name"`
	CM   int                   `json:"cm"`
}

// ReportCandidate is one shared candidate with its relationship to each tester.
type ReportCandidate struct {
	ID            pedigree.IndividualID `json:"id"`
	Name          string                `json:"name"`
	Relationships []ReportRelationship  `json:"relationships"`
}

// ReportRelationship is a candidate's relationship to one tester.
type ReportRelationship struct {
	Tester  pedigree.IndividualID `json:"tester"`
	Label   string                `json:"label"`
	Closest pedigree.FamilyID     `json:"closest"`
}

func displayName(p *pedigree.Pedigree, id pedigree.IndividualID) string {
	if indi, err := p.Individual(id); err == nil {
		return indi.DisplayName()
	}
	return string(id)
}

// NewReport builds the JSON report for r.
func NewReport(p *pedigree.Pedigree, r *match.Result) *Report {
	rep := &Report{
		RunID:          r.RunID,
		Testers:        make([]ReportTester, 0, len(r.Testers)),
		Candidates:     make([]ReportCandidate, 0, len(r.Candidates)),
		PathFamilies:   r.PathFamilies,
		SharedFamilies: r.SharedFamilies,
	}
	for _, t := range r.Testers {
		rep.Testers = append(rep.Testers, ReportTester{ID: t.ID, Name: displayName(p, t.ID), CM: t.CM})
	}

	for _, id := range r.Candidates {
		c := ReportCandidate{ID: id, Name: displayName(p, id)}
		for _, l := range r.Listings {
			for _, cand := range l.Candidates {
				if cand.ID == id {
					c.Relationships = append(c.Relationships, ReportRelationship{
						Tester:  l.Tester.ID,
						Label:   cand.Relationship.Label,
						Closest: cand.Relationship.Closest,
					})
					break
				}
			}
		}
		rep.Candidates = append(rep.Candidates, c)
	}
	return rep
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, p *pedigree.Pedigree, r *match.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(p, r))
}
