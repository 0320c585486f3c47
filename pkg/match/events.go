package match

import "github.com/orneryd/dnamatch/pkg/pedigree"

// EventType identifies the kind of diagnostic event.
type EventType string

const (
	// EventTesterRejected is emitted once per problem with a tester entry.
	EventTesterRejected EventType = "tester_rejected"
	// EventTesterMatches carries one tester's candidate listing.
	EventTesterMatches EventType = "tester_matches"
	// EventIntersection reports the size of the shared candidate set.
	EventIntersection EventType = "intersection"
	// EventFailure is emitted when the run stops with an error.
	EventFailure EventType = "failure"
)

// Event is a diagnostic emitted during a run. The engine never prints; callers
// decide how (and whether) to show events.
type Event struct {
	Type  EventType `json:"type"`
	RunID string    `json:"run_id"`

	// Tester is set for tester_matches events.
	Tester *Tester `json:"tester,omitempty"`
	// Candidates lists matches (tester_matches) or the intersection.
	Candidates []Candidate `json:"candidates,omitempty"`
	// Count is the intersection size for intersection events.
	Count int `json:"count,omitempty"`

	// Kind is the KindName of the error for failure events.
	Kind    string   `json:"kind,omitempty"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// IDs returns the candidate ids carried by the event.
func (e Event) IDs() []pedigree.IndividualID {
	out := make([]pedigree.IndividualID, len(e.Candidates))
	for i, c := range e.Candidates {
		out[i] = c.ID
	}
	return out
}
