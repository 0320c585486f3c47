// Package match finds the people whose expected shared-DNA ranges agree with
// every tester's reported value.
//
// A run parses the tester arguments, resolves them to individuals, checks the
// batch is worth computing, then for each tester resolves its relatives,
// keeps those whose relationship range contains the tester's cM value, and
// intersects the per-tester sets. All validation happens before any
// relationship traversal.
//
// Example Usage:
//
//	p, _ := pedigree.LoadFile("tree.yaml")
//	engine := match.NewEngine(p, nil, dnarange.Default(), match.DefaultOptions())
//	result, events, err := engine.Run(ctx, []string{"12,1500", "@I40@,1200", "41,900"})
//	if errors.Is(err, match.ErrEmptyIntersection) {
//		// no single person explains all three matches
//	}
//	for _, id := range result.Candidates {
//		fmt.Println(id)
//	}
//	_ = events // diagnostics for the caller to log
package match

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orneryd/dnamatch/pkg/ancestry"
	"github.com/orneryd/dnamatch/pkg/dnarange"
	"github.com/orneryd/dnamatch/pkg/kinship"
	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Default option values.
const (
	DefaultMinTesters    = 3
	DefaultMaxResults    = 14
	DefaultSmallestMatch = 866
)

// Options tune a run.
type Options struct {
	// MinTesters is the fewest resolved testers worth computing.
	MinTesters int
	// MaxResults bounds the candidate set; reaching it fails the run.
	MaxResults int
	// SmallestMatch: at least one tester must report more than this.
	SmallestMatch int
	// IDScheme locates tester identifiers.
	IDScheme IDScheme
	// Nearest picks among several shared ancestor families.
	Nearest kinship.Nearest
}

// DefaultOptions returns the stock thresholds with xref identifiers.
func DefaultOptions() Options {
	return Options{
		MinTesters:    DefaultMinTesters,
		MaxResults:    DefaultMaxResults,
		SmallestMatch: DefaultSmallestMatch,
		IDScheme:      IDScheme{Kind: SchemeXRef},
		Nearest:       kinship.NearestFirstFound,
	}
}

// Validate checks the numeric thresholds.
func (o Options) Validate() error {
	var problems []string
	if o.MinTesters < 1 {
		problems = append(problems, fmt.Sprintf("min-testers must be positive, got %d", o.MinTesters))
	}
	if o.MaxResults < 1 {
		problems = append(problems, fmt.Sprintf("max-results must be positive, got %d", o.MaxResults))
	}
	if o.SmallestMatch <= 1 {
		problems = append(problems, fmt.Sprintf("smallest-match must be greater than 1, got %d", o.SmallestMatch))
	}
	if len(problems) > 0 {
		return newError(ErrInputValidation, "bad options", problems...)
	}
	return nil
}

// Result is the outcome of a successful run.
type Result struct {
	RunID string `json:"run_id"`
	// Candidates is the shared candidate set, in pedigree order.
	Candidates []pedigree.IndividualID `json:"candidates"`
	Testers    []Tester                `json:"testers"`
	// Listings holds each tester's own candidates, in tester order.
	Listings []Listing `json:"listings"`
	// People is the candidates followed by the testers.
	People []pedigree.IndividualID `json:"people"`
	// PathFamilies is every ancestor family of every person, in discovery order.
	PathFamilies []pedigree.FamilyID `json:"path_families"`
	// SharedFamilies holds the closest family of each related pair of people.
	SharedFamilies []pedigree.FamilyID `json:"shared_families"`
	IndexStats     ancestry.Stats      `json:"index_stats"`
	IndexBuild     time.Duration       `json:"index_build_ns"`
}

// Engine runs tester batches against one pedigree.
type Engine struct {
	p     *pedigree.Pedigree
	idx   *ancestry.Index
	table *dnarange.Table
	opts  Options

	buildIndex func(*pedigree.Pedigree) (*ancestry.Index, error)
	newRunID   func() string
}

// NewEngine returns an engine over p.
//
// idx may be nil, in which case the ancestry index is built on the first run
// that passes validation and reused afterwards. A nil table uses
// dnarange.Default().
func NewEngine(p *pedigree.Pedigree, idx *ancestry.Index, table *dnarange.Table, opts Options) *Engine {
	if table == nil {
		table = dnarange.Default()
	}
	return &Engine{
		p:          p,
		idx:        idx,
		table:      table,
		opts:       opts,
		buildIndex: ancestry.Build,
		newRunID:   func() string { return uuid.NewString() },
	}
}

// Options returns the engine's options.
func (e *Engine) Options() Options {
	return e.opts
}

type run struct {
	id     string
	events []Event
}

func (r *run) emit(ev Event) {
	ev.RunID = r.id
	r.events = append(r.events, ev)
}

func (r *run) fail(err error) ([]Event, error) {
	ev := Event{Type: EventFailure, Kind: KindName(err), Message: err.Error()}
	if me, ok := err.(*Error); ok {
		ev.Message = me.Message
		ev.Details = me.Details
	}
	r.emit(ev)
	return r.events, err
}

// reject reports each problem with the tester entries, then fails.
func (r *run) reject(err error) ([]Event, error) {
	if me, ok := err.(*Error); ok {
		for _, d := range me.Details {
			r.emit(Event{Type: EventTesterRejected, Kind: KindName(err), Message: d})
		}
	}
	return r.fail(err)
}

// Run executes one batch. entries are "identifier,cM" strings.
//
// On failure Result is nil and the error wraps one of the Err* kinds (or is
// ctx.Err() on cancellation, or an ancestry build error). Events are returned
// in both cases.
func (e *Engine) Run(ctx context.Context, entries []string) (*Result, []Event, error) {
	r := &run{id: e.newRunID()}

	if err := e.opts.Validate(); err != nil {
		events, err := r.fail(err)
		return nil, events, err
	}

	parsed, err := ParseEntries(entries)
	if err != nil {
		events, err := r.reject(err)
		return nil, events, err
	}

	testers, err := ResolveTesters(e.p, e.opts.IDScheme, parsed)
	if err != nil {
		events, err := r.reject(err)
		return nil, events, err
	}

	if len(testers) < e.opts.MinTesters {
		events, err := r.fail(newError(ErrInputValidation,
			fmt.Sprintf("need at least %d testers, got %d", e.opts.MinTesters, len(testers))))
		return nil, events, err
	}

	plausible := false
	for _, t := range testers {
		if t.CM > e.opts.SmallestMatch {
			plausible = true
			break
		}
	}
	if !plausible {
		events, err := r.fail(newError(ErrPlausibility,
			fmt.Sprintf("at least one tester must share more than %d cM", e.opts.SmallestMatch)))
		return nil, events, err
	}

	var buildTime time.Duration
	if e.idx == nil {
		start := time.Now()
		idx, err := e.buildIndex(e.p)
		if err != nil {
			events, err := r.fail(fmt.Errorf("failed to build ancestry index: %w", err))
			return nil, events, err
		}
		buildTime = time.Since(start)
		e.idx = idx
	}

	resolver := kinship.NewResolver(e.p, e.idx, kinship.WithNearest(e.opts.Nearest))
	relations := make(map[pedigree.IndividualID]*kinship.Relations, len(testers))
	listings := make([]Listing, 0, len(testers))
	sets := make([]Set, 0, len(testers))

	for i := range testers {
		if err := ctx.Err(); err != nil {
			events, err := r.fail(err)
			return nil, events, err
		}
		t := testers[i]
		rels, err := resolver.Resolve(t.ID)
		if err != nil {
			events, err := r.fail(fmt.Errorf("failed to resolve relatives of %s: %w", t.ID, err))
			return nil, events, err
		}
		relations[t.ID] = rels

		listing := Filter(t, rels, e.table)
		listings = append(listings, listing)
		sets = append(sets, listing.Set())
		r.emit(Event{Type: EventTesterMatches, Tester: &t, Candidates: listing.Candidates, Count: len(listing.Candidates)})
	}

	shared := Intersect(sets...)
	r.emit(Event{Type: EventIntersection, Count: len(shared)})

	if len(shared) < 1 {
		events, err := r.fail(newError(ErrEmptyIntersection, "the testers have no relative in common within the expected ranges"))
		return nil, events, err
	}
	if len(shared) >= e.opts.MaxResults {
		events, err := r.fail(newError(ErrResultTooLarge,
			fmt.Sprintf("%d shared candidates, limit is below %d", len(shared), e.opts.MaxResults)))
		return nil, events, err
	}

	result := &Result{
		RunID:      r.id,
		Candidates: shared.Ordered(e.p),
		Testers:    testers,
		Listings:   listings,
		IndexStats: e.idx.Stats(),
		IndexBuild: buildTime,
	}

	people := make([]pedigree.IndividualID, 0, len(result.Candidates)+len(testers))
	people = append(people, result.Candidates...)
	for _, t := range testers {
		people = append(people, t.ID)
	}
	result.People = people

	result.PathFamilies = e.pathFamilies(people)

	sharedFams, err := e.sharedFamilies(ctx, resolver, people, relations)
	if err != nil {
		events, err := r.fail(err)
		return nil, events, err
	}
	result.SharedFamilies = sharedFams

	return result, r.events, nil
}

// pathFamilies unions the ancestor families of people in discovery order.
func (e *Engine) pathFamilies(people []pedigree.IndividualID) []pedigree.FamilyID {
	seen := make(map[pedigree.FamilyID]struct{})
	var out []pedigree.FamilyID
	for _, id := range people {
		e.idx.Of(id).Each(func(fam pedigree.FamilyID, _ int) bool {
			if _, ok := seen[fam]; !ok {
				seen[fam] = struct{}{}
				out = append(out, fam)
			}
			return true
		})
	}
	return out
}

// sharedFamilies collects the closest family of every pair of distinct people
// who are blood relatives.
func (e *Engine) sharedFamilies(ctx context.Context, resolver *kinship.Resolver, people []pedigree.IndividualID,
	known map[pedigree.IndividualID]*kinship.Relations) ([]pedigree.FamilyID, error) {
	interest := NewSet(people...)
	seen := make(map[pedigree.FamilyID]struct{})
	var out []pedigree.FamilyID

	for _, id := range people {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rels, ok := known[id]
		if !ok {
			var err error
			rels, err = resolver.Resolve(id)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve relatives of %s: %w", id, err)
			}
		}
		rels.Each(func(other pedigree.IndividualID, rel kinship.Relationship) bool {
			if other == id || !interest.Has(other) {
				return true
			}
			if _, dup := seen[rel.Closest]; !dup {
				seen[rel.Closest] = struct{}{}
				out = append(out, rel.Closest)
			}
			return true
		})
	}
	return out, nil
}
