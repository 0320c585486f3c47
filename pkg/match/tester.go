package match

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Bounds on a reported shared-cM value.
const (
	MinCM = 1
	MaxCM = 4000
)

// Entry is one parsed "identifier,cM" tester argument.
type Entry struct {
	// Position is the 1-based position of the entry on the command line.
	Position   int    `json:"position"`
	Text       string `json:"text"`
	Identifier string `json:"identifier"`
	CM         int    `json:"cm"`
}

func (e Entry) prefix() string {
	return fmt.Sprintf("tester #%d %q", e.Position, e.Text)
}

// Tester is an entry resolved to an individual.
type Tester struct {
	Entry
	ID pedigree.IndividualID `json:"id"`
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseEntries parses tester arguments of the form "identifier,cM".
//
// Each entry needs exactly one comma and a whole-number cM value in
// [MinCM, MaxCM]. Every bad entry is reported in the returned *Error
// (kind ErrInputValidation), not just the first.
func ParseEntries(args []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(args))
	var problems []string

	for i, arg := range args {
		e := Entry{Position: i + 1, Text: arg}
		parts := strings.Split(arg, ",")
		if len(parts) != 2 {
			problems = append(problems, e.prefix()+" is not id,cM")
			continue
		}
		e.Identifier = strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if e.Identifier == "" {
			problems = append(problems, e.prefix()+" has an empty id")
			continue
		}
		if !isDigits(value) {
			problems = append(problems, e.prefix()+" does not have a positive integer cM value")
			continue
		}
		cm, err := strconv.Atoi(value)
		if err != nil || cm < MinCM || cm > MaxCM {
			problems = append(problems, fmt.Sprintf("%s has out of range cM value (want %d..%d)", e.prefix(), MinCM, MaxCM))
			continue
		}
		e.CM = cm
		entries = append(entries, e)
	}

	if len(problems) > 0 {
		return nil, newError(ErrInputValidation, "malformed tester entries", problems...)
	}
	return entries, nil
}

// SchemeKind selects what a tester identifier is compared with.
type SchemeKind int

const (
	// SchemeXRef compares with the numeric external reference.
	SchemeXRef SchemeKind = iota
	// SchemeEvent compares with the value of an event of a given type.
	SchemeEvent
	// SchemeTag compares with a top-level tag value.
	SchemeTag
)

// IDScheme says how tester identifiers are located in the pedigree.
type IDScheme struct {
	Kind SchemeKind
	// Key is the event type (SchemeEvent) or tag name (SchemeTag).
	Key string
}

// ParseIDScheme reads the id-item setting:
//
//	"xref"       numeric external reference, "@I12@", "I12" and "12" all work
//	"type.exid"  value of an event whose type is "exid"
//	"uuid"       value of the top-level tag "uuid"
func ParseIDScheme(s string) (IDScheme, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "xref":
		return IDScheme{Kind: SchemeXRef}, nil
	case strings.HasPrefix(s, "type."):
		sub := strings.TrimPrefix(s, "type.")
		if sub == "" {
			return IDScheme{}, newError(ErrInputValidation, "id-item \"type.\" needs an event type")
		}
		return IDScheme{Kind: SchemeEvent, Key: sub}, nil
	default:
		return IDScheme{Kind: SchemeTag, Key: s}, nil
	}
}

func (s IDScheme) String() string {
	switch s.Kind {
	case SchemeEvent:
		return "type." + s.Key
	case SchemeTag:
		return s.Key
	default:
		return "xref"
	}
}

// Find locates the first individual, in pedigree order, matching identifier.
func (s IDScheme) Find(p *pedigree.Pedigree, identifier string) (pedigree.IndividualID, error) {
	switch s.Kind {
	case SchemeXRef:
		wanted := strings.NewReplacer("@", "", "I", "", "i", "").Replace(identifier)
		if !isDigits(wanted) {
			return "", fmt.Errorf("id %q is not an xref number", identifier)
		}
		n, err := strconv.Atoi(wanted)
		if err != nil {
			return "", fmt.Errorf("id %q is not an xref number", identifier)
		}
		for _, indi := range p.Individuals() {
			if indi.XRef == n {
				return indi.ID, nil
			}
		}
	case SchemeEvent:
		for _, indi := range p.Individuals() {
			for _, ev := range indi.Events {
				if strings.EqualFold(ev.Type, s.Key) && ev.Value == identifier {
					return indi.ID, nil
				}
			}
		}
	case SchemeTag:
		for _, indi := range p.Individuals() {
			if hasTag(indi, s.Key, identifier) {
				return indi.ID, nil
			}
		}
	}
	return "", pedigree.ErrNotFound
}

// hasTag reports whether indi carries tag key with the given value. Tag names
// compare case-insensitively, like event types.
func hasTag(indi *pedigree.Individual, key, value string) bool {
	if v, ok := indi.Tags[key]; ok && v == value {
		return true
	}
	for k, v := range indi.Tags {
		if v == value && strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// ResolveTesters locates every entry in p.
//
// Unresolved identifiers fail the whole set with ErrIdentifierResolution,
// listing each one. Two entries naming the same individual fail with
// ErrInputValidation.
func ResolveTesters(p *pedigree.Pedigree, scheme IDScheme, entries []Entry) ([]Tester, error) {
	testers := make([]Tester, 0, len(entries))
	var missing []string
	seen := make(map[pedigree.IndividualID]Entry, len(entries))

	for _, e := range entries {
		id, err := scheme.Find(p, e.Identifier)
		if err != nil {
			missing = append(missing, fmt.Sprintf("%s: %v", e.prefix(), err))
			continue
		}
		if first, dup := seen[id]; dup {
			return nil, newError(ErrInputValidation, "duplicate tester",
				fmt.Sprintf("%s names the same person as %s", e.prefix(), first.prefix()))
		}
		seen[id] = e
		testers = append(testers, Tester{Entry: e, ID: id})
	}

	if len(missing) > 0 {
		return nil, newError(ErrIdentifierResolution,
			fmt.Sprintf("%d of %d testers not located using %s", len(missing), len(entries), scheme), missing...)
	}
	return testers, nil
}
