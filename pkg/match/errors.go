package match

import (
	"errors"
	"strings"
)

// Error kinds. Every failure returned by the engine wraps exactly one of them;
// test with errors.Is.
var (
	// ErrInputValidation: malformed tester entry, cM out of range, duplicate
	// tester, too few testers, or a non-positive option.
	ErrInputValidation = errors.New("invalid input")
	// ErrIdentifierResolution: a tester identifier matches no individual.
	ErrIdentifierResolution = errors.New("tester not found")
	// ErrPlausibility: no tester reported more than the smallest-match floor.
	ErrPlausibility = errors.New("no match above the smallest-match floor")
	// ErrEmptyIntersection: the testers share no candidate.
	ErrEmptyIntersection = errors.New("no shared candidates")
	// ErrResultTooLarge: too many shared candidates to present usefully.
	ErrResultTooLarge = errors.New("too many shared candidates")
)

// Error is a run failure with per-item details, e.g. one line per rejected
// tester entry.
type Error struct {
	Kind    error
	Message string
	Details []string
}

func newError(kind error, message string, details ...string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, d := range e.Details {
		b.WriteString("\n  ")
		b.WriteString(d)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// KindName returns a short stable name for the kind of err, suitable for
// metric labels and event payloads. Unknown errors map to "other".
func KindName(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInputValidation):
		return "input_validation"
	case errors.Is(err, ErrIdentifierResolution):
		return "identifier_resolution"
	case errors.Is(err, ErrPlausibility):
		return "plausibility"
	case errors.Is(err, ErrEmptyIntersection):
		return "empty_intersection"
	case errors.Is(err, ErrResultTooLarge):
		return "result_too_large"
	default:
		return "other"
	}
}
