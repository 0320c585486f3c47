package match

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/dnamatch/pkg/pedigree"
	"github.com/orneryd/dnamatch/pkg/pedigree/pedigreetest"
)

// ============================================================================
// ParseEntries
// ============================================================================

func TestParseEntries(t *testing.T) {
	t.Run("valid entries keep order and position", func(t *testing.T) {
		entries, err := ParseEntries([]string{"101,1500", "@I201@, 4000", "x,1"})
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, Entry{Position: 1, Text: "101,1500", Identifier: "101", CM: 1500}, entries[0])
		assert.Equal(t, "@I201@", entries[1].Identifier)
		assert.Equal(t, 4000, entries[1].CM)
		assert.Equal(t, 1, entries[2].CM)
	})

	tests := []struct {
		name  string
		entry string
	}{
		{"no comma", "101"},
		{"two commas", "101,1500,3"},
		{"empty id", ",1500"},
		{"zero cM", "101,0"},
		{"cM above range", "101,4001"},
		{"negative cM", "101,-5"},
		{"decimal cM", "101,12.5"},
		{"word cM", "101,lots"},
		{"empty cM", "101,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEntries([]string{tt.entry})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInputValidation)
		})
	}

	t.Run("every bad entry is reported", func(t *testing.T) {
		_, err := ParseEntries([]string{"1,10", "bad", "2,20", "3,9999"})
		var me *Error
		require.True(t, errors.As(err, &me))
		require.Len(t, me.Details, 2)
		assert.Contains(t, me.Details[0], "#2")
		assert.Contains(t, me.Details[1], "#4")
	})
}

// ============================================================================
// ID schemes
// ============================================================================

func TestParseIDScheme(t *testing.T) {
	tests := []struct {
		in   string
		want IDScheme
	}{
		{"", IDScheme{Kind: SchemeXRef}},
		{"xref", IDScheme{Kind: SchemeXRef}},
		{"XREF", IDScheme{Kind: SchemeXRef}},
		{"type.exid", IDScheme{Kind: SchemeEvent, Key: "exid"}},
		{"uuid", IDScheme{Kind: SchemeTag, Key: "uuid"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIDScheme(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseIDScheme("type.")
	assert.ErrorIs(t, err, ErrInputValidation)

	assert.Equal(t, "type.exid", IDScheme{Kind: SchemeEvent, Key: "exid"}.String())
	assert.Equal(t, "xref", IDScheme{}.String())
}

func schemeFixture(t *testing.T) *pedigree.Pedigree {
	b := pedigreetest.New()
	b.Person("@I7@").Events = []pedigree.Event{{Type: "EXID", Value: "A-77"}}
	b.Person("@I8@").Tags = map[string]string{"uuid": "u-8"}
	b.Person("@I9@").Events = []pedigree.Event{{Type: "exid", Value: "A-77"}}
	b.Person("@I10@").Tags = map[string]string{"REFN": "r-10"}
	return b.Build(t)
}

func TestIDScheme_Find(t *testing.T) {
	p := schemeFixture(t)

	t.Run("xref accepts decorated and bare numbers", func(t *testing.T) {
		for _, ident := range []string{"@I7@", "I7", "i7", "7"} {
			id, err := IDScheme{Kind: SchemeXRef}.Find(p, ident)
			require.NoError(t, err, ident)
			assert.Equal(t, pedigree.IndividualID("@I7@"), id)
		}
	})

	t.Run("xref rejects non numbers", func(t *testing.T) {
		_, err := IDScheme{Kind: SchemeXRef}.Find(p, "@X7@")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not an xref number")
	})

	t.Run("event type is case insensitive, first match wins", func(t *testing.T) {
		id, err := IDScheme{Kind: SchemeEvent, Key: "exid"}.Find(p, "A-77")
		require.NoError(t, err)
		assert.Equal(t, pedigree.IndividualID("@I7@"), id)
	})

	t.Run("tag", func(t *testing.T) {
		id, err := IDScheme{Kind: SchemeTag, Key: "uuid"}.Find(p, "u-8")
		require.NoError(t, err)
		assert.Equal(t, pedigree.IndividualID("@I8@"), id)
	})

	t.Run("tag name is case insensitive", func(t *testing.T) {
		scheme, err := ParseIDScheme("REFN")
		require.NoError(t, err)
		id, err := scheme.Find(p, "r-10")
		require.NoError(t, err)
		assert.Equal(t, pedigree.IndividualID("@I10@"), id)

		id, err = IDScheme{Kind: SchemeTag, Key: "UUID"}.Find(p, "u-8")
		require.NoError(t, err)
		assert.Equal(t, pedigree.IndividualID("@I8@"), id)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := IDScheme{Kind: SchemeTag, Key: "uuid"}.Find(p, "nope")
		assert.ErrorIs(t, err, pedigree.ErrNotFound)
	})
}

func TestResolveTesters(t *testing.T) {
	p := pedigreetest.Cousins(t)
	xref := IDScheme{Kind: SchemeXRef}

	t.Run("all resolved", func(t *testing.T) {
		entries, err := ParseEntries([]string{"101,1500", "201,1400"})
		require.NoError(t, err)
		testers, err := ResolveTesters(p, xref, entries)
		require.NoError(t, err)
		require.Len(t, testers, 2)
		assert.Equal(t, pedigree.IndividualID("A1"), testers[0].ID)
		assert.Equal(t, pedigree.IndividualID("B1"), testers[1].ID)
		assert.Equal(t, 1400, testers[1].CM)
	})

	t.Run("unresolved identifiers are all listed", func(t *testing.T) {
		entries, err := ParseEntries([]string{"101,1500", "999,1500", "998,1500"})
		require.NoError(t, err)
		_, err = ResolveTesters(p, xref, entries)
		assert.ErrorIs(t, err, ErrIdentifierResolution)

		var me *Error
		require.True(t, errors.As(err, &me))
		assert.Len(t, me.Details, 2)
		assert.Contains(t, me.Message, "2 of 3")
	})

	t.Run("duplicate tester", func(t *testing.T) {
		entries, err := ParseEntries([]string{"101,1500", "@I101@,1200"})
		require.NoError(t, err)
		_, err = ResolveTesters(p, xref, entries)
		assert.ErrorIs(t, err, ErrInputValidation)
		assert.Contains(t, err.Error(), "duplicate tester")
	})
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "success", KindName(nil))
	assert.Equal(t, "plausibility", KindName(newError(ErrPlausibility, "x")))
	assert.Equal(t, "result_too_large", KindName(ErrResultTooLarge))
	assert.Equal(t, "other", KindName(errors.New("boom")))
}
