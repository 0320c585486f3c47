package kinship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/dnamatch/pkg/ancestry"
	"github.com/orneryd/dnamatch/pkg/pedigree"
	"github.com/orneryd/dnamatch/pkg/pedigree/pedigreetest"
)

func buildIndex(t *testing.T, p *pedigree.Pedigree) *ancestry.Index {
	t.Helper()
	idx, err := ancestry.Build(p)
	require.NoError(t, err)
	return idx
}

func labels(rels *Relations) map[pedigree.IndividualID]string {
	out := make(map[pedigree.IndividualID]string, rels.Len())
	rels.Each(func(id pedigree.IndividualID, rel Relationship) bool {
		out[id] = rel.Label
		return true
	})
	return out
}

func TestResolve_Cousin(t *testing.T) {
	p := pedigreetest.Cousins(t)
	rels, err := Resolve(p, buildIndex(t, p), "A1")
	require.NoError(t, err)

	assert.Equal(t, map[pedigree.IndividualID]string{
		"A":   "parent",
		"SA":  "parent",
		"GP1": "grandparent",
		"GP2": "grandparent",
		"B":   "auncle",
		"C":   "auncle",
		"B1":  "1C",
		"C1":  "1C",
	}, labels(rels))

	t.Run("ancestors first, then collateral kin in pedigree order", func(t *testing.T) {
		assert.Equal(t,
			[]pedigree.IndividualID{"A", "SA", "GP1", "GP2", "B", "C", "B1", "C1"},
			rels.IDs())
	})

	t.Run("records carry the shared family and distances", func(t *testing.T) {
		rel, ok := rels.Get("B1")
		require.True(t, ok)
		assert.Equal(t, Relationship{Closest: "F1", GenMe: 2, GenThem: 2, Label: "1C", Kind: Collateral}, rel)

		rel, _ = rels.Get("GP2")
		assert.Equal(t, Relationship{Closest: "F1", GenMe: 2, GenThem: 0, Label: "grandparent", Kind: Ancestor}, rel)
	})

	t.Run("unrelated in-laws and self are omitted", func(t *testing.T) {
		for _, id := range []pedigree.IndividualID{"A1", "SB", "SC"} {
			_, ok := rels.Get(id)
			assert.False(t, ok, "%s should not be related", id)
		}
	})
}

func TestResolve_Descendants(t *testing.T) {
	p := pedigreetest.Cousins(t)
	rels, err := Resolve(p, buildIndex(t, p), "GP1")
	require.NoError(t, err)

	assert.Equal(t, []pedigree.IndividualID{"A", "B", "C", "A1", "B1", "C1"}, rels.IDs())

	rel, _ := rels.Get("A")
	assert.Equal(t, "child", rel.Label)
	assert.Equal(t, Descendant, rel.Kind)

	rel, _ = rels.Get("C1")
	assert.Equal(t, Relationship{Closest: "F1", GenMe: 0, GenThem: 2, Label: "grandchild", Kind: Descendant}, rel)

	_, ok := rels.Get("GP2")
	assert.False(t, ok, "a spouse is not a blood relative")
}

// X's ancestor families are discovered as FX, FH, FTOP, FW. R (a sister of
// X's mother) shares FTOP and FW with X; FTOP is found first but FW is nearer.
func nearestFixture(t *testing.T) *pedigree.Pedigree {
	b := pedigreetest.New()
	b.Family("FTOP", "T1", "T2").Children("FTOP", "HH", "WW")
	b.Family("FH", "HH", "HW").Child("H", "FH")
	b.Family("FW", "WH", "WW").Children("FW", "W", "R")
	b.Family("FX", "H", "W").Child("X", "FX")
	return b.Build(t)
}

func TestResolve_NearestFirstFound(t *testing.T) {
	p := nearestFixture(t)
	idx := buildIndex(t, p)
	require.Equal(t, []pedigree.FamilyID{"FX", "FH", "FTOP", "FW"}, idx.Of("X").Order())

	rels, err := NewResolver(p, idx).Resolve("X")
	require.NoError(t, err)

	rel, ok := rels.Get("R")
	require.True(t, ok)
	assert.Equal(t, pedigree.FamilyID("FTOP"), rel.Closest)
	assert.Equal(t, 3, rel.GenMe)
	assert.Equal(t, 2, rel.GenThem)
	assert.Equal(t, "1C1R", rel.Label)
}

func TestResolve_NearestMinimumDistance(t *testing.T) {
	p := nearestFixture(t)
	rels, err := NewResolver(p, buildIndex(t, p), WithNearest(NearestMinimumDistance)).Resolve("X")
	require.NoError(t, err)

	rel, ok := rels.Get("R")
	require.True(t, ok)
	assert.Equal(t, pedigree.FamilyID("FW"), rel.Closest)
	assert.Equal(t, "auncle", rel.Label)

	// ancestors are unaffected by the strategy
	rel, _ = rels.Get("T1")
	assert.Equal(t, "g-grandparent", rel.Label)
	assert.Equal(t, Ancestor, rel.Kind)
}

func TestResolve_UnknownTester(t *testing.T) {
	p := pedigreetest.Cousins(t)
	_, err := Resolve(p, buildIndex(t, p), "nobody")
	assert.ErrorIs(t, err, pedigree.ErrNotFound)
}

func TestParseNearest(t *testing.T) {
	n, err := ParseNearest("")
	require.NoError(t, err)
	assert.Equal(t, NearestFirstFound, n)

	n, err = ParseNearest("minimum")
	require.NoError(t, err)
	assert.Equal(t, NearestMinimumDistance, n)
	assert.Equal(t, "minimum", n.String())

	_, err = ParseNearest("closest")
	assert.Error(t, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ancestor", Ancestor.String())
	assert.Equal(t, "descendant", Descendant.String())
	assert.Equal(t, "collateral", Collateral.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
