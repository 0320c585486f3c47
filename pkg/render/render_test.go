package render

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/dnamatch/pkg/match"
	"github.com/orneryd/dnamatch/pkg/pedigree"
	"github.com/orneryd/dnamatch/pkg/pedigree/pedigreetest"
)

func cousinsResult(t *testing.T) (*pedigree.Pedigree, *match.Result) {
	t.Helper()
	p := pedigreetest.Cousins(t)
	result, _, err := match.NewEngine(p, nil, nil, match.DefaultOptions()).
		Run(context.Background(), []string{"101,1500", "201,1500", "301,1500"})
	require.NoError(t, err)
	return p, result
}

// ============================================================================
// Graph
// ============================================================================

func TestBuildGraph(t *testing.T) {
	p, result := cousinsResult(t)
	g := BuildGraph(p, result)

	t.Run("families stop at the shared family", func(t *testing.T) {
		var fams []pedigree.FamilyID
		for _, f := range g.Families {
			fams = append(fams, f.ID)
		}
		assert.Equal(t, []pedigree.FamilyID{"F2", "F3", "F4", "F1"}, fams)
	})

	t.Run("testers drawn on their own", func(t *testing.T) {
		var loose []pedigree.IndividualID
		for _, person := range g.Loose {
			loose = append(loose, person.ID)
			assert.Equal(t, RoleTester, person.Role)
		}
		assert.Equal(t, []pedigree.IndividualID{"A1", "B1", "C1"}, loose)
	})

	t.Run("shared family holds the candidates", func(t *testing.T) {
		top := g.Families[3]
		assert.Equal(t, RoleCandidate, top.Role())
		assert.Equal(t, RoleNone, g.Families[0].Role())
	})

	t.Run("edges", func(t *testing.T) {
		assert.Equal(t, []Edge{
			{From: "A1", To: "F2"},
			{From: "B1", To: "F3"},
			{From: "C1", To: "F4"},
			{From: "A", FromFamily: "F2", To: "F1"},
			{From: "B", FromFamily: "F3", To: "F1"},
			{From: "C", FromFamily: "F4", To: "F1"},
		}, g.Edges)
	})
}

// ============================================================================
// DOT
// ============================================================================

func TestDOT(t *testing.T) {
	p, result := cousinsResult(t)

	var buf bytes.Buffer
	require.NoError(t, DOT(&buf, p, result, Options{}))
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")

	t.Run("header", func(t *testing.T) {
		require.GreaterOrEqual(t, len(lines), 5)
		assert.Equal(t, "digraph family {", lines[0])
		assert.Equal(t, "node [shape=record];", lines[1])
		assert.Equal(t, "rankdir=LR;", lines[2])
		assert.Equal(t, `labelloc="t";`, lines[3])
		assert.Equal(t, `label="DNA matches between\nA1 @ 1500 cM\nB1 @ 1500 cM\nC1 @ 1500 cM";`, lines[4])
		assert.Equal(t, "}", lines[len(lines)-1])
	})

	t.Run("nodes", func(t *testing.T) {
		assert.Contains(t, lines, `i7 [label="A1",style=filled,color=lightblue];`)
		assert.Contains(t, lines, `f1 [label="<i1>GP1|<p>|<i2>GP2",style=filled,color=orange];`)
		assert.Contains(t, lines, `f2 [label="<i3>A|<p>|<i6>SA"];`)
	})

	t.Run("edges point child to family", func(t *testing.T) {
		assert.Contains(t, lines, "i7 -> f2:p;")
		assert.Contains(t, lines, "f2:i3 -> f1:p;")
	})

	t.Run("reversed arrows", func(t *testing.T) {
		var rev bytes.Buffer
		require.NoError(t, DOT(&rev, p, result, Options{Orientation: "tb", ReverseArrows: true}))
		assert.Contains(t, rev.String(), "rankdir=TB;")
		assert.Contains(t, rev.String(), "f2:p -> i7;")
		assert.Contains(t, rev.String(), "f1:p -> f2:i3;")
	})

	t.Run("unknown orientation", func(t *testing.T) {
		assert.Equal(t, "LR", Options{Orientation: "diagonal"}.rankdir())
		assert.Equal(t, "BT", Options{Orientation: "bt"}.rankdir())
	})
}

func TestDOT_EscapesNames(t *testing.T) {
	b := pedigreetest.New()
	b.Family("F1", "H", "")
	b.Child("T", "F1")
	b.Person("H").Name = `John "Jack" {Smith}`
	p := b.Build(t)

	g := &Graph{
		Families: []FamilyNode{{ID: "F1", Partners: []Person{{ID: "H", Name: p.Individuals()[0].DisplayName()}}}},
		Edges:    []Edge{{From: "T", To: "F1"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, p, g, Options{}))
	assert.Contains(t, buf.String(), `f1 [label="<i1>John \"Jack\" \{Smith\}|<p>"];`)
}

// ============================================================================
// JSON
// ============================================================================

func TestJSON(t *testing.T) {
	p, result := cousinsResult(t)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, p, result))

	var rep Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, result.RunID, rep.RunID)
	require.Len(t, rep.Testers, 3)
	assert.Equal(t, 1500, rep.Testers[0].CM)

	require.Len(t, rep.Candidates, 2)
	gp1 := rep.Candidates[0]
	assert.Equal(t, pedigree.IndividualID("GP1"), gp1.ID)
	require.Len(t, gp1.Relationships, 3)
	for _, rel := range gp1.Relationships {
		assert.Equal(t, "grandparent", rel.Label)
		assert.Equal(t, pedigree.FamilyID("F1"), rel.Closest)
	}
	assert.Equal(t, []pedigree.FamilyID{"F1"}, rep.SharedFamilies)
}
