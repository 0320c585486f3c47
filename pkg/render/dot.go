package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/orneryd/dnamatch/pkg/match"
	"github.com/orneryd/dnamatch/pkg/pedigree"
)

// Node fill colours.
const (
	MatchColor = "orange"
	BaseColor  = "lightblue"
)

// Options control DOT output.
type Options struct {
	// Orientation is the rankdir: tb, lr, bt or rl. Anything else means lr.
	Orientation string
	// ReverseArrows draws edges from family to child.
	ReverseArrows bool
}

func (o Options) rankdir() string {
	switch strings.ToLower(o.Orientation) {
	case "tb", "lr", "bt", "rl":
		return strings.ToUpper(o.Orientation)
	default:
		return "LR"
	}
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`,
)

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ids maps records to stable DOT identifiers built from input positions.
type ids struct {
	indi map[pedigree.IndividualID]string
	fam  map[pedigree.FamilyID]string
}

func newIDs(p *pedigree.Pedigree) *ids {
	out := &ids{
		indi: make(map[pedigree.IndividualID]string, p.Len()),
		fam:  make(map[pedigree.FamilyID]string, p.FamilyCount()),
	}
	for i, id := range p.IndividualIDs() {
		out.indi[id] = fmt.Sprintf("i%d", i+1)
	}
	for i, f := range p.Families() {
		out.fam[f.ID] = fmt.Sprintf("f%d", i+1)
	}
	return out
}

func style(role Role) string {
	switch role {
	case RoleTester:
		return ",style=filled,color=" + BaseColor
	case RoleCandidate:
		return ",style=filled,color=" + MatchColor
	default:
		return ""
	}
}

// Title is the graph label: one line per tester with name and cM.
func Title(g *Graph) string {
	var b strings.Builder
	b.WriteString("DNA matches between")
	for _, t := range g.Testers {
		fmt.Fprintf(&b, `\n%s @ %d cM`, labelEscaper.Replace(t.Name), t.CM)
	}
	return b.String()
}

// DOT writes the result as a Graphviz digraph.
func DOT(w io.Writer, p *pedigree.Pedigree, r *match.Result, opts Options) error {
	return WriteDOT(w, p, BuildGraph(p, r), opts)
}

// WriteDOT writes a prepared graph.
func WriteDOT(w io.Writer, p *pedigree.Pedigree, g *Graph, opts Options) error {
	bw := bufio.NewWriter(w)
	id := newIDs(p)

	fmt.Fprintln(bw, "digraph family {")
	fmt.Fprintln(bw, "node [shape=record];")
	fmt.Fprintf(bw, "rankdir=%s;\n", opts.rankdir())
	fmt.Fprintln(bw, `labelloc="t";`)
	fmt.Fprintf(bw, "label=\"%s\";\n", Title(g))

	for _, person := range g.Loose {
		fmt.Fprintf(bw, "%s [label=\"%s\"%s];\n",
			id.indi[person.ID], recordEscaper.Replace(person.Name), style(person.Role))
	}

	for _, fam := range g.Families {
		parts := make([]string, 0, len(fam.Partners))
		for _, partner := range fam.Partners {
			parts = append(parts, fmt.Sprintf("<%s>%s", id.indi[partner.ID], recordEscaper.Replace(partner.Name)))
		}
		label := strings.Join(parts, "|<p>|")
		if len(parts) < 2 {
			// edges always point at the p port
			label = strings.Join(append(parts, "<p>"), "|")
		}
		fmt.Fprintf(bw, "%s [label=\"%s\"%s];\n", id.fam[fam.ID], label, style(fam.Role()))
	}

	for _, e := range g.Edges {
		from := id.indi[e.From]
		if e.FromFamily != "" {
			from = id.fam[e.FromFamily] + ":" + from
		}
		to := id.fam[e.To] + ":p"
		if opts.ReverseArrows {
			from, to = to, from
		}
		fmt.Fprintf(bw, "%s -> %s;\n", from, to)
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
