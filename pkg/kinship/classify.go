// Package kinship names the blood relationship between a tester and everyone
// else in a pedigree.
//
// Two steps are involved. The resolver finds, for each relative, the nearest
// shared ancestor family and the number of generations from each side to it
// ("gen-me" for the tester, "gen-them" for the relative). The classifier turns
// that pair into a label such as "parent", "auncle" or "2C1R".
//
// Labels are gender neutral: "auncle" is an aunt or uncle, "nibling" a niece
// or nephew. Cousin labels read "{degree}C" or "{degree}C{removed}R". The same
// labels key the shared-cM range table in package dnarange.
package kinship

import (
	"strconv"
	"strings"
)

// NotApplicable is returned for generation pairs outside the classification
// domain (negative distances). No cM range uses it.
const NotApplicable = "N/A"

// rule is one row of the classification table. Rows are evaluated in order
// and the first row whose condition holds produces the label.
type rule struct {
	name  string
	when  func(me, them int) bool
	label func(me, them int) string
}

func fixed(label string) func(me, them int) string {
	return func(int, int) string { return label }
}

func gs(n int, suffix string) string {
	return strings.Repeat("g", n) + suffix
}

var rules = []rule{
	// direct ancestors
	{"self", func(me, them int) bool { return them == 0 && me == 0 }, fixed("self")},
	{"parent", func(me, them int) bool { return them == 0 && me == 1 }, fixed("parent")},
	{"grandparent", func(me, them int) bool { return them == 0 && me == 2 }, fixed("grandparent")},
	{"g-grandparent", func(me, them int) bool { return them == 0 && me > 2 },
		func(me, _ int) string { return gs(me-2, "-grandparent") }},

	// direct descendants
	{"child", func(me, them int) bool { return me == 0 && them == 1 }, fixed("child")},
	{"grandchild", func(me, them int) bool { return me == 0 && them == 2 }, fixed("grandchild")},
	{"g-grandchild", func(me, them int) bool { return me == 0 && them > 2 },
		func(_, them int) string { return gs(them-2, "-grandchild") }},

	// siblings and their descendants
	{"sibling", func(me, them int) bool { return me == 1 && them == 1 }, fixed("sibling")},
	{"nibling", func(me, them int) bool { return me == 1 && them == 2 }, fixed("nibling")},
	{"grandnibling", func(me, them int) bool { return me == 1 && them == 3 }, fixed("grandnibling")},
	{"g-grandnibling", func(me, them int) bool { return me == 1 && them > 3 },
		func(_, them int) string { return gs(them-3, "-grandnibling") }},

	// same generation
	{"cousin", func(me, them int) bool { return me == them && me >= 2 },
		func(me, _ int) string { return strconv.Itoa(me-1) + "C" }},

	// siblings of ancestors
	{"auncle", func(me, them int) bool { return them == 1 && me == 2 }, fixed("auncle")},
	{"grandauncle", func(me, them int) bool { return them == 1 && me == 3 }, fixed("grandauncle")},
	{"g-grandauncle", func(me, them int) bool { return them == 1 && me > 3 },
		func(me, _ int) string { return gs(me-3, "-grandauncle") }},

	// removed cousins
	{"first-cousin-removed", func(me, them int) bool { return me == 2 && them > 2 },
		func(_, them int) string { return "1C" + strconv.Itoa(them-2) + "R" }},
	{"cousin-removed", func(me, them int) bool { return me > 2 && them > 1 },
		func(me, them int) string {
			degree := min(me, them) - 1
			removed := me - them
			if removed < 0 {
				removed = -removed
			}
			return strconv.Itoa(degree) + "C" + strconv.Itoa(removed) + "R"
		}},
}

// Classify returns the label of "them" as seen from "me", given the number of
// generations from each to their nearest common ancestor family.
//
// A direct ancestor has genThem == 0 (the relative is the ancestor), a direct
// descendant has genMe == 0.
//
// Examples:
//
//	Classify(1, 0) // "parent"
//	Classify(5, 0) // "ggg-grandparent"
//	Classify(2, 1) // "auncle"
//	Classify(1, 2) // "nibling"
//	Classify(2, 2) // "1C"
//	Classify(3, 5) // "2C2R"
func Classify(genMe, genThem int) string {
	if genMe < 0 || genThem < 0 {
		return NotApplicable
	}
	for _, r := range rules {
		if r.when(genMe, genThem) {
			return r.label(genMe, genThem)
		}
	}
	return NotApplicable
}

// Rule returns the name of the table row that classifies the pair, or "" when
// no row applies. Useful when explaining a label.
func Rule(genMe, genThem int) string {
	if genMe < 0 || genThem < 0 {
		return ""
	}
	for _, r := range rules {
		if r.when(genMe, genThem) {
			return r.name
		}
	}
	return ""
}
