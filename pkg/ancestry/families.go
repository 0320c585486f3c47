package ancestry

import "github.com/orneryd/dnamatch/pkg/pedigree"

// Families maps ancestor families to their generation distance and remembers
// the order in which each family was first discovered.
//
// Re-setting a family that is already present updates the distance in place;
// the family keeps its original position. Relationship resolution scans
// families in this order, so the position matters as much as the distance.
//
// The zero value is an empty, usable set.
type Families struct {
	order    []pedigree.FamilyID
	distance map[pedigree.FamilyID]int
}

func newFamilies(capacity int) *Families {
	return &Families{
		order:    make([]pedigree.FamilyID, 0, capacity),
		distance: make(map[pedigree.FamilyID]int, capacity),
	}
}

func (f *Families) set(fam pedigree.FamilyID, d int) {
	if f.distance == nil {
		f.distance = make(map[pedigree.FamilyID]int)
	}
	if _, ok := f.distance[fam]; !ok {
		f.order = append(f.order, fam)
	}
	f.distance[fam] = d
}

// Distance returns the generation distance to fam.
func (f *Families) Distance(fam pedigree.FamilyID) (int, bool) {
	if f == nil {
		return 0, false
	}
	d, ok := f.distance[fam]
	return d, ok
}

// Contains reports whether fam is an ancestor family.
func (f *Families) Contains(fam pedigree.FamilyID) bool {
	_, ok := f.Distance(fam)
	return ok
}

// Order returns the families in discovery order.
func (f *Families) Order() []pedigree.FamilyID {
	if f == nil {
		return nil
	}
	out := make([]pedigree.FamilyID, len(f.order))
	copy(out, f.order)
	return out
}

// Len returns the number of ancestor families.
func (f *Families) Len() int {
	if f == nil {
		return 0
	}
	return len(f.order)
}

// Each calls fn for every family in discovery order until fn returns false.
func (f *Families) Each(fn func(fam pedigree.FamilyID, distance int) bool) {
	if f == nil {
		return
	}
	for _, fam := range f.order {
		if !fn(fam, f.distance[fam]) {
			return
		}
	}
}

// Map returns a copy of the family -> distance mapping.
func (f *Families) Map() map[pedigree.FamilyID]int {
	out := make(map[pedigree.FamilyID]int, f.Len())
	f.Each(func(fam pedigree.FamilyID, d int) bool {
		out[fam] = d
		return true
	})
	return out
}
