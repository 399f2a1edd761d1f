package ds

import "sort"

// SameDomain records that vertices a and b coincide. The group's canonical
// vertex is its lowest index.
func (d *DS) SameDomain(a, b int) {
	d.sdmu.Lock()
	defer d.sdmu.Unlock()
	ra, rb := d.find(a), d.find(b)
	switch {
	case ra < rb:
		d.parent[rb] = ra
	case rb < ra:
		d.parent[ra] = rb
	}
}

// Canonical returns the canonical vertex of v's same-domain group.
func (d *DS) Canonical(v int) int {
	d.sdmu.Lock()
	defer d.sdmu.Unlock()
	return d.find(v)
}

// SameDomainGroups returns the groups with more than one vertex, keyed by
// canonical index. Members are ascending.
func (d *DS) SameDomainGroups() map[int][]int {
	d.sdmu.Lock()
	defer d.sdmu.Unlock()
	groups := map[int][]int{}
	for v := range d.parent {
		r := d.find(v)
		groups[r] = append(groups[r], v)
	}
	for r, g := range groups {
		g = append(g, r)
		sort.Ints(g)
		groups[r] = g
	}
	return groups
}

func (d *DS) find(v int) int {
	p, ok := d.parent[v]
	if !ok || p == v {
		return v
	}
	r := d.find(p)
	d.parent[v] = r
	return r
}
