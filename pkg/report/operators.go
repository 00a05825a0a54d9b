package report

import "sort"

// Operators anonymises operator initials and decides which operators appear
// in figures and in which order
type Operators struct {
	Aliases  map[string]string
	Order    []string
	Excluded []string
}

// Alias returns the published name of an operator
func (o Operators) Alias(op string) string {
	if a, ok := o.Aliases[op]; ok {
		return a
	}
	return op
}

// IsExcluded reports whether op (raw or aliased) is left out of figures
func (o Operators) IsExcluded(op string) bool {
	for _, e := range o.Excluded {
		if e == op || o.Alias(e) == op {
			return true
		}
	}
	return false
}

// Sort orders aliased operator names: configured order first, then the
// remaining names by length and lexically, which keeps "S, N1, N2" style
// names together
func (o Operators) Sort(names []string) {
	rank := make(map[string]int, len(o.Order))
	for i, n := range o.Order {
		rank[n] = i
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, iok := rank[names[i]]
		rj, jok := rank[names[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		case len(names[i]) != len(names[j]):
			return len(names[i]) < len(names[j])
		default:
			return names[i] < names[j]
		}
	})
}
