package validation

// pairSet memoizes which fragment-spread pairs have already been compared,
// and whether that comparison assumed mutual exclusivity. The set is
// symmetric: (a, b) and (b, a) are the same pair.
type pairSet struct {
	data map[string]map[string]bool
}

func newPairSet() *pairSet {
	return &pairSet{data: make(map[string]map[string]bool)}
}

func (p *pairSet) Add(a, b string, mutuallyExclusive bool) {
	p.addOne(a, b, mutuallyExclusive)
	p.addOne(b, a, mutuallyExclusive)
}

// Has reports whether the pair was already compared under at least as weak
// an assumption. A non-exclusive comparison subsumes an exclusive one, so
// a pair recorded with mutuallyExclusive=false answers true for both
// queries, while a pair recorded with mutuallyExclusive=true only answers
// true for exclusive queries.
func (p *pairSet) Has(a, b string, mutuallyExclusive bool) bool {
	stored, ok := p.data[a][b]
	if !ok {
		return false
	}
	if mutuallyExclusive {
		return true
	}
	return !stored
}

func (p *pairSet) addOne(a, b string, mutuallyExclusive bool) {
	m, ok := p.data[a]
	if !ok {
		m = make(map[string]bool)
		p.data[a] = m
	}
	m[b] = mutuallyExclusive
}
