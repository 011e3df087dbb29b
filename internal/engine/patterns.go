package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/BarCut/internal/model"
)

// Limits of the pattern families. Waste ceilings are fractions of the bar
// so inputs in metres and millimetres prune alike (1.5 and 1.2 on a 12 bar).
const (
	pairRepLimit    = 10
	tripleRepLimit  = 6
	wideRepLimit    = 4 // Four or more distinct types
	pairWasteRatio  = 0.125
	multiWasteRatio = 0.10
	greedySeeds     = 3
	greedySeedLimit = 5

	// DefaultSearchDepth combines at most three distinct types per pattern.
	DefaultSearchDepth = 3
)

// PatternOptions tunes GeneratePatterns.
type PatternOptions struct {
	// SearchDepth is the largest number of distinct cut types combined in
	// one enumerated pattern. Greedy fill patterns are not limited by it.
	SearchDepth int
}

// patternBuilder accumulates deduplicated patterns for one category.
type patternBuilder struct {
	lengths  []float64
	capacity float64
	floor    float64
	seen     map[string]bool
	pool     model.PatternPool
}

// add keeps combo if it fits the bar, meets the efficiency floor and stays
// under maxWaste. It reports whether the combo fits at all.
func (b *patternBuilder) add(combo []int, maxWaste float64) bool {
	p := model.NewPattern(combo, b.lengths, b.capacity)
	if p.TotalLength > b.capacity+model.LengthEpsilon {
		return false
	}
	if p.Efficiency+model.LengthEpsilon < b.floor || p.Waste > maxWaste+model.LengthEpsilon {
		return true
	}
	key := p.Key()
	if b.seen[key] {
		return true
	}
	b.seen[key] = true
	p.Combo = append([]int(nil), combo...)
	b.pool = append(b.pool, p)
	return true
}

// GeneratePatterns enumerates candidate ways to cut one bar of capacity into
// the requested lengths. No pattern holds more pieces of a type than are
// demanded, overflows the bar, or falls under the efficiency floor. The
// pool is sorted by waste ascending and truncated to maxPool (0 = no cap).
// An empty pool is a valid result.
func GeneratePatterns(lengths []float64, counts []int, capacity, minEfficiency float64, maxPool int, opts PatternOptions) model.PatternPool {
	n := len(lengths)
	if n == 0 || len(counts) != n || capacity <= 0 {
		return nil
	}
	depth := opts.SearchDepth
	if depth <= 0 {
		depth = DefaultSearchDepth
	}

	caps := make([]int, n)
	var demand float64
	for i, l := range lengths {
		if l <= 0 || counts[i] <= 0 {
			continue
		}
		fit := int(math.Floor(capacity/l + model.LengthEpsilon))
		caps[i] = min(fit, counts[i])
		demand += l * float64(counts[i])
	}

	floor := minEfficiency
	if demand < capacity/2 {
		floor = 0
	}

	b := &patternBuilder{
		lengths:  lengths,
		capacity: capacity,
		floor:    floor,
		seen:     make(map[string]bool),
	}

	// Single type, most pieces first.
	for i := 0; i < n; i++ {
		for c := caps[i]; c >= 1; c-- {
			combo := make([]int, n)
			combo[i] = c
			b.add(combo, math.Inf(1))
		}
	}

	var active []int
	for i := 0; i < n; i++ {
		if caps[i] > 0 {
			active = append(active, i)
		}
	}
	for t := 2; t <= depth && t <= len(active); t++ {
		limit, ratio := wideRepLimit, multiWasteRatio
		switch t {
		case 2:
			limit, ratio = pairRepLimit, pairWasteRatio
		case 3:
			limit = tripleRepLimit
		}
		eachSubset(active, t, func(types []int) {
			b.combine(types, caps, limit, ratio*capacity)
		})
	}

	b.greedyFill(caps)

	pool := b.pool
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Waste != pool[j].Waste {
			return pool[i].Waste < pool[j].Waste
		}
		return pool[i].Efficiency > pool[j].Efficiency
	})
	if maxPool > 0 && len(pool) > maxPool {
		pool = pool[:maxPool]
	}
	return pool
}

// combine enumerates every combo using each of types at least once and at
// most min(cap, limit) times.
func (b *patternBuilder) combine(types []int, caps []int, limit int, maxWaste float64) {
	combo := make([]int, len(b.lengths))
	var used float64
	var rec func(k int)
	rec = func(k int) {
		if k == len(types) {
			b.add(combo, maxWaste)
			return
		}
		i := types[k]
		upper := min(caps[i], limit)
		for c := 1; c <= upper; c++ {
			if used+float64(c)*b.lengths[i] > b.capacity+model.LengthEpsilon {
				break
			}
			combo[i] = c
			used += float64(c) * b.lengths[i]
			rec(k + 1)
			used -= float64(c) * b.lengths[i]
		}
		combo[i] = 0
	}
	rec(0)
}

// greedyFill seeds a bar with 1..5 copies of one of the three longest types
// and fills what is left longest-first, never past a type's cap.
func (b *patternBuilder) greedyFill(caps []int) {
	n := len(b.lengths)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return b.lengths[order[x]] > b.lengths[order[y]]
	})

	for _, seed := range order[:min(greedySeeds, n)] {
		for c := 1; c <= min(caps[seed], greedySeedLimit); c++ {
			combo := make([]int, n)
			combo[seed] = c
			remaining := b.capacity - float64(c)*b.lengths[seed]
			for _, f := range order {
				if f == seed || caps[f] == 0 || remaining+model.LengthEpsilon < b.lengths[f] {
					continue
				}
				fit := int(math.Floor(remaining/b.lengths[f] + model.LengthEpsilon))
				take := min(fit, caps[f]-combo[f])
				combo[f] = take
				remaining -= float64(take) * b.lengths[f]
			}
			b.add(combo, math.Inf(1))
		}
	}
}

// eachSubset calls fn with every size-k subset of items, in index order.
func eachSubset(items []int, k int, fn func([]int)) {
	subset := make([]int, 0, k)
	var rec func(start int)
	rec = func(start int) {
		if len(subset) == k {
			fn(subset)
			return
		}
		for i := start; i <= len(items)-(k-len(subset)); i++ {
			subset = append(subset, items[i])
			rec(i + 1)
			subset = subset[:len(subset)-1]
		}
	}
	rec(0)
}
