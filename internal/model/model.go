package model

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// LengthEpsilon absorbs floating point noise when comparing summed lengths
// against a bar capacity (3 x 0.4 must still fit a 1.2 bar).
const LengthEpsilon = 1e-9

// CutRequirement is one requested cut length and how many pieces of it are needed.
type CutRequirement struct {
	Length float64 `json:"length" yaml:"length"`
	Count  int     `json:"count" yaml:"count"`
}

// CutCategory is an independently solved demand group, e.g. all rebar of one
// diameter. No pattern or constraint ever spans two categories.
type CutCategory struct {
	Key          string           `json:"key"`
	Requirements []CutRequirement `json:"requirements"`
	BinCapacity  float64          `json:"bin_capacity"` // Stock bar length for this category
}

// Lengths returns the requested lengths in requirement order.
func (c CutCategory) Lengths() []float64 {
	out := make([]float64, len(c.Requirements))
	for i, r := range c.Requirements {
		out[i] = r.Length
	}
	return out
}

// Counts returns the requested piece counts in requirement order.
func (c CutCategory) Counts() []int {
	out := make([]int, len(c.Requirements))
	for i, r := range c.Requirements {
		out[i] = r.Count
	}
	return out
}

// TotalDemand returns the summed length of every requested piece.
func (c CutCategory) TotalDemand() float64 {
	var total float64
	for _, r := range c.Requirements {
		total += r.Length * float64(r.Count)
	}
	return total
}

// MaxLength returns the longest requested length, or 0 for an empty category.
func (c CutCategory) MaxLength() float64 {
	var max float64
	for _, r := range c.Requirements {
		if r.Length > max {
			max = r.Length
		}
	}
	return max
}

// TheoreticalMin is the smallest bar count possible in principle,
// ceil(totalDemand / capacity), ignoring how pieces combine.
func (c CutCategory) TheoreticalMin() int {
	if c.BinCapacity <= 0 {
		return 0
	}
	return int(math.Ceil(c.TotalDemand()/c.BinCapacity - LengthEpsilon))
}

// CategoryDemand is the raw per-category input handed over by file readers.
// Lengths and Counts are parallel slices.
type CategoryDemand struct {
	Lengths     []float64 `json:"lengths" yaml:"lengths"`
	Counts      []int     `json:"counts" yaml:"counts"`
	BinCapacity float64   `json:"bin_capacity,omitempty" yaml:"bin_capacity,omitempty"` // 0 = use the global bar length
}

// Demands maps a category key (e.g. diameter "12") to its demand.
type Demands map[string]CategoryDemand

// Add records count pieces of length for key. A length already present in
// the category has its count increased instead of creating a second entry.
func (d Demands) Add(key string, length float64, count int) {
	cd := d[key]
	for i, l := range cd.Lengths {
		if l == length {
			cd.Counts[i] += count
			d[key] = cd
			return
		}
	}
	cd.Lengths = append(cd.Lengths, length)
	cd.Counts = append(cd.Counts, count)
	d[key] = cd
}

// SortedKeys returns the category keys in a deterministic order. Keys are
// compared numerically when all of them are numbers (diameters), otherwise
// as plain strings.
func (d Demands) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	numeric := true
	for k := range d {
		keys = append(keys, k)
		if _, err := strconv.ParseFloat(strings.TrimSpace(k), 64); err != nil {
			numeric = false
		}
	}
	if numeric {
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.ParseFloat(strings.TrimSpace(keys[i]), 64)
			b, _ := strconv.ParseFloat(strings.TrimSpace(keys[j]), 64)
			if a == b {
				return keys[i] < keys[j]
			}
			return a < b
		})
	} else {
		sort.Strings(keys)
	}
	return keys
}

// Category builds the CutCategory for key. The category's own bar length
// wins over defaultCapacity when set.
func (d Demands) Category(key string, defaultCapacity float64) CutCategory {
	return d[key].Category(key, defaultCapacity)
}

// Category builds the CutCategory named key. Mismatched slices are not
// checked here; the engine rejects them before solving.
func (cd CategoryDemand) Category(key string, defaultCapacity float64) CutCategory {
	capacity := defaultCapacity
	if cd.BinCapacity > 0 {
		capacity = cd.BinCapacity
	}
	n := min(len(cd.Lengths), len(cd.Counts))
	reqs := make([]CutRequirement, n)
	for i := 0; i < n; i++ {
		reqs[i] = CutRequirement{Length: cd.Lengths[i], Count: cd.Counts[i]}
	}
	return CutCategory{Key: key, Requirements: reqs, BinCapacity: capacity}
}

// TotalPieces returns the number of requested pieces across all categories.
func (d Demands) TotalPieces() int {
	total := 0
	for _, cd := range d {
		for _, c := range cd.Counts {
			total += c
		}
	}
	return total
}

// Pattern is one way to cut a single bar: Combo[i] pieces of cut type i.
type Pattern struct {
	Combo       []int   `json:"combo"`
	TotalLength float64 `json:"total_length"`
	Waste       float64 `json:"waste"`
	Efficiency  float64 `json:"efficiency"` // TotalLength / capacity, 0..1
}

// NewPattern computes the derived attributes of combo on a bar of capacity.
func NewPattern(combo []int, lengths []float64, capacity float64) Pattern {
	var total float64
	for i, n := range combo {
		total += float64(n) * lengths[i]
	}
	waste := capacity - total
	if waste < 0 && waste > -LengthEpsilon {
		waste = 0
	}
	return Pattern{
		Combo:       combo,
		TotalLength: total,
		Waste:       waste,
		Efficiency:  total / capacity,
	}
}

// Key identifies the pattern by its piece vector.
func (p Pattern) Key() string {
	var b strings.Builder
	for i, n := range p.Combo {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Pieces returns the number of pieces cut from one bar.
func (p Pattern) Pieces() int {
	total := 0
	for _, n := range p.Combo {
		total += n
	}
	return total
}

// PatternPool is the bounded, deduplicated candidate set for one category.
type PatternPool []Pattern
