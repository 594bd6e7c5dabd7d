// Package planner contains the crafting state-space search: inventory
// states, compiled recipes, successor generation, the heuristic, pruning and
// the best-first search itself.
package planner

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrUnknownItem is returned when an item is not part of the catalog.
	ErrUnknownItem = errors.New("unknown item")

	// ErrInvalidAmount is returned for negative quantities or costs.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Catalog is the fixed, ordered set of items every State tracks.
type Catalog struct {
	items []string
	index map[string]int
}

// NewCatalog builds a catalog from the item identifiers in order.
func NewCatalog(items []string) (*Catalog, error) {
	c := &Catalog{
		items: make([]string, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if it == "" {
			return nil, fmt.Errorf("empty item identifier at position %d", len(c.items))
		}
		if _, dup := c.index[it]; dup {
			return nil, fmt.Errorf("duplicate item %q in catalog", it)
		}
		c.index[it] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Len returns the number of tracked items.
func (c *Catalog) Len() int { return len(c.items) }

// Items returns the item identifiers in catalog order.
func (c *Catalog) Items() []string { return slices.Clone(c.items) }

// Index returns the position of item in the catalog.
func (c *Catalog) Index(item string) (int, bool) {
	i, ok := c.index[item]
	return i, ok
}

// Name returns the item identifier at position i.
func (c *Catalog) Name(i int) string { return c.items[i] }

// amounts resolves a sparse item map into catalog-indexed amounts, sorted by
// index so that iteration order never depends on map order.
func (c *Catalog) amounts(m map[string]int) ([]amount, error) {
	out := make([]amount, 0, len(m))
	for item, n := range m {
		i, ok := c.index[item]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownItem, item)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %q has quantity %d", ErrInvalidAmount, item, n)
		}
		out = append(out, amount{index: i, n: n})
	}
	slices.SortFunc(out, func(a, b amount) int { return a.index - b.index })
	return out, nil
}

// amount is a quantity of the catalog item at index.
type amount struct {
	index int
	n     int
}

// StateKey is a comparable encoding of a State, usable as a map key.
// Two states of one catalog are equal iff their keys are equal.
type StateKey string

// State is a snapshot of every catalog item's quantity. States are values:
// no method mutates the receiver, and every transition returns a new State.
type State struct {
	cat *Catalog
	qty []int
}

// NewState overlays initial onto the all-zero inventory of cat.
func NewState(cat *Catalog, initial map[string]int) (State, error) {
	s := State{cat: cat, qty: make([]int, cat.Len())}
	amts, err := cat.amounts(initial)
	if err != nil {
		return State{}, fmt.Errorf("building initial state: %w", err)
	}
	for _, a := range amts {
		s.qty[a.index] = a.n
	}
	return s, nil
}

// Catalog returns the catalog the state was built from.
func (s State) Catalog() *Catalog { return s.cat }

// Get returns the quantity of item. Every catalog item is tracked, so an
// unknown item is a programming error and panics.
func (s State) Get(item string) int {
	i, ok := s.cat.index[item]
	if !ok {
		panic(fmt.Sprintf("planner: %v: %q", ErrUnknownItem, item))
	}
	return s.qty[i]
}

// Lookup returns the quantity of item and whether it is tracked.
func (s State) Lookup(item string) (int, bool) {
	i, ok := s.cat.index[item]
	if !ok {
		return 0, false
	}
	return s.qty[i], true
}

func (s State) at(i int) int { return s.qty[i] }

// WithDelta returns a new state with consume subtracted and produce added.
// All other quantities are copied unchanged.
func (s State) WithDelta(consume, produce map[string]int) (State, error) {
	c, err := s.cat.amounts(consume)
	if err != nil {
		return State{}, err
	}
	p, err := s.cat.amounts(produce)
	if err != nil {
		return State{}, err
	}
	next := s.withAmounts(c, p)
	for i, n := range next.qty {
		if n < 0 {
			return State{}, fmt.Errorf("%w: %q would drop to %d", ErrInvalidAmount, s.cat.items[i], n)
		}
	}
	return next, nil
}

func (s State) withAmounts(consume, produce []amount) State {
	next := State{cat: s.cat, qty: slices.Clone(s.qty)}
	for _, a := range consume {
		next.qty[a.index] -= a.n
	}
	for _, a := range produce {
		next.qty[a.index] += a.n
	}
	return next
}

// Equal reports whether both states hold the same quantities.
func (s State) Equal(o State) bool {
	return s.cat == o.cat && slices.Equal(s.qty, o.qty)
}

// Less orders states lexicographically over the catalog's item sequence.
func (s State) Less(o State) bool {
	return s.Compare(o) < 0
}

// Compare returns -1, 0 or 1 following the same order as Less.
func (s State) Compare(o State) int {
	return slices.Compare(s.qty, o.qty)
}

// Key returns the comparable encoding of the quantities.
func (s State) Key() StateKey {
	buf := make([]byte, 0, len(s.qty)*2)
	for _, n := range s.qty {
		buf = binary.AppendUvarint(buf, uint64(n))
	}
	return StateKey(buf)
}

// Hash returns a hash consistent with Equal.
func (s State) Hash() uint64 {
	return xxhash.Sum64String(string(s.Key()))
}

// Map returns the non-zero quantities.
func (s State) Map() map[string]int {
	m := make(map[string]int)
	for i, n := range s.qty {
		if n != 0 {
			m[s.cat.items[i]] = n
		}
	}
	return m
}

// String lists the non-zero quantities in catalog order.
func (s State) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for i, n := range s.qty {
		if n == 0 {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s: %d", s.cat.items[i], n)
	}
	b.WriteByte('}')
	return b.String()
}
