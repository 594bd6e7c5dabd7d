package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]string{"wood", "plank", "wood"})
	require.Error(t, err)

	_, err = NewCatalog([]string{"wood", ""})
	require.Error(t, err)
}

func TestNewState_OverlaysInitial(t *testing.T) {
	f := plankFixture(t)
	s := f.state(t, map[string]int{"wood": 5})

	assert.Equal(t, 5, s.Get("wood"))
	assert.Equal(t, 0, s.Get("plank"))
	assert.Equal(t, "{wood: 5}", s.String())
}

func TestNewState_UnknownItem(t *testing.T) {
	f := plankFixture(t)
	_, err := NewState(f.cat, map[string]int{"stone": 1})
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = NewState(f.cat, map[string]int{"wood": -1})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestState_GetUntrackedPanics(t *testing.T) {
	f := plankFixture(t)
	s := f.state(t, nil)
	assert.Panics(t, func() { s.Get("stone") })

	_, ok := s.Lookup("stone")
	assert.False(t, ok)
}

func TestState_WithDeltaLeavesReceiver(t *testing.T) {
	f := plankFixture(t)
	s := f.state(t, map[string]int{"wood": 5})

	next, err := s.WithDelta(map[string]int{"wood": 2}, map[string]int{"plank": 3})
	require.NoError(t, err)

	assert.Equal(t, 3, next.Get("wood"))
	assert.Equal(t, 3, next.Get("plank"))
	assert.Equal(t, 5, s.Get("wood"), "receiver must not change")
	assert.Equal(t, 0, s.Get("plank"), "receiver must not change")

	_, err = s.WithDelta(map[string]int{"wood": 6}, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestState_EqualityHashAndOrder(t *testing.T) {
	f := plankFixture(t)
	a := f.state(t, map[string]int{"wood": 1, "plank": 2})
	b := f.state(t, map[string]int{"plank": 2, "wood": 1})
	c := f.state(t, map[string]int{"wood": 1, "plank": 3})
	d := f.state(t, map[string]int{"wood": 2})

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Key(), b.Key())

	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())

	// wood is compared before plank.
	assert.True(t, a.Less(c))
	assert.True(t, c.Less(d))
	assert.True(t, a.Less(d), "order must be transitive")
	assert.False(t, c.Less(a))
	assert.False(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestState_KeysAreUsableAcrossTransitions(t *testing.T) {
	f := plankFixture(t)
	s := f.state(t, map[string]int{"wood": 2})
	dist := map[StateKey]int{s.Key(): 0}

	next, err := s.WithDelta(map[string]int{"wood": 1}, map[string]int{"plank": 1})
	require.NoError(t, err)
	dist[next.Key()] = 1

	assert.Len(t, dist, 2)
	assert.Equal(t, 0, dist[f.state(t, map[string]int{"wood": 2}).Key()])
}
