package report

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Grid {
	t.Helper()
	g := NewGrid([]string{"gender_women", "gender_men", "transgender"}, []string{"Phase 1", "Phase 2", "Delta"})
	require.NoError(t, g.Set("gender_women", "Delta", 0.2))
	require.NoError(t, g.Set("gender_men", "Delta", -0.1))
	return g
}

func TestNewGridIsNaN(t *testing.T) {
	g := NewGrid([]string{"a"}, []string{"x", "y"})
	v, ok := g.At("a", "y")
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))

	_, ok = g.At("b", "x")
	assert.False(t, ok)
	assert.Error(t, g.Set("b", "x", 1))
}

func TestReorder(t *testing.T) {
	g := sample(t)
	out, err := g.Reorder([]string{"transgender", "gender_women"})
	require.NoError(t, err)
	assert.Equal(t, []string{"transgender", "gender_women", "gender_men"}, out.Rows)
	v, _ := out.At("gender_women", "Delta")
	assert.Equal(t, 0.2, v)
	// source untouched
	assert.Equal(t, []string{"gender_women", "gender_men", "transgender"}, g.Rows)

	_, err = g.Reorder([]string{"missing"})
	assert.Error(t, err)
}

func TestSortByColumn(t *testing.T) {
	g := sample(t)

	asc, err := g.SortByColumn("Delta", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"gender_men", "gender_women", "transgender"}, asc.Rows)

	desc, err := g.SortByColumn("Delta", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"gender_women", "gender_men", "transgender"}, desc.Rows)

	_, err = g.SortByColumn("nope", true)
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	g := sample(t)
	c := g.Clone()
	c.Values[0][2] = 9
	if diff := cmp.Diff(sample(t), g, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("clone mutated source (-want +got):\n%s", diff)
	}
}

func TestSetMerge(t *testing.T) {
	s := Set{"b": NewGrid(nil, nil)}
	s.Merge("gender/", Set{"alpha_1": NewGrid(nil, nil)})
	assert.Equal(t, []string{"b", "gender/alpha_1"}, s.Keys())
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.12345, 3, 0.123},
		{0.1236, 3, 0.124},
		{-0.0004, 3, 0},
		{0.456, 2, 0.46},
		{1, 3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in, tt.places), "Round(%v, %d)", tt.in, tt.places)
	}
	assert.True(t, math.IsNaN(Round(math.NaN(), 3)))
	assert.False(t, math.Signbit(Round(-0.0004, 3)))
}
