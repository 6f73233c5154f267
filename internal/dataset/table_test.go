package dataset

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratings(t *testing.T) *Table {
	t.Helper()
	tbl := New("User", "Question ID", "group", "gender_bin_1")
	require.NoError(t, tbl.Append(Text("u1"), Number(1), Text("LGBT"), Number(0)))
	require.NoError(t, tbl.Append(Text("u2"), Number(1), Text("Other"), Number(0.5)))
	require.NoError(t, tbl.Append(Text("u1"), Number(2), Text("LGBT"), Number(1)))
	require.NoError(t, tbl.Append(Text("u3"), Number(2), Text("LGBT"), Missing()))
	return tbl
}

func TestCell(t *testing.T) {
	t.Run("NaN number is missing", func(t *testing.T) {
		assert.True(t, Number(math.NaN()).IsMissing())
	})

	t.Run("list key ignores order and duplicates", func(t *testing.T) {
		a := List("gender_women", "gender_men")
		b := List("gender_men", "gender_women", "gender_men")
		assert.Equal(t, a.Key(), b.Key())
		assert.True(t, a.Equal(b))
	})

	t.Run("kinds do not compare equal", func(t *testing.T) {
		assert.False(t, Text("1").Equal(Number(1)))
	})

	t.Run("number accessor", func(t *testing.T) {
		v, ok := Number(0.5).Number()
		assert.True(t, ok)
		assert.Equal(t, 0.5, v)
		_, ok = Text("x").Number()
		assert.False(t, ok)
	})

	t.Run("list is copied", func(t *testing.T) {
		labels := []string{"a"}
		c := List(labels...)
		labels[0] = "b"
		assert.Equal(t, []string{"a"}, c.List())
	})
}

func TestTableBasics(t *testing.T) {
	tbl := ratings(t)
	assert.Equal(t, 4, tbl.Len())
	assert.True(t, tbl.HasColumn("group"))

	err := tbl.Require("User", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = tbl.Column("nope")
	assert.ErrorIs(t, err, ErrMissingColumn)

	assert.Error(t, tbl.Append(Text("only one")))
	assert.ErrorIs(t, tbl.AppendRow(Row{"nope": Text("x")}), ErrMissingColumn)
}

func TestFilterDoesNotMutate(t *testing.T) {
	tbl := ratings(t)
	lgbt := tbl.Filter(func(r Row) bool { return r["group"].Equal(Text("LGBT")) })
	assert.Equal(t, 3, lgbt.Len())
	assert.Equal(t, 4, tbl.Len())

	// mutating a returned row copy leaves both tables untouched
	r := lgbt.Row(0)
	r["group"] = Text("changed")
	assert.Equal(t, "LGBT", lgbt.Cell(0, "group").Text())
	assert.Equal(t, "LGBT", tbl.Cell(0, "group").Text())
}

func TestDistinctAndGroups(t *testing.T) {
	tbl := ratings(t)
	values, err := tbl.Distinct("group")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "LGBT", values[0].Text())
	assert.Equal(t, "Other", values[1].Text())

	keys, groups, err := tbl.Groups("gender_bin_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "0.5", "1"}, keys)
	assert.Equal(t, []int{2}, groups["1"])
}

func TestWithColumn(t *testing.T) {
	tbl := ratings(t)
	out, err := tbl.Derive("rated", func(r Row) Cell {
		if r["gender_bin_1"].IsMissing() {
			return Number(0)
		}
		return Number(1)
	})
	require.NoError(t, err)
	assert.False(t, tbl.HasColumn("rated"))
	assert.True(t, out.HasColumn("rated"))
	v, _ := out.Cell(3, "rated").Number()
	assert.Equal(t, 0.0, v)

	_, err = tbl.WithColumn("short", []Cell{Number(1)})
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	p1 := New("User", "Question ID", "gender_bin")
	require.NoError(t, p1.Append(Text("u1"), Number(1), Number(0)))
	require.NoError(t, p1.Append(Text("u2"), Number(1), Number(1)))
	require.NoError(t, p1.Append(Text("u3"), Number(1), Number(1)))
	p2 := New("User", "Question ID", "gender_bin")
	require.NoError(t, p2.Append(Text("u2"), Number(1), Number(0.5)))
	require.NoError(t, p2.Append(Text("u1"), Number(1), Number(0)))

	joined, err := Join(p1, p2, []string{"User", "Question ID"}, "_1", "_2")
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "Question ID", "gender_bin_1", "gender_bin_2"}, joined.Columns())
	require.Equal(t, 2, joined.Len())
	assert.Equal(t, "u1", joined.Cell(0, "User").Text())
	v, _ := joined.Cell(1, "gender_bin_2").Number()
	assert.Equal(t, 0.5, v)

	_, err = Join(p1, p2, []string{"missing"}, "_1", "_2")
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = Join(p1, p2, []string{"User"}, "", "")
	assert.Error(t, err)
}

func TestOneHot(t *testing.T) {
	tbl := New("User", "gender_cat")
	require.NoError(t, tbl.Append(Text("u1"), List("gender_women", "transgender")))
	require.NoError(t, tbl.Append(Text("u2"), List("gender_not-referring")))
	require.NoError(t, tbl.Append(Text("u3"), Missing()))

	out, vocab, err := OneHot(tbl, "gender_cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"gender_not-referring", "gender_women", "transgender"}, vocab)
	for _, label := range vocab {
		assert.True(t, out.HasColumn(label))
	}
	assert.False(t, tbl.HasColumn("transgender"))

	v, _ := out.Cell(0, "transgender").Number()
	assert.Equal(t, 1.0, v)
	v, _ = out.Cell(1, "transgender").Number()
	assert.Equal(t, 0.0, v)
	v, _ = out.Cell(2, "gender_women").Number()
	assert.Equal(t, 0.0, v)
}
