package reliability

import (
	"fmt"
	"math"
	"testing"

	"github.com/banshee-data/agreement.report/internal/dataset"
	"github.com/banshee-data/agreement.report/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nan marks a missing rating in the fixtures below.
var nan = math.NaN()

func matrixFrom(t *testing.T, data [][]float64) *Matrix {
	t.Helper()
	raters := make([]string, len(data))
	items := make([]string, len(data[0]))
	for j := range items {
		items[j] = fmt.Sprintf("q%d", j+1)
	}
	values := make([][]dataset.Cell, len(data))
	for i, row := range data {
		raters[i] = fmt.Sprintf("r%d", i+1)
		values[i] = make([]dataset.Cell, len(row))
		for j, v := range row {
			values[i][j] = dataset.Number(v)
		}
	}
	m, err := NewMatrix(raters, items, values)
	require.NoError(t, err)
	return m
}

func TestLevelForColumn(t *testing.T) {
	assert.Equal(t, Ordinal, LevelForColumn("gender_bin_1", ""))
	assert.Equal(t, Ordinal, LevelForColumn("Hate speech?_bin_2", "_bin"))
	assert.Equal(t, Nominal, LevelForColumn("gender_women_1", ""))
	assert.Equal(t, Ordinal, LevelForColumn("gender_ord_1", "_ord"))
	assert.Equal(t, "ordinal", Ordinal.String())
}

func TestKrippendorffAlphaReferenceData(t *testing.T) {
	// Reference data from Krippendorff (2011), "Computing Krippendorff's Alpha-Reliability".
	m := matrixFrom(t, [][]float64{
		{1, 2, 3, 3, 2, 1, 4, 1, 2, nan, nan, nan},
		{1, 2, 3, 3, 2, 2, 4, 1, 2, 5, nan, 3},
		{nan, 3, 3, 3, 2, 3, 4, 2, 2, 5, 1, nan},
		{1, 2, 3, 3, 2, 4, 4, 1, 2, 5, 1, nan},
	})

	tests := []struct {
		level Level
		want  float64
	}{
		{Nominal, 0.743},
		{Ordinal, 0.815},
		{Interval, 0.849},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got, err := KrippendorffAlpha(m, tt.level)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-3)
		})
	}

	t.Run("from long table", func(t *testing.T) {
		tbl := testutil.RatingTable(t, "severity_bin_1", [][]float64{
			{1, 2, 3, 3, 2, 1, 4, 1, 2, nan, nan, nan},
			{1, 2, 3, 3, 2, 2, 4, 1, 2, 5, nan, 3},
			{nan, 3, 3, 3, 2, 3, 4, 2, 2, 5, 1, nan},
			{1, 2, 3, 3, 2, 4, 4, 1, 2, 5, 1, nan},
		})
		got, err := Krippendorff(tbl, testutil.RaterColumn, testutil.ItemColumn, "severity_bin_1", DefaultOrdinalMarker)
		require.NoError(t, err)
		assert.InDelta(t, 0.815, got, 1e-3)
	})
}

func TestKrippendorffAlphaSparseRaters(t *testing.T) {
	// Three raters with very different coverage per item.
	m := matrixFrom(t, [][]float64{
		{nan, nan, nan, nan, nan, 3, 4, 1, 2, 1, 1, 3, 3, nan, 3},
		{1, nan, 2, 1, 3, 3, 4, 3, nan, nan, nan, nan, nan, nan, nan},
		{nan, nan, 2, 1, 3, 4, 4, nan, 2, 1, 1, 3, 3, nan, 4},
	})
	nominal, err := KrippendorffAlpha(m, Nominal)
	require.NoError(t, err)
	assert.InDelta(t, 0.691, nominal, 1e-3)

	interval, err := KrippendorffAlpha(m, Interval)
	require.NoError(t, err)
	assert.InDelta(t, 0.811, interval, 1e-3)
}

func TestKrippendorffAlphaPerfectAgreement(t *testing.T) {
	// Every rater agrees wherever they rated; coverage is ragged.
	patterns := map[string][][]float64{
		"complete": {
			{0, 1, 0.5, 1},
			{0, 1, 0.5, 1},
			{0, 1, 0.5, 1},
		},
		"ragged": {
			{0, nan, 0.5, 1},
			{0, 1, nan, nan},
			{nan, 1, 0.5, nan},
		},
		"single item unpaired": {
			{0, 1, nan},
			{0, 1, nan},
			{nan, nan, 0.5},
		},
	}
	for name, data := range patterns {
		t.Run(name, func(t *testing.T) {
			m := matrixFrom(t, data)
			for _, level := range []Level{Nominal, Ordinal, Interval} {
				got, err := KrippendorffAlpha(m, level)
				require.NoError(t, err)
				assert.InDelta(t, 1.0, got, 1e-12, level.String())
			}
		})
	}
}

func TestKrippendorffAlphaUndefined(t *testing.T) {
	t.Run("no overlap", func(t *testing.T) {
		m := matrixFrom(t, [][]float64{
			{0, nan, nan},
			{nan, 1, nan},
			{nan, nan, 0.5},
		})
		got, err := KrippendorffAlpha(m, Nominal)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(got), "got %v", got)
	})

	t.Run("single value", func(t *testing.T) {
		m := matrixFrom(t, [][]float64{
			{1, 1},
			{1, 1},
		})
		got, err := KrippendorffAlpha(m, Ordinal)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(got))
	})

	t.Run("interval needs numbers", func(t *testing.T) {
		m, err := NewMatrix([]string{"a", "b"}, []string{"q"}, [][]dataset.Cell{
			{dataset.Text("x")}, {dataset.Text("y")},
		})
		require.NoError(t, err)
		_, err = KrippendorffAlpha(m, Interval)
		assert.Error(t, err)
	})
}

func TestKrippendorffFromTable(t *testing.T) {
	tbl := dataset.New("User", "Question ID", "gender_1", "gender_bin_1")
	rows := []struct {
		user, item, label string
		bin               float64
	}{
		{"u1", "q1", "referring", 1},
		{"u2", "q1", "referring", 1},
		{"u1", "q2", "unclear", 0.5},
		{"u2", "q2", "unclear", 0.5},
		{"u3", "q2", "unclear", 0.5},
		{"u1", "q3", "not-referring", 0},
		{"u3", "q3", "not-referring", 0},
		// duplicate rating: the first one wins
		{"u3", "q3", "referring", 1},
	}
	for _, r := range rows {
		require.NoError(t, tbl.Append(dataset.Text(r.user), dataset.Text(r.item), dataset.Text(r.label), dataset.Number(r.bin)))
	}

	alpha, err := Krippendorff(tbl, "User", "Question ID", "gender_1", "")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, alpha, 1e-12)

	alpha, err = Krippendorff(tbl, "User", "Question ID", "gender_bin_1", "")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, alpha, 1e-12)

	_, err = Krippendorff(tbl, "User", "Question ID", "gender_2", "")
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestPivot(t *testing.T) {
	tbl := dataset.New("User", "Question ID", "r")
	require.NoError(t, tbl.Append(dataset.Text("u1"), dataset.Number(1), dataset.Missing()))
	require.NoError(t, tbl.Append(dataset.Text("u1"), dataset.Number(1), dataset.Number(2)))
	require.NoError(t, tbl.Append(dataset.Text("u2"), dataset.Number(2), dataset.Number(10)))

	m, err := Pivot(tbl, "User", "Question ID", "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, m.Raters)
	assert.Equal(t, []string{"1", "2"}, m.Items)
	assert.Equal(t, []int{1, 1}, m.Rated())
	// numeric domain sorts numerically, not lexically
	require.Len(t, m.Domain, 2)
	assert.Equal(t, "2", m.Domain[0].Key())
	assert.Equal(t, "10", m.Domain[1].Key())
}
