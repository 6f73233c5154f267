package monitoring

import (
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/agreement.report/internal/timeutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Run("collects formatted lines", func(t *testing.T) {
		rec := NewRecorder(nil)
		rec.Logf("alpha %s = %.3f", "gender_bin_1", 0.41)
		rec.Logf("done")

		snap := rec.Snapshot()
		require.Len(t, snap.Lines, 2)
		assert.Equal(t, "alpha gender_bin_1 = 0.410", snap.Lines[0])
		assert.Equal(t, "done", snap.Lines[1])
		_, err := uuid.Parse(snap.RunID)
		assert.NoError(t, err)
		assert.Equal(t, "dev", snap.Version)
	})

	t.Run("forwards with run id prefix", func(t *testing.T) {
		var forwarded []string
		rec := NewRecorder(func(format string, v ...interface{}) {
			forwarded = append(forwarded, format)
		})
		rec.Logf("x")
		require.Len(t, forwarded, 1)
		assert.True(t, strings.HasPrefix(forwarded[0], "[%s]"))
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		rec := NewRecorder(nil)
		rec.Logf("first")
		snap := rec.Snapshot()
		snap.Lines[0] = "mutated"
		assert.Equal(t, "first", rec.Snapshot().Lines[0])
	})

	t.Run("method value is a LogFunc", func(t *testing.T) {
		rec := NewRecorder(nil)
		var f LogFunc = rec.Logf
		f.Emit("via %s", "hook")
		assert.Equal(t, []string{"via hook"}, rec.Snapshot().Lines)
	})

	t.Run("stamps start and elapsed time", func(t *testing.T) {
		start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		clock := timeutil.NewMockClock(start)
		rec := NewRecorderWithClock(nil, clock)
		clock.Advance(2 * time.Second)

		snap := rec.Snapshot()
		assert.True(t, snap.StartedAt.Equal(start))
		assert.Equal(t, 2*time.Second, snap.Elapsed)
	})
}
