package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeRange_IsZero(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	assert.True(t, TimeRange{}.IsZero())
	assert.True(t, TimeRange{Start: now, End: now}.IsZero())
	assert.True(t, TimeRange{Start: now.Add(time.Hour), End: now}.IsZero())
	assert.False(t, TimeRange{Start: now, End: now.Add(time.Minute)}.IsZero())
}

func TestTimeRange_Intersects(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	r := TimeRange{Start: base.Add(2 * time.Hour), End: base.Add(4 * time.Hour)}

	assert.True(t, r.Intersects(TimeRange{Start: base.Add(3 * time.Hour), End: base.Add(5 * time.Hour)}))
	assert.True(t, r.Intersects(TimeRange{Start: base, End: base.Add(10 * time.Hour)}))

	// Touching ranges share no instant.
	assert.False(t, r.Intersects(TimeRange{Start: base.Add(4 * time.Hour), End: base.Add(5 * time.Hour)}))
	assert.False(t, r.Intersects(TimeRange{Start: base, End: base.Add(2 * time.Hour)}))
	assert.False(t, r.Intersects(TimeRange{Start: base.Add(6 * time.Hour), End: base.Add(7 * time.Hour)}))
}

func TestTimeRange_Clip(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	bounds := TimeRange{Start: base.Add(2 * time.Hour), End: base.Add(6 * time.Hour)}

	inside := TimeRange{Start: base.Add(3 * time.Hour), End: base.Add(4 * time.Hour)}
	assert.Equal(t, inside, inside.Clip(bounds))

	spanning := TimeRange{Start: base, End: base.Add(10 * time.Hour)}
	assert.Equal(t, bounds, spanning.Clip(bounds))

	outside := TimeRange{Start: base.Add(8 * time.Hour), End: base.Add(9 * time.Hour)}
	assert.True(t, outside.Clip(bounds).IsZero())
}

func TestParseClock(t *testing.T) {
	valid := map[string]int{
		"00:00": 0,
		"09:30": 9*60 + 30,
		"17:00": 17 * 60,
		"23:59": 23*60 + 59,
	}
	for clock, want := range valid {
		got, ok := parseClock(clock)
		assert.True(t, ok, "clock %q should parse", clock)
		assert.Equal(t, want, got)
	}

	invalid := []string{"24:00", "09:60", "9:00", "09:5", "0900", "aa:bb", "", "09:00:00", "-1:00"}
	for _, clock := range invalid {
		_, ok := parseClock(clock)
		assert.False(t, ok, "clock %q should be rejected", clock)
	}
}

func TestRecurringWindow_Validate(t *testing.T) {
	w := RecurringWindow{DayOfWeek: time.Monday, StartClock: "09:00", EndClock: "17:00"}
	assert.NoError(t, w.Validate())

	w.StartClock = "9:00"
	assert.Error(t, w.Validate())

	w.StartClock = "17:00"
	w.EndClock = "09:00"
	assert.Error(t, w.Validate(), "end before start must be rejected")

	w.StartClock = "09:00"
	w.EndClock = "09:00"
	assert.Error(t, w.Validate(), "zero-width window must be rejected")

	w.EndClock = "17:00"
	w.DayOfWeek = time.Weekday(7)
	assert.Error(t, w.Validate())
}

func TestOverride_Validate(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	ok := Override{Start: now, End: now.Add(time.Hour)}
	assert.NoError(t, ok.Validate())

	zero := Override{Start: now, End: now}
	assert.Error(t, zero.Validate())

	inverted := Override{Start: now.Add(time.Hour), End: now}
	assert.Error(t, inverted.Validate())
}
