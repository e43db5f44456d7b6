package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 8}, tod)

	tod, err = ParseTimeOfDay(" 23:59 ")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59}, tod)

	for _, bad := range []string{"", "8", "24:00", "12:60", "ab:cd", "-1:30"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNextSameDay(t *testing.T) {
	now := time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC)
	next := TimeOfDay{Hour: 8}.Next(now, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), next)
}

func TestNextRollsToTomorrow(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	next := TimeOfDay{Hour: 8}.Next(now, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC), next)

	// Exactly at the trigger time means the next run is tomorrow.
	atTrigger := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	next = TimeOfDay{Hour: 8}.Next(atTrigger, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC), next)
}

func TestNextHonorsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 07:00 UTC is 09:00 local, past an 08:00 local trigger.
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	next := TimeOfDay{Hour: 8}.Next(now, loc)
	assert.Equal(t, time.Date(2025, 3, 11, 8, 0, 0, 0, loc).Unix(), next.Unix())
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "08:05", TimeOfDay{Hour: 8, Minute: 5}.String())
}
