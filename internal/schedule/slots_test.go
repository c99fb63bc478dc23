package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Robinhohocepied/mediflow/internal/calendar"
	"github.com/Robinhohocepied/mediflow/internal/frtime"
)

// stubOracle answers availability from a predicate.
type stubOracle struct {
	free func(t time.Time) bool
}

func (s *stubOracle) IsAvailable(_ context.Context, start time.Time, _ time.Duration) (bool, error) {
	return s.free(start), nil
}

func (s *stubOracle) SuggestAlternatives(context.Context, time.Time, time.Duration, int) ([]time.Time, error) {
	return nil, nil
}

func (s *stubOracle) CreateEvent(context.Context, calendar.CreateEventRequest) (*calendar.Event, error) {
	return nil, calendar.ErrSlotTaken
}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestOfferSlotsPrefersRequestedDay(t *testing.T) {
	// Tuesday 2025-01-14, everything free.
	preferred := day(2025, 1, 14, 10)
	oracle := &stubOracle{free: func(time.Time) bool { return true }}

	slots := OfferSlots(context.Background(), oracle, preferred, frtime.BandMorning, DefaultOptions())

	require.Len(t, slots, 3)
	assert.Equal(t, day(2025, 1, 14, 9), slots[0])
	assert.Equal(t, day(2025, 1, 14, 10), slots[1])
	assert.Equal(t, day(2025, 1, 14, 11), slots[2])
}

func TestOfferSlotsEveningHoursSortedAscending(t *testing.T) {
	// Evening candidate hours are probed 18, 19, 17 but offered in
	// chronological order.
	preferred := day(2025, 1, 14, 10)
	oracle := &stubOracle{free: func(time.Time) bool { return true }}

	slots := OfferSlots(context.Background(), oracle, preferred, frtime.BandEvening, DefaultOptions())

	require.Len(t, slots, 3)
	assert.Equal(t, day(2025, 1, 14, 17), slots[0])
	assert.Equal(t, day(2025, 1, 14, 18), slots[1])
	assert.Equal(t, day(2025, 1, 14, 19), slots[2])
}

func TestOfferSlotsCustomBusinessHours(t *testing.T) {
	// A clinic opening 08:00-11:00 probes its own morning hours, not the
	// default 9/10/11 set.
	preferred := day(2025, 1, 14, 8)
	oracle := &stubOracle{free: func(time.Time) bool { return true }}
	opts := DefaultOptions()
	opts.MorningOpenHour = 8
	opts.MorningCloseHour = 11

	slots := OfferSlots(context.Background(), oracle, preferred, frtime.BandMorning, opts)

	require.Len(t, slots, 3)
	assert.Equal(t, day(2025, 1, 14, 8), slots[0])
	assert.Equal(t, day(2025, 1, 14, 9), slots[1])
	assert.Equal(t, day(2025, 1, 14, 10), slots[2])
}

func TestOfferSlotsFullyBookedUntilFallback(t *testing.T) {
	// Preference resolves to Tuesday; Tuesday and Wednesday are fully
	// booked, Thursday is free only at the 10:00 fallback hour.
	preferred := day(2025, 1, 14, 10)
	thursdayTen := day(2025, 1, 16, 10)
	oracle := &stubOracle{free: func(t time.Time) bool { return t.Equal(thursdayTen) }}

	slots := OfferSlots(context.Background(), oracle, preferred, frtime.BandNone, DefaultOptions())

	require.Len(t, slots, 1, "only the single free fallback slot may be offered")
	assert.Equal(t, thursdayTen, slots[0])
}

func TestOfferSlotsSkipsWeekends(t *testing.T) {
	// Saturday 2025-01-11 → first candidates land on Monday.
	preferred := day(2025, 1, 11, 10)
	oracle := &stubOracle{free: func(time.Time) bool { return true }}

	slots := OfferSlots(context.Background(), oracle, preferred, frtime.BandNone, DefaultOptions())

	require.Len(t, slots, 3)
	for _, s := range slots {
		assert.Equal(t, time.Monday, s.Weekday())
	}
}

func TestOfferSlotsInvariants(t *testing.T) {
	preferred := day(2025, 1, 14, 10)
	oracle := &stubOracle{free: func(t time.Time) bool { return t.Hour()%2 == 0 }}

	slots := OfferSlots(context.Background(), oracle, preferred, frtime.BandNone, DefaultOptions())

	assert.LessOrEqual(t, len(slots), MaxOffers)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Before(slots[i]), "slots must be strictly ascending: %v", slots)
	}
}

func TestOfferSlotsFullyBookedCalendarTerminates(t *testing.T) {
	preferred := day(2025, 1, 14, 10)
	oracle := &stubOracle{free: func(time.Time) bool { return false }}

	slots := OfferSlots(context.Background(), oracle, preferred, frtime.BandNone, DefaultOptions())
	assert.Empty(t, slots)
}

func TestOfferSlotsNoOracleDegrades(t *testing.T) {
	// Friday 2025-01-10 → Monday, Tuesday, Wednesday at 10:00 with no
	// availability check.
	preferred := day(2025, 1, 10, 15)

	slots := OfferSlots(context.Background(), nil, preferred, frtime.BandAfternoon, DefaultOptions())

	require.Len(t, slots, 3)
	assert.Equal(t, day(2025, 1, 13, 10), slots[0])
	assert.Equal(t, day(2025, 1, 14, 10), slots[1])
	assert.Equal(t, day(2025, 1, 15, 10), slots[2])
}

func TestOfferSlotsAgainstInMemoryCalendar(t *testing.T) {
	ctx := context.Background()
	cal := calendar.NewInMemory()
	preferred := day(2025, 1, 14, 10)

	// Book out Tuesday morning entirely.
	for _, h := range []int{9, 10, 11} {
		_, err := cal.CreateEvent(ctx, calendar.CreateEventRequest{
			Start: day(2025, 1, 14, h), Duration: time.Hour, Title: "occupé",
		})
		require.NoError(t, err)
	}

	slots := OfferSlots(ctx, cal, preferred, frtime.BandMorning, DefaultOptions())

	require.Len(t, slots, 3)
	assert.Equal(t, day(2025, 1, 15, 9), slots[0], "offer moves to Wednesday morning")
}
