package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateWatch/internal/domain/models"
	icache "RateWatch/internal/service/cache"
	"RateWatch/internal/service/ratelimit"
	applogger "RateWatch/pkg/logger"
)

func newTestScheduler(t *testing.T, source *fakeRateSource, store *fakeRateStore) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	in := NewRateIngestor(source, store, &fakePublisher{}, icache.NewTTLCache(), &fakeFeed{}, ratelimit.New(0), newFakeMetrics(), applogger.Nop(), time.Minute)
	return NewScheduler(in, loc, 8, 18, time.Hour, applogger.Nop())
}

func TestShouldRun(t *testing.T) {
	s := newTestScheduler(t, &fakeRateSource{}, &fakeRateStore{})
	loc, _ := time.LoadLocation("America/New_York")

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday morning", time.Date(2025, 3, 10, 9, 0, 0, 0, loc), true}, // Monday
		{"weekday last hour", time.Date(2025, 3, 10, 17, 59, 0, 0, loc), true},
		{"before window", time.Date(2025, 3, 10, 7, 0, 0, 0, loc), false},
		{"after window", time.Date(2025, 3, 10, 18, 0, 0, 0, loc), false},
		{"saturday", time.Date(2025, 3, 15, 12, 0, 0, 0, loc), false},
		{"sunday", time.Date(2025, 3, 16, 12, 0, 0, 0, loc), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.ShouldRun(tc.at))
		})
	}
}

func TestShouldRun_ConvertsToBusinessZone(t *testing.T) {
	s := newTestScheduler(t, &fakeRateSource{}, &fakeRateStore{})

	// 12:00 UTC on a March Monday is 08:00 in New York: inside.
	assert.True(t, s.ShouldRun(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	// 23:00 UTC is 19:00 in New York: outside.
	assert.False(t, s.ShouldRun(time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)))
}

func TestRunScheduled(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	source := &fakeRateSource{obs: &models.RateObservation{ObservedDate: "2025-03-10", RateValue: 6.25, TermYears: 30}}
	store := &fakeRateStore{}
	s := newTestScheduler(t, source, store)

	t.Run("inside window", func(t *testing.T) {
		s.SetClock(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, loc) })

		summary, err := s.RunScheduled(context.Background())
		require.NoError(t, err)
		assert.True(t, summary.Ran)
		assert.Len(t, store.upserts, 1)
	})

	t.Run("outside window skips without error", func(t *testing.T) {
		s.SetClock(func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, loc) })

		summary, err := s.RunScheduled(context.Background())
		require.NoError(t, err)
		assert.False(t, summary.Ran)
		assert.Equal(t, "outside business hours", summary.SkipReason)
		assert.Equal(t, 1, source.calls)
	})
}
