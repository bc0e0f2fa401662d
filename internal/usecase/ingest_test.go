package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateWatch/internal/domain/models"
	icache "RateWatch/internal/service/cache"
	"RateWatch/internal/service/ratelimit"
	applogger "RateWatch/pkg/logger"
)

func newTestIngestor(source *fakeRateSource, store *fakeRateStore, guardInterval time.Duration) (*RateIngestor, *fakePublisher, *fakeFeed, icache.BytesCache, *fakeMetrics) {
	pub := &fakePublisher{}
	feed := &fakeFeed{}
	c := icache.NewTTLCache()
	metrics := newFakeMetrics()
	in := NewRateIngestor(source, store, pub, c, feed, ratelimit.New(guardInterval), metrics, applogger.Nop(), time.Minute)
	return in, pub, feed, c, metrics
}

func TestRunOnce(t *testing.T) {
	obs := &models.RateObservation{
		ObservedDate: "2025-03-10",
		RateType:     "fixed",
		RateValue:    6.25,
		TermYears:    30,
		RecordedAt:   time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	source := &fakeRateSource{obs: obs}
	store := &fakeRateStore{}
	in, pub, feed, c, metrics := newTestIngestor(source, store, 0)

	summary, err := in.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Ran)
	assert.Equal(t, obs, summary.Observation)

	require.Len(t, store.upserts, 1)
	require.Len(t, pub.observations, 1)
	require.Len(t, feed.observations, 1)
	assert.Equal(t, 1, metrics.cycles["ok"])
	assert.Equal(t, 6.25, metrics.lastRate)

	b, ok, err := c.GetBytes(context.Background(), icache.LatestKey(30))
	require.NoError(t, err)
	require.True(t, ok)
	var cached models.RateObservation
	require.NoError(t, json.Unmarshal(b, &cached))
	assert.Equal(t, 6.25, cached.RateValue)
}

func TestRunOnce_FetchErrorSkipsStore(t *testing.T) {
	source := &fakeRateSource{err: models.NewFetchError(models.FetchKindOutOfRange, "rate 20.00 outside (0, 15]")}
	store := &fakeRateStore{}
	in, pub, _, _, metrics := newTestIngestor(source, store, 0)

	_, err := in.RunOnce(context.Background())
	require.Error(t, err)

	var fe *models.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, models.FetchKindOutOfRange, fe.Kind)

	// Nothing past the adapter runs on a fetch failure.
	assert.Empty(t, store.upserts)
	assert.Empty(t, pub.observations)
	assert.Equal(t, 1, metrics.cycles["fetch_error"])
	assert.Equal(t, 1, metrics.fetchErrors[models.FetchKindOutOfRange])
}

func TestRunOnce_StoreError(t *testing.T) {
	source := &fakeRateSource{obs: &models.RateObservation{ObservedDate: "2025-03-10", RateValue: 6.25, TermYears: 30}}
	store := &fakeRateStore{upsertErr: models.NewStoreError("upsert", assert.AnError)}
	in, pub, _, _, metrics := newTestIngestor(source, store, 0)

	_, err := in.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, pub.observations)
	assert.Equal(t, 1, metrics.cycles["store_error"])
}

func TestRunOnce_Throttled(t *testing.T) {
	source := &fakeRateSource{obs: &models.RateObservation{ObservedDate: "2025-03-10", RateValue: 6.25, TermYears: 30}}
	store := &fakeRateStore{}
	in, _, _, _, metrics := newTestIngestor(source, store, time.Minute)

	first, err := in.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Ran)

	second, err := in.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Ran)
	assert.Equal(t, "ran too recently", second.SkipReason)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, metrics.cycles["throttled"])
}
