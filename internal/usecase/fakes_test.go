package usecase

import (
	"context"
	"sync"

	"RateWatch/internal/domain/models"
)

type fakeRateSource struct {
	obs *models.RateObservation
	err error

	calls int
}

func (f *fakeRateSource) FetchMarketRate(_ context.Context) (*models.RateObservation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.obs, nil
}

type fakeRateStore struct {
	latest    *models.RateObservation
	history   []models.RateObservation
	upsertErr error
	latestErr error

	upserts []*models.RateObservation
}

func (f *fakeRateStore) Upsert(_ context.Context, obs *models.RateObservation) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, obs)
	return nil
}

func (f *fakeRateStore) Latest(_ context.Context, _ int) (*models.RateObservation, error) {
	return f.latest, f.latestErr
}

func (f *fakeRateStore) History(_ context.Context, _, _ int) ([]models.RateObservation, error) {
	return f.history, nil
}

func (f *fakeRateStore) Health(_ context.Context) error { return nil }

type fakeClientStore struct {
	clients []models.Client
	err     error
}

func (f *fakeClientStore) ClientsByBroker(_ context.Context, _ string) ([]models.Client, error) {
	return f.clients, f.err
}

func (f *fakeClientStore) ClientByID(_ context.Context, brokerID, clientID string) (*models.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.clients {
		if f.clients[i].ID == clientID && f.clients[i].BrokerID == brokerID {
			return &f.clients[i], nil
		}
	}
	return nil, models.ErrClientNotFound
}

type fakeNotificationStore struct {
	err     error
	created []*models.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

type fakePublisher struct {
	err           error
	observations  []*models.RateObservation
	notifications []*models.Notification
}

func (f *fakePublisher) PublishObservation(_ context.Context, obs *models.RateObservation) error {
	if f.err != nil {
		return f.err
	}
	f.observations = append(f.observations, obs)
	return nil
}

func (f *fakePublisher) PublishNotification(_ context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeFeed struct {
	observations  []*models.RateObservation
	notifications []*models.Notification
}

func (f *fakeFeed) BroadcastObservation(obs *models.RateObservation) {
	f.observations = append(f.observations, obs)
}

func (f *fakeFeed) BroadcastNotification(n *models.Notification) {
	f.notifications = append(f.notifications, n)
}

type fakeMetrics struct {
	mu            sync.Mutex
	cycles        map[string]int
	fetchErrors   map[string]int
	notifications map[string]int
	lastRate      float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		cycles:        make(map[string]int),
		fetchErrors:   make(map[string]int),
		notifications: make(map[string]int),
	}
}

func (m *fakeMetrics) RecordFetchCycle(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles[result]++
}

func (m *fakeMetrics) RecordFetchError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErrors[kind]++
}

func (m *fakeMetrics) RecordMarketRate(_ string, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRate = rate
}

func (m *fakeMetrics) RecordLatency(_ string, _ float64) {}

func (m *fakeMetrics) RecordNotification(ntype string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[ntype]++
}
