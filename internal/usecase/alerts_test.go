package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateWatch/internal/domain/models"
	applogger "RateWatch/pkg/logger"
)

func newTestDispatcher(clients *fakeClientStore, rates *fakeRateStore, notes *fakeNotificationStore, pub *fakePublisher) (*AlertDispatcher, *fakeMetrics) {
	metrics := newFakeMetrics()
	d := NewAlertDispatcher(clients, rates, notes, pub, metrics, applogger.Nop(), 30)
	d.SetClock(func() time.Time {
		return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	})
	return d, metrics
}

func TestEvaluate(t *testing.T) {
	d, _ := newTestDispatcher(&fakeClientStore{}, &fakeRateStore{}, &fakeNotificationStore{}, &fakePublisher{})

	client := portfolioClient("c1", 6.0, 250000)
	client.FirstName, client.LastName = "Ada", "Nguyen"

	t.Run("market below locked rate", func(t *testing.T) {
		n := d.Evaluate(&client, 5.5)
		require.NotNil(t, n)
		assert.Equal(t, "b1", n.UserID)
		assert.Equal(t, models.NotificationTypeRate, n.Type)
		assert.Equal(t, "Refinance Opportunity", n.Title)
		assert.Contains(t, n.Message, "Ada Nguyen")
		assert.Contains(t, n.Message, "5.500%")
		assert.Contains(t, n.Message, "6.000%")
	})

	t.Run("equal rates", func(t *testing.T) {
		assert.Nil(t, d.Evaluate(&client, 6.0))
	})

	t.Run("no mortgage", func(t *testing.T) {
		bare := models.Client{ID: "c2", BrokerID: "b1"}
		assert.Nil(t, d.Evaluate(&bare, 5.5))
	})

	t.Run("no market rate", func(t *testing.T) {
		assert.Nil(t, d.Evaluate(&client, 0))
	})
}

func TestCheckAndNotify(t *testing.T) {
	client := portfolioClient("c1", 6.0, 250000)
	clients := &fakeClientStore{clients: []models.Client{client}}
	rates := &fakeRateStore{latest: &models.RateObservation{
		ObservedDate: "2025-03-10", RateType: "fixed", RateValue: 5.5, TermYears: 30,
	}}
	notes := &fakeNotificationStore{}
	pub := &fakePublisher{}
	d, metrics := newTestDispatcher(clients, rates, notes, pub)

	n, err := d.CheckAndNotify(context.Background(), "b1", "c1")
	require.NoError(t, err)
	require.NotNil(t, n)
	require.Len(t, notes.created, 1)
	require.Len(t, pub.notifications, 1)
	assert.Equal(t, 1, metrics.notifications[models.NotificationTypeRate])
}

func TestCheckAndNotify_WrongBroker(t *testing.T) {
	clients := &fakeClientStore{clients: []models.Client{portfolioClient("c1", 6.0, 250000)}}
	d, _ := newTestDispatcher(clients, &fakeRateStore{}, &fakeNotificationStore{}, &fakePublisher{})

	_, err := d.CheckAndNotify(context.Background(), "other-broker", "c1")
	assert.ErrorIs(t, err, models.ErrClientNotFound)
}

func TestCheckAndNotify_PublishFailureIsNotFatal(t *testing.T) {
	clients := &fakeClientStore{clients: []models.Client{portfolioClient("c1", 6.0, 250000)}}
	rates := &fakeRateStore{latest: &models.RateObservation{RateValue: 5.5, TermYears: 30}}
	notes := &fakeNotificationStore{}
	d, _ := newTestDispatcher(clients, rates, notes, &fakePublisher{err: errors.New("broker down")})

	n, err := d.CheckAndNotify(context.Background(), "b1", "c1")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Len(t, notes.created, 1)
}

func TestSweep(t *testing.T) {
	clients := &fakeClientStore{clients: []models.Client{
		portfolioClient("c1", 6.5, 300000),
		portfolioClient("c2", 5.0, 200000),
		{ID: "c3", BrokerID: "b1"},
	}}
	rates := &fakeRateStore{latest: &models.RateObservation{RateValue: 5.5, TermYears: 30}}
	notes := &fakeNotificationStore{}
	d, _ := newTestDispatcher(clients, rates, notes, &fakePublisher{})

	summary, err := d.Sweep(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Notified)
	require.Len(t, notes.created, 1)
	assert.Equal(t, "b1", notes.created[0].UserID)
}

func TestSweep_NoObservation(t *testing.T) {
	clients := &fakeClientStore{clients: []models.Client{portfolioClient("c1", 6.5, 300000)}}
	notes := &fakeNotificationStore{}
	d, _ := newTestDispatcher(clients, &fakeRateStore{}, notes, &fakePublisher{})

	summary, err := d.Sweep(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 0, summary.Notified)
	assert.Empty(t, notes.created)
}
