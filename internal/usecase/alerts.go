package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"RateWatch/internal/domain/models"
	domrepo "RateWatch/internal/domain/repository"
	applogger "RateWatch/pkg/logger"
)

// AlertDispatcher creates refinance-opportunity notifications for
// brokers. It emits records only; delivery is external.
type AlertDispatcher struct {
	clients   domrepo.ClientStore
	rates     domrepo.RateStore
	notes     domrepo.NotificationStore
	pub       domrepo.EventPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	termYears int
	now       func() time.Time
}

func NewAlertDispatcher(
	clients domrepo.ClientStore,
	rates domrepo.RateStore,
	notes domrepo.NotificationStore,
	pub domrepo.EventPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	termYears int,
) *AlertDispatcher {
	return &AlertDispatcher{
		clients:   clients,
		rates:     rates,
		notes:     notes,
		pub:       pub,
		metrics:   metrics,
		l:         l,
		termYears: termYears,
		now:       time.Now,
	}
}

// SetClock injects a clock for tests.
func (d *AlertDispatcher) SetClock(now func() time.Time) { d.now = now }

// Evaluate applies the refinance-opportunity rule to one client and
// builds the broker-addressed notification, or returns nil when there
// is nothing to say. No mortgage, no market rate, or an equal rate is a
// silent no-op, not an error.
func (d *AlertDispatcher) Evaluate(client *models.Client, marketRate float64) *models.Notification {
	mortgage := client.ActiveMortgage()
	if mortgage == nil || marketRate == 0 {
		return nil
	}
	if !models.RefinanceOpportunity(mortgage.CurrentRate, marketRate) {
		return nil
	}
	return &models.Notification{
		ID:     uuid.NewString(),
		UserID: client.BrokerID,
		Title:  "Refinance Opportunity",
		Message: fmt.Sprintf("Current market rate (%.3f%%) is below %s's locked rate (%.3f%%)",
			marketRate, client.FullName(), mortgage.CurrentRate),
		Type:      models.NotificationTypeRate,
		CreatedAt: d.now().UTC(),
	}
}

// CheckAndNotify loads one broker-owned client, compares against the
// latest stored observation, and on an unfavorable gap records and
// publishes a notification.
func (d *AlertDispatcher) CheckAndNotify(ctx context.Context, brokerID, clientID string) (*models.Notification, error) {
	client, err := d.clients.ClientByID(ctx, brokerID, clientID)
	if err != nil {
		return nil, err
	}

	obs, err := d.rates.Latest(ctx, d.termYears)
	if err != nil {
		return nil, err
	}
	var marketRate float64
	if obs != nil {
		marketRate = obs.RateValue
	}

	n := d.Evaluate(client, marketRate)
	if n == nil {
		return nil, nil
	}
	if err := d.emit(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Sweep runs the opportunity check across a broker's whole portfolio.
func (d *AlertDispatcher) Sweep(ctx context.Context, brokerID string) (*models.SweepSummary, error) {
	clients, err := d.clients.ClientsByBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}

	obs, err := d.rates.Latest(ctx, d.termYears)
	if err != nil {
		return nil, err
	}
	var marketRate float64
	if obs != nil {
		marketRate = obs.RateValue
	}

	summary := &models.SweepSummary{Checked: len(clients)}
	for i := range clients {
		n := d.Evaluate(&clients[i], marketRate)
		if n == nil {
			continue
		}
		if err := d.emit(ctx, n); err != nil {
			return nil, err
		}
		summary.Notified++
	}
	if d.l != nil {
		d.l.Info("alert sweep complete",
			applogger.String("broker_id", brokerID),
			applogger.Int("checked", summary.Checked),
			applogger.Int("notified", summary.Notified),
		)
	}
	return summary, nil
}

func (d *AlertDispatcher) emit(ctx context.Context, n *models.Notification) error {
	if err := d.notes.Create(ctx, n); err != nil {
		return err
	}
	// Publish failure after the row exists is logged, not fatal: the
	// delivery collaborator can still pick the record up from the table.
	if err := d.pub.PublishNotification(ctx, n); err != nil && d.l != nil {
		d.l.Warn("notification publish failed",
			applogger.String("id", n.ID),
			applogger.Error(err),
		)
	}
	d.metrics.RecordNotification(n.Type)
	return nil
}
