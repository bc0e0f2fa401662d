package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"RateWatch/internal/domain/models"
)

func TestMonthlyPayment(t *testing.T) {
	// 300k at 6% over 30 years is the textbook case.
	got := MonthlyPayment(300000, 6, 30)
	assert.InDelta(t, 1798.65, got, 0.01)

	// Zero rate degenerates to principal spread over the payments.
	assert.Equal(t, 300000.0/360.0, MonthlyPayment(300000, 0, 30))
}

func TestComputePortfolioAnalytics_Empty(t *testing.T) {
	snap := ComputePortfolioAnalytics(nil, 6.25)

	assert.Equal(t, 0, snap.TotalClients)
	assert.Equal(t, 0.0, snap.AverageRate)
	assert.Equal(t, 0.0, snap.PotentialSavings)
	assert.Equal(t, 6.25, snap.MarketRate)
}

func TestComputePortfolioAnalytics_Distribution(t *testing.T) {
	clients := []models.Client{
		portfolioClient("c1", 3.9, 100000),
		portfolioClient("c2", 4.9, 100000),
		portfolioClient("c3", 5.9, 100000),
		portfolioClient("c4", 6.1, 100000),
		// Boundary values land in the upper bucket.
		portfolioClient("c5", 4.0, 100000),
		portfolioClient("c6", 6.0, 100000),
	}

	snap := ComputePortfolioAnalytics(clients, 5.0)

	assert.Equal(t, 1, snap.RateDistribution.Below4)
	assert.Equal(t, 2, snap.RateDistribution.Below5)
	assert.Equal(t, 1, snap.RateDistribution.Below6)
	assert.Equal(t, 2, snap.RateDistribution.Above6)
}

func TestComputePortfolioAnalytics_Opportunities(t *testing.T) {
	clients := []models.Client{
		portfolioClient("c1", 6.5, 300000), // above market
		portfolioClient("c2", 5.0, 200000), // exactly at market: no opportunity
		portfolioClient("c3", 4.0, 100000), // below market
		{ID: "c4", BrokerID: "b1"},         // no mortgage
	}

	snap := ComputePortfolioAnalytics(clients, 5.0)

	assert.Equal(t, 4, snap.TotalClients)
	assert.Equal(t, 1, snap.ClientsAboveMarket)
	assert.Equal(t, 600000.0, snap.TotalLoanAmount)

	// Average is over mortgage-bearing clients only.
	assert.InDelta(t, (6.5+5.0+4.0)/3, snap.AverageRate, 1e-9)

	wantSavings := MonthlyPayment(300000, 6.5, 30) - MonthlyPayment(300000, 5.0, 30)
	assert.InDelta(t, wantSavings, snap.PotentialSavings, 1e-9)
	assert.True(t, snap.PotentialSavings > 0)
	assert.False(t, math.IsNaN(snap.PotentialSavings))
}

func TestComputePortfolioAnalytics_NoMarketRate(t *testing.T) {
	clients := []models.Client{portfolioClient("c1", 6.5, 300000)}

	snap := ComputePortfolioAnalytics(clients, 0)

	// The strict predicate applies unchanged: every locked rate sits
	// above a zero market rate, and the market-side payment is the
	// zero-rate degenerate form.
	assert.Equal(t, 1, snap.ClientsAboveMarket)
	wantSavings := MonthlyPayment(300000, 6.5, 30) - MonthlyPayment(300000, 0, 30)
	assert.InDelta(t, wantSavings, snap.PotentialSavings, 1e-9)
	assert.Equal(t, 0.0, snap.MarketRate)
}

func portfolioClient(id string, rate, loan float64) models.Client {
	return models.Client{
		ID:       id,
		BrokerID: "b1",
		Mortgages: []models.Mortgage{{
			ID:          id + "-m",
			ClientID:    id,
			CurrentRate: rate,
			LoanAmount:  loan,
			TermYears:   30,
		}},
	}
}
