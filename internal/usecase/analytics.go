package usecase

import (
	"math"

	"RateWatch/internal/domain/models"
)

// MonthlyPayment computes the standard amortization monthly payment for
// principal P at an annual percentage rate over a term in years.
// A zero rate degenerates to straight division across the payments.
func MonthlyPayment(principal, annualRate float64, years int) float64 {
	monthlyRate := annualRate / 100 / 12
	payments := float64(years * 12)

	if monthlyRate == 0 {
		return principal / payments
	}

	factor := math.Pow(1+monthlyRate, payments)
	return principal * monthlyRate * factor / (factor - 1)
}

// ComputePortfolioAnalytics aggregates a broker's client set against
// one market rate. Deterministic and side-effect free; the first
// mortgage per client is the active loan, clients without one count in
// TotalClients only.
func ComputePortfolioAnalytics(clients []models.Client, marketRate float64) models.AnalyticsSnapshot {
	snap := models.AnalyticsSnapshot{
		TotalClients: len(clients),
		MarketRate:   marketRate,
	}

	var rateSum float64
	var withMortgage int

	for i := range clients {
		mortgage := clients[i].ActiveMortgage()
		if mortgage == nil {
			continue
		}
		withMortgage++
		snap.TotalLoanAmount += mortgage.LoanAmount
		rateSum += mortgage.CurrentRate

		if models.RefinanceOpportunity(mortgage.CurrentRate, marketRate) {
			snap.ClientsAboveMarket++
			currentPayment := MonthlyPayment(mortgage.LoanAmount, mortgage.CurrentRate, mortgage.TermYears)
			marketPayment := MonthlyPayment(mortgage.LoanAmount, marketRate, mortgage.TermYears)
			snap.PotentialSavings += currentPayment - marketPayment
		}

		switch {
		case mortgage.CurrentRate < 4:
			snap.RateDistribution.Below4++
		case mortgage.CurrentRate < 5:
			snap.RateDistribution.Below5++
		case mortgage.CurrentRate < 6:
			snap.RateDistribution.Below6++
		default:
			snap.RateDistribution.Above6++
		}
	}

	if withMortgage > 0 {
		snap.AverageRate = rateSum / float64(withMortgage)
	}
	return snap
}
