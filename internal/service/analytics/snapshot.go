package analytics

import (
	"time"

	"github.com/kaamexpress/kaam-go/internal/domain"
)

const monthKeyFormat = "2006-01"

// Build computes a complete snapshot from one consistent cut of source
// data. Pure: no I/O, deterministic for a fixed now.
//
// Policies baked in here and relied on by the dashboards:
//   - totalRevenue counts completed bookings only; pending and disputed
//     amounts contribute nothing.
//   - serviceDistribution counts every booking regardless of status, so
//     it tracks popularity rather than finished work.
//   - monthly series cover exactly windowMonths calendar months ending at
//     now's month, zero-filled, chronological.
func Build(
	now time.Time,
	windowMonths int,
	facts []domain.BookingFact,
	workerStatus map[string]int64,
	totalCustomers int64,
) *domain.AnalyticsSnapshot {
	if windowMonths <= 0 {
		windowMonths = 1
	}

	var totalWorkers int64
	ws := make(map[string]int64, len(workerStatus))
	for k, v := range workerStatus {
		ws[k] = v
		totalWorkers += v
	}

	months := make([]string, windowMonths)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(windowMonths - 1), 0)
	for i := range months {
		months[i] = first.AddDate(0, i, 0).Format(monthKeyFormat)
	}

	countByMonth := make(map[string]int64, windowMonths)
	revenueByMonth := make(map[string]int64, windowMonths)
	serviceDist := make(map[string]int64)

	var totalBookings, totalRevenue int64

	for _, f := range facts {
		totalBookings++
		serviceDist[f.ServiceName]++

		mk := f.ScheduledAt.UTC().Format(monthKeyFormat)
		countByMonth[mk]++

		if f.Status == domain.BookingCompleted {
			totalRevenue += f.AmountPaise
			revenueByMonth[mk] += f.AmountPaise
		}
	}

	monthlyBookings := make([]domain.MonthlyCount, 0, windowMonths)
	monthlyRevenue := make([]domain.MonthlyAmount, 0, windowMonths)
	for _, m := range months {
		monthlyBookings = append(monthlyBookings, domain.MonthlyCount{
			Month: m,
			Count: countByMonth[m],
		})
		monthlyRevenue = append(monthlyRevenue, domain.MonthlyAmount{
			Month:       m,
			AmountPaise: revenueByMonth[m],
		})
	}

	return &domain.AnalyticsSnapshot{
		TotalUsers:          totalWorkers + totalCustomers,
		TotalWorkers:        totalWorkers,
		TotalCustomers:      totalCustomers,
		TotalBookings:       totalBookings,
		TotalRevenuePaise:   totalRevenue,
		MonthlyBookings:     monthlyBookings,
		MonthlyRevenue:      monthlyRevenue,
		ServiceDistribution: serviceDist,
		WorkerStatus:        ws,
	}
}
