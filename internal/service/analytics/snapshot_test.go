package analytics

import (
	"testing"
	"time"

	"github.com/kaamexpress/kaam-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestBuildEmpty(t *testing.T) {
	now := date(2025, time.June, 15)

	snap := Build(now, 6, nil, nil, 0)

	assert.Zero(t, snap.TotalBookings)
	assert.Zero(t, snap.TotalRevenuePaise)
	assert.Zero(t, snap.TotalUsers)
	assert.Empty(t, snap.ServiceDistribution)

	require.Len(t, snap.MonthlyBookings, 6)
	require.Len(t, snap.MonthlyRevenue, 6)

	wantMonths := []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}
	for i, m := range snap.MonthlyBookings {
		assert.Equal(t, wantMonths[i], m.Month)
		assert.Zero(t, m.Count)
	}
	for i, m := range snap.MonthlyRevenue {
		assert.Equal(t, wantMonths[i], m.Month)
		assert.Zero(t, m.AmountPaise)
	}
}

func TestBuildRevenueCountsCompletedOnly(t *testing.T) {
	now := date(2025, time.June, 15)

	facts := []domain.BookingFact{
		{Status: domain.BookingCompleted, AmountPaise: 50000, ScheduledAt: date(2025, time.June, 1), ServiceName: "Plumbing"},
		{Status: domain.BookingCompleted, AmountPaise: 30000, ScheduledAt: date(2025, time.May, 10), ServiceName: "Cleaning"},
		{Status: domain.BookingPending, AmountPaise: 99999, ScheduledAt: date(2025, time.June, 20), ServiceName: "Plumbing"},
		{Status: domain.BookingDispute, AmountPaise: 77777, ScheduledAt: date(2025, time.June, 5), ServiceName: "Electrical"},
		{Status: domain.BookingCancelled, AmountPaise: 11111, ScheduledAt: date(2025, time.April, 2), ServiceName: "Cleaning"},
	}

	snap := Build(now, 3, facts, nil, 0)

	assert.Equal(t, int64(5), snap.TotalBookings)
	assert.Equal(t, int64(80000), snap.TotalRevenuePaise)

	// Distribution counts every booking regardless of status.
	assert.Equal(t, map[string]int64{
		"Plumbing":   2,
		"Cleaning":   2,
		"Electrical": 1,
	}, snap.ServiceDistribution)

	require.Len(t, snap.MonthlyRevenue, 3)
	assert.Equal(t, "2025-04", snap.MonthlyRevenue[0].Month)
	assert.Zero(t, snap.MonthlyRevenue[0].AmountPaise, "cancelled booking contributes nothing")
	assert.Equal(t, int64(30000), snap.MonthlyRevenue[1].AmountPaise)
	assert.Equal(t, int64(50000), snap.MonthlyRevenue[2].AmountPaise)

	require.Len(t, snap.MonthlyBookings, 3)
	assert.Equal(t, int64(1), snap.MonthlyBookings[0].Count)
	assert.Equal(t, int64(1), snap.MonthlyBookings[1].Count)
	assert.Equal(t, int64(3), snap.MonthlyBookings[2].Count)
}

func TestBuildUserTotals(t *testing.T) {
	snap := Build(date(2025, time.June, 15), 1, nil, map[string]int64{
		"approved": 7,
		"pending":  3,
	}, 40)

	assert.Equal(t, int64(10), snap.TotalWorkers)
	assert.Equal(t, int64(40), snap.TotalCustomers)
	assert.Equal(t, int64(50), snap.TotalUsers)
	assert.Equal(t, int64(7), snap.WorkerStatus["approved"])
	assert.Equal(t, int64(3), snap.WorkerStatus["pending"])
}

func TestBuildWindowCrossesYearBoundary(t *testing.T) {
	snap := Build(date(2025, time.February, 1), 4, nil, nil, 0)

	want := []string{"2024-11", "2024-12", "2025-01", "2025-02"}
	require.Len(t, snap.MonthlyBookings, 4)
	for i, m := range snap.MonthlyBookings {
		assert.Equal(t, want[i], m.Month)
	}
}

func TestBuildProperties(t *testing.T) {
	statuses := []domain.BookingStatus{
		domain.BookingPending,
		domain.BookingInProgress,
		domain.BookingCompleted,
		domain.BookingDispute,
		domain.BookingCancelled,
	}

	rapid.Check(t, func(t *rapid.T) {
		now := date(2025, time.June, 15)
		window := rapid.IntRange(1, 24).Draw(t, "window")

		n := rapid.IntRange(0, 50).Draw(t, "n")
		facts := make([]domain.BookingFact, n)
		for i := range facts {
			facts[i] = domain.BookingFact{
				Status:      rapid.SampledFrom(statuses).Draw(t, "status"),
				AmountPaise: rapid.Int64Range(0, 1_000_000).Draw(t, "amount"),
				ScheduledAt: now.AddDate(0, -rapid.IntRange(0, 30).Draw(t, "monthsAgo"), 0),
				ServiceName: rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "svc"),
			}
		}

		snap := Build(now, window, facts, nil, 0)

		assert.Equal(t, int64(n), snap.TotalBookings)
		assert.Len(t, snap.MonthlyBookings, window)
		assert.Len(t, snap.MonthlyRevenue, window)

		// Distribution always sums back to the booking total.
		var distSum int64
		for _, v := range snap.ServiceDistribution {
			distSum += v
		}
		assert.Equal(t, snap.TotalBookings, distSum)

		// Revenue never exceeds the completed sum, and in-window monthly
		// revenue never exceeds the total.
		var completedSum, monthlySum int64
		for _, f := range facts {
			if f.Status == domain.BookingCompleted {
				completedSum += f.AmountPaise
			}
		}
		assert.Equal(t, completedSum, snap.TotalRevenuePaise)

		for _, m := range snap.MonthlyRevenue {
			monthlySum += m.AmountPaise
		}
		assert.LessOrEqual(t, monthlySum, snap.TotalRevenuePaise)
	})
}
