package notification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kaamexpress/kaam-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking() domain.Booking {
	return domain.Booking{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		WorkerID:    uuid.New(),
		ServiceName: "Deep Cleaning",
		ScheduledAt: time.Date(2025, time.July, 3, 10, 30, 0, 0, time.UTC),
	}
}

func TestRoutesForCreated(t *testing.T) {
	b := testBooking()

	routes := routesFor(domain.BookingEvent{
		Kind:    domain.BookingEventCreated,
		Booking: b,
	}, uuid.Nil)

	require.Len(t, routes, 1)
	assert.Equal(t, b.WorkerID, routes[0].recipient)
	assert.Equal(t, domain.NotificationBooking, routes[0].typ)
	assert.Contains(t, routes[0].message, "Deep Cleaning")
	assert.Contains(t, routes[0].message, "03 Jul 2025")
}

func TestRoutesForCompleted(t *testing.T) {
	b := testBooking()
	b.Status = domain.BookingCompleted

	routes := routesFor(domain.BookingEvent{
		Kind:    domain.BookingEventStatusChanged,
		Booking: b,
	}, uuid.Nil)

	require.Len(t, routes, 1)
	assert.Equal(t, b.CustomerID, routes[0].recipient)
	assert.Equal(t, domain.NotificationCompleted, routes[0].typ)
}

func TestRoutesForDispute(t *testing.T) {
	b := testBooking()
	b.Status = domain.BookingDispute
	admin := uuid.New()

	routes := routesFor(domain.BookingEvent{
		Kind:    domain.BookingEventStatusChanged,
		Booking: b,
	}, admin)

	require.Len(t, routes, 3)

	recipients := map[uuid.UUID]bool{}
	for _, rt := range routes {
		recipients[rt.recipient] = true
		assert.Equal(t, domain.NotificationSystem, rt.typ)
	}
	assert.True(t, recipients[b.CustomerID])
	assert.True(t, recipients[b.WorkerID])
	assert.True(t, recipients[admin])
}

func TestRoutesForDisputeWithoutAdmin(t *testing.T) {
	b := testBooking()
	b.Status = domain.BookingDispute

	routes := routesFor(domain.BookingEvent{
		Kind:    domain.BookingEventStatusChanged,
		Booking: b,
	}, uuid.Nil)

	require.Len(t, routes, 2, "no admin configured, only the parties")
}

func TestRoutesForPayment(t *testing.T) {
	b := testBooking()

	routes := routesFor(domain.BookingEvent{
		Kind:    domain.BookingEventPaymentRecorded,
		Booking: b,
	}, uuid.Nil)

	require.Len(t, routes, 1)
	assert.Equal(t, b.CustomerID, routes[0].recipient)
	assert.Equal(t, domain.NotificationPayment, routes[0].typ)
}

func TestRoutesForReminder(t *testing.T) {
	b := testBooking()

	routes := routesFor(domain.BookingEvent{
		Kind:    domain.BookingEventReminderDue,
		Booking: b,
	}, uuid.Nil)

	require.Len(t, routes, 2)
	assert.Equal(t, b.CustomerID, routes[0].recipient)
	assert.Equal(t, b.WorkerID, routes[1].recipient)
	for _, rt := range routes {
		assert.Equal(t, domain.NotificationReminder, rt.typ)
	}
}

// Transitions outside the table (cancelled, in-progress, dispute
// resolutions) deliberately produce nothing.
func TestRoutesForSilentTransitions(t *testing.T) {
	for _, status := range []domain.BookingStatus{
		domain.BookingPending,
		domain.BookingInProgress,
		domain.BookingCancelled,
	} {
		b := testBooking()
		b.Status = status

		routes := routesFor(domain.BookingEvent{
			Kind:    domain.BookingEventStatusChanged,
			Booking: b,
		}, uuid.New())

		assert.Empty(t, routes, "status %s", status)
	}
}
