package notification

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kaamexpress/kaam-go/internal/domain"
)

// route is one resolved row of the dispatch policy table.
type route struct {
	recipient uuid.UUID
	typ       domain.NotificationType
	message   string
}

const scheduleFormat = "02 Jan 2006 15:04"

// routesFor maps a booking event to the notifications it produces:
//
//	booking created     -> worker            (booking)
//	status -> completed -> customer          (completed)
//	status -> dispute   -> admin + parties   (system)
//	payment recorded    -> customer          (payment)
//	reminder due        -> customer + worker (reminder)
//
// Any other transition produces nothing. The table is closed; new
// triggers are added here, not at call sites.
func routesFor(ev domain.BookingEvent, adminID uuid.UUID) []route {
	b := ev.Booking
	when := b.ScheduledAt.Format(scheduleFormat)

	switch ev.Kind {
	case domain.BookingEventCreated:
		return []route{{
			recipient: b.WorkerID,
			typ:       domain.NotificationBooking,
			message:   fmt.Sprintf("New booking for %s on %s", b.ServiceName, when),
		}}

	case domain.BookingEventStatusChanged:
		switch b.Status {
		case domain.BookingCompleted:
			return []route{{
				recipient: b.CustomerID,
				typ:       domain.NotificationCompleted,
				message:   fmt.Sprintf("Your %s booking has been completed", b.ServiceName),
			}}
		case domain.BookingDispute:
			msg := fmt.Sprintf("Booking %s (%s) is under dispute", b.ID, b.ServiceName)
			routes := []route{
				{recipient: b.CustomerID, typ: domain.NotificationSystem, message: msg},
				{recipient: b.WorkerID, typ: domain.NotificationSystem, message: msg},
			}
			if adminID != uuid.Nil {
				routes = append(routes, route{
					recipient: adminID,
					typ:       domain.NotificationSystem,
					message:   msg,
				})
			}
			return routes
		}
		return nil

	case domain.BookingEventPaymentRecorded:
		return []route{{
			recipient: b.CustomerID,
			typ:       domain.NotificationPayment,
			message:   fmt.Sprintf("Payment received for your %s booking", b.ServiceName),
		}}

	case domain.BookingEventReminderDue:
		msg := fmt.Sprintf("Upcoming %s booking on %s", b.ServiceName, when)
		return []route{
			{recipient: b.CustomerID, typ: domain.NotificationReminder, message: msg},
			{recipient: b.WorkerID, typ: domain.NotificationReminder, message: msg},
		}
	}

	return nil
}
