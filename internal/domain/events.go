package domain

type BookingEventKind string

const (
	BookingEventCreated         BookingEventKind = "booking_created"
	BookingEventStatusChanged   BookingEventKind = "status_changed"
	BookingEventPaymentRecorded BookingEventKind = "payment_recorded"
	BookingEventReminderDue     BookingEventKind = "reminder_due"
)

// BookingEvent is emitted after a booking mutation commits. Consumers must
// treat delivery as best-effort; the mutation is already durable.
type BookingEvent struct {
	Kind    BookingEventKind
	Booking Booking
}
