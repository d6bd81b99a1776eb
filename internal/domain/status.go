package domain

import "fmt"

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingDispute    BookingStatus = "dispute"
	BookingCancelled  BookingStatus = "cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingPending, BookingInProgress, BookingCompleted, BookingDispute, BookingCancelled:
		return BookingStatus(s), nil
	default:
		return "", fmt.Errorf("unknown booking status: %q", s)
	}
}

// allowedTransitions is the single authoritative transition table.
// completed and cancelled are absorbing; dispute only leaves via an
// explicit admin resolution to completed or cancelled.
var allowedTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingPending: {
		BookingInProgress: true,
		BookingCompleted:  true,
		BookingDispute:    true,
		BookingCancelled:  true,
	},
	BookingInProgress: {
		BookingCompleted: true,
		BookingDispute:   true,
		BookingCancelled: true,
	},
	BookingDispute: {
		BookingCompleted: true,
		BookingCancelled: true,
	},
	BookingCompleted: {},
	BookingCancelled: {},
}

func CanTransition(from, to BookingStatus) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Terminal reports whether no transition out of s is ever allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}
