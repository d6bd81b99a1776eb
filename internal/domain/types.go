package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "Paid"
	PaymentUnpaid PaymentStatus = "Unpaid"
)

// PaymentStatusOf derives the display payment status from the canonical
// is_paid flag. The flag is the only stored source of truth.
func PaymentStatusOf(isPaid bool) PaymentStatus {
	if isPaid {
		return PaymentPaid
	}
	return PaymentUnpaid
}

type Booking struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	WorkerID    uuid.UUID
	ServiceID   int64
	ServiceName string
	ScheduledAt time.Time
	Status      BookingStatus
	AmountPaise int64 // minor currency units
	IsPaid      bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b Booking) PaymentStatus() PaymentStatus {
	return PaymentStatusOf(b.IsPaid)
}

// BookingFact is the slice of a booking the aggregator reads. One row per
// booking regardless of status.
type BookingFact struct {
	Status      BookingStatus
	AmountPaise int64
	ScheduledAt time.Time
	ServiceName string
}

type WorkerStatus string

const (
	WorkerPending  WorkerStatus = "pending"
	WorkerApproved WorkerStatus = "approved"
)

type Service struct {
	ID        int64
	Name      string
	Category  string
	BasePaise int64
	IsActive  bool
	CreatedAt time.Time
}

type Worker struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Status    WorkerStatus
	CreatedAt time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

type MonthlyCount struct {
	Month string `json:"month"` // "2006-01"
	Count int64  `json:"count"`
}

type MonthlyAmount struct {
	Month       string `json:"month"`
	AmountPaise int64  `json:"amount_paise"`
}

// AnalyticsSnapshot is a fully computed, immutable analytics document.
// A recompute always produces a new snapshot; prior rows are never touched.
type AnalyticsSnapshot struct {
	ID                  uuid.UUID
	TotalUsers          int64
	TotalWorkers        int64
	TotalCustomers      int64
	TotalBookings       int64
	TotalRevenuePaise   int64
	MonthlyBookings     []MonthlyCount
	MonthlyRevenue      []MonthlyAmount
	ServiceDistribution map[string]int64
	WorkerStatus        map[string]int64
	CreatedAt           time.Time
}

type NotificationType string

const (
	NotificationBooking   NotificationType = "booking"
	NotificationCompleted NotificationType = "completed"
	NotificationReminder  NotificationType = "reminder"
	NotificationPayment   NotificationType = "payment"
	NotificationSystem    NotificationType = "system"
)

type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Type        NotificationType
	Message     string
	Read        bool
	CreatedAt   time.Time
}
