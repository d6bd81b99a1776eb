package httpgin

import (
	"time"

	"github.com/kaamexpress/kaam-go/internal/domain"
)

type CreateBookingRequest struct {
	CustomerID  string `json:"customer_id" binding:"required,uuid"`
	WorkerID    string `json:"worker_id" binding:"required,uuid"`
	ServiceID   int64  `json:"service_id" binding:"required"`
	ScheduledAt string `json:"scheduled_at" binding:"required"` // RFC3339
	AmountPaise int64  `json:"amount_paise"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type NotificationIDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

type CreateServiceRequest struct {
	Name      string `json:"name" binding:"required"`
	Category  string `json:"category"`
	BasePaise int64  `json:"base_paise"`
}

type RegisterWorkerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

type RegisterCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type BookingResponse struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id"`
	WorkerID      string `json:"worker_id"`
	ServiceID     int64  `json:"service_id"`
	ServiceName   string `json:"service_name"`
	ScheduledAt   string `json:"scheduled_at"`
	Status        string `json:"status"`
	AmountPaise   int64  `json:"amount_paise"`
	IsPaid        bool   `json:"is_paid"`
	PaymentStatus string `json:"payment_status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID.String(),
		CustomerID:    b.CustomerID.String(),
		WorkerID:      b.WorkerID.String(),
		ServiceID:     b.ServiceID,
		ServiceName:   b.ServiceName,
		ScheduledAt:   b.ScheduledAt.Format(time.RFC3339),
		Status:        string(b.Status),
		AmountPaise:   b.AmountPaise,
		IsPaid:        b.IsPaid,
		PaymentStatus: string(b.PaymentStatus()),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.Format(time.RFC3339),
	}
}

func toBookingResponses(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b))
	}
	return out
}

type SnapshotResponse struct {
	ID                  string                 `json:"id"`
	TotalUsers          int64                  `json:"total_users"`
	TotalWorkers        int64                  `json:"total_workers"`
	TotalCustomers      int64                  `json:"total_customers"`
	TotalBookings       int64                  `json:"total_bookings"`
	TotalRevenuePaise   int64                  `json:"total_revenue_paise"`
	MonthlyBookings     []domain.MonthlyCount  `json:"monthly_bookings"`
	MonthlyRevenue      []domain.MonthlyAmount `json:"monthly_revenue"`
	ServiceDistribution map[string]int64       `json:"service_distribution"`
	WorkerStatus        map[string]int64       `json:"worker_status"`
	CreatedAt           string                 `json:"created_at"`
}

func toSnapshotResponse(s domain.AnalyticsSnapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:                  s.ID.String(),
		TotalUsers:          s.TotalUsers,
		TotalWorkers:        s.TotalWorkers,
		TotalCustomers:      s.TotalCustomers,
		TotalBookings:       s.TotalBookings,
		TotalRevenuePaise:   s.TotalRevenuePaise,
		MonthlyBookings:     s.MonthlyBookings,
		MonthlyRevenue:      s.MonthlyRevenue,
		ServiceDistribution: s.ServiceDistribution,
		WorkerStatus:        s.WorkerStatus,
		CreatedAt:           s.CreatedAt.Format(time.RFC3339),
	}
}

type NotificationResponse struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	Read        bool   `json:"read"`
	CreatedAt   string `json:"created_at"`
}

func toNotificationResponses(ns []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationResponse{
			ID:          n.ID.String(),
			RecipientID: n.RecipientID.String(),
			Type:        string(n.Type),
			Message:     n.Message,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

type ServiceResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	BasePaise int64  `json:"base_paise"`
	IsActive  bool   `json:"is_active"`
}

func toServiceResponse(s domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		BasePaise: s.BasePaise,
		IsActive:  s.IsActive,
	}
}

type WorkerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
}

type CustomerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
