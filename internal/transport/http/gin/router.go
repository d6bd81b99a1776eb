package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kaamexpress/kaam-go/internal/domain"
	postgresrepo "github.com/kaamexpress/kaam-go/internal/repository/postgres"
	redisrepo "github.com/kaamexpress/kaam-go/internal/repository/redis"
	"github.com/kaamexpress/kaam-go/internal/service"
	"github.com/kaamexpress/kaam-go/internal/service/analytics"
	"github.com/kaamexpress/kaam-go/internal/service/booking"
	"github.com/kaamexpress/kaam-go/internal/service/directory"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Bookings
	r.POST("/bookings", handleCreateBooking(svcs, idem))
	r.GET("/bookings", handleListBookings(svcs))
	r.GET("/bookings/:id", handleGetBooking(svcs))
	r.PATCH("/bookings/:id/status", handleUpdateStatus(svcs))
	r.POST("/bookings/:id/cancel", handleCancelBooking(svcs))
	r.POST("/bookings/:id/payment", handleRecordPayment(svcs))

	// Analytics
	r.GET("/analytics/snapshot", handleGetSnapshot(svcs))
	r.POST("/analytics/recompute", handleRecompute(svcs))

	// Notifications
	r.GET("/notifications", handleListNotifications(svcs))
	r.PUT("/notifications/read", handleMarkRead(svcs))
	r.DELETE("/notifications", handleDeleteNotifications(svcs))

	// Admin-API
	// TODO: add admin auth middleware once the gateway exposes roles
	admin := r.Group("/admin")
	{
		admin.POST("/services", handleCreateService(svcs))
		admin.GET("/services", handleListServices(svcs))
		admin.POST("/workers", handleRegisterWorker(svcs))
		admin.POST("/workers/:id/approve", handleApproveWorker(svcs))
		admin.POST("/customers", handleRegisterCustomer(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Create booking (idempotent)
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			badRequest(c, "invalid customer_id")
			return
		}
		workerID, err := uuid.Parse(req.WorkerID)
		if err != nil {
			badRequest(c, "invalid worker_id")
			return
		}
		scheduledAt, err := parseRFC3339(req.ScheduledAt)
		if err != nil {
			badRequest(c, "invalid scheduled_at (RFC3339)")
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		b, err := svcs.Booking.Create(c.Request.Context(), booking.CreateParams{
			CustomerID:  customerID,
			WorkerID:    workerID,
			ServiceID:   req.ServiceID,
			ScheduledAt: scheduledAt,
			AmountPaise: req.AmountPaise,
		}, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(*b)

		if idemStorageKey != "" && idem != nil {
			raw, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(raw))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(*b))
	}
}

// @Summary  List bookings
// @Param    customer query  string  false "customer uuid"
// @Param    worker   query  string  false "worker uuid"
// @Param    status   query  string  false "booking status"
// @Param    limit    query  int     false "page size"
// @Param    offset   query  int     false "offset"
// @Success  200 {array} BookingResponse
// @Router   /bookings [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f postgresrepo.BookingFilter

		if s := c.Query("customer"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				badRequest(c, "invalid customer")
				return
			}
			f.CustomerID = &id
		}
		if s := c.Query("worker"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				badRequest(c, "invalid worker")
				return
			}
			f.WorkerID = &id
		}
		if s := c.Query("status"); s != "" {
			st, err := domain.ParseBookingStatus(s)
			if err != nil {
				badRequest(c, err.Error())
				return
			}
			f.Status = &st
		}

		f.Limit = parseIntDefault(c.Query("limit"), 0)
		f.Offset = parseIntDefault(c.Query("offset"), 0)

		out, err := svcs.Booking.List(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponses(out))
	}
}

// @Summary  Update booking status
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Param    req body  UpdateStatusRequest true "payload"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "invalid transition / conflict"
// @Router   /bookings/{id}/status [patch]
func handleUpdateStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		status, err := domain.ParseBookingStatus(req.Status)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		b, err := svcs.Booking.UpdateStatus(c.Request.Context(), id, status)
		if errors.Is(err, booking.ErrConflict) {
			// One silent retry on a lost race; a second loss surfaces.
			b, err = svcs.Booking.UpdateStatus(c.Request.Context(), id, status)
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(*b))
	}
}

// @Summary  Cancel booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already terminal"
// @Router   /bookings/{id}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Cancel(c.Request.Context(), id)
		if errors.Is(err, booking.ErrConflict) {
			b, err = svcs.Booking.Cancel(c.Request.Context(), id)
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(*b))
	}
}

// @Summary  Record payment (idempotent)
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Failure  404 {object} ErrorResponse
// @Router   /bookings/{id}/payment [post]
func handleRecordPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.RecordPayment(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(*b))
	}
}

// @Summary  Latest analytics snapshot
// @Success  200 {object} SnapshotResponse
// @Failure  404 {object} ErrorResponse "no snapshot yet"
// @Router   /analytics/snapshot [get]
func handleGetSnapshot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := svcs.Analytics.Latest(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 30s
		writeJSONWithCache(c, http.StatusOK, toSnapshotResponse(*snap), "public, max-age=30", true)
	}
}

// @Summary  Trigger snapshot recompute
// @Param    window query  int  false "months in the monthly series"
// @Success  201 {object} SnapshotResponse
// @Failure  502 {object} ErrorResponse "aggregation failed"
// @Router   /analytics/recompute [post]
func handleRecompute(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		window := parseIntDefault(c.Query("window"), 0)

		snap, err := svcs.Analytics.Recompute(c.Request.Context(), window)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toSnapshotResponse(*snap))
	}
}

// @Summary  List notifications for a recipient
// @Param    recipient query  string  false "recipient uuid (defaults to X-Principal-ID)"
// @Param    limit     query  int     false "page size"
// @Param    offset    query  int     false "offset"
// @Success  200 {array} NotificationResponse
// @Router   /notifications [get]
func handleListNotifications(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		recipient, ok := recipientFrom(c, c.Query("recipient"))
		if !ok {
			return
		}

		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		out, err := svcs.Notification.List(c.Request.Context(), recipient, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toNotificationResponses(out))
	}
}

// @Summary  Mark notifications read
// @Param    req body  NotificationIDsRequest true "payload"
// @Success  200 {object} map[string]int64
// @Router   /notifications/read [put]
func handleMarkRead(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		recipient, ok := recipientFrom(c, "")
		if !ok {
			return
		}
		ids, ok := bindNotificationIDs(c)
		if !ok {
			return
		}

		n, err := svcs.Notification.MarkRead(c.Request.Context(), recipient, ids)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}

// @Summary  Delete notifications
// @Param    req body  NotificationIDsRequest true "payload"
// @Success  200 {object} map[string]int64
// @Router   /notifications [delete]
func handleDeleteNotifications(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		recipient, ok := recipientFrom(c, "")
		if !ok {
			return
		}
		ids, ok := bindNotificationIDs(c)
		if !ok {
			return
		}

		n, err := svcs.Notification.Delete(c.Request.Context(), recipient, ids)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": n})
	}
}

// @Summary  Create catalog service
// @Param    req body  CreateServiceRequest true "payload"
// @Success  201 {object} ServiceResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/services [post]
func handleCreateService(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateServiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		s, err := svcs.Directory.CreateService(
			c.Request.Context(),
			req.Name,
			req.Category,
			req.BasePaise,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toServiceResponse(*s))
	}
}

// @Summary  List catalog services
// @Success  200 {array} ServiceResponse
// @Router   /admin/services [get]
func handleListServices(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Directory.ListServices(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		resp := make([]ServiceResponse, 0, len(out))
		for _, s := range out {
			resp = append(resp, toServiceResponse(s))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// @Summary  Register worker
// @Param    req body  RegisterWorkerRequest true "payload"
// @Success  201 {object} WorkerResponse
// @Router   /admin/workers [post]
func handleRegisterWorker(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterWorkerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		w, err := svcs.Directory.RegisterWorker(c.Request.Context(), req.Name, req.Phone)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, WorkerResponse{
			ID:     w.ID.String(),
			Name:   w.Name,
			Phone:  w.Phone,
			Status: string(w.Status),
		})
	}
}

// @Summary  Approve worker
// @Param    id  path  string  true  "Worker ID (uuid)"
// @Success  200 {object} WorkerResponse
// @Failure  404 {object} ErrorResponse
// @Router   /admin/workers/{id}/approve [post]
func handleApproveWorker(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		w, err := svcs.Directory.ApproveWorker(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, WorkerResponse{
			ID:     w.ID.String(),
			Name:   w.Name,
			Phone:  w.Phone,
			Status: string(w.Status),
		})
	}
}

// @Summary  Register customer
// @Param    req body  RegisterCustomerRequest true "payload"
// @Success  201 {object} CustomerResponse
// @Router   /admin/customers [post]
func handleRegisterCustomer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		cu, err := svcs.Directory.RegisterCustomer(
			c.Request.Context(),
			req.Name,
			req.Phone,
			req.Email,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CustomerResponse{
			ID:    cu.ID.String(),
			Name:  cu.Name,
			Phone: cu.Phone,
			Email: cu.Email,
		})
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// recipientFrom resolves the recipient the call is scoped to: an
// explicit query value when given, else the caller principal supplied
// by the auth layer.
func recipientFrom(c *gin.Context, explicit string) (uuid.UUID, bool) {
	s := explicit
	if s == "" {
		s = strings.TrimSpace(c.GetHeader("X-Principal-ID"))
	}
	if s == "" {
		badRequest(c, "missing recipient (query or X-Principal-ID header)")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		badRequest(c, "invalid recipient")
		return uuid.Nil, false
	}
	return id, true
}

func bindNotificationIDs(c *gin.Context) ([]uuid.UUID, bool) {
	var req NotificationIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, s := range req.IDs {
		id, err := uuid.Parse(s)
		if err != nil {
			badRequest(c, "invalid id: "+s)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var ve booking.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Error()})
		return
	}

	var dve directory.ValidationError
	if errors.As(err, &dve) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: dve.Error()})
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrServiceNotFound),
		errors.Is(err, booking.ErrServiceInactive),
		errors.Is(err, booking.ErrWorkerNotFound),
		errors.Is(err, booking.ErrCustomerNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, booking.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid status transition"})
		return
	case errors.Is(err, booking.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "booking modified concurrently, retry"})
		return
	case errors.Is(err, booking.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
		return
	// analytics service
	case errors.Is(err, analytics.ErrNoSnapshot):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no snapshot available"})
		return
	case errors.Is(err, analytics.ErrAggregationFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "aggregation failed, prior snapshot remains"})
		return
	// directory service
	case errors.Is(err, directory.ErrServiceConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "service already exists"})
		return
	case errors.Is(err, directory.ErrWorkerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "worker not found"})
		return
	case errors.Is(err, directory.ErrCustomerConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "customer already exists"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
