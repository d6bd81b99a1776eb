package httpgin

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kaamexpress/kaam-go/internal/service/analytics"
	"github.com/kaamexpress/kaam-go/internal/service/booking"
	"github.com/kaamexpress/kaam-go/internal/service/directory"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	wrap := func(err error) error {
		return fmt.Errorf("service.op:%w", err)
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"booking validation", booking.ValidationError{Field: "amount", Reason: "must be non-negative"}, http.StatusBadRequest},
		{"directory validation", directory.ValidationError{Field: "name", Reason: "must not be empty"}, http.StatusBadRequest},
		{"wrapped directory validation", wrap(directory.ValidationError{Field: "base_paise", Reason: "must be non-negative"}), http.StatusBadRequest},
		{"bad service ref", wrap(booking.ErrServiceNotFound), http.StatusBadRequest},
		{"inactive service", wrap(booking.ErrServiceInactive), http.StatusBadRequest},
		{"booking not found", wrap(booking.ErrBookingNotFound), http.StatusNotFound},
		{"invalid transition", wrap(booking.ErrInvalidTransition), http.StatusConflict},
		{"write conflict", wrap(booking.ErrConflict), http.StatusConflict},
		{"rate limited", wrap(booking.ErrRateLimited), http.StatusTooManyRequests},
		{"no snapshot", wrap(analytics.ErrNoSnapshot), http.StatusNotFound},
		{"aggregation failed", wrap(analytics.ErrAggregationFailed), http.StatusBadGateway},
		{"service conflict", wrap(directory.ErrServiceConflict), http.StatusConflict},
		{"worker not found", wrap(directory.ErrWorkerNotFound), http.StatusNotFound},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondErr(c, tt.err)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
