package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case entity.IsTransient(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrInvalidDateRange),
		errors.Is(err, entity.ErrInvalidGuestCount),
		errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrPaymentVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrRoomNotFound),
		errors.Is(err, entity.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrRoomUnavailable),
		errors.Is(err, entity.ErrInvalidReservationStatus),
		errors.Is(err, entity.ErrReservationExpired),
		errors.Is(err, entity.ErrPaymentAlreadyCompleted),
		errors.Is(err, entity.ErrReservationExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()

	switch status {
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", "1")
		message = "storage is busy, retry the request"
		logrus.WithField("path", c.FullPath()).WithError(err).Warn("Transient store error")
	case http.StatusInternalServerError:
		message = "internal server error"
		logrus.WithField("path", c.FullPath()).WithError(err).Error("Request failed")
	}

	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// bindingError turns a gin binding failure into a domain error.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", entity.ErrInvalidInput, err.Error())
	}

	for _, fe := range verrs {
		switch {
		case fe.Tag() == "afterdate":
			return entity.ErrInvalidDateRange
		case fe.StructField() == "GuestCount":
			return entity.ErrInvalidGuestCount
		}
	}
	return fmt.Errorf("%w: %s", entity.ErrInvalidInput, verrs.Error())
}
