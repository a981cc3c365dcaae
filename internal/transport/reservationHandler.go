package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/ds124wfegd/hotel-booking/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type ReservationHandler struct {
	reservationService service.ReservationService
}

func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// SuccessResponse представляет успешный ответ
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CreateReservationRequest представляет запрос на бронирование номера
type CreateReservationRequest struct {
	RoomID     string `json:"room_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required,staydate"`
	CheckOut   string `json:"check_out" binding:"required,staydate,afterdate=CheckIn"`
	GuestCount int    `json:"guest_count" binding:"min=1"`
}

// CreatePaymentOrderRequest связывает бронирование с заказом платежного шлюза
type CreatePaymentOrderRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	OrderID       string `json:"order_id" binding:"required,max=128"`
}

// VerifyPaymentRequest представляет ответ платежного шлюза, переданный клиентом
type VerifyPaymentRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	OrderID       string `json:"order_id" binding:"required"`
	PaymentID     string `json:"payment_id" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}

// CreateReservation проверяет доступность и создает бронирование
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	// both already validated by the staydate tag
	checkIn, _ := entity.ParseStayDate(req.CheckIn)
	checkOut, _ := entity.ParseStayDate(req.CheckOut)

	reservation, err := h.reservationService.CheckAndReserve(c.Request.Context(), &service.ReserveRequest{
		RoomID:         req.RoomID,
		UserID:         actor.UserID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		GuestCount:     req.GuestCount,
		IdempotencyKey: c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Reservation created successfully",
		Data:    reservation,
	})
}

func (h *ReservationHandler) GetMyReservations(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	reservations, err := h.reservationService.ListUserReservations(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Reservations retrieved successfully",
		Data:    reservations,
		Meta: map[string]interface{}{
			"total": len(reservations),
		},
	})
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	reservation, err := h.reservationService.GetReservation(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Reservation retrieved successfully",
		Data:    reservation,
	})
}

// CancelReservation отменяет бронирование
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	reservation, err := h.reservationService.Cancel(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Reservation cancelled successfully",
		Data:    reservation,
	})
}

func (h *ReservationHandler) CreatePaymentOrder(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	reservation, err := h.reservationService.AttachPaymentOrder(c.Request.Context(), req.ReservationID, actor, req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Payment order attached",
		Data:    reservation.PaymentDetails(),
	})
}

// VerifyPayment подтверждает оплату по подписи шлюза
func (h *ReservationHandler) VerifyPayment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	reservation, err := h.reservationService.ConfirmPayment(c.Request.Context(), req.ReservationID, actor, entity.PaymentProof{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Payment verified successfully",
		Data:    reservation,
	})
}

func (h *ReservationHandler) GetPaymentDetails(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	details, err := h.reservationService.GetPaymentDetails(c.Request.Context(), c.Param("reservation_id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Payment details retrieved successfully",
		Data:    details,
	})
}

// GetOwnerReservations возвращает бронирования номеров владельца
func (h *ReservationHandler) GetOwnerReservations(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	reservations, err := h.reservationService.ListOwnerReservations(c.Request.Context(), actor, c.Query("owner_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Reservations retrieved successfully",
		Data:    reservations,
		Meta: map[string]interface{}{
			"total": len(reservations),
		},
	})
}

// GetAllReservations возвращает все бронирования (только для администратора)
func (h *ReservationHandler) GetAllReservations(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	// Получаем параметры пагинации
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	filter := entity.ReservationFilter{
		Status: entity.ReservationStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}

	reservations, err := h.reservationService.ListReservations(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Reservations retrieved successfully",
		Data:    reservations,
		Meta: map[string]interface{}{
			"count":    len(reservations),
			"limit":    limit,
			"offset":   offset,
			"has_more": len(reservations) == limit,
		},
	})
}

func actorOrAbort(c *gin.Context) (entity.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   "authentication required",
		})
	}
	return actor, ok
}
