package transport

import (
	"net/http"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService        service.RoomService
	reservationService service.ReservationService
}

func NewRoomHandler(roomService service.RoomService, reservationService service.ReservationService) *RoomHandler {
	return &RoomHandler{
		roomService:        roomService,
		reservationService: reservationService,
	}
}

// AvailabilityQuery представляет параметры проверки доступности
type AvailabilityQuery struct {
	CheckIn  string `form:"check_in" binding:"required,staydate"`
	CheckOut string `form:"check_out" binding:"required,staydate,afterdate=CheckIn"`
}

func (h *RoomHandler) ListHotelRooms(c *gin.Context) {
	hotelID := c.Param("hotel_id")

	rooms, err := h.roomService.ListHotelRooms(c.Request.Context(), hotelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Rooms retrieved successfully",
		Data:    rooms,
		Meta: map[string]interface{}{
			"hotel_id": hotelID,
			"total":    len(rooms),
		},
	})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomService.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Room retrieved successfully",
		Data:    room,
	})
}

// CheckAvailability возвращает количество свободных номеров на период
func (h *RoomHandler) CheckAvailability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, bindingError(err))
		return
	}

	checkIn, _ := entity.ParseStayDate(q.CheckIn)
	checkOut, _ := entity.ParseStayDate(q.CheckOut)

	availability, err := h.reservationService.CheckAvailability(c.Request.Context(), c.Param("id"), checkIn, checkOut)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Availability retrieved successfully",
		Data:    availability,
	})
}
