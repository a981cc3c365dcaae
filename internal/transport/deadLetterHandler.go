package transport

import (
	"net/http"
	"strconv"

	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/gin-gonic/gin"
)

type DeadLetterHandler struct {
	deadLetterService service.DeadLetterService
}

func NewDeadLetterHandler(deadLetterService service.DeadLetterService) *DeadLetterHandler {
	return &DeadLetterHandler{deadLetterService: deadLetterService}
}

// ListFailedEvents возвращает события, которые не удалось опубликовать
func (h *DeadLetterHandler) ListFailedEvents(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	events, err := h.deadLetterService.ListFailedEvents(c.Request.Context(), actor, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Failed events retrieved successfully",
		Data:    events,
		Meta: map[string]interface{}{
			"count": len(events),
			"limit": limit,
		},
	})
}

func (h *DeadLetterHandler) GetStats(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	stats, err := h.deadLetterService.FailedEventStats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Dead letter stats retrieved successfully",
		Data:    stats,
	})
}
