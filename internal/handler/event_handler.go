package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	events EventService
	stats  StatsService
}

func NewEventHandler(events EventService, stats StatsService) *EventHandler {
	return &EventHandler{events: events, stats: stats}
}

// GetEvents 事件历史
// 查询参数: type, subject, tx_hash, page, page_size
func (h *EventHandler) GetEvents(c *gin.Context) {
	if txHash := c.Query("tx_hash"); txHash != "" {
		events, err := h.events.GetEventsByTxHash(c.Request.Context(), txHash)
		if err != nil {
			HandleError(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "ok", EventListResponse{
			Events:     events,
			Pagination: NewPagination(1, len(events), int64(len(events))),
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.events.GetEvents(c.Request.Context(), c.Query("type"), c.Query("subject"), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", EventListResponse{
		Events:     result.Events,
		Pagination: NewPagination(result.Page, result.PageSize, result.Total),
	})
}

// GetStats 按状态统计项目
func (h *EventHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "ok", stats)
}
