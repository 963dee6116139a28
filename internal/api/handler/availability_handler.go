package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tahayparker/vacansee-sub001/internal/dto"
	"github.com/tahayparker/vacansee-sub001/internal/service"
	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
	"github.com/tahayparker/vacansee-sub001/pkg/response"
)

// AvailabilityHandler 可用性查询 HTTP 处理器
type AvailabilityHandler struct {
	availSvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availSvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availSvc: availSvc}
}

// FreeRoomsNow 当前时刻空闲教室
// GET /api/v1/availability/now
func (h *AvailabilityHandler) FreeRoomsNow(c *gin.Context) {
	resp, err := h.availSvc.FreeRoomsNow(c.Request.Context())
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}
	response.OK(c, resp)
}

// FreeRoomsSoon 偏移 N 分钟后的空闲教室
// GET /api/v1/availability/soon?minutes=30
func (h *AvailabilityHandler) FreeRoomsSoon(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("minutes", "30"))
	if err != nil {
		response.BadRequest(c, 20001, "minutes 必须为整数")
		return
	}

	resp, err := h.availSvc.FreeRoomsAfter(c.Request.Context(), minutes)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}
	response.OK(c, resp)
}

// CheckRoom 指定教室的显式时段查询
// GET /api/v1/availability/check?room=4.46&day=Monday&start=10:00&end=12:00
func (h *AvailabilityHandler) CheckRoom(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20001, "缺少必填参数 room/day/start/end")
		return
	}

	resp, err := h.availSvc.CheckRoom(c.Request.Context(), &req)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListRooms 教室目录
// GET /api/v1/rooms
func (h *AvailabilityHandler) ListRooms(c *gin.Context) {
	rooms, err := h.availSvc.ListRooms(c.Request.Context())
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}
	response.OK(c, gin.H{"rooms": rooms, "total": len(rooms)})
}

func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	if iq, ok := pkgerrors.AsInvalidQuery(err); ok {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20002, "查询参数非法", iq.Error())
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrUpstreamUnavailable):
		response.ServiceUnavailable(c, 20003, "数据源暂时不可用，请稍后重试")
	default:
		response.InternalError(c)
	}
}
