package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tahayparker/vacansee-sub001/internal/dto"
	"github.com/tahayparker/vacansee-sub001/internal/service"
	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
	"github.com/tahayparker/vacansee-sub001/pkg/response"
)

// IngestHandler 数据导入 HTTP 处理器
type IngestHandler struct {
	ingestSvc service.IngestService
}

// NewIngestHandler 创建 IngestHandler
func NewIngestHandler(ingestSvc service.IngestService) *IngestHandler {
	return &IngestHandler{ingestSvc: ingestSvc}
}

// ReplaceBookings 整体替换教室目录与预订数据
// POST /api/v1/ingest/bookings
func (h *IngestHandler) ReplaceBookings(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 22001, "请求体格式错误: rooms 与 bookings 为必填数组")
		return
	}

	resp, err := h.ingestSvc.Replace(c.Request.Context(), &req)
	if err != nil {
		h.handleIngestError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *IngestHandler) handleIngestError(c *gin.Context, err error) {
	if iq, ok := pkgerrors.AsInvalidQuery(err); ok {
		// 任何一条记录非法即整批拒绝
		response.ErrorWithDetails(c, http.StatusBadRequest, 22002, "导入数据校验失败", iq.Error())
		return
	}
	if errors.Is(err, pkgerrors.ErrUpstreamUnavailable) {
		response.ServiceUnavailable(c, 22003, "数据库暂时不可用，请稍后重试")
		return
	}
	response.InternalError(c)
}
