package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tahayparker/vacansee-sub001/internal/service"
	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
	"github.com/tahayparker/vacansee-sub001/pkg/response"
)

// SnapshotHandler 周视图快照 HTTP 处理器
type SnapshotHandler struct {
	snapSvc service.SnapshotService
}

// NewSnapshotHandler 创建 SnapshotHandler
func NewSnapshotHandler(snapSvc service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapSvc: snapSvc}
}

// GetSchedule 当前已发布的周视图快照
// GET /api/v1/schedule
func (h *SnapshotHandler) GetSchedule(c *gin.Context) {
	snap, err := h.snapSvc.Current()
	if err != nil {
		h.handleSnapshotError(c, err)
		return
	}
	response.OK(c, snap)
}

// Regenerate 立即重算周视图
// POST /api/v1/schedule/regenerate
func (h *SnapshotHandler) Regenerate(c *gin.Context) {
	resp, err := h.snapSvc.Regenerate(c.Request.Context())
	if err != nil {
		h.handleSnapshotError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *SnapshotHandler) handleSnapshotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSnapshotNotGenerated):
		response.NotFound(c, 21001, "周视图尚未生成")
	case errors.Is(err, pkgerrors.ErrUpstreamUnavailable):
		response.ServiceUnavailable(c, 21002, "数据源暂时不可用，请稍后重试")
	default:
		response.InternalError(c)
	}
}
