package service

import (
	"go.uber.org/zap"

	"github.com/tahayparker/vacansee-sub001/config"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
	"github.com/tahayparker/vacansee-sub001/pkg/cache"
	"github.com/tahayparker/vacansee-sub001/pkg/clock"
	"github.com/tahayparker/vacansee-sub001/pkg/redis"
)

// Service 业务层聚合
type Service struct {
	Availability AvailabilityService
	Snapshot     SnapshotService
	Ingest       IngestService
	Export       ExportService
}

// NewService 创建业务层聚合实例
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	store repository.SnapshotStore,
	rdb *redis.Client,
	resolver *RoomResolver,
	norm *clock.Normalizer,
	c *cache.Cache,
	logger *zap.Logger,
) (*Service, error) {
	snapshot, err := NewSnapshotService(repo, store, rdb, resolver, norm, &cfg.Snapshot, &cfg.Grid, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		Availability: NewAvailabilityService(repo, resolver, norm, c, &cfg.Cache, logger),
		Snapshot:     snapshot,
		Ingest:       NewIngestService(repo, resolver, c, logger),
		Export:       NewExportService(repo, snapshot, resolver, norm, logger),
	}, nil
}
