package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tahayparker/vacansee-sub001/internal/dto"
	"github.com/tahayparker/vacansee-sub001/internal/model"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
	"github.com/tahayparker/vacansee-sub001/pkg/cache"
	"github.com/tahayparker/vacansee-sub001/pkg/clock"
	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
)

// ── 数据导入模块 ──────────────────────────────────────────
//
// 抓取侧交付整周数据后整体换代：目录与预订在单个事务内同时替换，
// 不做增量修补。入库前逐条校验星期名与时刻格式，任何一条非法即
// 整批拒绝，引擎内部因此可以信任 start < end 与规范星期名。
// 换代成功后清空读穿缓存，后续查询立即回源到新一代数据。
// ─────────────────────────────────────────────────────────────

// IngestService 数据导入业务接口
type IngestService interface {
	// Replace 整体替换教室目录与预订数据
	Replace(ctx context.Context, req *dto.IngestRequest) (*dto.IngestResponse, error)
}

type ingestService struct {
	repo     *repository.Repository
	resolver *RoomResolver
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewIngestService 创建 IngestService 实例
func NewIngestService(repo *repository.Repository, resolver *RoomResolver, c *cache.Cache, logger *zap.Logger) IngestService {
	return &ingestService{repo: repo, resolver: resolver, cache: c, logger: logger}
}

func (s *ingestService) Replace(ctx context.Context, req *dto.IngestRequest) (*dto.IngestResponse, error) {
	rooms, err := s.validateRooms(req.Rooms)
	if err != nil {
		return nil, err
	}
	bookings, err := s.validateBookings(req.Bookings)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Booking.ReplaceAll(ctx, rooms, bookings); err != nil {
		return nil, fmt.Errorf("整体替换数据失败: %w", err)
	}

	// 新一代数据已落库，旧缓存整体作废
	s.cache.Clear()

	s.logger.Info("预订数据整体换代完成",
		zap.Int("rooms", len(rooms)),
		zap.Int("bookings", len(bookings)),
	)
	return &dto.IngestResponse{RoomCount: len(rooms), BookingCount: len(bookings)}, nil
}

func (s *ingestService) validateRooms(entries []dto.IngestRoomEntry) ([]model.Room, error) {
	rooms := make([]model.Room, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.RoomCode == "" {
			return nil, pkgerrors.NewInvalidQuery("rooms", fmt.Sprintf("第 %d 条目录条目缺少教室短码", i+1))
		}
		if seen[e.RoomCode] {
			return nil, pkgerrors.NewInvalidQuery("rooms", fmt.Sprintf("教室短码 %q 重复出现", e.RoomCode))
		}
		seen[e.RoomCode] = true
		rooms = append(rooms, model.Room{
			RoomCode: e.RoomCode,
			FullName: e.FullName,
			Capacity: e.Capacity,
		})
	}
	return rooms, nil
}

func (s *ingestService) validateBookings(records []dto.IngestBookingRecord) ([]model.Booking, error) {
	bookings := make([]model.Booking, 0, len(records))
	for i, rec := range records {
		if _, ok := clock.DayIndex(rec.Day); !ok {
			return nil, pkgerrors.NewInvalidQuery("bookings", fmt.Sprintf("第 %d 条预订星期名非法: %q", i+1, rec.Day))
		}
		if !validHHMM(rec.StartTime) {
			return nil, pkgerrors.NewInvalidQuery("bookings", fmt.Sprintf("第 %d 条预订起始时刻非法: %q", i+1, rec.StartTime))
		}
		if !validHHMM(rec.EndTime) {
			return nil, pkgerrors.NewInvalidQuery("bookings", fmt.Sprintf("第 %d 条预订结束时刻非法: %q", i+1, rec.EndTime))
		}
		if rec.StartTime >= rec.EndTime {
			return nil, pkgerrors.NewInvalidQuery("bookings", fmt.Sprintf("第 %d 条预订时段非法: %s >= %s", i+1, rec.StartTime, rec.EndTime))
		}

		bookings = append(bookings, model.Booking{
			SubjectCode: rec.SubjectCode,
			Section:     rec.Section,
			Day:         rec.Day,
			StartTime:   rec.StartTime,
			EndTime:     rec.EndTime,
			RoomLabel:   rec.RoomLabel,
			// 短码在入库时一次解析，查询路径不再碰原始标签
			RoomCode:   s.resolver.ShortCodeOf(rec.RoomLabel),
			Instructor: rec.Instructor,
		})
	}
	return bookings, nil
}
