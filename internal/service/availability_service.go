package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tahayparker/vacansee-sub001/config"
	"github.com/tahayparker/vacansee-sub001/internal/dto"
	"github.com/tahayparker/vacansee-sub001/internal/model"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
	"github.com/tahayparker/vacansee-sub001/pkg/cache"
	"github.com/tahayparker/vacansee-sub001/pkg/clock"
	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
)

// ── 可用性查询模块 ──────────────────────────────────────────
//
// 三种查询形态，全部是对不可变预订快照的纯计算：
//   - 瞬时：归一化"现在" → 该时刻被占教室集 → 目录 − 占用 − 排除
//   - 偏移：现在 + N 分钟，跨午夜自然换日（偏移 0 与瞬时等价）
//   - 显式时段：单教室单民用日 [start,end)，冲突记录按开始时间升序
//
// 占用集必须经过分组展开：占用分区即占用合并教室，反之亦然。
// 所有重叠判定归约到 overlap.go，此处不重复实现。
// 结果经读穿缓存按查询形态分 key 缓存。
// ─────────────────────────────────────────────────────────────

// AvailabilityService 可用性查询业务接口
type AvailabilityService interface {
	// FreeRoomsNow 当前时刻的空闲教室列表
	FreeRoomsNow(ctx context.Context) (*dto.FreeRoomsResponse, error)
	// FreeRoomsAfter 当前时刻偏移 offsetMinutes 分钟后的空闲教室列表
	FreeRoomsAfter(ctx context.Context, offsetMinutes int) (*dto.FreeRoomsResponse, error)
	// CheckRoom 指定教室在显式时段内是否可用
	CheckRoom(ctx context.Context, req *dto.CheckRequest) (*dto.CheckResponse, error)
	// ListRooms 排除后的教室目录
	ListRooms(ctx context.Context) ([]dto.RoomResponse, error)
}

type availabilityService struct {
	repo     *repository.Repository
	resolver *RoomResolver
	norm     *clock.Normalizer
	cache    *cache.Cache
	cacheCfg *config.CacheConfig
	logger   *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(
	repo *repository.Repository,
	resolver *RoomResolver,
	norm *clock.Normalizer,
	c *cache.Cache,
	cacheCfg *config.CacheConfig,
	logger *zap.Logger,
) AvailabilityService {
	return &availabilityService{
		repo:     repo,
		resolver: resolver,
		norm:     norm,
		cache:    c,
		cacheCfg: cacheCfg,
		logger:   logger,
	}
}

// ────────────────────── 瞬时 / 偏移查询 ──────────────────────

func (s *availabilityService) FreeRoomsNow(ctx context.Context) (*dto.FreeRoomsResponse, error) {
	return s.FreeRoomsAfter(ctx, 0)
}

func (s *availabilityService) FreeRoomsAfter(ctx context.Context, offsetMinutes int) (*dto.FreeRoomsResponse, error) {
	key := "availability:now"
	if offsetMinutes != 0 {
		key = fmt.Sprintf("availability:offset:%d", offsetMinutes)
	}

	v, err := s.cache.GetOrCompute(ctx, key, s.cacheCfg.TTL, s.cacheCfg.StaleAfter,
		func(ctx context.Context) (interface{}, error) {
			// "现在"在回源时刻取值，保证后台刷新产出的也是新鲜结果
			instant := clock.AddOffset(s.norm.NowInstant(), offsetMinutes)
			return s.freeRoomsAt(ctx, instant)
		})
	if err != nil {
		return nil, err
	}
	return v.(*dto.FreeRoomsResponse), nil
}

// freeRoomsAt 计算任意时刻的空闲教室列表
func (s *availabilityService) freeRoomsAt(ctx context.Context, instant time.Time) (*dto.FreeRoomsResponse, error) {
	day, hhmm := s.norm.At(instant)

	bookings, err := fetchWithRetry(ctx, s.logger, "当日预订", func(ctx context.Context) ([]model.Booking, error) {
		return s.repo.Booking.ListByDay(ctx, day)
	})
	if err != nil {
		return nil, err
	}

	// 该时刻被占教室集，经分组互斥展开
	occupied := make(map[string]bool)
	for _, b := range bookings {
		if occupiedAt(b.StartTime, b.EndTime, hhmm) {
			for _, code := range s.resolver.Expand(b.RoomCode) {
				occupied[code] = true
			}
		}
	}

	rooms, err := fetchWithRetry(ctx, s.logger, "教室目录", func(ctx context.Context) ([]model.Room, error) {
		return s.repo.Room.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	free := make([]dto.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		if occupied[room.RoomCode] || s.resolver.IsExcluded(room.FullName) {
			continue
		}
		free = append(free, toRoomResponse(room))
	}
	sort.Slice(free, func(i, j int) bool { return free[i].FullName < free[j].FullName })

	return &dto.FreeRoomsResponse{Day: day, Time: hhmm, Rooms: free}, nil
}

// ────────────────────── 显式时段查询 ──────────────────────

func (s *availabilityService) CheckRoom(ctx context.Context, req *dto.CheckRequest) (*dto.CheckResponse, error) {
	// 参数校验：非法输入永不进入缓存
	if _, ok := clock.DayIndex(req.Day); !ok {
		return nil, pkgerrors.NewInvalidQuery("day", fmt.Sprintf("未知星期名 %q", req.Day))
	}
	if !validHHMM(req.Start) {
		return nil, pkgerrors.NewInvalidQuery("start", fmt.Sprintf("无法解析时刻 %q", req.Start))
	}
	if !validHHMM(req.End) {
		return nil, pkgerrors.NewInvalidQuery("end", fmt.Sprintf("无法解析时刻 %q", req.End))
	}
	// 时段限定单个民用日且 start < end；start == end 同样非法
	if req.Start >= req.End {
		return nil, pkgerrors.NewInvalidQuery("start", "起始时刻必须早于结束时刻")
	}

	code := s.resolver.ShortCodeOf(req.Room)

	key := fmt.Sprintf("availability:check:%s:%s:%s-%s", code, req.Day, req.Start, req.End)
	v, err := s.cache.GetOrCompute(ctx, key, s.cacheCfg.TTL, s.cacheCfg.StaleAfter,
		func(ctx context.Context) (interface{}, error) {
			return s.checkRoomRange(ctx, code, req.Day, req.Start, req.End)
		})
	if err != nil {
		return nil, err
	}
	return v.(*dto.CheckResponse), nil
}

func (s *availabilityService) checkRoomRange(ctx context.Context, code, day, start, end string) (*dto.CheckResponse, error) {
	if _, err := fetchWithRetry(ctx, s.logger, "教室查询", func(ctx context.Context) (*model.Room, error) {
		return s.repo.Room.GetByCode(ctx, code)
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewInvalidQuery("room", fmt.Sprintf("未知教室短码 %q", code))
		}
		return nil, err
	}

	// 互斥展开：分区/合并教室的预订同样构成冲突
	siblings := s.resolver.Expand(code)

	bookings, err := fetchWithRetry(ctx, s.logger, "时段预订", func(ctx context.Context) ([]model.Booking, error) {
		return s.repo.Booking.ListByDayAndRooms(ctx, day, siblings)
	})
	if err != nil {
		return nil, err
	}

	conflicts := make([]dto.ConflictResponse, 0)
	for _, b := range bookings {
		if overlaps(b.StartTime, b.EndTime, start, end) {
			conflicts = append(conflicts, toConflictResponse(b))
		}
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].StartTime < conflicts[j].StartTime })

	return &dto.CheckResponse{
		Available: len(conflicts) == 0,
		CheckedAgainst: dto.CheckedQuery{
			RoomCode:  code,
			Day:       day,
			StartTime: start,
			EndTime:   end,
		},
		Conflicts: conflicts,
	}, nil
}

// ────────────────────── 教室目录 ──────────────────────

func (s *availabilityService) ListRooms(ctx context.Context) ([]dto.RoomResponse, error) {
	v, err := s.cache.GetOrCompute(ctx, "rooms:catalog", s.cacheCfg.TTL, s.cacheCfg.StaleAfter,
		func(ctx context.Context) (interface{}, error) {
			rooms, err := fetchWithRetry(ctx, s.logger, "教室目录", func(ctx context.Context) ([]model.Room, error) {
				return s.repo.Room.List(ctx)
			})
			if err != nil {
				return nil, err
			}

			result := make([]dto.RoomResponse, 0, len(rooms))
			for _, room := range rooms {
				if s.resolver.IsExcluded(room.FullName) {
					continue
				}
				result = append(result, toRoomResponse(room))
			}
			return result, nil
		})
	if err != nil {
		return nil, err
	}
	return v.([]dto.RoomResponse), nil
}

// ── 响应转换器 ──

func toRoomResponse(room model.Room) dto.RoomResponse {
	return dto.RoomResponse{
		RoomCode: room.RoomCode,
		FullName: room.FullName,
		Capacity: room.Capacity,
	}
}

func toConflictResponse(b model.Booking) dto.ConflictResponse {
	return dto.ConflictResponse{
		SubjectCode: b.SubjectCode,
		Section:     b.Section,
		Day:         b.Day,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		RoomCode:    b.RoomCode,
		Instructor:  b.Instructor,
	}
}
