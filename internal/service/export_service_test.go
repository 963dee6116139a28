package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tahayparker/vacansee-sub001/internal/model"
)

func newExportFixture(t *testing.T, bookings *mockBookingRepo, rooms *mockRoomRepo) (ExportService, SnapshotService) {
	t.Helper()
	repo := testRepository(bookings, rooms)
	resolver := testResolver(t)
	norm := testNormalizer(t, &fixedClock{t: dubaiTime(t, 2026, time.August, 24, 7, 0)})

	snapshot, err := NewSnapshotService(repo, &mockSnapshotStore{}, nil, resolver, norm,
		testSnapshotConfig(), testGridConfig(), testLogger())
	if err != nil {
		t.Fatalf("构建 SnapshotService 失败: %v", err)
	}
	return NewExportService(repo, snapshot, resolver, norm, testLogger()), snapshot
}

func TestExportScheduleWithoutSnapshot(t *testing.T) {
	export, _ := newExportFixture(t, newMockBookingRepo(), newMockRoomRepo())

	_, _, err := export.ExportSchedule(context.Background())
	if !errors.Is(err, ErrExportNoSnapshot) {
		t.Errorf("期望 ErrExportNoSnapshot, 实际 %v", err)
	}
}

func TestExportSchedule(t *testing.T) {
	bookings := newMockBookingRepo()
	bookings.bookings = []model.Booking{
		{Day: "Monday", StartTime: "09:00", EndTime: "10:00", RoomCode: "3.44"},
	}
	rooms := newMockRoomRepo()
	rooms.add("3.44", "3.44 Lecture Room")
	export, snapshot := newExportFixture(t, bookings, rooms)

	if _, err := snapshot.Regenerate(context.Background()); err != nil {
		t.Fatalf("Regenerate 失败: %v", err)
	}
	buf, filename, err := export.ExportSchedule(context.Background())
	if err != nil {
		t.Fatalf("ExportSchedule 失败: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名 = %q, 期望 .xlsx 后缀", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("解析导出文件失败: %v", err)
	}
	defer f.Close()

	// 每个星期一个 Sheet
	sheets := f.GetSheetList()
	if len(sheets) != 7 {
		t.Fatalf("Sheet 数 = %d, 期望 7", len(sheets))
	}

	// 周一：首槽位占用，其余空闲
	if v, _ := f.GetCellValue("Monday", "A2"); v != "3.44" {
		t.Errorf("A2 = %q, 期望 3.44", v)
	}
	if v, _ := f.GetCellValue("Monday", "B1"); v != "09:00" {
		t.Errorf("B1 = %q, 期望 09:00", v)
	}
	if v, _ := f.GetCellValue("Monday", "B2"); v != "×" {
		t.Errorf("B2 = %q, 期望 ×", v)
	}
	if v, _ := f.GetCellValue("Monday", "C2"); v != "○" {
		t.Errorf("C2 = %q, 期望 ○", v)
	}
	if v, _ := f.GetCellValue("Tuesday", "B2"); v != "○" {
		t.Errorf("周二 B2 = %q, 期望 ○", v)
	}
}

func TestExportRoomCalendarNotFound(t *testing.T) {
	export, _ := newExportFixture(t, newMockBookingRepo(), newMockRoomRepo())

	_, _, err := export.ExportRoomCalendar(context.Background(), "9.99")
	if !errors.Is(err, ErrExportRoomNotFound) {
		t.Errorf("期望 ErrExportRoomNotFound, 实际 %v", err)
	}
}

func TestExportRoomCalendar(t *testing.T) {
	bookings := newMockBookingRepo()
	bookings.bookings = []model.Booking{
		{Day: "Monday", StartTime: "09:00", EndTime: "10:30", RoomCode: "4.46",
			RoomLabel: "4.46-Classroom", SubjectCode: "COMP101", Section: "T01", Instructor: "T. Parker"},
		{Day: "Wednesday", StartTime: "14:00", EndTime: "16:00", RoomCode: "4.467",
			RoomLabel: "4.467-Combined", SubjectCode: "COMP201", Section: "L01"},
		{Day: "Monday", StartTime: "09:00", EndTime: "10:00", RoomCode: "3.44",
			RoomLabel: "3.44-Lecture Room", SubjectCode: "COMP301", Section: "T02"},
	}
	rooms := standardRooms()
	export, _ := newExportFixture(t, bookings, rooms)

	buf, filename, err := export.ExportRoomCalendar(context.Background(), "4.46")
	if err != nil {
		t.Fatalf("ExportRoomCalendar 失败: %v", err)
	}
	if filename != "room_4.46.ics" {
		t.Errorf("文件名 = %q", filename)
	}

	ical := buf.String()
	if !strings.Contains(ical, "BEGIN:VCALENDAR") {
		t.Fatal("导出内容不是 iCalendar")
	}
	// 本教室预订 + 合并教室预订；其他教室不混入
	if got := strings.Count(ical, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("事件数 = %d, 期望 2", got)
	}
	if !strings.Contains(ical, "SUMMARY:COMP101 T01") {
		t.Error("缺少本教室预订事件")
	}
	if !strings.Contains(ical, "SUMMARY:COMP201 L01") {
		t.Error("分区日历应包含合并教室的预订")
	}
	if strings.Contains(ical, "COMP301") {
		t.Error("其他教室预订不应混入")
	}
	if !strings.Contains(ical, "FREQ=WEEKLY") {
		t.Error("事件缺少周重复规则")
	}
}
