//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tahayparker/vacansee-sub001/internal/model"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=vacansee password=vacansee_password dbname=vacansee_test sslmode=disable TimeZone=Asia/Dubai"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	if err := testDB.AutoMigrate(&model.Room{}, &model.Booking{}); err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func seedGeneration(t *testing.T, repo *repository.Repository) {
	t.Helper()
	rooms := []model.Room{
		{RoomCode: "3.44", FullName: "3.44 Lecture Room"},
		{RoomCode: "4.46", FullName: "4.46 Classroom"},
	}
	bookings := []model.Booking{
		{SubjectCode: "COMP101", Section: "T01", Day: "Monday", StartTime: "09:00", EndTime: "10:30",
			RoomLabel: "3.44-Lecture Room", RoomCode: "3.44"},
		{SubjectCode: "COMP201", Section: "L01", Day: "Monday", StartTime: "11:00", EndTime: "12:00",
			RoomLabel: "4.46-Classroom", RoomCode: "4.46"},
		{SubjectCode: "COMP301", Section: "T02", Day: "Friday", StartTime: "14:00", EndTime: "16:00",
			RoomLabel: "3.44-Lecture Room", RoomCode: "3.44"},
	}
	if err := repo.Booking.ReplaceAll(context.Background(), rooms, bookings); err != nil {
		t.Fatalf("ReplaceAll 失败: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Wholesale Replace
// ═══════════════════════════════════════════════════════════

func TestReplaceAll_SwapsGeneration(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	seedGeneration(t, repo)

	// 第二代整体替换：只剩一个教室一条预订
	rooms := []model.Room{{RoomCode: "5.17", FullName: "5.17 Seminar Room"}}
	bookings := []model.Booking{
		{SubjectCode: "MGMT110", Section: "S01", Day: "Tuesday", StartTime: "10:00", EndTime: "11:00",
			RoomLabel: "5.17-Seminar Room", RoomCode: "5.17"},
	}
	if err := repo.Booking.ReplaceAll(ctx, rooms, bookings); err != nil {
		t.Fatalf("二次 ReplaceAll 失败: %v", err)
	}

	all, err := repo.Booking.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll 失败: %v", err)
	}
	if len(all) != 1 || all[0].RoomCode != "5.17" {
		t.Errorf("换代后预订 = %+v, 期望仅剩 5.17 一条", all)
	}

	// 旧代教室同步被清掉
	if _, err := repo.Room.GetByCode(ctx, "3.44"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("旧代教室应已删除, 实际 %v", err)
	}
	if _, err := repo.Room.GetByCode(ctx, "5.17"); err != nil {
		t.Errorf("新代教室应存在: %v", err)
	}
}

func TestReplaceAll_EmptyBatchClears(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	seedGeneration(t, repo)

	if err := repo.Booking.ReplaceAll(ctx, nil, nil); err != nil {
		t.Fatalf("空批次 ReplaceAll 失败: %v", err)
	}

	all, err := repo.Booking.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll 失败: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("空批次换代后应无预订, 实际 %d 条", len(all))
	}
	rooms, err := repo.Room.List(ctx)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("空批次换代后应无教室, 实际 %d 个", len(rooms))
	}
}

func TestBookingTimes_RoundTripAsHHMM(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	seedGeneration(t, repo)

	// 时间键必须以写入时的补零 HH:mm 原样回读：
	// 引擎按字典序比较，回读成 HH:MM:SS 会反转半开区间的边界判定
	all, err := repo.Booking.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll 失败: %v", err)
	}
	for _, b := range all {
		if len(b.StartTime) != 5 || len(b.EndTime) != 5 {
			t.Errorf("时间键格式被改写: start=%q end=%q, 期望 HH:mm", b.StartTime, b.EndTime)
		}
	}
	monday, err := repo.Booking.ListByDay(ctx, "Monday")
	if err != nil {
		t.Fatalf("ListByDay 失败: %v", err)
	}
	times := map[string]bool{}
	for _, b := range monday {
		times[b.StartTime+"-"+b.EndTime] = true
	}
	if !times["09:00-10:30"] || !times["11:00-12:00"] {
		t.Errorf("回读时间键 = %v, 期望含 09:00-10:30 与 11:00-12:00", times)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Query Filters
// ═══════════════════════════════════════════════════════════

func TestListByDay(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	seedGeneration(t, repo)

	monday, err := repo.Booking.ListByDay(ctx, "Monday")
	if err != nil {
		t.Fatalf("ListByDay 失败: %v", err)
	}
	if len(monday) != 2 {
		t.Errorf("周一预订 = %d 条, 期望 2", len(monday))
	}

	sunday, err := repo.Booking.ListByDay(ctx, "Sunday")
	if err != nil {
		t.Fatalf("ListByDay 失败: %v", err)
	}
	if len(sunday) != 0 {
		t.Errorf("周日预订 = %d 条, 期望 0", len(sunday))
	}
}

func TestListByDayAndRooms(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	seedGeneration(t, repo)

	got, err := repo.Booking.ListByDayAndRooms(ctx, "Monday", []string{"3.44", "4.467"})
	if err != nil {
		t.Fatalf("ListByDayAndRooms 失败: %v", err)
	}
	if len(got) != 1 || got[0].RoomCode != "3.44" {
		t.Errorf("过滤结果 = %+v, 期望仅 3.44 一条", got)
	}
}

func TestRoomList_OrderedByName(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	seedGeneration(t, repo)

	rooms, err := repo.Room.List(ctx)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	for i := 1; i < len(rooms); i++ {
		if rooms[i-1].FullName > rooms[i].FullName {
			t.Errorf("目录未按名称排序: %q > %q", rooms[i-1].FullName, rooms[i].FullName)
		}
	}
}
