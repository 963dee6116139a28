package service

import (
	"context"
	"testing"
	"time"

	"github.com/tahayparker/vacansee-sub001/internal/dto"
	pkgerrors "github.com/tahayparker/vacansee-sub001/pkg/errors"
)

func newIngestFixture(t *testing.T, bookings *mockBookingRepo) (IngestService, AvailabilityService) {
	t.Helper()
	rooms := standardRooms()
	c := testCache()
	repo := testRepository(bookings, rooms)
	resolver := testResolver(t)
	norm := testNormalizer(t, &fixedClock{t: dubaiTime(t, 2026, time.August, 24, 10, 0)})

	ingest := NewIngestService(repo, resolver, c, testLogger())
	avail := NewAvailabilityService(repo, resolver, norm, c, testCacheConfig(), testLogger())
	return ingest, avail
}

func validIngestRequest() *dto.IngestRequest {
	return &dto.IngestRequest{
		Rooms: []dto.IngestRoomEntry{
			{RoomCode: "3.44", FullName: "3.44 Lecture Room"},
			{RoomCode: "4.46", FullName: "4.46 Classroom"},
		},
		Bookings: []dto.IngestBookingRecord{
			{SubjectCode: "COMP101", Section: "T01", Day: "Monday", StartTime: "09:00", EndTime: "10:30", RoomLabel: "3.44-Lecture Room"},
			{SubjectCode: "COMP201", Section: "L01", Day: "Friday", StartTime: "14:00", EndTime: "16:00", RoomLabel: "4.46-Classroom"},
		},
	}
}

func TestIngestReplace(t *testing.T) {
	bookings := newMockBookingRepo()
	ingest, _ := newIngestFixture(t, bookings)

	resp, err := ingest.Replace(context.Background(), validIngestRequest())
	if err != nil {
		t.Fatalf("Replace 失败: %v", err)
	}
	if resp.RoomCount != 2 || resp.BookingCount != 2 {
		t.Errorf("换代计数 = %d/%d, 期望 2/2", resp.RoomCount, resp.BookingCount)
	}
	if bookings.replaced != 1 {
		t.Errorf("ReplaceAll 调用次数 = %d, 期望 1", bookings.replaced)
	}

	// 短码在入库时从标签解析
	if bookings.bookings[0].RoomCode != "3.44" {
		t.Errorf("RoomCode = %q, 期望 3.44", bookings.bookings[0].RoomCode)
	}
	if bookings.bookings[0].RoomLabel != "3.44-Lecture Room" {
		t.Error("原始标签应原样保留")
	}
}

func TestIngestInvalidatesCache(t *testing.T) {
	bookings := newMockBookingRepo()
	ingest, avail := newIngestFixture(t, bookings)

	// 预热缓存：此刻无预订，3.44 空闲
	resp, err := avail.FreeRoomsNow(context.Background())
	if err != nil {
		t.Fatalf("FreeRoomsNow 失败: %v", err)
	}
	if !freeCodes(resp)["3.44"] {
		t.Fatal("导入前 3.44 应空闲")
	}

	// 换代：周一 09:00-12:00 占用 3.44
	req := validIngestRequest()
	req.Bookings = []dto.IngestBookingRecord{
		{SubjectCode: "COMP101", Section: "T01", Day: "Monday", StartTime: "09:00", EndTime: "12:00", RoomLabel: "3.44-Lecture Room"},
	}
	if _, err := ingest.Replace(context.Background(), req); err != nil {
		t.Fatalf("Replace 失败: %v", err)
	}

	// 缓存已清空，查询立即回源到新一代数据
	resp, err = avail.FreeRoomsNow(context.Background())
	if err != nil {
		t.Fatalf("FreeRoomsNow 失败: %v", err)
	}
	if freeCodes(resp)["3.44"] {
		t.Error("换代后查询仍返回旧缓存")
	}
}

func TestIngestRejectsInvalidBatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.IngestRequest)
	}{
		{"星期名非法", func(r *dto.IngestRequest) { r.Bookings[0].Day = "Someday" }},
		{"起始时刻非法", func(r *dto.IngestRequest) { r.Bookings[0].StartTime = "9:00" }},
		{"结束时刻非法", func(r *dto.IngestRequest) { r.Bookings[1].EndTime = "25:00" }},
		{"起止颠倒", func(r *dto.IngestRequest) { r.Bookings[0].StartTime, r.Bookings[0].EndTime = "10:30", "09:00" }},
		{"起止相等", func(r *dto.IngestRequest) { r.Bookings[0].EndTime = r.Bookings[0].StartTime }},
		{"目录短码重复", func(r *dto.IngestRequest) { r.Rooms[1].RoomCode = r.Rooms[0].RoomCode }},
		{"目录短码缺失", func(r *dto.IngestRequest) { r.Rooms[0].RoomCode = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := newMockBookingRepo()
			ingest, _ := newIngestFixture(t, bookings)

			req := validIngestRequest()
			tt.mutate(req)
			_, err := ingest.Replace(context.Background(), req)
			if _, ok := pkgerrors.AsInvalidQuery(err); !ok {
				t.Fatalf("期望 InvalidQueryError, 实际 %v", err)
			}
			// 任何一条非法即整批拒绝，不触碰数据库
			if bookings.replaced != 0 {
				t.Error("非法批次不应执行换代")
			}
		})
	}
}
