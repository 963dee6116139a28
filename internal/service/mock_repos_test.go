package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tahayparker/vacansee-sub001/config"
	"github.com/tahayparker/vacansee-sub001/internal/model"
	"github.com/tahayparker/vacansee-sub001/internal/repository"
	"github.com/tahayparker/vacansee-sub001/pkg/cache"
	"github.com/tahayparker/vacansee-sub001/pkg/clock"
)

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings []model.Booking
	rooms    []model.Room
	failList error // 非 nil 时所有读操作返回该错误
	replaced int   // ReplaceAll 调用次数
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{}
}

func (m *mockBookingRepo) ListAll(_ context.Context) ([]model.Booking, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	return append([]model.Booking(nil), m.bookings...), nil
}

func (m *mockBookingRepo) ListByDay(_ context.Context, day string) ([]model.Booking, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	var result []model.Booking
	for _, b := range m.bookings {
		if b.Day == day {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListByDayAndRooms(_ context.Context, day string, roomCodes []string) ([]model.Booking, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	codes := make(map[string]bool, len(roomCodes))
	for _, c := range roomCodes {
		codes[c] = true
	}
	var result []model.Booking
	for _, b := range m.bookings {
		if b.Day == day && codes[b.RoomCode] {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ReplaceAll(_ context.Context, rooms []model.Room, bookings []model.Booking) error {
	m.rooms = rooms
	m.bookings = bookings
	m.replaced++
	return nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms    map[string]*model.Room
	failList error
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room)}
}

func (m *mockRoomRepo) add(code, fullName string) {
	m.rooms[code] = &model.Room{RoomCode: code, FullName: fullName}
}

func (m *mockRoomRepo) List(_ context.Context) ([]model.Room, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	var result []model.Room
	for _, r := range m.rooms {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (m *mockRoomRepo) GetByCode(_ context.Context, code string) (*model.Room, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	if r, ok := m.rooms[code]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SnapshotStore ──

type mockSnapshotStore struct {
	saved    *model.WeeklySnapshot
	failSave error
	saves    int
}

func (m *mockSnapshotStore) Save(_ context.Context, snapshot *model.WeeklySnapshot) error {
	if m.failSave != nil {
		return m.failSave
	}
	m.saved = snapshot
	m.saves++
	return nil
}

func (m *mockSnapshotStore) Load(_ context.Context) (*model.WeeklySnapshot, error) {
	return m.saved, nil
}

// ── 固定时钟 ──

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

// ── 测试装配 ──

var errRepoDown = errors.New("数据库连接中断")

func testBookingConfig() *config.BookingConfig {
	return &config.BookingConfig{Timezone: "Asia/Dubai", RoomDelimiter: "-"}
}

func testRoomsConfig() *config.RoomsConfig {
	return &config.RoomsConfig{
		Groups:     map[string][]string{"4.467": {"4.46", "4.47"}},
		Exclusions: []string{"consultation", "online"},
	}
}

func testResolver(t interface{ Fatalf(string, ...interface{}) }) *RoomResolver {
	r, err := NewRoomResolver(testBookingConfig(), testRoomsConfig())
	if err != nil {
		t.Fatalf("构建解析器失败: %v", err)
	}
	return r
}

func testNormalizer(t interface{ Fatalf(string, ...interface{}) }, clk clock.Clock) *clock.Normalizer {
	n, err := clock.NewNormalizer("Asia/Dubai", clk)
	if err != nil {
		t.Fatalf("构建归一化器失败: %v", err)
	}
	return n
}

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{TTL: 10 * time.Minute, StaleAfter: 2 * time.Minute}
}

func testRepository(bookings *mockBookingRepo, rooms *mockRoomRepo) *repository.Repository {
	return &repository.Repository{Booking: bookings, Room: rooms}
}

func testLogger() *zap.Logger { return zap.NewNop() }

func testCache() *cache.Cache { return cache.New(testLogger()) }

// dubaiTime 构造迪拜时区的时刻
func dubaiTime(t interface{ Fatalf(string, ...interface{}) }, year int, month time.Month, day, hour, minute int) time.Time {
	loc, err := time.LoadLocation("Asia/Dubai")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}
