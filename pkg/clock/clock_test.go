package clock

import (
	"testing"
	"time"
)

// fixedClock 固定时钟，用于测试
type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

func TestNewNormalizer_InvalidTimezone(t *testing.T) {
	_, err := NewNormalizer("Mars/Olympus_Mons", nil)
	if err == nil {
		t.Fatal("非法时区应返回错误")
	}
}

func TestNormalizer_At_IndependentOfInputZone(t *testing.T) {
	n, err := NewNormalizer("Asia/Dubai", nil)
	if err != nil {
		t.Fatalf("NewNormalizer 应成功: %v", err)
	}

	// UTC 2026-01-05 06:30 = 迪拜 2026-01-05（周一）10:30
	utc := time.Date(2026, 1, 5, 6, 30, 0, 0, time.UTC)
	day, hhmm := n.At(utc)
	if day != "Monday" {
		t.Errorf("期望 Monday，实际=%s", day)
	}
	if hhmm != "10:30" {
		t.Errorf("期望 10:30，实际=%s", hhmm)
	}

	// 同一瞬间换个输入时区表达，结果必须一致
	ny, _ := time.LoadLocation("America/New_York")
	day2, hhmm2 := n.At(utc.In(ny))
	if day2 != day || hhmm2 != hhmm {
		t.Errorf("归一化结果不应依赖输入时区: (%s,%s) vs (%s,%s)", day, hhmm, day2, hhmm2)
	}
}

func TestNormalizer_At_DayBoundaryInZone(t *testing.T) {
	n, _ := NewNormalizer("Asia/Dubai", nil)

	// UTC 周日 21:00 = 迪拜周一 01:00，星期名必须按配置时区判定
	utc := time.Date(2026, 1, 4, 21, 0, 0, 0, time.UTC)
	day, hhmm := n.At(utc)
	if day != "Monday" || hhmm != "01:00" {
		t.Errorf("期望 (Monday, 01:00)，实际=(%s, %s)", day, hhmm)
	}
}

func TestAddOffset_RollsOverDay(t *testing.T) {
	n, _ := NewNormalizer("Asia/Dubai", nil)
	loc := n.Location()

	// 周一 23:45 + 30 分钟 → 周二 00:15
	mon := time.Date(2026, 1, 5, 23, 45, 0, 0, loc)
	day, hhmm := n.At(AddOffset(mon, 30))
	if day != "Tuesday" || hhmm != "00:15" {
		t.Errorf("期望 (Tuesday, 00:15)，实际=(%s, %s)", day, hhmm)
	}

	// 负偏移跨天回退
	day, hhmm = n.At(AddOffset(mon, -1440))
	if day != "Sunday" || hhmm != "23:45" {
		t.Errorf("期望 (Sunday, 23:45)，实际=(%s, %s)", day, hhmm)
	}
}

func TestNormalizer_Now_UsesInjectedClock(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Dubai")
	fixed := time.Date(2026, 1, 9, 14, 5, 0, 0, loc) // 周五
	n, _ := NewNormalizer("Asia/Dubai", fixedClock{t: fixed})

	day, hhmm := n.Now()
	if day != "Friday" || hhmm != "14:05" {
		t.Errorf("期望 (Friday, 14:05)，实际=(%s, %s)", day, hhmm)
	}
}

func TestDayIndex(t *testing.T) {
	if idx, ok := DayIndex("Monday"); !ok || idx != 0 {
		t.Errorf("Monday 应为序号 0")
	}
	if idx, ok := DayIndex("Sunday"); !ok || idx != 6 {
		t.Errorf("Sunday 应为序号 6")
	}
	if _, ok := DayIndex("Funday"); ok {
		t.Error("非法星期名应返回 ok=false")
	}
}
