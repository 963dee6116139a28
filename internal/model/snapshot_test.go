package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleSnapshot() *WeeklySnapshot {
	return &WeeklySnapshot{
		GeneratedAt: "2026-01-05T09:00:00+04:00",
		Slots:       []string{"08:30", "09:00", "09:30"},
		Days: []DayGrid{
			{
				Day: "Monday",
				Rooms: []RoomGrid{
					{RoomCode: "4.46", Availability: BitVector{1, 0, 0}},
					{RoomCode: "4.47", Availability: BitVector{1, 1, 1}},
				},
			},
			{
				Day: "Tuesday",
				Rooms: []RoomGrid{
					{RoomCode: "4.46", Availability: BitVector{1, 1, 1}},
					{RoomCode: "4.47", Availability: BitVector{0, 0, 1}},
				},
			},
		},
	}
}

func TestWeeklySnapshot_JSONRoundTrip(t *testing.T) {
	orig := sampleSnapshot()

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	var restored WeeklySnapshot
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}

	if !reflect.DeepEqual(orig, &restored) {
		t.Errorf("快照序列化往返后应逐位一致:\n原始=%+v\n还原=%+v", orig, &restored)
	}
}

func TestWeeklySnapshot_DiffBits(t *testing.T) {
	a := sampleSnapshot()

	// 与自身比对：0 位差异
	if d := a.DiffBits(sampleSnapshot()); d != 0 {
		t.Errorf("相同网格差异应为 0，实际=%d", d)
	}

	// 翻转两位
	b := sampleSnapshot()
	b.Days[0].Rooms[0].Availability[0] = 0
	b.Days[1].Rooms[1].Availability[2] = 0
	if d := b.DiffBits(a); d != 2 {
		t.Errorf("期望差异 2 位，实际=%d", d)
	}

	// 无上一代：全量差异
	if d := a.DiffBits(nil); d != a.TotalBits() {
		t.Errorf("无上一代时应为全量差异 %d，实际=%d", a.TotalBits(), d)
	}

	// 形状变化（教室集合不同）：全量差异
	c := sampleSnapshot()
	c.Days[0].Rooms = c.Days[0].Rooms[:1]
	if d := c.DiffBits(a); d != c.TotalBits() {
		t.Errorf("形状不一致应为全量差异 %d，实际=%d", c.TotalBits(), d)
	}
}
