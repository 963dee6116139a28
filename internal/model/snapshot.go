package model

// ── 周视图快照制品 ──────────────────────────────────────────
//
// WeeklySnapshot 是引擎对外持久发布的唯一制品：整周 (星期 × 教室 × 槽位)
// 的二值可用网格。按"版本化制品"对待——新一代要么整体替换已发布的快照，
// 要么因差异不显著被整体丢弃，绝不原地修改。
// 序列化必须无损往返：一次生成内位向量长度恒定。
// ─────────────────────────────────────────────────────────────

// BitVector 槽位可用位向量：1=空闲，0=占用
type BitVector []int

// RoomGrid 单教室一天的可用位向量
type RoomGrid struct {
	RoomCode     string    `json:"room_code"`
	Availability BitVector `json:"availability"`
}

// DayGrid 单日全教室网格
type DayGrid struct {
	Day   string     `json:"day"`
	Rooms []RoomGrid `json:"rooms"`
}

// WeeklySnapshot 整周可用快照，按规范星期序排列
type WeeklySnapshot struct {
	GeneratedAt string    `json:"generated_at"` // RFC 3339，预订时区
	Slots       []string  `json:"slots"`        // 槽位起始时刻 HH:mm，一次生成内长度恒定
	Days        []DayGrid `json:"days"`
}

// TotalBits 网格总位数
func (s *WeeklySnapshot) TotalBits() int {
	total := 0
	for _, d := range s.Days {
		for _, r := range d.Rooms {
			total += len(r.Availability)
		}
	}
	return total
}

// DiffBits 与上一代快照逐位比对，返回差异位数
// 网格形状（槽位集、星期序、教室集）不一致时视为全量差异，必然触发重发
func (s *WeeklySnapshot) DiffBits(prev *WeeklySnapshot) int {
	if prev == nil {
		return s.TotalBits()
	}
	if !sameShape(s, prev) {
		return s.TotalBits()
	}

	diff := 0
	for i, d := range s.Days {
		for j, r := range d.Rooms {
			prevBits := prev.Days[i].Rooms[j].Availability
			for k, bit := range r.Availability {
				if bit != prevBits[k] {
					diff++
				}
			}
		}
	}
	return diff
}

func sameShape(a, b *WeeklySnapshot) bool {
	if len(a.Slots) != len(b.Slots) || len(a.Days) != len(b.Days) {
		return false
	}
	for i := range a.Slots {
		if a.Slots[i] != b.Slots[i] {
			return false
		}
	}
	for i := range a.Days {
		if a.Days[i].Day != b.Days[i].Day || len(a.Days[i].Rooms) != len(b.Days[i].Rooms) {
			return false
		}
		for j := range a.Days[i].Rooms {
			ra, rb := a.Days[i].Rooms[j], b.Days[i].Rooms[j]
			if ra.RoomCode != rb.RoomCode || len(ra.Availability) != len(rb.Availability) {
				return false
			}
		}
	}
	return true
}
