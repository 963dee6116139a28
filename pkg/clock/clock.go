package clock

import (
	"fmt"
	"time"
)

// ── 时钟归一化 ──────────────────────────────────────────────
//
// 职责：把"现在"或任意时刻归一化为固定民用时区下的 (星期名, HH:mm)。
//
// 设计决策：
//   - 星期名使用源时间表的周一优先固定顺序，全系统以它为准，不用 ISO 编号
//   - 宿主时钟通过 Clock 接口注入，测试可替换为固定时钟
//   - 时区标识非法属于致命启动错误，不在每次请求时兜底
// ─────────────────────────────────────────────────────────────

// Days 规范星期名，周一优先。索引即全系统的星期序。
var Days = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DayIndex 返回规范星期名的序号（周一=0）；非法名称返回 ok=false
func DayIndex(name string) (int, bool) {
	for i, d := range Days {
		if d == name {
			return i, true
		}
	}
	return 0, false
}

// Clock 宿主时钟能力接口
type Clock interface {
	Now() time.Time
}

// SystemClock 真实系统时钟
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Normalizer 固定时区时钟归一化器
type Normalizer struct {
	loc *time.Location
	clk Clock
}

// NewNormalizer 创建归一化器并加载配置时区
// 时区标识非法时返回错误，调用方应视为致命启动错误
func NewNormalizer(timezone string, clk Clock) (*Normalizer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("加载预订时区 %q 失败: %w", timezone, err)
	}
	if clk == nil {
		clk = SystemClock{}
	}
	return &Normalizer{loc: loc, clk: clk}, nil
}

// Now 当前时刻的 (星期名, HH:mm)，始终以配置时区表达
func (n *Normalizer) Now() (string, string) {
	return n.At(n.clk.Now())
}

// At 任意时刻的 (星期名, HH:mm)，始终以配置时区表达
func (n *Normalizer) At(t time.Time) (string, string) {
	local := t.In(n.loc)
	// time.Weekday 周日=0，转换为周一优先序
	idx := (int(local.Weekday()) + 6) % 7
	return Days[idx], local.Format("15:04")
}

// NowInstant 配置时区下的当前时刻
func (n *Normalizer) NowInstant() time.Time {
	return n.clk.Now().In(n.loc)
}

// AddOffset 时刻加偏移分钟数，跨天自然进位（由 At 重新归一化出新星期名）
func AddOffset(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// Location 配置的民用时区
func (n *Normalizer) Location() *time.Location {
	return n.loc
}
