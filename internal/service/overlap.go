package service

import "regexp"

// ── 区间重叠规则 ────────────────────────────────────────────
//
// 全系统唯一的区间重叠实现。所有查询形态（瞬时、偏移、显式时段、
// 周视图网格）都必须归约为对本文件两个函数的调用，不得另写变体。
//
// 边界约定：半开区间 [a,b) 与 [c,d) 冲突当且仅当 a < d && b > c。
// 瞬时查询等价于 [t, t+ε)：start <= t && end > t——起点含、终点不含，
// 10:00 下课的教室在 10:00 整点即视为空闲。
//
// 时刻一律为零填充的 24 小时制 HH:mm 字符串，字典序即时间序，
// 直接用字符串比较。
// ─────────────────────────────────────────────────────────────

var hhmmRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// validHHMM 校验零填充 24 小时制 HH:mm
func validHHMM(s string) bool {
	return hhmmRe.MatchString(s)
}

// overlaps 半开区间 [aStart,aEnd) 与 [bStart,bEnd) 是否冲突
func overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

// occupiedAt 半开区间 [start,end) 在时刻 t 是否占用
func occupiedAt(start, end, t string) bool {
	return start <= t && end > t
}
