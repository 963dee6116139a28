package service

import (
	"fmt"
	"strings"

	"github.com/tahayparker/vacansee-sub001/config"
)

// ── 教室标识解析 ────────────────────────────────────────────
//
// 职责：
//   - ShortCodeOf：从可能带描述后缀的教室标签提取规范短码（分隔符前缀）
//   - Expand：合并/分区教室的互斥展开。合并教室与其分区在物理上是
//     同一空间，占用任何一方即占用对方，即便时间上毫无重叠
//   - IsExcluded：按名称子串排除行政/虚拟教室，命中者永不上报
//
// 展开关系刻意保持不对称：查询分区只返回 {自身, 合并码}，不含兄弟
// 分区——一个分区被占不应推导出兄弟分区也被占。
// ─────────────────────────────────────────────────────────────

// RoomResolver 教室标识与分组解析器，运行期只读
type RoomResolver struct {
	delimiter  string
	combined   map[string][]string // 合并码 → 两个分区码
	partOf     map[string]string   // 分区码 → 合并码
	exclusions []string            // 已转小写的排除子串
}

// NewRoomResolver 从配置构建解析器并校验分组关系表
// 关系表畸形（分区数不是 2、码重复出现、合并码自引用）属于致命启动错误
func NewRoomResolver(cfg *config.BookingConfig, rooms *config.RoomsConfig) (*RoomResolver, error) {
	r := &RoomResolver{
		delimiter: cfg.RoomDelimiter,
		combined:  make(map[string][]string, len(rooms.Groups)),
		partOf:    make(map[string]string),
	}

	for combinedCode, parts := range rooms.Groups {
		if len(parts) != 2 {
			return nil, fmt.Errorf("分组关系表畸形: 合并教室 %q 必须恰有 2 个分区，实际 %d 个", combinedCode, len(parts))
		}
		if _, dup := r.combined[combinedCode]; dup {
			return nil, fmt.Errorf("分组关系表畸形: 合并教室 %q 重复定义", combinedCode)
		}
		for _, p := range parts {
			if p == combinedCode {
				return nil, fmt.Errorf("分组关系表畸形: 教室 %q 不能同时作为合并码与分区码", combinedCode)
			}
			if prev, dup := r.partOf[p]; dup {
				return nil, fmt.Errorf("分组关系表畸形: 分区 %q 同时属于 %q 与 %q", p, prev, combinedCode)
			}
			r.partOf[p] = combinedCode
		}
		r.combined[combinedCode] = append([]string(nil), parts...)
	}
	// 禁止传递分组：合并码不得再是别的关系的分区成员
	for combinedCode := range r.combined {
		if _, isPart := r.partOf[combinedCode]; isPart {
			return nil, fmt.Errorf("分组关系表畸形: 合并教室 %q 又是其他关系的分区成员", combinedCode)
		}
	}

	r.exclusions = make([]string, 0, len(rooms.Exclusions))
	for _, pat := range rooms.Exclusions {
		if pat = strings.TrimSpace(pat); pat != "" {
			r.exclusions = append(r.exclusions, strings.ToLower(pat))
		}
	}

	return r, nil
}

// ShortCodeOf 提取教室标签的规范短码：分隔符前的前缀，无分隔符则取整个标签
func (r *RoomResolver) ShortCodeOf(label string) string {
	label = strings.TrimSpace(label)
	if i := strings.Index(label, r.delimiter); i >= 0 {
		return strings.TrimSpace(label[:i])
	}
	return label
}

// Expand 互斥展开：
//   - 合并码 → {自身, 分区A, 分区B}
//   - 分区码 → {自身, 合并码}（不含兄弟分区）
//   - 普通码 → {自身}
func (r *RoomResolver) Expand(code string) []string {
	if parts, ok := r.combined[code]; ok {
		out := make([]string, 0, 1+len(parts))
		out = append(out, code)
		out = append(out, parts...)
		return out
	}
	if combinedCode, ok := r.partOf[code]; ok {
		return []string{code, combinedCode}
	}
	return []string{code}
}

// IsExcluded 名称是否命中排除子串（大小写不敏感）
func (r *RoomResolver) IsExcluded(fullName string) bool {
	name := strings.ToLower(fullName)
	for _, pat := range r.exclusions {
		if strings.Contains(name, pat) {
			return true
		}
	}
	return false
}
