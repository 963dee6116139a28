package dto

// RegenerateResponse 周视图重生成结果
// Published=false 表示新网格差异未超过阈值而被丢弃，已发布快照保持不变
type RegenerateResponse struct {
	Published   bool   `json:"published"`
	ChangedBits int    `json:"changed_bits"`
	GeneratedAt string `json:"generated_at"`
}
