package dto

// ── 可用性查询 ──

// CheckRequest 指定教室的显式时段查询
// 时段为单个民用日内的半开区间 [start, end)，不允许跨午夜
type CheckRequest struct {
	Room  string `form:"room"  binding:"required"`
	Day   string `form:"day"   binding:"required"`
	Start string `form:"start" binding:"required"` // HH:mm
	End   string `form:"end"   binding:"required"` // HH:mm
}

// CheckedQuery 规范化后的查询回显
type CheckedQuery struct {
	RoomCode  string `json:"room_code"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ConflictResponse 造成不可用的预订记录（展示用）
type ConflictResponse struct {
	SubjectCode string `json:"subject_code"`
	Section     string `json:"section"`
	Day         string `json:"day"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	RoomCode    string `json:"room_code"`
	Instructor  string `json:"instructor"`
}

// CheckResponse 显式时段查询结果
// Available 为 false 时 Conflicts 按开始时间升序给出全部冲突记录
type CheckResponse struct {
	Available      bool               `json:"available"`
	CheckedAgainst CheckedQuery       `json:"checked_against"`
	Conflicts      []ConflictResponse `json:"conflicts"`
}

// FreeRoomsResponse 瞬时/偏移查询结果：该时刻全部空闲教室
type FreeRoomsResponse struct {
	Day   string         `json:"day"`
	Time  string         `json:"time"`
	Rooms []RoomResponse `json:"rooms"`
}
