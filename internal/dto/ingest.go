package dto

// ── 数据导入（抓取侧整体替换） ──

// IngestBookingRecord 抓取侧交付的原始预订记录
type IngestBookingRecord struct {
	SubjectCode string `json:"subject_code" binding:"required"`
	Section     string `json:"section"      binding:"required"`
	Day         string `json:"day"          binding:"required"`
	StartTime   string `json:"start_time"   binding:"required"`
	EndTime     string `json:"end_time"     binding:"required"`
	RoomLabel   string `json:"room_label"   binding:"required"`
	Instructor  string `json:"instructor"`
}

// IngestRoomEntry 抓取侧交付的教室目录条目
type IngestRoomEntry struct {
	FullName string `json:"full_name" binding:"required"`
	RoomCode string `json:"room_code" binding:"required"`
	Capacity *int   `json:"capacity"`
}

// IngestRequest 整体替换请求：预订与目录在单个事务内同时换代
type IngestRequest struct {
	Rooms    []IngestRoomEntry     `json:"rooms"    binding:"required"`
	Bookings []IngestBookingRecord `json:"bookings" binding:"required"`
}

// IngestResponse 整体替换结果
type IngestResponse struct {
	RoomCount    int `json:"room_count"`
	BookingCount int `json:"booking_count"`
}
