package model

import "time"

// Room 教室目录表 — 对应 rooms
//
// RoomCode 即规范短码，在一次导入快照内唯一（主键约束保证）。
type Room struct {
	RoomCode string `gorm:"type:varchar(20);primaryKey"  json:"room_code"`
	FullName string `gorm:"type:varchar(100);not null"   json:"full_name"`
	Capacity *int   `gorm:"type:smallint"                json:"capacity,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }
