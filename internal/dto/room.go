package dto

// RoomResponse 教室目录条目
type RoomResponse struct {
	RoomCode string `json:"room_code"`
	FullName string `json:"full_name"`
	Capacity *int   `json:"capacity,omitempty"`
}
