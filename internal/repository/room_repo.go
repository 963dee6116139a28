package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tahayparker/vacansee-sub001/internal/model"
)

// RoomRepository 教室目录数据访问接口
type RoomRepository interface {
	List(ctx context.Context) ([]model.Room, error)
	GetByCode(ctx context.Context, code string) (*model.Room, error)
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepo 创建 RoomRepository 实例
func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) List(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.WithContext(ctx).
		Order("full_name ASC").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).
		Where("room_code = ?", code).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}
