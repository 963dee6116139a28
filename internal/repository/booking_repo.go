package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tahayparker/vacansee-sub001/internal/model"
)

// BookingRepository 预订记录数据访问接口
type BookingRepository interface {
	// ListAll 单条语句读取全量预订，保证快照生成读到一致的数据代
	ListAll(ctx context.Context) ([]model.Booking, error)
	ListByDay(ctx context.Context, day string) ([]model.Booking, error)
	ListByDayAndRooms(ctx context.Context, day string, roomCodes []string) ([]model.Booking, error)
	// ReplaceAll 在单个事务中整体换代：清空目录与预订后批量插入新快照
	ReplaceAll(ctx context.Context, rooms []model.Room, bookings []model.Booking) error
}

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Order("day ASC, room_code ASC, start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListByDay(ctx context.Context, day string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("day = ?", day).
		Order("room_code ASC, start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ListByDayAndRooms(ctx context.Context, day string, roomCodes []string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("day = ? AND room_code IN ?", day, roomCodes).
		Order("start_time ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) ReplaceAll(ctx context.Context, rooms []model.Room, bookings []model.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 硬删除旧代数据：替换场景无需保留
		if err := tx.Where("1 = 1").Delete(&model.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Room{}).Error; err != nil {
			return err
		}
		if len(rooms) > 0 {
			if err := tx.Create(&rooms).Error; err != nil {
				return err
			}
		}
		if len(bookings) > 0 {
			if err := tx.CreateInBatches(&bookings, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
