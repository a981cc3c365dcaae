package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"gorm.io/gorm"
)

type roomModel struct {
	ID            string  `gorm:"column:id;primaryKey"`
	HotelID       string  `gorm:"column:hotel_id"`
	OwnerID       string  `gorm:"column:owner_id"`
	Title         string  `gorm:"column:title"`
	Type          string  `gorm:"column:type"`
	PricePerNight float64 `gorm:"column:price_per_night"`
	Capacity      int     `gorm:"column:capacity"`
	Inventory     int     `gorm:"column:inventory"`
}

func (roomModel) TableName() string {
	return "rooms"
}

func (m *roomModel) toEntity() *entity.Room {
	return &entity.Room{
		ID:            m.ID,
		HotelID:       m.HotelID,
		OwnerID:       m.OwnerID,
		Title:         m.Title,
		Type:          m.Type,
		PricePerNight: m.PricePerNight,
		Capacity:      m.Capacity,
		Inventory:     m.Inventory,
	}
}

type roomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	var model roomModel
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entity.ErrRoomNotFound
	}
	if err != nil {
		return nil, classifyError("get room", err)
	}
	return model.toEntity(), nil
}

func (r *roomRepository) ListByHotel(ctx context.Context, hotelID string) ([]*entity.Room, error) {
	var models []roomModel
	err := r.db.WithContext(ctx).Where("hotel_id = ?", hotelID).Order("title").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	rooms := make([]*entity.Room, 0, len(models))
	for i := range models {
		rooms = append(rooms, models[i].toEntity())
	}
	return rooms, nil
}
