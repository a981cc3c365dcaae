package service

import (
	"context"

	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

type roomService struct {
	rooms repository.RoomRepository
}

func NewRoomService(rooms repository.RoomRepository) RoomService {
	return &roomService{rooms: rooms}
}

func (s *roomService) GetRoom(ctx context.Context, roomID string) (*entity.Room, error) {
	return s.rooms.GetByID(ctx, roomID)
}

func (s *roomService) ListHotelRooms(ctx context.Context, hotelID string) ([]*entity.Room, error) {
	return s.rooms.ListByHotel(ctx, hotelID)
}
