package appServer

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/hotel-booking/config"
	"github.com/ds124wfegd/hotel-booking/internal/database/memory"
	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/pkg/postgres"
	"github.com/sirupsen/logrus"
)

type storage struct {
	rooms  repository.RoomRepository
	ledger repository.ReservationLedger
	close  func()
}

// openStorage builds the room catalog and reservation ledger for the configured driver.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore(cfg.Booking.LockTimeout)
		for _, room := range cfg.Database.SeedRooms {
			store.AddRoom(seedToRoom(room))
		}
		logrus.WithField("rooms", len(cfg.Database.SeedRooms)).Warn("Using in-memory storage, reservations are lost on restart")
		return &storage{
			rooms:  store.Rooms(),
			ledger: store.Ledger(),
			close:  func() {},
		}, nil

	case config.DriverPostgres:
		db, err := postgres.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, err
		}

		// Run database migrations
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		if err := postgres.SeedRooms(ctx, db, cfg.Database.SeedRooms); err != nil {
			db.Close()
			return nil, err
		}

		gormDB, err := postgres.NewGormDB(db, cfg.Server.Mode == "debug")
		if err != nil {
			db.Close()
			return nil, err
		}

		return &storage{
			rooms:  repository.NewRoomRepository(gormDB),
			ledger: repository.NewReservationLedger(db, cfg.Booking.LockTimeout),
			close:  func() { db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database.driver %q", cfg.Database.Driver)
	}
}

func seedToRoom(r config.SeedRoom) entity.Room {
	return entity.Room{
		ID:            r.ID,
		HotelID:       r.HotelID,
		OwnerID:       r.OwnerID,
		Title:         r.Title,
		Type:          r.Type,
		PricePerNight: r.PricePerNight,
		Capacity:      r.Capacity,
		Inventory:     r.Inventory,
	}
}
