package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/hotel-booking/config"
	"github.com/sirupsen/logrus"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":   cfg.Host,
		"dbname": cfg.DBName,
	}).Info("Successfully connected to PostgreSQL")
	return db, nil
}

// NewGormDB wraps an open pool so the room catalog and the ledger share connections.
func NewGormDB(db *sql.DB, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	return gormDB, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL,
		title VARCHAR(255) NOT NULL,
		type VARCHAR(64) NOT NULL DEFAULT '',
		price_per_night NUMERIC(12,2) NOT NULL CHECK (price_per_night >= 0),
		capacity INTEGER NOT NULL DEFAULT 1,
		inventory INTEGER NOT NULL CHECK (inventory >= 0)
	)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		hotel_id TEXT NOT NULL,
		check_in TIMESTAMPTZ NOT NULL,
		check_out TIMESTAMPTZ NOT NULL,
		guest_count INTEGER NOT NULL CHECK (guest_count >= 1),
		total_price NUMERIC(12,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_status VARCHAR(20) NOT NULL DEFAULT 'unset',
		payment_order_id TEXT NOT NULL DEFAULT '',
		payment_id TEXT NOT NULL DEFAULT '',
		payment_signature TEXT NOT NULL DEFAULT '',
		paid_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (check_in < check_out)
	)`,

	`ALTER TABLE rooms ADD COLUMN IF NOT EXISTS owner_id TEXT NOT NULL DEFAULT ''`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_rooms_hotel_id ON rooms(hotel_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_owner_id ON rooms(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_room_overlap ON reservations(room_id, status, check_in, check_out)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user_id ON reservations(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_pending_expiry ON reservations(status, expires_at)`,
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}

	logrus.WithField("count", len(migrations)).Info("Database migrations completed successfully")
	return nil
}

// SeedRooms upserts catalog rows from configuration.
func SeedRooms(ctx context.Context, db *sql.DB, rooms []config.SeedRoom) error {
	query := `
		INSERT INTO rooms (id, hotel_id, owner_id, title, type, price_per_night, capacity, inventory)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			hotel_id = EXCLUDED.hotel_id,
			owner_id = EXCLUDED.owner_id,
			title = EXCLUDED.title,
			type = EXCLUDED.type,
			price_per_night = EXCLUDED.price_per_night,
			capacity = EXCLUDED.capacity,
			inventory = EXCLUDED.inventory`

	for _, room := range rooms {
		_, err := db.ExecContext(ctx, query,
			room.ID, room.HotelID, room.OwnerID, room.Title, room.Type,
			room.PricePerNight, room.Capacity, room.Inventory)
		if err != nil {
			return fmt.Errorf("failed to seed room %s: %w", room.ID, err)
		}
	}
	return nil
}
