package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestParseConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: \"9090\"\n")

	v, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, ConfirmationModePayment, cfg.Booking.ConfirmationMode)
	assert.Equal(t, 30*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 5*time.Second, cfg.Booking.LockTimeout)
	assert.Equal(t, 3, cfg.Booking.MaxRetries)
	assert.Equal(t, time.Minute, cfg.Worker.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Empty(t, cfg.JWT.Secret, "no built-in signing key")
}

func TestParseConfig_FileValues(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: memory
  seed_rooms:
    - id: room-1
      hotel_id: hotel-1
      owner_id: owner-1
      title: Deluxe
      price_per_night: 120.5
      capacity: 2
      inventory: 3
booking:
  confirmation_mode: auto
  hold_ttl: 0s
  retry_base_delay: 10ms
kafka:
  enabled: true
  brokers: broker:9092
`)

	v, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	require.Len(t, cfg.Database.SeedRooms, 1)
	assert.Equal(t, SeedRoom{ID: "room-1", HotelID: "hotel-1", OwnerID: "owner-1", Title: "Deluxe", PricePerNight: 120.5, Capacity: 2, Inventory: 3}, cfg.Database.SeedRooms[0])
	assert.Equal(t, ConfirmationModeAuto, cfg.Booking.ConfirmationMode)
	assert.Zero(t, cfg.Booking.HoldTTL)
	assert.Equal(t, 10*time.Millisecond, cfg.Booking.RetryBaseDelay)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "broker:9092", cfg.Kafka.Brokers)
}

func TestParseConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, "booking:\n  confirmation_mode: payment\n")
	t.Setenv("HOTEL_BOOKING_CONFIRMATION_MODE", "auto")
	t.Setenv("HOTEL_PAYMENT_KEY_SECRET", "s3cret")

	v, err := LoadConfigFrom(dir)
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, ConfirmationModeAuto, cfg.Booking.ConfirmationMode)
	assert.Equal(t, "s3cret", cfg.Payment.KeySecret)
}

func TestParseConfig_RejectsUnknownMode(t *testing.T) {
	dir := writeConfig(t, "booking:\n  confirmation_mode: later\n")

	v, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	_, err = ParseConfig(v)
	assert.ErrorContains(t, err, "confirmation_mode")
}

func TestParseConfig_RejectsRetryBudget(t *testing.T) {
	for _, retries := range []string{"-1", "64"} {
		dir := writeConfig(t, "booking:\n  max_retries: "+retries+"\n")

		v, err := LoadConfigFrom(dir)
		require.NoError(t, err)

		_, err = ParseConfig(v)
		assert.ErrorContains(t, err, "max_retries", retries)
	}
}

func TestLoadConfigFrom_MissingFile(t *testing.T) {
	_, err := LoadConfigFrom(t.TempDir())
	assert.Error(t, err)
}
