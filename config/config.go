// Ininicializing common application configuration
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ConfirmationModeAuto    = "auto"
	ConfirmationModePayment = "payment"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"app_version"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

type DatabaseConfig struct {
	// postgres | memory
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// SeedRooms is loaded into the room catalog at startup
	SeedRooms []SeedRoom `mapstructure:"seed_rooms"`
}

type SeedRoom struct {
	ID            string  `mapstructure:"id"`
	HotelID       string  `mapstructure:"hotel_id"`
	OwnerID       string  `mapstructure:"owner_id"`
	Title         string  `mapstructure:"title"`
	Type          string  `mapstructure:"type"`
	PricePerNight float64 `mapstructure:"price_per_night"`
	Capacity      int     `mapstructure:"capacity"`
	Inventory     int     `mapstructure:"inventory"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Настройки пула соединений
	MaxRetries     int           `mapstructure:"max_retries"`
	PoolSize       int           `mapstructure:"pool_size"`
	MinIdleConns   int           `mapstructure:"min_idle_conns"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	PoolTimeout    time.Duration `mapstructure:"pool_timeout"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`

	// Redis sorted set for events that could not be published
	DeadLetterKey string `mapstructure:"dead_letter_key"`
	// upper bound a publish adds to a request
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type BookingConfig struct {
	// auto: сразу CONFIRMED, payment: PENDING до подтверждения оплаты
	ConfirmationMode string        `mapstructure:"confirmation_mode"`
	HoldTTL          time.Duration `mapstructure:"hold_ttl"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
}

type PaymentConfig struct {
	KeySecret string `mapstructure:"key_secret"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type WorkerConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// Validate rejects settings the reservation engine cannot run with.
// MaxBookingRetries ограничивает число повторов при временных ошибках хранилища
const MaxBookingRetries = 20

func (b BookingConfig) Validate() error {
	switch b.ConfirmationMode {
	case ConfirmationModeAuto, ConfirmationModePayment:
	default:
		return fmt.Errorf("unknown booking.confirmation_mode %q", b.ConfirmationMode)
	}
	if b.HoldTTL < 0 {
		return fmt.Errorf("booking.hold_ttl must not be negative")
	}
	if b.MaxRetries < 0 || b.MaxRetries > MaxBookingRetries {
		return fmt.Errorf("booking.max_retries must be between 0 and %d", MaxBookingRetries)
	}
	return nil
}

func LoadConfig() (*viper.Viper, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom reads config.yaml from dir. Every key can be overridden
// with HOTEL_<SECTION>_<KEY>.
func LoadConfigFrom(dir string) (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath(dir)
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix("HOTEL")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := c.Booking.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetServerAddress возвращает адрес для http.Server
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "hotel")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "hotel_booking")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_timeout", 4*time.Second)
	v.SetDefault("redis.idempotency_ttl", 24*time.Hour)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "reservations")
	v.SetDefault("kafka.dead_letter_key", "hotel_booking:events:dlq")
	v.SetDefault("kafka.publish_timeout", 2*time.Second)

	// Booking defaults
	v.SetDefault("booking.confirmation_mode", ConfirmationModePayment)
	v.SetDefault("booking.hold_ttl", 30*time.Minute)
	v.SetDefault("booking.lock_timeout", 5*time.Second)
	v.SetDefault("booking.max_retries", 3)
	v.SetDefault("booking.retry_base_delay", 50*time.Millisecond)

	v.SetDefault("payment.key_secret", "")
	v.SetDefault("jwt.secret", "")

	// Worker defaults
	v.SetDefault("worker.cleanup_interval", time.Minute)
	v.SetDefault("worker.batch_size", 100)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
}
