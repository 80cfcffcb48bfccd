package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Reservation ReservationConfig
	Assets      AssetsConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	ReservationEvents string
}

// ReservationConfig holds the booking rules that are fixed per deployment.
type ReservationConfig struct {
	// BufferMinutes is the mandatory cleanup gap after a booking ends.
	BufferMinutes int
	// Timezone is the cafe's fixed timezone for all reservation instants.
	Timezone string
	// SweepInterval is how often the auto-complete sweep runs.
	SweepInterval time.Duration
	// CodeRetries bounds booking-code regeneration on unique collisions.
	CodeRetries int
	// SlotLockTTL bounds how long a table slot stays locked during a write.
	SlotLockTTL time.Duration
}

// AssetsConfig points at the external asset host for payment proof images.
type AssetsConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Folder    string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "cafe_user"),
			Password:     getEnv("DB_PASSWORD", "cafe_pass"),
			Database:     getEnv("DB_NAME", "cafe_reservation"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				ReservationEvents: getEnv("KAFKA_TOPIC_RESERVATIONS", "cafe.reservations.events"),
			},
		},
		Reservation: ReservationConfig{
			BufferMinutes: getEnvInt("RESERVATION_BUFFER_MINUTES", 30),
			Timezone:      getEnv("RESERVATION_TIMEZONE", "Asia/Jakarta"),
			SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
			CodeRetries:   getEnvInt("BOOKING_CODE_RETRIES", 3),
			SlotLockTTL:   time.Duration(getEnvInt("SLOT_LOCK_TTL_SECONDS", 30)) * time.Second,
		},
		Assets: AssetsConfig{
			BaseURL:   getEnv("ASSET_HOST_URL", "https://api.cloudinary.com/v1_1/cafe"),
			APIKey:    getEnv("ASSET_HOST_KEY", ""),
			APISecret: getEnv("ASSET_HOST_SECRET", ""),
			Folder:    getEnv("ASSET_HOST_FOLDER", "cafe/payment-proofs"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
