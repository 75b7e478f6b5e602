package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Mongo    MongoConfig
	Booking  BookingConfig
	Payment  PaymentConfig
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
	GroupID string
	Topics  TopicConfig
}

type TopicConfig struct {
	BookingEvents string
	DeadLetter    string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type BookingConfig struct {
	// UnitPrice is the fixed cost per ticket used to compute settlement totals.
	UnitPrice float64
	// Charge is the fixed per-booking amount authorized at creation time.
	Charge float64
	// MaxRetries bounds retry attempts against collaborators before
	// surfacing ServiceUnavailable.
	MaxRetries int
	// RetryBackoff is the base delay for exponential backoff between attempts.
	RetryBackoff time.Duration
	// CallTimeout bounds each individual collaborator call.
	CallTimeout time.Duration
	// SettlementLockTTL caps how long a per-user settlement lock may be held.
	SettlementLockTTL time.Duration
}

type PaymentConfig struct {
	// Mode selects the authorizer implementation: "http" or "stripe".
	Mode       string
	ServiceURL string
	StripeKey  string
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
			Username:     getEnv("DB_USERNAME", "booking_user"),
			Password:     getEnv("DB_PASSWORD", "booking_pass"),
			Database:     getEnv("DB_NAME", "booking_db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			GroupID: getEnv("KAFKA_GROUP_ID", "notification-consumer-group"),
			Topics: TopicConfig{
				BookingEvents: getEnv("KAFKA_TOPIC_BOOKING_EVENTS", "booking.events"),
				DeadLetter:    getEnv("KAFKA_TOPIC_DEAD_LETTER", "booking.events.dlq"),
			},
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGO_DB", "notification_db"),
			Collection: getEnv("MONGO_COLLECTION", "notifications"),
		},
		Booking: BookingConfig{
			UnitPrice:         getEnvFloat("BOOKING_UNIT_PRICE", 100.0),
			Charge:            getEnvFloat("BOOKING_CHARGE", 100.0),
			MaxRetries:        getEnvInt("BOOKING_MAX_RETRIES", 3),
			RetryBackoff:      time.Duration(getEnvInt("BOOKING_RETRY_BACKOFF_MS", 200)) * time.Millisecond,
			CallTimeout:       time.Duration(getEnvInt("BOOKING_CALL_TIMEOUT_MS", 3000)) * time.Millisecond,
			SettlementLockTTL: time.Duration(getEnvInt("SETTLEMENT_LOCK_TTL_SECONDS", 30)) * time.Second,
		},
		Payment: PaymentConfig{
			Mode:       getEnv("PAYMENT_MODE", "http"),
			ServiceURL: getEnv("PAYMENT_SERVICE_URL", "http://localhost:8004"),
			StripeKey:  getEnv("STRIPE_SECRET_KEY", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
