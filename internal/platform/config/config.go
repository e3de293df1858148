package config

import "os"

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string // empty: run on in-memory stores
	RedisURL      string // empty: notifications are no-ops
	KafkaBrokers  string // comma-separated; empty: activity stays local
	KafkaTopic    string
	JWTSigningKey string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("TRAMITA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("KAFKA_ACTIVITY_TOPIC")
	if topic == "" {
		topic = "tramita.activity"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
	}
}
