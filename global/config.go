package global

import (
	"os"
	"strconv"
	"time"
)

// AppConfig carries process-level settings. Everything is env-driven
// with defaults suitable for local development.
type AppConfig struct {
	GatewayID string // node id, also the snowflake node seed
	HTTPAddr  string // gin listen address

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string

	JWTSecret []byte
	JWTTTL    time.Duration

	SendQueueSize int // per-connection outbound buffer
}

var app *AppConfig

// Load reads configuration from the environment. Call once from main.
func Load() *AppConfig {
	if app != nil {
		return app
	}
	app = &AppConfig{
		GatewayID:     envStr("GATEWAY_ID", "msg_gw-1"),
		HTTPAddr:      envStr("HTTP_ADDR", ":8080"),
		RedisAddr:     envStr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),
		MongoURI:      envStr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: envStr("MONGO_DB", "pulsechat"),
		JWTSecret:     []byte(envStr("JWT_SECRET", "dev-only-secret")),
		JWTTTL:        2 * time.Hour,
		SendQueueSize: envInt("SEND_QUEUE_SIZE", 256),
	}
	return app
}

// Conf returns the loaded configuration; Load must have run.
func Conf() *AppConfig {
	if app == nil {
		panic("global: config not loaded, call global.Load first")
	}
	return app
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
