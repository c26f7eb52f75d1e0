package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	CRDBDSN        string
	MongoURI       string
	RedisAddr      string
	RabbitURL      string
	PaymentSvcURL  string
	IdempotencyTTL time.Duration
	NotifyTimeout  time.Duration
	OTLPEndpoint   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	idempTTL, _ := time.ParseDuration(os.Getenv("IDEMPOTENCY_TTL"))
	if idempTTL == 0 {
		idempTTL = time.Hour
	}
	notifyTimeout, _ := time.ParseDuration(os.Getenv("NOTIFY_TIMEOUT"))
	if notifyTimeout == 0 {
		notifyTimeout = 5 * time.Second
	}
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return &Config{
		ListenAddr:     addr,
		CRDBDSN:        os.Getenv("CRDB_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		PaymentSvcURL:  os.Getenv("PAYMENT_SVC_URL"),
		IdempotencyTTL: idempTTL,
		NotifyTimeout:  notifyTimeout,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
