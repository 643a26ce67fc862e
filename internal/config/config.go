package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/relieflink/report-gateway/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every environment-sourced value the gateway uses. No other
// code reads env vars directly.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"report_gateway"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	// Webhook verification. Empty secret disables verification entirely,
	// which is a deployment decision, not a pipeline one.
	WebhookSecret string `env:"WEBHOOK_SHARED_SECRET"`

	// Dedup window for retried gateway deliveries. Zero disables dedup.
	DedupWindow time.Duration `env:"DEDUP_WINDOW" default:"10m"`

	ClassifierAPIKey      string        `env:"CLASSIFIER_API_KEY"`
	ClassifierBaseURL     string        `env:"CLASSIFIER_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	ClassifierModel       string        `env:"CLASSIFIER_MODEL" default:"gemini-2.0-flash"`
	ClassifierTemperature float64       `env:"CLASSIFIER_TEMPERATURE" default:"0.1"`
	ClassifierTimeout     time.Duration `env:"CLASSIFIER_TIMEOUT" default:"25s"`

	GeocoderBaseURL  string        `env:"GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	GeocoderTimeout  time.Duration `env:"GEOCODER_TIMEOUT" default:"10s"`
	GeocoderCacheTTL time.Duration `env:"GEOCODER_CACHE_TTL" default:"1h"`

	ReplyQueueName              string        `env:"REPLY_QUEUE_NAME" default:"sms:replies"`
	ReplyQueueConsumerGroup     string        `env:"REPLY_QUEUE_CONSUMER_GROUP" default:"reply-senders"`
	ReplyQueueConsumerName      string        `env:"REPLY_QUEUE_CONSUMER_NAME" default:"reply-sender"`
	ReplyQueueMaxRetries        int           `env:"REPLY_QUEUE_MAX_RETRIES" default:"3"`
	ReplyQueueVisibilityTimeout time.Duration `env:"REPLY_QUEUE_VISIBILITY_TIMEOUT" default:"30s"`
	ReplyQueuePollInterval      time.Duration `env:"REPLY_QUEUE_POLL_INTERVAL" default:"1s"`
	ReplyQueueBatchSize         int64         `env:"REPLY_QUEUE_BATCH_SIZE" default:"10"`
	ReplyQueueMaxLen            int64         `env:"REPLY_QUEUE_MAX_LEN"`
	ReplyQueueEnableDLQ         bool          `env:"REPLY_QUEUE_ENABLE_DLQ" default:"1"`

	ProviderPrimaryUrl   string `env:"PROVIDER_PRIMARY_URL"`
	ProviderSecondaryUrl string `env:"PROVIDER_SECONDARY_URL"`
	ProviderBackupUrl    string `env:"PROVIDER_BACKUP_URL"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
