// Package dedup suppresses duplicate processing of retried gateway
// deliveries. The gateway assigns a fresh smsId per retry, so identity is
// derived from the sender and the message content instead.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/relieflink/report-gateway/pkg/logger"
	"github.com/relieflink/report-gateway/pkg/redis"
)

type Config struct {
	// Window is how long an identical sender+message pair is considered
	// the same logical report. Zero disables dedup entirely.
	Window time.Duration

	KeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		Window:    10 * time.Minute,
		KeyPrefix: "dedup:",
	}
}

type Service struct {
	redis  redis.RedisAdapter
	config Config
}

func New(redisAdapter redis.RedisAdapter, config Config) *Service {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "dedup:"
	}
	return &Service{redis: redisAdapter, config: config}
}

func (s *Service) Enabled() bool {
	return s.config.Window > 0
}

// Seen atomically claims the sender+message pair for the window. It
// returns true if an identical pair was already claimed, meaning the
// caller should skip processing. Redis errors fail open: risking a
// duplicate record beats dropping a live distress report.
func (s *Service) Seen(ctx context.Context, sender, message string) bool {
	if !s.Enabled() {
		return false
	}

	key := s.config.KeyPrefix + Fingerprint(sender, message)
	claimed, err := s.redis.SetNX(key, []byte("1"), s.config.Window)
	if err != nil {
		logger.Warn("dedup check failed, continuing", "sender", sender, "error", err)
		return false
	}
	if !claimed {
		logger.Info("duplicate delivery suppressed", "sender", sender)
		return true
	}
	return false
}

// Fingerprint hashes the sender and the whitespace-normalized message.
func Fingerprint(sender, message string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")
	sum := sha256.Sum256([]byte(sender + "\n" + normalized))
	return hex.EncodeToString(sum[:])
}
