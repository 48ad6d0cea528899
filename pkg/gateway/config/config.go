// Package config loads the engine configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Questionnaire definitions loaded at startup (comma-separated JSON
	// file paths).
	QuestionnaireFiles []string

	// Durable key-value store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// In-memory store for single-node development when no Redis address is
	// configured.
	SessionTTL  time.Duration
	SnapshotTTL time.Duration

	// Object storage for recording artifacts. Empty bucket disables
	// recording upload.
	RecordingBucket string
	AWSRegion       string

	// Retry policy.
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
	RetryMaxRetries int

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration

	// Live WebSocket limits.
	WSMaxAudioFrameBytes int
	WSWriteTimeout       time.Duration

	MetricsNamespace string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                 envOr("VOICETER_ADDR", ":8080"),
		QuestionnaireFiles:   splitCSV(os.Getenv("VOICETER_QUESTIONNAIRE_FILES")),
		RedisAddr:            envOr("VOICETER_REDIS_ADDR", ""),
		RedisPassword:        os.Getenv("VOICETER_REDIS_PASSWORD"),
		RedisDB:              envIntOr("VOICETER_REDIS_DB", 0),
		SessionTTL:           envDurationOr("VOICETER_SESSION_TTL", 24*time.Hour),
		SnapshotTTL:          envDurationOr("VOICETER_SNAPSHOT_TTL", 90*24*time.Hour),
		RecordingBucket:      envOr("VOICETER_RECORDING_BUCKET", ""),
		AWSRegion:            envOr("AWS_REGION", ""),
		RetryBaseDelay:       envDurationOr("VOICETER_RETRY_BASE_DELAY", 500*time.Millisecond),
		RetryMaxDelay:        envDurationOr("VOICETER_RETRY_MAX_DELAY", 10*time.Second),
		RetryMaxRetries:      envIntOr("VOICETER_RETRY_MAX_RETRIES", 3),
		ReadHeaderTimeout:    envDurationOr("VOICETER_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:          envDurationOr("VOICETER_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:  envDurationOr("VOICETER_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		WSMaxAudioFrameBytes: envIntOr("VOICETER_WS_MAX_AUDIO_FRAME_BYTES", 8192),
		WSWriteTimeout:       envDurationOr("VOICETER_WS_WRITE_TIMEOUT", 5*time.Second),
		MetricsNamespace:     envOr("VOICETER_METRICS_NAMESPACE", "voiceter"),
	}

	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("VOICETER_SESSION_TTL must be > 0")
	}
	if cfg.SnapshotTTL <= 0 {
		return Config{}, fmt.Errorf("VOICETER_SNAPSHOT_TTL must be > 0")
	}
	if cfg.RetryBaseDelay <= 0 {
		return Config{}, fmt.Errorf("VOICETER_RETRY_BASE_DELAY must be > 0")
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		return Config{}, fmt.Errorf("VOICETER_RETRY_MAX_DELAY must be >= VOICETER_RETRY_BASE_DELAY")
	}
	if cfg.RetryMaxRetries < 0 {
		return Config{}, fmt.Errorf("VOICETER_RETRY_MAX_RETRIES must be >= 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("VOICETER_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.WSMaxAudioFrameBytes <= 0 {
		return Config{}, fmt.Errorf("VOICETER_WS_MAX_AUDIO_FRAME_BYTES must be > 0")
	}
	if cfg.RecordingBucket != "" && cfg.AWSRegion == "" {
		return Config{}, fmt.Errorf("AWS_REGION must be set when VOICETER_RECORDING_BUCKET is configured")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
