package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice bridge service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	VoiceAPIURL  string
	VoiceAPIKey  string
	SystemPrompt string
	VoiceName    string
	DialTimeout  time.Duration

	// SampleRate is the symmetric input/output rate requested from the backend.
	SampleRate     int
	ClientBufferMS int
	FlushWindow    time.Duration
	// CallerSampleRate is the rate of the caller leg; 0 means same as SampleRate.
	CallerSampleRate int

	TemplateTimezone string
	TemplateLanguage string

	AMIBridgeURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8090"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "voicebridge"),
		VoiceAPIURL:      envOrDefault("VOICE_API_URL", "https://api.ultravox.ai"),
		VoiceAPIKey:      trimmedEnv("VOICE_API_KEY"),
		SystemPrompt:     envOrDefault("VOICE_SYSTEM_PROMPT", "You are a helpful phone assistant."),
		VoiceName:        trimmedEnv("VOICE_NAME"),
		// Telephony trunks deliver 8 kHz signed linear by default.
		SampleRate:       8000,
		ClientBufferMS:   60,
		FlushWindow:      100 * time.Millisecond,
		CallerSampleRate: 0,
		TemplateTimezone: envOrDefault("TEMPLATE_TIMEZONE", "UTC"),
		TemplateLanguage: envOrDefault("TEMPLATE_LANGUAGE", "en"),
		AMIBridgeURL:     envOrDefault("AMI_BRIDGE_URL", "http://127.0.0.1:8088"),
		ShutdownTimeout:  15 * time.Second,
		DialTimeout:      10 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.DialTimeout, err = durationFromEnv("VOICE_DIAL_TIMEOUT", cfg.DialTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.FlushWindow, err = durationFromEnv("AUDIO_FLUSH_WINDOW", cfg.FlushWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.SampleRate, err = intFromEnv("AUDIO_SAMPLE_RATE", cfg.SampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.ClientBufferMS, err = intFromEnv("AUDIO_CLIENT_BUFFER_MS", cfg.ClientBufferMS)
	if err != nil {
		return Config{}, err
	}
	cfg.CallerSampleRate, err = intFromEnv("AUDIO_CALLER_SAMPLE_RATE", cfg.CallerSampleRate)
	if err != nil {
		return Config{}, err
	}

	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("AUDIO_SAMPLE_RATE must be positive")
	}
	if cfg.ClientBufferMS <= 0 {
		return Config{}, fmt.Errorf("AUDIO_CLIENT_BUFFER_MS must be positive")
	}
	if cfg.CallerSampleRate < 0 {
		return Config{}, fmt.Errorf("AUDIO_CALLER_SAMPLE_RATE must be >= 0")
	}
	if cfg.FlushWindow < 10*time.Millisecond {
		return Config{}, fmt.Errorf("AUDIO_FLUSH_WINDOW must be at least 10ms")
	}
	if strings.TrimSpace(cfg.VoiceAPIURL) == "" {
		return Config{}, fmt.Errorf("VOICE_API_URL must not be empty")
	}
	if _, err := time.LoadLocation(cfg.TemplateTimezone); err != nil {
		return Config{}, fmt.Errorf("TEMPLATE_TIMEZONE parse error: %w", err)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
