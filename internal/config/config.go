// Package config loads service configuration from a .env file, an
// optional config.yaml, and environment variables, with env vars taking
// precedence. Everything is read once at startup; the resulting Config is
// immutable.
package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/storozh/moderator/internal/policy"
)

// Config holds every startup setting of the moderation service.
type Config struct {
	// Moderation scope and policy.
	AllowedChatIDs      []int64
	ExemptSenderChatIDs []int64
	AdminIDs            []int64

	// Classifier settings.
	ProfanityThreshold float64

	// Daily report delivery.
	ReportTime string // "HH:MM", local to Timezone
	Timezone   string

	// Voice transcription.
	VoiceModeration bool
	SpeechLanguage  string

	// Infrastructure.
	NATSURL     string
	RedisAddr   string // empty disables the enforcement idempotency guard
	PostgresDSN string // empty disables the database policy source
	MetricsAddr string
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	// .env is optional; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file found, relying on environment")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: parse config.yaml: %w", err)
		}
	}

	viper.SetDefault("PROFANITY_THRESHOLD", 0.7)
	viper.SetDefault("REPORT_TIME", "21:00")
	viper.SetDefault("TIMEZONE", "Europe/Moscow")
	viper.SetDefault("VOICE_MODERATION", true)
	viper.SetDefault("SPEECH_LANGUAGE", "ru-RU")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("METRICS_ADDR", ":9100")

	cfg := &Config{
		ProfanityThreshold: viper.GetFloat64("PROFANITY_THRESHOLD"),
		ReportTime:         viper.GetString("REPORT_TIME"),
		Timezone:           viper.GetString("TIMEZONE"),
		VoiceModeration:    viper.GetBool("VOICE_MODERATION"),
		SpeechLanguage:     viper.GetString("SPEECH_LANGUAGE"),
		NATSURL:            viper.GetString("NATS_URL"),
		RedisAddr:          viper.GetString("REDIS_ADDR"),
		PostgresDSN:        viper.GetString("POSTGRES_DSN"),
		MetricsAddr:        viper.GetString("METRICS_ADDR"),
	}

	var err error
	if cfg.AllowedChatIDs, err = policy.ParseIDList(viper.GetString("ALLOWED_CHAT_IDS")); err != nil {
		return nil, fmt.Errorf("config: ALLOWED_CHAT_IDS: %w", err)
	}
	if cfg.ExemptSenderChatIDs, err = policy.ParseIDList(viper.GetString("EXEMPT_SENDER_CHAT_IDS")); err != nil {
		return nil, fmt.Errorf("config: EXEMPT_SENDER_CHAT_IDS: %w", err)
	}
	if cfg.AdminIDs, err = policy.ParseIDList(viper.GetString("ADMIN_IDS")); err != nil {
		return nil, fmt.Errorf("config: ADMIN_IDS: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("config: ADMIN_IDS is empty; at least one admin must receive reports")
	}
	if len(c.AllowedChatIDs) == 0 && c.PostgresDSN == "" {
		return fmt.Errorf("config: ALLOWED_CHAT_IDS is empty and no POSTGRES_DSN configured")
	}
	if c.ProfanityThreshold <= 0 || c.ProfanityThreshold > 1 {
		return fmt.Errorf("config: PROFANITY_THRESHOLD %v out of range (0, 1]", c.ProfanityThreshold)
	}
	if _, _, err := ParseReportTime(c.ReportTime); err != nil {
		return err
	}
	return nil
}

// ParseReportTime splits "HH:MM" into hour and minute. Nothing but the
// two numbers and the colon is accepted.
func ParseReportTime(s string) (hour, minute int, err error) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, fmt.Errorf("config: REPORT_TIME %q is not HH:MM", s)
	}
	if hour, err = strconv.Atoi(h); err != nil {
		return 0, 0, fmt.Errorf("config: REPORT_TIME %q is not HH:MM: %w", s, err)
	}
	if minute, err = strconv.Atoi(m); err != nil {
		return 0, 0, fmt.Errorf("config: REPORT_TIME %q is not HH:MM: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("config: REPORT_TIME %q out of range", s)
	}
	return hour, minute, nil
}
