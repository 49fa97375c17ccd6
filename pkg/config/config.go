package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config is read once at startup and never mutated afterwards. Values come
// from defaults, then an optional JSON file, then the environment (which
// always wins).
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	OpenAI   OpenAIConfig   `json:"openai"`
	Speech   SpeechConfig   `json:"speech"`
	Webhook  WebhookConfig  `json:"webhook"`
	Media    MediaConfig    `json:"media"`
	Logging  LoggingConfig  `json:"logging"`
}

type TelegramConfig struct {
	Token           string  `json:"token" env:"TELEGRAM_TOKEN"`
	SendRate        float64 `json:"send_rate" env:"BOT_TELEGRAM_SEND_RATE"`
	SendBurst       int     `json:"send_burst" env:"BOT_TELEGRAM_SEND_BURST"`
	APITimeoutSec   int     `json:"api_timeout_sec" env:"BOT_TELEGRAM_API_TIMEOUT_SEC"`
	AudioTimeoutSec int     `json:"audio_timeout_sec" env:"BOT_TELEGRAM_AUDIO_TIMEOUT_SEC"`
}

type OpenAIConfig struct {
	APIKey      string  `json:"api_key" env:"OPENAI_API_KEY"`
	APIBase     string  `json:"api_base" env:"OPENAI_API_BASE"`
	ChatModel   string  `json:"chat_model" env:"CHAT_MODEL"`
	MaxTokens   int     `json:"max_tokens" env:"BOT_OPENAI_MAX_TOKENS"`
	Temperature float64 `json:"temperature" env:"BOT_OPENAI_TEMPERATURE"`
	ImageSize   string  `json:"image_size" env:"IMAGE_SIZE"`
	TimeoutSec  int     `json:"timeout_sec" env:"BOT_OPENAI_TIMEOUT_SEC"`
}

type SpeechConfig struct {
	Language string `json:"language" env:"TTS_LANG"`
}

type WebhookConfig struct {
	Host   string `json:"host" env:"BOT_HOST"`
	Port   int    `json:"port" env:"PORT"`
	Secret string `json:"secret" env:"WEBHOOK_SECRET"`
}

type MediaConfig struct {
	Dir           string `json:"dir" env:"MEDIA_DIR"`
	SweepSchedule string `json:"sweep_schedule" env:"BOT_MEDIA_SWEEP_SCHEDULE"`
	MaxAgeMinutes int    `json:"max_age_minutes" env:"BOT_MEDIA_MAX_AGE_MINUTES"`
	MaxFiles      int    `json:"max_files" env:"BOT_MEDIA_MAX_FILES"`
}

type LoggingConfig struct {
	Level         string `json:"level" env:"BOT_LOG_LEVEL"`
	FileEnabled   bool   `json:"file_enabled" env:"BOT_LOG_FILE_ENABLED"`
	Dir           string `json:"dir" env:"BOT_LOG_DIR"`
	Filename      string `json:"filename" env:"BOT_LOG_FILENAME"`
	MaxSizeMB     int    `json:"max_size_mb" env:"BOT_LOG_MAX_SIZE_MB"`
	RetentionDays int    `json:"retention_days" env:"BOT_LOG_RETENTION_DAYS"`
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:           "",
			SendRate:        25,
			SendBurst:       5,
			APITimeoutSec:   15,
			AudioTimeoutSec: 120,
		},
		OpenAI: OpenAIConfig{
			APIKey:      "",
			APIBase:     "https://api.openai.com/v1",
			ChatModel:   "gpt-4o",
			MaxTokens:   600,
			Temperature: 0.7,
			ImageSize:   "1024x1024",
			TimeoutSec:  90,
		},
		Speech: SpeechConfig{
			Language: "es",
		},
		Webhook: WebhookConfig{
			Host:   "0.0.0.0",
			Port:   5000,
			Secret: "",
		},
		Media: MediaConfig{
			Dir:           filepath.Join(os.TempDir(), "bottelegram_media"),
			SweepSchedule: "@every 10m",
			MaxAgeMinutes: 30,
			MaxFiles:      256,
		},
		Logging: LoggingConfig{
			Level:         "info",
			FileEnabled:   false,
			Dir:           "",
			Filename:      "bottelegram.log",
			MaxSizeMB:     20,
			RetentionDays: 3,
		},
	}
}

// Load builds the startup configuration. path may be empty or point to a
// missing file; both mean file-less operation on defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := unmarshalStrict(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func unmarshalStrict(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("invalid config: trailing JSON content")
		}
		return err
	}
	return nil
}

func (c *Config) LogFilePath() string {
	dir := expandHome(c.Logging.Dir)
	filename := c.Logging.Filename
	if filename == "" {
		filename = "bottelegram.log"
	}
	return filepath.Join(dir, filename)
}

func (c *Config) MediaDir() string {
	return expandHome(c.Media.Dir)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
