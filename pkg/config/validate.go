package config

import (
	"fmt"
	"regexp"
)

var imageSizeRe = regexp.MustCompile(`^\d+x\d+$`)

// Validate returns configuration problems found in cfg.
// It does not mutate cfg.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if cfg.Telegram.Token == "" {
		errs = append(errs, fmt.Errorf("telegram.token is required (TELEGRAM_TOKEN)"))
	}
	if cfg.Telegram.SendRate <= 0 {
		errs = append(errs, fmt.Errorf("telegram.send_rate must be > 0"))
	}
	if cfg.Telegram.SendBurst <= 0 {
		errs = append(errs, fmt.Errorf("telegram.send_burst must be > 0"))
	}
	if cfg.Telegram.APITimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("telegram.api_timeout_sec must be > 0"))
	}
	if cfg.Telegram.AudioTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("telegram.audio_timeout_sec must be > 0"))
	}

	if cfg.OpenAI.APIKey == "" {
		errs = append(errs, fmt.Errorf("openai.api_key is required (OPENAI_API_KEY)"))
	}
	if cfg.OpenAI.APIBase == "" {
		errs = append(errs, fmt.Errorf("openai.api_base is required"))
	}
	if cfg.OpenAI.ChatModel == "" {
		errs = append(errs, fmt.Errorf("openai.chat_model is required"))
	}
	if cfg.OpenAI.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("openai.max_tokens must be > 0"))
	}
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("openai.temperature must be in [0,2]"))
	}
	if !imageSizeRe.MatchString(cfg.OpenAI.ImageSize) {
		errs = append(errs, fmt.Errorf("openai.image_size must look like 1024x1024"))
	}
	if cfg.OpenAI.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("openai.timeout_sec must be > 0"))
	}

	if cfg.Speech.Language == "" {
		errs = append(errs, fmt.Errorf("speech.language is required"))
	}

	if cfg.Webhook.Port <= 0 || cfg.Webhook.Port > 65535 {
		errs = append(errs, fmt.Errorf("webhook.port must be in 1..65535"))
	}

	if cfg.Media.Dir == "" {
		errs = append(errs, fmt.Errorf("media.dir is required"))
	}
	if cfg.Media.SweepSchedule == "" {
		errs = append(errs, fmt.Errorf("media.sweep_schedule is required"))
	}
	if cfg.Media.MaxAgeMinutes <= 0 {
		errs = append(errs, fmt.Errorf("media.max_age_minutes must be > 0"))
	}
	if cfg.Media.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("media.max_files must be > 0"))
	}

	if cfg.Logging.FileEnabled {
		if cfg.Logging.Dir == "" {
			errs = append(errs, fmt.Errorf("logging.dir is required when logging.file_enabled=true"))
		}
		if cfg.Logging.Filename == "" {
			errs = append(errs, fmt.Errorf("logging.filename is required when logging.file_enabled=true"))
		}
		if cfg.Logging.MaxSizeMB <= 0 {
			errs = append(errs, fmt.Errorf("logging.max_size_mb must be > 0"))
		}
		if cfg.Logging.RetentionDays <= 0 {
			errs = append(errs, fmt.Errorf("logging.retention_days must be > 0"))
		}
	}

	return errs
}
