package providers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ngx29/BotTelegram/pkg/config"
)

func newClient(cfg config.OpenAIConfig) openai.Client {
	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	clientOpts := []option.RequestOption{
		option.WithBaseURL(normalizeAPIBase(cfg.APIBase)),
		option.WithHTTPClient(httpClient),
		// Each capability call is attempted exactly once per incoming message.
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	return openai.NewClient(clientOpts...)
}

func normalizeAPIBase(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return strings.TrimRight(trimmed, "/")
	}

	path := strings.TrimRight(u.Path, "/")
	for _, suffix := range []string{
		"/chat/completions",
		"/images/generations",
		"/chat",
	} {
		if strings.HasSuffix(path, suffix) {
			path = strings.TrimSuffix(path, suffix)
			break
		}
	}

	if path == "" {
		path = "/"
	}
	u.Path = path
	return strings.TrimRight(u.String(), "/")
}
