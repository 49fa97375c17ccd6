package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoutil"
	"golang.org/x/time/rate"

	"github.com/ngx29/BotTelegram/pkg/config"
	"github.com/ngx29/BotTelegram/pkg/logger"
)

// Client wraps the outbound Bot API calls the relay needs. All sends go
// through one limiter held under the platform's global message rate.
type Client struct {
	bot          *telego.Bot
	limiter      *rate.Limiter
	apiTimeout   time.Duration
	audioTimeout time.Duration
}

// NewClient builds the Bot API client. Extra options are passed through to
// the underlying bot; tests use this to point at a fake API server.
func NewClient(cfg config.TelegramConfig, opts ...telego.BotOption) (*Client, error) {
	botOpts := append([]telego.BotOption{telego.WithDefaultLogger(false, false)}, opts...)
	bot, err := telego.NewBot(cfg.Token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Client{
		bot:          bot,
		limiter:      rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		apiTimeout:   time.Duration(cfg.APITimeoutSec) * time.Second,
		audioTimeout: time.Duration(cfg.AudioTimeoutSec) * time.Second,
	}, nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.apiTimeout)
	defer cancel()

	if _, err := c.bot.SendMessage(callCtx, telegoutil.Message(telegoutil.ID(chatID), text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendTyping signals the typing chat action. Best effort; callers may
// ignore the error.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.apiTimeout)
	defer cancel()

	err := c.bot.SendChatAction(callCtx, &telego.SendChatActionParams{
		ChatID: telegoutil.ID(chatID),
		Action: telego.ChatActionTyping,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat action: %w", err)
	}
	return nil
}

func (c *Client) SendPhotoURL(ctx context.Context, chatID int64, url, caption string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.apiTimeout)
	defer cancel()

	params := telegoutil.Photo(telegoutil.ID(chatID), telegoutil.FileFromURL(url)).WithCaption(caption)
	if _, err := c.bot.SendPhoto(callCtx, params); err != nil {
		return fmt.Errorf("failed to send photo by url: %w", err)
	}
	return nil
}

// SendPhotoFile uploads the file at path as a photo message.
func (c *Client) SendPhotoFile(ctx context.Context, chatID int64, path, caption string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open photo file: %w", err)
	}
	defer f.Close()

	callCtx, cancel := context.WithTimeout(ctx, c.apiTimeout)
	defer cancel()

	file := telegoutil.File(telegoutil.NameReader(f, filepath.Base(path)))
	params := telegoutil.Photo(telegoutil.ID(chatID), file).WithCaption(caption)
	if _, err := c.bot.SendPhoto(callCtx, params); err != nil {
		return fmt.Errorf("failed to send photo upload: %w", err)
	}
	return nil
}

// SendAudioFile streams the file at path as an audio message. Audio uploads
// get the long deadline; payloads can be large and delivery slow.
func (c *Client) SendAudioFile(ctx context.Context, chatID int64, path string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	callCtx, cancel := context.WithTimeout(ctx, c.audioTimeout)
	defer cancel()

	file := telegoutil.File(telegoutil.NameReader(f, filepath.Base(path)))
	if _, err := c.bot.SendAudio(callCtx, telegoutil.Audio(telegoutil.ID(chatID), file)); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	logger.DebugCF("telegram", "Audio sent", map[string]interface{}{
		logger.FieldChatID: chatID,
		logger.FieldPath:   path,
	})
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send pacing interrupted: %w", err)
	}
	return nil
}
