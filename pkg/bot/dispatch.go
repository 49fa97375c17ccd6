// Package bot routes incoming Telegram messages to the AI capabilities and
// relays results back to the originating chat.
package bot

import (
	"context"
	"os"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/ngx29/BotTelegram/pkg/logger"
	"github.com/ngx29/BotTelegram/pkg/media"
	"github.com/ngx29/BotTelegram/pkg/providers"
)

// Chatter produces a chat completion for free-form text.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator renders a prompt into an image, hosted or inline.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (providers.Image, error)
}

// Speaker turns text into an MP3 on disk and returns its path.
type Speaker interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Messenger is the outbound Telegram surface the dispatcher needs.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
	SendPhotoURL(ctx context.Context, chatID int64, url, caption string) error
	SendPhotoFile(ctx context.Context, chatID int64, path, caption string) error
	SendAudioFile(ctx context.Context, chatID int64, path string) error
}

// IncomingMessage is the slice of a Telegram update the relay acts on.
type IncomingMessage struct {
	ChatID int64
	Sender string
	Text   string
}

// FromUpdate extracts the dispatchable part of an update. ok is false for
// updates without a message or without usable text; those are ignored.
func FromUpdate(update telego.Update) (IncomingMessage, bool) {
	msg := update.Message
	if msg == nil {
		return IncomingMessage{}, false
	}
	if strings.TrimSpace(msg.Text) == "" {
		return IncomingMessage{}, false
	}
	in := IncomingMessage{ChatID: msg.Chat.ID, Text: msg.Text}
	if msg.From != nil {
		in.Sender = msg.From.Username
	}
	return in, true
}

// Dispatcher runs one message through classify, capability call, and result
// delivery. Every capability is attempted exactly once per message; failures
// collapse to the fixed fallback replies.
type Dispatcher struct {
	sender Messenger
	chat   Chatter
	images ImageGenerator
	speech Speaker
	media  *media.Workspace
}

func NewDispatcher(sender Messenger, chat Chatter, images ImageGenerator, speech Speaker, ws *media.Workspace) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		chat:   chat,
		images: images,
		speech: speech,
		media:  ws,
	}
}

// HandleUpdate processes one webhook update synchronously. It never returns
// an error: the webhook acknowledgment to the platform must not depend on
// delivery outcome.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update telego.Update) {
	in, ok := FromUpdate(update)
	if !ok {
		logger.DebugC("bot", "Update without usable text ignored")
		return
	}

	cmd := Classify(in.Text)
	logger.InfoCF("bot", "Dispatching message", map[string]interface{}{
		logger.FieldChatID:  in.ChatID,
		logger.FieldSender:  in.Sender,
		logger.FieldCommand: cmd.Kind.String(),
		logger.FieldPreview: preview(in.Text),
	})

	switch cmd.Kind {
	case CmdHelp:
		d.reply(ctx, in.ChatID, helpText)
	case CmdImage:
		d.handleImage(ctx, in.ChatID, cmd.Prompt)
	case CmdSpeech:
		d.handleSpeech(ctx, in.ChatID, cmd.Prompt)
	default:
		d.handleChat(ctx, in.ChatID, cmd.Prompt)
	}
}

func (d *Dispatcher) handleChat(ctx context.Context, chatID int64, prompt string) {
	if err := d.sender.SendTyping(ctx, chatID); err != nil {
		logger.DebugCF("bot", "Typing signal failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldError:  err.Error(),
		})
	}

	reply, err := d.chat.Chat(ctx, prompt)
	if err != nil {
		logger.ErrorCF("bot", "Chat completion failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldError:  err.Error(),
		})
		d.reply(ctx, chatID, chatFallback)
		return
	}
	d.reply(ctx, chatID, reply)
}

func (d *Dispatcher) handleImage(ctx context.Context, chatID int64, prompt string) {
	if prompt == "" {
		d.reply(ctx, chatID, imageUsage)
		return
	}

	// Progress note before the slow call; delivery is best effort.
	d.reply(ctx, chatID, imageWorking)

	img, err := d.images.Generate(ctx, prompt)
	if err != nil {
		logger.ErrorCF("bot", "Image generation failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldError:  err.Error(),
		})
		d.reply(ctx, chatID, imageFallback)
		return
	}

	caption := imageCaptionPrefix + prompt
	if img.URL != "" {
		if err := d.sender.SendPhotoURL(ctx, chatID, img.URL, caption); err != nil {
			logger.ErrorCF("bot", "Photo relay failed", map[string]interface{}{
				logger.FieldChatID: chatID,
				logger.FieldError:  err.Error(),
			})
			d.reply(ctx, chatID, imageFallback)
		}
		return
	}

	// Inline payloads get spooled so the upload streams from disk, then the
	// artifact is removed on every exit path.
	path, err := d.media.CreateFile("imagen", ".png", img.Data)
	if err != nil {
		logger.ErrorCF("bot", "Image spool failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldError:  err.Error(),
		})
		d.reply(ctx, chatID, imageFallback)
		return
	}
	defer removeArtifact(path)

	if err := d.sender.SendPhotoFile(ctx, chatID, path, caption); err != nil {
		logger.ErrorCF("bot", "Photo relay failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldPath:   path,
			logger.FieldError:  err.Error(),
		})
		d.reply(ctx, chatID, imageFallback)
	}
}

func (d *Dispatcher) handleSpeech(ctx context.Context, chatID int64, prompt string) {
	if prompt == "" {
		d.reply(ctx, chatID, speechUsage)
		return
	}

	d.reply(ctx, chatID, speechWorking)

	path, err := d.speech.Synthesize(ctx, prompt)
	if err != nil {
		logger.ErrorCF("bot", "Speech synthesis failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldError:  err.Error(),
		})
		d.reply(ctx, chatID, speechFallback)
		return
	}
	defer removeArtifact(path)

	if err := d.sender.SendAudioFile(ctx, chatID, path); err != nil {
		logger.ErrorCF("bot", "Audio relay failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldPath:   path,
			logger.FieldError:  err.Error(),
		})
		d.reply(ctx, chatID, speechFallback)
	}
}

// reply delivers text to the chat and logs delivery failures; the webhook
// acknowledgment does not depend on it.
func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.sender.SendText(ctx, chatID, text); err != nil {
		logger.ErrorCF("bot", "Reply delivery failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldError:  err.Error(),
		})
	}
}

func removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.WarnCF("bot", "Artifact cleanup failed", map[string]interface{}{
			logger.FieldPath:  path,
			logger.FieldError: err.Error(),
		})
	}
}

// preview shortens message text for log lines.
func preview(text string) string {
	const max = 64
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
