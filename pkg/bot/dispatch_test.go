package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mymmrac/telego"

	"github.com/ngx29/BotTelegram/pkg/media"
	"github.com/ngx29/BotTelegram/pkg/providers"
)

type fakeChatter struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeChatter) Chat(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeImages struct {
	prompts []string
	img     providers.Image
	err     error
}

func (f *fakeImages) Generate(_ context.Context, prompt string) (providers.Image, error) {
	f.prompts = append(f.prompts, prompt)
	return f.img, f.err
}

type fakeSpeaker struct {
	texts []string
	path  string
	err   error
}

func (f *fakeSpeaker) Synthesize(_ context.Context, text string) (string, error) {
	f.texts = append(f.texts, text)
	return f.path, f.err
}

type sendOp struct {
	op      string
	chatID  int64
	text    string
	url     string
	path    string
	caption string
	data    []byte
}

// fakeMessenger records every outbound call in order. File-backed sends
// capture the payload at send time so tests can assert on content after the
// dispatcher has deleted the artifact.
type fakeMessenger struct {
	ops  []sendOp
	fail map[string]error
}

func (f *fakeMessenger) failOn(op string) {
	if f.fail == nil {
		f.fail = map[string]error{}
	}
	f.fail[op] = errors.New(op + " unavailable")
}

func (f *fakeMessenger) record(op sendOp) error {
	f.ops = append(f.ops, op)
	return f.fail[op.op]
}

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	return f.record(sendOp{op: "text", chatID: chatID, text: text})
}

func (f *fakeMessenger) SendTyping(_ context.Context, chatID int64) error {
	return f.record(sendOp{op: "typing", chatID: chatID})
}

func (f *fakeMessenger) SendPhotoURL(_ context.Context, chatID int64, url, caption string) error {
	return f.record(sendOp{op: "photo_url", chatID: chatID, url: url, caption: caption})
}

func (f *fakeMessenger) SendPhotoFile(_ context.Context, chatID int64, path, caption string) error {
	data, _ := os.ReadFile(path)
	return f.record(sendOp{op: "photo_file", chatID: chatID, path: path, caption: caption, data: data})
}

func (f *fakeMessenger) SendAudioFile(_ context.Context, chatID int64, path string) error {
	data, _ := os.ReadFile(path)
	return f.record(sendOp{op: "audio", chatID: chatID, path: path, data: data})
}

type harness struct {
	sender *fakeMessenger
	chat   *fakeChatter
	images *fakeImages
	speech *fakeSpeaker
	ws     *media.Workspace
	d      *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sender: &fakeMessenger{},
		chat:   &fakeChatter{reply: "respuesta"},
		images: &fakeImages{},
		speech: &fakeSpeaker{},
		ws:     media.NewWorkspace(t.TempDir()),
	}
	if err := h.ws.Ensure(); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	h.d = NewDispatcher(h.sender, h.chat, h.images, h.speech, h.ws)
	return h
}

func (h *harness) capabilityCalls() int {
	return len(h.chat.prompts) + len(h.images.prompts) + len(h.speech.texts)
}

func textUpdate(chatID int64, text string) telego.Update {
	return telego.Update{
		Message: &telego.Message{
			Chat: telego.Chat{ID: chatID, Type: "private"},
			From: &telego.User{Username: "ana"},
			Text: text,
		},
	}
}

func TestHelpCommandSendsFixedText(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"/start", "/help", "/startx", "/help@MiBot"} {
		t.Run(text, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)

			h.d.HandleUpdate(context.Background(), textUpdate(7, text))

			if len(h.sender.ops) != 1 {
				t.Fatalf("expected 1 send, got %d: %+v", len(h.sender.ops), h.sender.ops)
			}
			op := h.sender.ops[0]
			if op.op != "text" || op.text != helpText {
				t.Errorf("help reply = %+v", op)
			}
			if op.chatID != 7 {
				t.Errorf("chatID = %d, want 7", op.chatID)
			}
			if n := h.capabilityCalls(); n != 0 {
				t.Errorf("help must not call capabilities, got %d calls", n)
			}
		})
	}
}

func TestImageWithoutPromptSendsUsage(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"/imagen", "/imagen    "} {
		t.Run(text, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)

			h.d.HandleUpdate(context.Background(), textUpdate(7, text))

			if len(h.images.prompts) != 0 {
				t.Errorf("usage path must not generate, got %v", h.images.prompts)
			}
			if len(h.sender.ops) != 1 || h.sender.ops[0].text != imageUsage {
				t.Errorf("ops = %+v, want single usage reply", h.sender.ops)
			}
		})
	}
}

func TestImageHostedResultRelaysURL(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.images.img = providers.Image{URL: "https://img.example/cat.png"}

	h.d.HandleUpdate(context.Background(), textUpdate(7, "/imagen un gato"))

	if len(h.images.prompts) != 1 || h.images.prompts[0] != "un gato" {
		t.Fatalf("generate prompts = %v, want [un gato]", h.images.prompts)
	}
	if len(h.sender.ops) != 2 {
		t.Fatalf("ops = %+v, want working note then photo", h.sender.ops)
	}
	if h.sender.ops[0].text != imageWorking {
		t.Errorf("first send = %+v, want working note", h.sender.ops[0])
	}
	photo := h.sender.ops[1]
	if photo.op != "photo_url" || photo.url != "https://img.example/cat.png" {
		t.Errorf("photo op = %+v", photo)
	}
	if photo.caption != "Imagen: un gato" {
		t.Errorf("caption = %q", photo.caption)
	}
}

func TestImageInlineResultSpoolsAndCleans(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.images.img = providers.Image{Data: []byte("png-bytes")}

	h.d.HandleUpdate(context.Background(), textUpdate(7, "/imagen un gato"))

	if len(h.sender.ops) != 2 {
		t.Fatalf("ops = %+v, want working note then photo", h.sender.ops)
	}
	photo := h.sender.ops[1]
	if photo.op != "photo_file" {
		t.Fatalf("photo op = %+v", photo)
	}
	if !strings.HasPrefix(photo.path, h.ws.Dir()) {
		t.Errorf("spool path %q outside workspace %q", photo.path, h.ws.Dir())
	}
	if string(photo.data) != "png-bytes" {
		t.Errorf("uploaded payload = %q", photo.data)
	}
	if photo.caption != "Imagen: un gato" {
		t.Errorf("caption = %q", photo.caption)
	}
	if _, err := os.Stat(photo.path); !os.IsNotExist(err) {
		t.Errorf("spool file %q still present after dispatch", photo.path)
	}
}

func TestImageInlineSendFailureStillCleans(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.images.img = providers.Image{Data: []byte("png-bytes")}
	h.sender.failOn("photo_file")

	h.d.HandleUpdate(context.Background(), textUpdate(7, "/imagen un gato"))

	if len(h.sender.ops) != 3 {
		t.Fatalf("ops = %+v, want working, photo attempt, fallback", h.sender.ops)
	}
	if h.sender.ops[2].text != imageFallback {
		t.Errorf("fallback = %+v", h.sender.ops[2])
	}
	if _, err := os.Stat(h.sender.ops[1].path); !os.IsNotExist(err) {
		t.Errorf("spool file survived failed send")
	}
}

func TestImageGenerationFailureSendsFallback(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.images.err = errors.New("model overloaded")

	h.d.HandleUpdate(context.Background(), textUpdate(7, "/imagen un gato"))

	if len(h.sender.ops) != 2 {
		t.Fatalf("ops = %+v, want working note then fallback", h.sender.ops)
	}
	if h.sender.ops[1].text != imageFallback {
		t.Errorf("fallback = %+v", h.sender.ops[1])
	}
}

func TestSpeechSuccessSendsThenRemoves(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"/voz hola mundo", "/tts hola mundo"} {
		t.Run(text, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			mp3 := filepath.Join(t.TempDir(), "tts-1.mp3")
			if err := os.WriteFile(mp3, []byte("mp3 body"), 0o600); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			h.speech.path = mp3

			h.d.HandleUpdate(context.Background(), textUpdate(7, text))

			if len(h.speech.texts) != 1 || h.speech.texts[0] != "hola mundo" {
				t.Fatalf("synthesize texts = %v, want [hola mundo]", h.speech.texts)
			}
			if len(h.sender.ops) != 2 {
				t.Fatalf("ops = %+v, want working note then audio", h.sender.ops)
			}
			if h.sender.ops[0].text != speechWorking {
				t.Errorf("first send = %+v, want working note", h.sender.ops[0])
			}
			audio := h.sender.ops[1]
			if audio.op != "audio" || audio.path != mp3 {
				t.Errorf("audio op = %+v", audio)
			}
			if string(audio.data) != "mp3 body" {
				t.Errorf("uploaded payload = %q", audio.data)
			}
			if _, err := os.Stat(mp3); !os.IsNotExist(err) {
				t.Errorf("mp3 still present after dispatch")
			}
		})
	}
}

func TestSpeechWithoutPromptSendsUsage(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.d.HandleUpdate(context.Background(), textUpdate(7, "/voz"))

	if len(h.speech.texts) != 0 {
		t.Errorf("usage path must not synthesize, got %v", h.speech.texts)
	}
	if len(h.sender.ops) != 1 || h.sender.ops[0].text != speechUsage {
		t.Errorf("ops = %+v, want single usage reply", h.sender.ops)
	}
}

func TestSpeechFailureSendsFallback(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.speech.err = errors.New("synthesis backend down")

	h.d.HandleUpdate(context.Background(), textUpdate(7, "/voz hola"))

	if len(h.sender.ops) != 2 {
		t.Fatalf("ops = %+v, want working note then fallback", h.sender.ops)
	}
	if h.sender.ops[1].text != speechFallback {
		t.Errorf("fallback = %+v", h.sender.ops[1])
	}
}

func TestSpeechSendFailureStillCleans(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	mp3 := filepath.Join(t.TempDir(), "tts-2.mp3")
	if err := os.WriteFile(mp3, []byte("mp3 body"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	h.speech.path = mp3
	h.sender.failOn("audio")

	h.d.HandleUpdate(context.Background(), textUpdate(7, "/voz hola"))

	if len(h.sender.ops) != 3 || h.sender.ops[2].text != speechFallback {
		t.Fatalf("ops = %+v, want working, audio attempt, fallback", h.sender.ops)
	}
	if _, err := os.Stat(mp3); !os.IsNotExist(err) {
		t.Errorf("mp3 survived failed send")
	}
}

func TestChatRepliesWithCompletion(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.chat.reply = "son las tres"

	h.d.HandleUpdate(context.Background(), textUpdate(7, "qué hora es"))

	if len(h.chat.prompts) != 1 || h.chat.prompts[0] != "qué hora es" {
		t.Fatalf("chat prompts = %v, want full text", h.chat.prompts)
	}
	if len(h.sender.ops) != 2 {
		t.Fatalf("ops = %+v, want typing then reply", h.sender.ops)
	}
	if h.sender.ops[0].op != "typing" {
		t.Errorf("first op = %+v, want typing", h.sender.ops[0])
	}
	if h.sender.ops[1].text != "son las tres" {
		t.Errorf("reply = %+v", h.sender.ops[1])
	}
}

func TestChatFailureSendsFallback(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.chat.err = errors.New("rate limited")

	h.d.HandleUpdate(context.Background(), textUpdate(7, "qué hora es"))

	if len(h.sender.ops) != 2 || h.sender.ops[1].text != chatFallback {
		t.Fatalf("ops = %+v, want typing then fallback", h.sender.ops)
	}
}

func TestChatTypingFailureDoesNotBlockReply(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.sender.failOn("typing")

	h.d.HandleUpdate(context.Background(), textUpdate(7, "hola"))

	if len(h.chat.prompts) != 1 {
		t.Fatalf("chat prompts = %v, want one call", h.chat.prompts)
	}
	if len(h.sender.ops) != 2 || h.sender.ops[1].text != "respuesta" {
		t.Errorf("ops = %+v, want typing attempt then reply", h.sender.ops)
	}
}

func TestUpdatesWithoutUsableTextAreIgnored(t *testing.T) {
	t.Parallel()

	updates := map[string]telego.Update{
		"no message":      {},
		"empty text":      textUpdate(7, ""),
		"whitespace text": textUpdate(7, "   "),
	}
	for name, update := range updates {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)

			h.d.HandleUpdate(context.Background(), update)

			if len(h.sender.ops) != 0 {
				t.Errorf("ops = %+v, want none", h.sender.ops)
			}
			if n := h.capabilityCalls(); n != 0 {
				t.Errorf("capability calls = %d, want 0", n)
			}
		})
	}
}
