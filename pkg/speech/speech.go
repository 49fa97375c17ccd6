package speech

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	htgotts "github.com/hegedustibor/htgo-tts"

	"github.com/ngx29/BotTelegram/pkg/logger"
	"github.com/ngx29/BotTelegram/pkg/media"
)

// Synthesizer turns text into a spoken MP3 file inside the media workspace.
// The caller owns the produced file and removes it after delivery.
type Synthesizer struct {
	ws       *media.Workspace
	language string
	seq      atomic.Uint64
	create   func(folder, language, text, name string) (string, error)
}

func NewSynthesizer(ws *media.Workspace, language string) *Synthesizer {
	return &Synthesizer{
		ws:       ws,
		language: language,
		create:   createSpeechFile,
	}
}

func createSpeechFile(folder, language, text, name string) (string, error) {
	tts := htgotts.Speech{Folder: folder, Language: language}
	return tts.CreateSpeechFile(text, name)
}

// Synthesize writes the spoken form of text to a fresh MP3 file and returns
// its path. On context cancellation the worker may still land a file later;
// the workspace janitor reaps it.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	name := s.nextName()
	logger.DebugCF("speech", "Synthesis request", map[string]interface{}{
		"language":    s.language,
		"text_length": len(text),
	})

	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		path, err := s.create(s.ws.Dir(), s.language, text, name)
		done <- result{path: path, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("speech synthesis failed: %w", r.err)
		}
		return r.path, nil
	}
}

// nextName returns a unique base name; the synthesis library appends .mp3.
func (s *Synthesizer) nextName() string {
	return fmt.Sprintf("tts-%d-%04d", time.Now().UnixNano(), s.seq.Add(1)%10000)
}
