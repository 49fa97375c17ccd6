package bot

import "strings"

// CommandKind tells the dispatcher which capability a message asks for.
type CommandKind int

const (
	CmdChat CommandKind = iota
	CmdHelp
	CmdImage
	CmdSpeech
)

func (k CommandKind) String() string {
	switch k {
	case CmdHelp:
		return "help"
	case CmdImage:
		return "image"
	case CmdSpeech:
		return "speech"
	default:
		return "chat"
	}
}

// Command is the routing decision for one message. Prompt carries the
// command argument, or the whole text on the chat path.
type Command struct {
	Kind   CommandKind
	Prompt string
}

// Classify routes raw message text. Matching is prefix based, so client
// mention suffixes like "/imagen@SomeBot" still hit their command.
func Classify(text string) Command {
	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		return Command{Kind: CmdHelp}
	case strings.HasPrefix(text, "/imagen"):
		return Command{Kind: CmdImage, Prompt: argument(text)}
	case strings.HasPrefix(text, "/voz"), strings.HasPrefix(text, "/tts"):
		return Command{Kind: CmdSpeech, Prompt: argument(text)}
	default:
		return Command{Kind: CmdChat, Prompt: text}
	}
}

// argument is everything after the first space, trimmed. No space means no
// argument.
func argument(text string) string {
	_, rest, _ := strings.Cut(text, " ")
	return strings.TrimSpace(rest)
}
