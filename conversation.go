package pam

import "fmt"

// Style tags a conversation message with the kind of answer it expects.
type Style int

const (
	// PromptEchoOff expects a masked answer, conventionally the secret.
	PromptEchoOff Style = 1
	// PromptEchoOn expects a visible answer, conventionally the user name.
	PromptEchoOn Style = 2
	// ErrorMsg is informational and expects no answer.
	ErrorMsg Style = 3
	// TextInfo is informational and expects no answer.
	TextInfo Style = 4
)

func (s Style) String() string {
	switch s {
	case PromptEchoOff:
		return "prompt_echo_off"
	case PromptEchoOn:
		return "prompt_echo_on"
	case ErrorMsg:
		return "error_msg"
	case TextInfo:
		return "text_info"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// Message is a single request from the backend.
type Message struct {
	Style Style
	Text  string
}

// Response answers the Message at the same index.
type Response struct {
	Text string
	// HasText is false for acknowledged messages that carry no answer.
	HasText bool
}

// Conversation answers backend requests. It runs synchronously on the
// goroutine that issued the backend call and must not block on input.
// The messages slice belongs to the caller and must not be retained.
type Conversation interface {
	Converse(msgs []Message) ([]Response, Status)
}

// ConversationFunc adapts a function to the Conversation interface.
type ConversationFunc func(msgs []Message) ([]Response, Status)

// Converse implements Conversation.
func (f ConversationFunc) Converse(msgs []Message) ([]Response, Status) {
	if f == nil {
		return nil, ConvErr
	}
	return f(msgs)
}

// credentials is allocated once per Authenticator. The registered bridge
// points at this record, so later backend callbacks see current values.
type credentials struct {
	user   string
	secret string
	locked bool
}

// credentialBridge answers prompts from a pre-supplied credential pair.
// It must not reference the Authenticator that owns it.
type credentialBridge struct {
	creds  *credentials
	logger Logger
}

func newCredentialBridge(creds *credentials, logger Logger) *credentialBridge {
	return &credentialBridge{creds: creds, logger: logger}
}

// Converse implements Conversation.
func (b *credentialBridge) Converse(msgs []Message) ([]Response, Status) {
	responses := make([]Response, len(msgs))
	for i, msg := range msgs {
		switch msg.Style {
		case PromptEchoOn:
			responses[i] = Response{Text: b.creds.user, HasText: true}
		case PromptEchoOff:
			responses[i] = Response{Text: b.creds.secret, HasText: true}
		case ErrorMsg:
			b.logger.Warn("backend error message", "text", msg.Text)
		case TextInfo:
			b.logger.Info("backend info message", "text", msg.Text)
		default:
			b.logger.Debug("unknown conversation style answered empty", "style", msg.Style)
		}
	}
	return responses, Success
}
