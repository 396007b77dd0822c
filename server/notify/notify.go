// Package notify composes the outbound channels into the single Notifier
// the reminder daemon consumes: text through Telegram, voice through
// Twilio when configured.
package notify

import (
	"context"
	"log/slog"

	berrors "github.com/hrygo/eventbot/server/internal/errors"

	"github.com/hrygo/eventbot/plugin/telegram"
	"github.com/hrygo/eventbot/plugin/twilio"
)

// VoiceClient places a voice call and returns a call id.
type VoiceClient interface {
	Call(ctx context.Context, toNumber, fromNumber, message string) (string, error)
}

// TextClient delivers a markup-capable text message to a chat.
type TextClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
}

// Notifier fans a reminder out to the configured channels.
type Notifier struct {
	text   TextClient
	chatID int64
	voice  VoiceClient // nil disables the voice side channel
	logger *slog.Logger
}

// New creates a notifier. Pass a nil voice client to disable voice calls.
func New(text TextClient, chatID int64, voice VoiceClient) *Notifier {
	return &Notifier{
		text:   text,
		chatID: chatID,
		voice:  voice,
		logger: slog.Default(),
	}
}

// NewWithTwilio is a convenience wrapper for the common wiring.
func NewWithTwilio(text *telegram.Client, chatID int64, voice *twilio.Client) *Notifier {
	n := New(text, chatID, nil)
	if voice != nil && voice.IsConfigured() {
		n.voice = voice
	}
	return n
}

// SendText delivers a reminder message to the authorized chat.
func (n *Notifier) SendText(ctx context.Context, message string) error {
	if err := n.text.SendMessage(ctx, n.chatID, message, nil); err != nil {
		return berrors.NotifierFailed("failed to send text reminder", err)
	}
	return nil
}

// SendVoiceCall places a best-effort voice call.
func (n *Notifier) SendVoiceCall(ctx context.Context, toNumber, fromNumber, message string) (string, error) {
	if n.voice == nil {
		return "", berrors.NotifierFailed("voice channel not configured", nil)
	}
	callID, err := n.voice.Call(ctx, toNumber, fromNumber, message)
	if err != nil {
		return "", berrors.NotifierFailed("failed to place voice call", err)
	}
	return callID, nil
}
