package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nestbot/internal/config"
	"github.com/edgard/nestbot/internal/nest"
)

// incoming is the part of an update every handler needs.
type incoming struct {
	chatID int64
	userID int64
	text   string // message text, or the caption of a photo
	photo  string // file ID of the largest photo size, if any
}

func parseIncoming(update *models.Update) (incoming, bool) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return incoming{}, false
	}
	msg := update.Message
	in := incoming{
		chatID: msg.Chat.ID,
		userID: msg.From.ID,
		text:   msg.Text,
	}
	if len(msg.Photo) > 0 {
		in.text = msg.Caption
		in.photo = msg.Photo[len(msg.Photo)-1].FileID
	}
	return in, true
}

// commandArgs returns the text after the leading /command token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}

// splitPipe splits s on "|" and trims every field.
func splitPipe(s string) []string {
	fields := strings.Split(s, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func reply(ctx context.Context, s Sender, log *slog.Logger, chatID int64, text string) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// errorText maps a service error to the message shown to the user.
// Unexpected errors yield the general error message and report false.
func errorText(err error, msgs config.MessagesConfig) (string, bool) {
	var verr *nest.ValidationError
	switch {
	case errors.As(err, &verr):
		var b strings.Builder
		b.WriteString(msgs.ValidationHeader)
		for _, m := range verr.Messages() {
			b.WriteString("\n• ")
			b.WriteString(m)
		}
		return b.String(), true
	case errors.Is(err, nest.ErrNotRegistered):
		return msgs.NotRegistered, true
	case errors.Is(err, nest.ErrUsernameTaken):
		return msgs.UsernameTaken, true
	case errors.Is(err, nest.ErrInvalidUsername):
		return msgs.InvalidUsername, true
	case errors.Is(err, nest.ErrEventNotFound):
		return msgs.EventNotFound, true
	case errors.Is(err, nest.ErrForbidden):
		return msgs.Forbidden, true
	case errors.Is(err, nest.ErrCalendarEmpty):
		return msgs.CalendarEmpty, true
	case errors.Is(err, nest.ErrInvalidInput):
		detail := strings.TrimPrefix(err.Error(), nest.ErrInvalidInput.Error()+": ")
		return fmt.Sprintf("🚫 %s", detail), true
	default:
		return msgs.GeneralError, false
	}
}

// replyError reports err to the user, logging it when it was unexpected.
func replyError(ctx context.Context, s Sender, log *slog.Logger, msgs config.MessagesConfig, chatID int64, err error) {
	text, expected := errorText(err, msgs)
	if expected {
		log.DebugContext(ctx, "Rejected request", "chat_id", chatID, "reason", err)
	} else {
		log.ErrorContext(ctx, "Request failed", "chat_id", chatID, "error", err)
	}
	reply(ctx, s, log, chatID, text)
}
