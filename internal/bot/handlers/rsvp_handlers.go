package handlers

import (
	"bytes"
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nestbot/internal/nest"
)

const calendarFilename = "nest.ics"

// NewInterestedHandler returns a handler for /interested <id>.
func NewInterestedHandler(deps HandlerDeps) bot.HandlerFunc {
	return rsvpHandler{
		deps:    deps,
		name:    "interested",
		toggle:  deps.Service.ToggleInterest,
		added:   deps.Config.Messages.InterestAdded,
		removed: deps.Config.Messages.InterestRemoved,
	}.Handle
}

// NewGoingHandler returns a handler for /going <id>.
func NewGoingHandler(deps HandlerDeps) bot.HandlerFunc {
	return rsvpHandler{
		deps:    deps,
		name:    "going",
		toggle:  deps.Service.ToggleGoing,
		added:   deps.Config.Messages.GoingAdded,
		removed: deps.Config.Messages.GoingRemoved,
	}.Handle
}

// rsvpHandler flips one RSVP of the sender and reports the new state.
type rsvpHandler struct {
	deps           HandlerDeps
	name           string
	toggle         func(ctx context.Context, userID int64, eventID string) (bool, error)
	added, removed string
}

func (h rsvpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)

	id := commandArgs(in.text)
	if id == "" {
		reply(ctx, s, log, in.chatID, h.deps.Config.Messages.EventUsage)
		return
	}
	on, err := h.toggle(ctx, in.userID, id)
	if err != nil {
		replyError(ctx, s, log, h.deps.Config.Messages, in.chatID, err)
		return
	}
	log.InfoContext(ctx, "RSVP toggled", "user_id", in.userID, "event_id", id, "on", on)

	if on {
		reply(ctx, s, log, in.chatID, h.added)
	} else {
		reply(ctx, s, log, in.chatID, h.removed)
	}
}

// NewCalendarHandler returns a handler for /calendar.
func NewCalendarHandler(deps HandlerDeps) bot.HandlerFunc {
	return calendarHandler{deps}.Handle
}

type calendarHandler struct {
	deps HandlerDeps
}

func (h calendarHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "calendar")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)

	days, err := h.deps.Service.Calendar(ctx, in.userID)
	if err != nil {
		replyError(ctx, s, log, h.deps.Config.Messages, in.chatID, err)
		return
	}
	if len(days) == 0 {
		reply(ctx, s, log, in.chatID, h.deps.Config.Messages.CalendarEmpty)
		return
	}
	reply(ctx, s, log, in.chatID, nest.FormatCalendar(days, h.deps.Service.Today()))
}

// NewICSHandler returns a handler for /ics, which sends the sender's
// calendar as an iCalendar file.
func NewICSHandler(deps HandlerDeps) bot.HandlerFunc {
	return icsHandler{deps}.Handle
}

type icsHandler struct {
	deps HandlerDeps
}

func (h icsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ics")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)

	data, err := h.deps.Service.ExportCalendar(ctx, in.userID)
	if err != nil {
		replyError(ctx, s, log, h.deps.Config.Messages, in.chatID, err)
		return
	}

	_, err = s.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   in.chatID,
		Document: &models.InputFileUpload{Filename: calendarFilename, Data: bytes.NewReader(data)},
		Caption:  h.deps.Config.Messages.CalendarCaption,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send calendar file", "error", err, "chat_id", in.chatID)
		reply(ctx, s, log, in.chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	log.InfoContext(ctx, "Calendar exported", "user_id", in.userID, "bytes", len(data))
}
