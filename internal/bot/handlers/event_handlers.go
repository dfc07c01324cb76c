package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nestbot/internal/nest"
)

// NewEventsHandler returns a handler for /events <city>, the city feed.
func NewEventsHandler(deps HandlerDeps) bot.HandlerFunc {
	return eventsHandler{deps}.Handle
}

type eventsHandler struct {
	deps HandlerDeps
}

func (h eventsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "events")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	arg := commandArgs(in.text)
	if arg == "" {
		reply(ctx, s, log, in.chatID, msgs.EventsUsage)
		return
	}
	city, ok := h.deps.Service.CanonicalCity(arg)
	if !ok {
		reply(ctx, s, log, in.chatID, fmt.Sprintf(msgs.UnknownCityFmt, arg))
		return
	}

	events, err := h.deps.Service.Events(ctx, city)
	if err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	if len(events) == 0 {
		reply(ctx, s, log, in.chatID, fmt.Sprintf(msgs.NoEventsFmt, city))
		return
	}
	header := fmt.Sprintf(msgs.EventsHeaderFmt, city)
	reply(ctx, s, log, in.chatID, header+"\n\n"+nest.FormatEventList(events, h.deps.Service.Today()))
}

// NewSearchHandler returns a handler for /search <text> [| city].
func NewSearchHandler(deps HandlerDeps) bot.HandlerFunc {
	return searchHandler{deps}.Handle
}

type searchHandler struct {
	deps HandlerDeps
}

func (h searchHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "search")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	parts := splitPipe(commandArgs(in.text))
	query := parts[0]
	if query == "" || len(parts) > 2 {
		reply(ctx, s, log, in.chatID, msgs.SearchUsage)
		return
	}
	var city string
	if len(parts) == 2 && parts[1] != "" {
		canonical, ok := h.deps.Service.CanonicalCity(parts[1])
		if !ok {
			reply(ctx, s, log, in.chatID, fmt.Sprintf(msgs.UnknownCityFmt, parts[1]))
			return
		}
		city = canonical
	}

	events, err := h.deps.Service.Search(ctx, query, city)
	if err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	if len(events) == 0 {
		reply(ctx, s, log, in.chatID, msgs.NoResults)
		return
	}
	reply(ctx, s, log, in.chatID, msgs.SearchHeader+"\n\n"+nest.FormatEventList(events, h.deps.Service.Today()))
}

// NewEventHandler returns a handler for /event <id>. The thumbnail, when
// set, is sent before the details.
func NewEventHandler(deps HandlerDeps) bot.HandlerFunc {
	return eventHandler{deps}.Handle
}

type eventHandler struct {
	deps HandlerDeps
}

func (h eventHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "event")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	id := commandArgs(in.text)
	if id == "" {
		reply(ctx, s, log, in.chatID, msgs.EventUsage)
		return
	}
	view, err := h.deps.Service.Event(ctx, id, in.userID)
	if err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}

	if view.Thumbnail != "" {
		_, err := s.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  in.chatID,
			Photo:   &models.InputFileString{Data: view.Thumbnail},
			Caption: view.Name,
		})
		if err != nil {
			log.WarnContext(ctx, "Failed to send event thumbnail", "error", err, "event_id", view.ID)
		}
	}
	reply(ctx, s, log, in.chatID, nest.FormatEventDetails(*view, h.deps.Service.Today()))
}

// NewCreateHandler returns a handler for /create with nine "|" separated
// fields.
func NewCreateHandler(deps HandlerDeps) bot.HandlerFunc {
	return createHandler{deps}.Handle
}

type createHandler struct {
	deps HandlerDeps
}

func (h createHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "create")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	args := commandArgs(in.text)
	form, ok := parseForm(splitPipe(args), nest.EventForm{})
	if args == "" || !ok {
		reply(ctx, s, log, in.chatID, msgs.CreateUsage)
		return
	}

	event, err := h.deps.Service.CreateEvent(ctx, in.userID, form)
	if err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	reply(ctx, s, log, in.chatID, fmt.Sprintf(msgs.EventCreatedFmt, event.ID))
}

// NewEditHandler returns a handler for /edit <id> | fields. A field given
// as "-" keeps its current value.
func NewEditHandler(deps HandlerDeps) bot.HandlerFunc {
	return editHandler{deps}.Handle
}

type editHandler struct {
	deps HandlerDeps
}

func (h editHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "edit")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	parts := splitPipe(commandArgs(in.text))
	if len(parts) != formFieldCount+1 || parts[0] == "" {
		reply(ctx, s, log, in.chatID, msgs.EditUsage)
		return
	}

	current, err := h.deps.Service.Event(ctx, parts[0], in.userID)
	if err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	form, _ := parseForm(parts[1:], nest.FormFromEvent(current.Event))

	if _, err := h.deps.Service.UpdateEvent(ctx, in.userID, current.ID, form); err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	reply(ctx, s, log, in.chatID, msgs.EventUpdated)
}

// NewThumbnailHandler returns a handler for photos captioned
// /thumbnail <id>.
func NewThumbnailHandler(deps HandlerDeps) bot.HandlerFunc {
	return thumbnailHandler{deps}.Handle
}

type thumbnailHandler struct {
	deps HandlerDeps
}

func (h thumbnailHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "thumbnail")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	id := commandArgs(in.text)
	if in.photo == "" || id == "" {
		reply(ctx, s, log, in.chatID, msgs.ThumbnailUsage)
		return
	}
	if _, err := h.deps.Service.SetThumbnail(ctx, in.userID, id, in.photo); err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	reply(ctx, s, log, in.chatID, msgs.ThumbnailUpdated)
}
