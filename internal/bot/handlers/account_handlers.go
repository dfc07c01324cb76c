package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/nest"
)

// NewRegisterHandler returns a handler for /register <username> <name>.
func NewRegisterHandler(deps HandlerDeps) bot.HandlerFunc {
	return registerHandler{deps}.Handle
}

// registerHandler creates or renames the sender's profile and signs them in.
type registerHandler struct {
	deps HandlerDeps
}

func (h registerHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "register")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	fields := strings.Fields(commandArgs(in.text))
	if len(fields) < 2 {
		reply(ctx, s, log, in.chatID, msgs.RegisterUsage)
		return
	}

	user, err := h.deps.Service.Register(ctx, in.userID, fields[0], strings.Join(fields[1:], " "))
	if err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	reply(ctx, s, log, in.chatID, fmt.Sprintf(msgs.RegisteredFmt, user.Name, user.Username))
}

// NewLoginHandler returns a handler for the /login command.
func NewLoginHandler(deps HandlerDeps) bot.HandlerFunc {
	return loginHandler{deps}.Handle
}

type loginHandler struct {
	deps HandlerDeps
}

func (h loginHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "login")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)

	user, err := h.deps.Service.Login(ctx, in.userID)
	if err != nil {
		replyError(ctx, s, log, h.deps.Config.Messages, in.chatID, err)
		return
	}
	log.InfoContext(ctx, "User signed in", "user_id", in.userID)
	reply(ctx, s, log, in.chatID, fmt.Sprintf(h.deps.Config.Messages.LoggedInFmt, user.Name))
}

// NewLogoutHandler returns a handler for the /logout command.
func NewLogoutHandler(deps HandlerDeps) bot.HandlerFunc {
	return logoutHandler{deps}.Handle
}

type logoutHandler struct {
	deps HandlerDeps
}

func (h logoutHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "logout")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}

	h.deps.Service.SignOut(in.userID)
	log.InfoContext(ctx, "User signed out", "user_id", in.userID)
	reply(ctx, h.deps.sender(b), log, in.chatID, h.deps.Config.Messages.LoggedOut)
}

// NewMeHandler returns a handler for the /me command. The profile picture,
// when set, is sent with the profile as its caption; the events the user
// created follow in a separate message.
func NewMeHandler(deps HandlerDeps) bot.HandlerFunc {
	return meHandler{deps}.Handle
}

type meHandler struct {
	deps HandlerDeps
}

func (h meHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "me")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)

	user, err := h.deps.Service.Profile(ctx, in.userID)
	if err != nil {
		replyError(ctx, s, log, h.deps.Config.Messages, in.chatID, err)
		return
	}

	h.sendProfile(ctx, s, log, in.chatID, user)

	events, err := h.deps.Service.EventsByOrganiser(ctx, in.userID)
	if err != nil {
		replyError(ctx, s, log, h.deps.Config.Messages, in.chatID, err)
		return
	}
	if len(events) > 0 {
		reply(ctx, s, log, in.chatID, nest.FormatOrganisedEvents(events))
	}
}

func (h meHandler) sendProfile(ctx context.Context, s Sender, log *slog.Logger, chatID int64, user *database.User) {
	profile := nest.FormatProfile(user)
	if user.ProfilePic == "" {
		reply(ctx, s, log, chatID, profile)
		return
	}
	_, err := s.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileString{Data: user.ProfilePic},
		Caption: profile,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send profile photo", "error", err, "chat_id", chatID)
		reply(ctx, s, log, chatID, profile)
	}
}

// NewBioHandler returns a handler for /bio <text>.
func NewBioHandler(deps HandlerDeps) bot.HandlerFunc {
	return bioHandler{deps}.Handle
}

type bioHandler struct {
	deps HandlerDeps
}

func (h bioHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "bio")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	bio := commandArgs(in.text)
	if bio == "" {
		reply(ctx, s, log, in.chatID, msgs.BioUsage)
		return
	}
	if _, err := h.deps.Service.UpdateBio(ctx, in.userID, bio); err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	reply(ctx, s, log, in.chatID, msgs.BioUpdated)
}

// NewNameHandler returns a handler for /name <text>.
func NewNameHandler(deps HandlerDeps) bot.HandlerFunc {
	return nameHandler{deps}.Handle
}

type nameHandler struct {
	deps HandlerDeps
}

func (h nameHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "name")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	name := commandArgs(in.text)
	if name == "" {
		reply(ctx, s, log, in.chatID, msgs.NameUsage)
		return
	}
	if _, err := h.deps.Service.UpdateName(ctx, in.userID, name); err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	reply(ctx, s, log, in.chatID, msgs.NameUpdated)
}

// NewAvatarHandler returns a handler for photos captioned /avatar.
func NewAvatarHandler(deps HandlerDeps) bot.HandlerFunc {
	return avatarHandler{deps}.Handle
}

type avatarHandler struct {
	deps HandlerDeps
}

func (h avatarHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "avatar")
	in, ok := parseIncoming(update)
	if !ok {
		return
	}
	s := h.deps.sender(b)
	msgs := h.deps.Config.Messages

	if in.photo == "" {
		reply(ctx, s, log, in.chatID, msgs.AvatarUsage)
		return
	}
	if _, err := h.deps.Service.SetProfilePic(ctx, in.userID, in.photo); err != nil {
		replyError(ctx, s, log, msgs, in.chatID, err)
		return
	}
	reply(ctx, s, log, in.chatID, msgs.AvatarUpdated)
}
