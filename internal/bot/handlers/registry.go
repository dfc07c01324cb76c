package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its description and middleware.
// It encapsulates all information needed to register and document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	// Description is shown in the Telegram command menu. Handlers without
	// one are not listed.
	Description string
}

func command(pattern, description string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     pattern,
		Handler:     h,
		Middleware:  mw,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: description,
	}
}

func photoCaption(pattern string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypePhotoCaption,
		Pattern:     "/" + pattern,
		Handler:     h,
		Middleware:  mw,
		MatchType:   tgbot.MatchTypePrefix,
	}
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// It configures each command with appropriate handlers and middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = command("start", "", NewStartHandler(deps))
	handlers["/help"] = command("help", "Show available commands", NewHelpHandler(deps))
	handlers["/cities"] = command("cities", "List supported cities", NewCitiesHandler(deps))
	handlers["/register"] = command("register", "Create your profile", NewRegisterHandler(deps))
	handlers["/login"] = command("login", "Sign back in", NewLoginHandler(deps))
	handlers["/logout"] = command("logout", "Sign out", NewLogoutHandler(deps))

	session := RequireSession(deps)

	handlers["/me"] = command("me", "Show your profile", NewMeHandler(deps), session)
	handlers["/bio"] = command("bio", "Update your bio", NewBioHandler(deps), session)
	handlers["/name"] = command("name", "Update your name", NewNameHandler(deps), session)
	handlers["/avatar"] = command("avatar", "", NewAvatarHandler(deps), session)
	handlers["/avatar photo"] = photoCaption("avatar", NewAvatarHandler(deps), session)

	handlers["/events"] = command("events", "Upcoming events in a city", NewEventsHandler(deps), session)
	handlers["/search"] = command("search", "Search events", NewSearchHandler(deps), session)
	handlers["/event"] = command("event", "Show an event", NewEventHandler(deps), session)
	handlers["/create"] = command("create", "Create an event", NewCreateHandler(deps), session)
	handlers["/edit"] = command("edit", "Edit your event", NewEditHandler(deps), session)
	handlers["/thumbnail"] = command("thumbnail", "", NewThumbnailHandler(deps), session)
	handlers["/thumbnail photo"] = photoCaption("thumbnail", NewThumbnailHandler(deps), session)

	handlers["/interested"] = command("interested", "Toggle interest in an event", NewInterestedHandler(deps), session)
	handlers["/going"] = command("going", "Toggle going to an event", NewGoingHandler(deps), session)
	handlers["/calendar"] = command("calendar", "Events you're going to", NewCalendarHandler(deps), session)
	handlers["/ics"] = command("ics", "Export your calendar", NewICSHandler(deps), session)

	return handlers
}
