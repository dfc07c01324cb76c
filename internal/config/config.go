// Package config provides configuration loading, validation, and management
// for nestbot. Values come from built-in defaults, an optional YAML file,
// a .env file and NEST_* environment variables, in increasing priority.
package config

import (
	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Events    EventsConfig    `mapstructure:"events"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// TelegramConfig holds the bot credentials. BotInfo is filled at runtime
// from getMe.
type TelegramConfig struct {
	Token   string       `mapstructure:"token" validate:"required"`
	BotInfo *models.User `mapstructure:"-" validate:"-"`
}

// EventsConfig tunes the event directory.
type EventsConfig struct {
	Cities        []string `mapstructure:"cities"         validate:"required,min=1,unique,dive,required"`
	Timezone      string   `mapstructure:"timezone"       validate:"required,timezone"`
	FeedLimit     int      `mapstructure:"feed_limit"     validate:"min=1,max=50"`
	ReminderDays  int      `mapstructure:"reminder_days"  validate:"min=0,max=30"`
	RetentionDays int      `mapstructure:"retention_days" validate:"min=1"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task on a cron schedule (5 fields, 6 with seconds,
// or an @descriptor).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"omitempty,cronspec"`
}

// MessagesConfig holds every user-facing string. Strings ending in Fmt are
// fmt templates.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"           validate:"required"`
	Help             string `mapstructure:"help"              validate:"required"`
	GeneralError     string `mapstructure:"general_error"     validate:"required"`
	NotRegistered    string `mapstructure:"not_registered"    validate:"required"`
	RegisterUsage    string `mapstructure:"register_usage"    validate:"required"`
	RegisteredFmt    string `mapstructure:"registered_fmt"    validate:"required"`
	UsernameTaken    string `mapstructure:"username_taken"    validate:"required"`
	InvalidUsername  string `mapstructure:"invalid_username"  validate:"required"`
	LoggedOut        string `mapstructure:"logged_out"        validate:"required"`
	LoggedInFmt      string `mapstructure:"logged_in_fmt"     validate:"required"`
	BioUsage         string `mapstructure:"bio_usage"         validate:"required"`
	BioUpdated       string `mapstructure:"bio_updated"       validate:"required"`
	NameUsage        string `mapstructure:"name_usage"        validate:"required"`
	NameUpdated      string `mapstructure:"name_updated"      validate:"required"`
	AvatarUsage      string `mapstructure:"avatar_usage"      validate:"required"`
	AvatarUpdated    string `mapstructure:"avatar_updated"    validate:"required"`
	NoEventsFmt      string `mapstructure:"no_events_fmt"     validate:"required"`
	EventsUsage      string `mapstructure:"events_usage"      validate:"required"`
	EventsHeaderFmt  string `mapstructure:"events_header_fmt" validate:"required"`
	SearchHeader     string `mapstructure:"search_header"     validate:"required"`
	UnknownCityFmt   string `mapstructure:"unknown_city_fmt"  validate:"required"`
	CitiesHeader     string `mapstructure:"cities_header"     validate:"required"`
	SearchUsage      string `mapstructure:"search_usage"      validate:"required"`
	NoResults        string `mapstructure:"no_results"        validate:"required"`
	EventUsage       string `mapstructure:"event_usage"       validate:"required"`
	EventNotFound    string `mapstructure:"event_not_found"   validate:"required"`
	CreateUsage      string `mapstructure:"create_usage"      validate:"required"`
	EditUsage        string `mapstructure:"edit_usage"        validate:"required"`
	ValidationHeader string `mapstructure:"validation_header" validate:"required"`
	EventCreatedFmt  string `mapstructure:"event_created_fmt" validate:"required"`
	EventUpdated     string `mapstructure:"event_updated"     validate:"required"`
	Forbidden        string `mapstructure:"forbidden"         validate:"required"`
	ThumbnailUsage   string `mapstructure:"thumbnail_usage"   validate:"required"`
	ThumbnailUpdated string `mapstructure:"thumbnail_updated" validate:"required"`
	InterestAdded    string `mapstructure:"interest_added"    validate:"required"`
	InterestRemoved  string `mapstructure:"interest_removed"  validate:"required"`
	GoingAdded       string `mapstructure:"going_added"       validate:"required"`
	GoingRemoved     string `mapstructure:"going_removed"     validate:"required"`
	CalendarEmpty    string `mapstructure:"calendar_empty"    validate:"required"`
	CalendarCaption  string `mapstructure:"calendar_caption"  validate:"required"`
	ReminderFmt      string `mapstructure:"reminder_fmt"      validate:"required"`
}
