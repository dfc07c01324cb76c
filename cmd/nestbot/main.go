// Package main contains the entrypoint for the nestbot Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/edgard/nestbot/internal/bot"
	"github.com/edgard/nestbot/internal/bot/handlers"
	"github.com/edgard/nestbot/internal/bot/tasks"
	"github.com/edgard/nestbot/internal/clock"
	"github.com/edgard/nestbot/internal/config"
	"github.com/edgard/nestbot/internal/database"
	"github.com/edgard/nestbot/internal/logger"
	"github.com/edgard/nestbot/internal/nest"
	"github.com/edgard/nestbot/internal/resilience"
	"github.com/edgard/nestbot/internal/session"
	"github.com/edgard/nestbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		slog.Error("nestbot failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "nestbot",
		Usage: "Discover events in your city and RSVP, on Telegram.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./config.yaml",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			},
		},
		Action: runBot,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start the bot (default)",
				Action: runBot,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: migrateDB,
			},
			{
				Name:  "events",
				Usage: "Print the upcoming events feed of a city",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "city", Required: true, Usage: "one of the configured cities"},
				},
				Action: printEvents,
			},
		},
	}
}

// app holds what every command needs.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *sqlx.DB
	store database.Store
	loc   *time.Location
}

func setup(c *cli.Context) (*app, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	loc, err := time.LoadLocation(cfg.Events.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid events timezone %q: %w", cfg.Events.Timezone, err)
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}

	return &app{cfg: cfg, log: log, db: db, store: database.NewStore(db, log), loc: loc}, nil
}

func (a *app) close() {
	database.CloseDB(a.db)
}

func (a *app) service(sessions *session.Registry) *nest.Service {
	return nest.NewService(a.store, sessions, clock.NewSystem(a.loc), a.cfg.Events.Cities,
		nest.WithLocation(a.loc),
		nest.WithFeedLimit(a.cfg.Events.FeedLimit),
		nest.WithLogger(a.log),
	)
}

func migrateDB(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	a.log.Info("Database is up to date", "path", a.cfg.Database.Path)
	return nil
}

func printEvents(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.service(session.NewRegistry(a.log))
	city := c.String("city")
	events, err := svc.Events(c.Context, city)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		canonical, _ := svc.CanonicalCity(city)
		fmt.Fprintf(c.App.Writer, a.cfg.Messages.NoEventsFmt+"\n", canonical)
		return nil
	}
	fmt.Fprintln(c.App.Writer, nest.FormatEventList(events, svc.Today()))
	return nil
}

// runBot wires every component and blocks until the process is signalled.
func runBot(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := c.Context
	log := a.log

	sessions := session.NewRegistry(log)
	svc := a.service(sessions)

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  a.cfg,
		Service: svc,
	}

	tg, err := telegram.NewTelegramBot(a.cfg.Telegram.Token, log, tgbot.WithMiddlewares(logger.Middleware(log)))
	if err != nil {
		return err
	}

	a.cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Info("Retrieved bot info", "bot_id", a.cfg.Telegram.BotInfo.ID, "bot_username", a.cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		return err
	}
	if err := telegram.SetCommands(ctx, tg, log, cmdHandlers); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    a.store,
		Service:  svc,
		Notifier: resilience.NewNotifier(tg, resilience.Config{Name: "reminders"}, log),
		Config:   a.cfg,
	}
	sched, err := bot.NewScheduler(log, &a.cfg.Scheduler, tasks.RegisterAllTasks(tDeps), a.loc)
	if err != nil {
		return err
	}

	log.Info("Starting bot...")
	runErr := bot.NewBot(log, tg, sched, sessions).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", runErr)
	}

	log.Info("Bot stopped gracefully.")
	return nil
}
