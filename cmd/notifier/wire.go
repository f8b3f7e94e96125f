package main

import (
	"database/sql"
	"fmt"
	"time"

	"anniversary_notifier/internal/app"
	"anniversary_notifier/internal/domain/notify"
	"anniversary_notifier/internal/infra/config"
	idb "anniversary_notifier/internal/infra/database"
	"anniversary_notifier/internal/infra/email"
	"anniversary_notifier/internal/infra/logger"
	"anniversary_notifier/internal/infra/metrics"
	"anniversary_notifier/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

const smtpTimeout = 30 * time.Second

// components are shared by the serve and run commands.
type components struct {
	db        *sql.DB
	bot       *telebot.Bot // nil without TELEGRAM_TOKEN
	metrics   *metrics.Metrics
	settings  *app.CachedSettings
	tracking  *idb.PostgresTrackingRepository
	schedules *idb.PostgresScheduleRepository
	finder    *app.CandidateFinder
	batch     *app.BatchJob
}

func buildComponents(cfg *config.AppConfig) (*components, error) {
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	logger.Log.Info("Database connection established successfully.")

	c := &components{
		db:        db,
		metrics:   metrics.New(),
		settings:  app.NewCachedSettings(idb.NewPostgresSettingsRepository(db), cfg.SettingsCacheTTL),
		tracking:  idb.NewPostgresTrackingRepository(db),
		schedules: idb.NewPostgresScheduleRepository(db),
	}
	contacts := idb.NewPostgresContactRepository(db)
	location := cfg.Location()

	var telegramClient *telegram.TelebotAdapter
	if cfg.TelegramToken != "" {
		c.bot, err = newBot(cfg.TelegramToken)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("could not create Telegram bot: %w", err)
		}
		telegramClient = telegram.NewTelebotAdapter(c.bot)
	} else {
		logger.Log.Warn("TELEGRAM_TOKEN is not set; feed posts and admin commands are disabled")
	}

	emailChannel := email.NewChannel(
		idb.NewPostgresTemplateRepository(db),
		email.NewShoutrrrSender(cfg.SMTPURL, smtpTimeout),
	)
	var feedChannel *telegram.FeedChannel
	if telegramClient != nil {
		feedChannel = telegram.NewFeedChannel(telegramClient, cfg.FeedChatID)
	} else {
		feedChannel = telegram.NewFeedChannel(nil, cfg.FeedChatID)
	}
	channels := []notify.Channel{emailChannel, feedChannel}

	c.finder = app.NewCandidateFinder(contacts, logger.Component("candidates"))
	c.batch = app.NewBatchJob(app.BatchDeps{
		Settings:   c.settings,
		Contacts:   contacts,
		Tracking:   c.tracking,
		Finder:     c.finder,
		Dedup:      app.NewDedupFilter(c.tracking, location),
		Dispatcher: app.NewDispatcher(channels, c.tracking, c.metrics, logger.Component("dispatcher")),
		Summary:    emailChannel,
		Metrics:    c.metrics,
		Logger:     logger.Component("batch"),
		ChunkSize:  cfg.BatchChunkSize,
		Location:   location,
	})
	return c, nil
}

func newBot(token string) (*telebot.Bot, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	return telebot.NewBot(pref)
}

func (c *components) Close() {
	if err := c.db.Close(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close database")
	}
}
