package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"botadmin/bot"
	"botadmin/impl/auth"
	"botadmin/impl/core"
	"botadmin/internal/config"
	"botadmin/internal/database"
	"botadmin/internal/http-server/api"
	"botadmin/internal/scheduler"
	"botadmin/internal/store"
	"botadmin/lib/logger"
	"botadmin/lib/sl"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	baseLog := logger.SetupLogger(conf.Env, *logPath)

	// Admin notifications go through the bot, which does not exist until the facade is built.
	notifier := &adminNotifier{}
	log := baseLog
	if level, ok := logger.ParseLevel(conf.Telegram.NotifyLevel); ok {
		log = slog.New(logger.NewTelegramHandler(baseLog.Handler(), notifier, level))
	}
	log.Info("starting botadmin", slog.String("config", *configPath), slog.String("env", conf.Env))

	location, err := time.LoadLocation(conf.Telegram.Timezone)
	if err != nil {
		log.With(slog.String("timezone", conf.Telegram.Timezone)).Warn("unknown timezone, using UTC", sl.Err(err))
		location = time.UTC
	}

	var docs database.Documents = database.NewFileStore("")
	if conf.Mongo.Enabled {
		docs = database.NewMongoClient(conf.Mongo)
		log.With(slog.String("host", conf.Mongo.Host), slog.String("database", conf.Mongo.Database)).Info("using mongodb storage")
	}

	storeOpts := []store.Option{
		store.WithLocation(location),
		store.WithCodes(conf.Codes.Length, conf.Codes.TTL),
	}
	users := store.NewUsers(docs, conf.Data.UsersFile, log, storeOpts...)
	access := store.NewAccess(docs, conf.Data.AccessCodesFile, log, storeOpts...)
	broadcasts := store.NewBroadcasts(docs, conf.Data.BroadcastsFile, log, storeOpts...)

	adminIds, err := config.LoadAdminIds(conf.Data.AdminsFile)
	if err != nil {
		log.With(slog.String("file", conf.Data.AdminsFile)).Error("loading admin ids", sl.Err(err))
		adminIds = []int64{}
	}
	log.With(slog.Int("count", len(adminIds))).Info("admins loaded")

	authService := auth.New(adminIds, conf.Listen.ApiToken)
	admin := core.New(users, access, broadcasts, authService, log, core.Options{
		CleanupDelay: conf.Telegram.CleanupDelay,
		UnbanDelay:   conf.Telegram.UnbanDelay,
		MaxBatch:     conf.Codes.MaxBatch,
	})

	// The bot logs through the base logger so a failed notification never notifies again.
	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, admin, baseLog, bot.BotConfig{
		DigestInterval: conf.Telegram.DigestInterval,
	})
	if err != nil {
		log.Error("creating telegram bot", sl.Err(err))
		os.Exit(1)
	}
	admin.SetMessenger(tgBot)
	notifier.set(tgBot)

	sched := scheduler.New(conf.Codes.PurgeSchedule, admin, log)
	if err = sched.Start(); err != nil {
		log.Error("starting scheduler", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var apiServer *api.Server
	if conf.Listen.Enabled && conf.Listen.ApiToken != "" {
		apiServer = api.New(conf.Listen, log, admin)
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Error("api server", sl.Err(err))
				stop()
			}
		}()
	} else if conf.Listen.Enabled {
		log.Warn("api server disabled: no api token configured")
	}

	go func() {
		if err := tgBot.Start(); err != nil {
			log.Error("telegram bot", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	tgBot.Stop()
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error("api server shutdown", sl.Err(err))
		}
		cancel()
	}
	sched.Stop()
	admin.Wait()
	baseLog.Info("stopped")
}

type adminNotifier struct {
	mu  sync.RWMutex
	bot *bot.TgBot
}

func (n *adminNotifier) set(b *bot.TgBot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bot = b
}

func (n *adminNotifier) NotifyAdmins(msg string, level slog.Level) {
	n.mu.RLock()
	b := n.bot
	n.mu.RUnlock()
	if b != nil {
		b.NotifyAdmins(msg, level)
	}
}
