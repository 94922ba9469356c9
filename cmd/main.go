package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DiscordArchive/api"
	"DiscordArchive/config"
	"DiscordArchive/db"
	"DiscordArchive/internal/a2p"
	"DiscordArchive/internal/alerts"
	"DiscordArchive/internal/chat"
	"DiscordArchive/internal/discord"
	"DiscordArchive/internal/meetings"
	"DiscordArchive/internal/openai"
	"DiscordArchive/internal/webhooks"
	"DiscordArchive/scheduler"
	"DiscordArchive/utils"

	"github.com/bwmarrin/discordgo"
	log15 "github.com/inconshreveable/log15/v3"
	"github.com/redis/go-redis/v9"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log15.Crit("Loading .env failed", "err", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		log15.Crit("Invalid configuration", "err", err)
		os.Exit(1)
	}

	log := utils.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.Crit("Server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log log15.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	gdb, err := db.Open(startCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(startCtx, gdb); err != nil {
		return err
	}
	store := db.New(gdb)
	log.Info("Database ready")

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = utils.NewRedisClient(startCtx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info("Redis connected")
	} else {
		log.Warn("REDIS_URL not set, sweep locks and delivery de-duplication are local only")
	}
	keys := utils.NewKeyStore(rdb, "discord-archive:")

	cipher, err := utils.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	hooks := webhooks.NewDispatcher(store, cfg.WebhookTimeout, log)

	var (
		session    *discordgo.Session
		archiver   *discord.Archiver
		notifier   meetings.Notifier
		backfiller api.Backfiller
	)
	if cfg.DiscordEnabled() {
		session, err = discordgo.New("Bot " + cfg.Discord.BotToken)
		if err != nil {
			return err
		}
		archiver = discord.NewArchiver(ctx, store, hooks, log)
		archiver.Attach(session)
		if err := session.Open(); err != nil {
			return err
		}
		defer session.Close()
		notifier = discord.NewMeetingNotifier(session, log)
		backfiller = archiver
		log.Info("Discord bot connected")
	} else {
		log.Warn("DISCORD_BOT_TOKEN not set, archiving and channel posts are disabled")
	}
	owner := discord.NewOwnerNotifier(session, cfg.Discord.AlertChannelID, log)

	intake := meetings.NewIntake(store, meetings.NewRouter(store, log), notifier, keys, cfg.Discord.NotifyTimeout, log)
	evaluator := alerts.NewEvaluator(store, store, owner, log, alerts.WithLock(keys))
	chatSvc := chat.NewService(store, openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.Model), cipher, cfg.OpenAI.APIKey, log)
	a2pSvc := a2p.NewService(store, owner, log)

	sched, err := scheduler.New(scheduler.Jobs{
		AlertSchedule:      cfg.Scheduler.AlertSchedule,
		A2PSummarySchedule: cfg.Scheduler.A2PSummarySchedule,
	}, cfg.Location(), evaluator, a2pSvc, log)
	if err != nil {
		return err
	}
	sched.Start()

	h := api.New(api.Deps{
		Store:       store,
		Intake:      intake,
		Alerts:      evaluator,
		Webhooks:    hooks,
		Chat:        chatSvc,
		A2P:         a2pSvc,
		Backfill:    backfiller,
		OwnerUserID: cfg.OwnerUserID,
		Log:         log,
	})
	srv := &http.Server{
		Handler:           SetupRouter(h, cfg.CORSAllowedOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := listen(ctx, cfg, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", "err", err)
	}
	sched.Stop(shutdownCtx)
	if archiver != nil {
		archiver.Wait()
	}
	return nil
}

// listen serves through an ngrok tunnel when an authtoken is configured, so
// Read.ai can reach a development machine.
func listen(ctx context.Context, cfg *config.Config, log log15.Logger) (net.Listener, error) {
	if cfg.NgrokAuthtoken == "" {
		ln, err := net.Listen("tcp", ":"+cfg.Port)
		if err != nil {
			return nil, err
		}
		log.Info("Server running", "port", cfg.Port)
		return ln, nil
	}

	tun, err := ngrok.Listen(ctx, ngrokconfig.HTTPEndpoint(), ngrok.WithAuthtoken(cfg.NgrokAuthtoken))
	if err != nil {
		return nil, err
	}
	log.Info("Server running behind ngrok", "url", tun.URL())
	return tun, nil
}
