package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/eventbot/internal/profile"
	"github.com/hrygo/eventbot/plugin/telegram"
	"github.com/hrygo/eventbot/plugin/twilio"
	"github.com/hrygo/eventbot/server/bot"
	"github.com/hrygo/eventbot/server/notify"
	"github.com/hrygo/eventbot/server/reminder"
	"github.com/hrygo/eventbot/server/router/web"
	"github.com/hrygo/eventbot/store"
	"github.com/hrygo/eventbot/store/db"
)

const greetingBanner = `
Event Bot - single-principal Telegram reminder bot
`

var (
	rootCmd = &cobra.Command{
		Use:   "eventbot",
		Short: "A single-principal Telegram reminder bot with yearly recurrence",
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile := &profile.Profile{
				Mode:          viper.GetString("mode"),
				Addr:          viper.GetString("addr"),
				Port:          viper.GetInt("port"),
				Data:          viper.GetString("data"),
				Driver:        viper.GetString("driver"),
				DSN:           viper.GetString("dsn"),
				CheckInterval: viper.GetDuration("check-interval"),
				PollTimeout:   viper.GetDuration("poll-timeout"),
				Version:       version,
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(instanceProfile)
		},
	}

	version = "0.9.0"
)

func init() {
	rootCmd.PersistentFlags().String("mode", "demo", `mode of the bot, can be "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address for the status server")
	rootCmd.PersistentFlags().Int("port", 8230, "binding port for the status server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "jsonfile", `store backend, can be "jsonfile", "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().Duration("check-interval", time.Minute, "how often to scan for due reminders")
	rootCmd.PersistentFlags().Duration("poll-timeout", 10*time.Second, "telegram long-poll timeout")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "check-interval", "poll-timeout"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("eventbot")
	viper.AutomaticEnv()
}

func run(instanceProfile *profile.Profile) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(instanceProfile),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return fmt.Errorf("failed to create store driver: %w", err)
	}
	defer driver.Close()

	eventStore := store.New(driver, instanceProfile)

	telegramClient := telegram.NewClient(telegram.Config{
		Token:       instanceProfile.TelegramToken,
		PollTimeout: instanceProfile.PollTimeout,
	})

	var notifier *notify.Notifier
	if instanceProfile.IsVoiceEnabled() {
		twilioClient := twilio.NewClient(twilio.Config{
			AccountSID: instanceProfile.TwilioAccountSID,
			AuthToken:  instanceProfile.TwilioAuthToken,
		})
		notifier = notify.NewWithTwilio(telegramClient, instanceProfile.TelegramChatID, twilioClient)
	} else {
		notifier = notify.New(telegramClient, instanceProfile.TelegramChatID, nil)
	}

	daemon := reminder.NewDaemon(eventStore, notifier, reminder.DaemonConfig{
		Interval:        instanceProfile.CheckInterval,
		VoiceFromNumber: instanceProfile.TwilioFromNumber,
		VoiceToNumber:   instanceProfile.TwilioToNumber,
	})

	sessions := bot.NewSessionStore()
	engine := bot.NewEngine(eventStore, sessions)
	dispatcher := bot.NewDispatcher(telegramClient, eventStore, engine, instanceProfile.TelegramChatID)
	poller := telegram.NewPoller(telegramClient, eventStore, dispatcher)
	webService := web.NewService(instanceProfile, eventStore, daemon)

	fmt.Print(greetingBanner)
	logger.Info("eventbot starting",
		"version", instanceProfile.Version,
		"mode", instanceProfile.Mode,
		"driver", instanceProfile.Driver,
		"check_interval", instanceProfile.CheckInterval)

	if err := daemon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reminder daemon: %w", err)
	}
	if err := poller.Start(ctx); err != nil {
		daemon.Stop()
		return fmt.Errorf("failed to start telegram poller: %w", err)
	}
	if err := dispatcher.AnnounceStartup(ctx); err != nil {
		logger.Warn("failed to send startup greeting", "error", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return webService.Start(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		poller.Stop()
		daemon.Stop()
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}
	logger.Info("eventbot stopped")
	return nil
}

func logLevel(p *profile.Profile) slog.Level {
	if p.IsDev() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
