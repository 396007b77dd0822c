package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the bot process.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the status server
	Addr string
	// Port is the binding port for the status server
	Port int
	// Data is the data directory
	Data string
	// Driver is the store backend (jsonfile, sqlite or postgres)
	Driver string
	// DSN points to where eventbot stores its own data
	DSN string
	// Version is the current version of the bot
	Version string

	// Telegram Configuration
	TelegramToken  string // EVENTBOT_TELEGRAM_TOKEN
	TelegramChatID int64  // EVENTBOT_TELEGRAM_CHAT_ID (the single authorized principal)
	PollTimeout    time.Duration

	// Reminder Configuration
	CheckInterval time.Duration // how often the daemon scans for due reminders

	// Twilio Voice Configuration (optional side channel)
	TwilioAccountSID string // EVENTBOT_TWILIO_ACCOUNT_SID
	TwilioAuthToken  string // EVENTBOT_TWILIO_AUTH_TOKEN
	TwilioFromNumber string // EVENTBOT_TWILIO_FROM_NUMBER
	TwilioToNumber   string // EVENTBOT_TWILIO_TO_NUMBER
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsVoiceEnabled returns true if all Twilio credentials are configured.
func (p *Profile) IsVoiceEnabled() bool {
	return p.TwilioAccountSID != "" && p.TwilioAuthToken != "" && p.TwilioFromNumber != "" && p.TwilioToNumber != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from EVENTBOT_* environment variables.
func (p *Profile) FromEnv() {
	p.TelegramToken = getEnvOrDefault("EVENTBOT_TELEGRAM_TOKEN", p.TelegramToken)
	if v := os.Getenv("EVENTBOT_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.TelegramChatID = id
		}
	}
	p.TwilioAccountSID = getEnvOrDefault("EVENTBOT_TWILIO_ACCOUNT_SID", p.TwilioAccountSID)
	p.TwilioAuthToken = getEnvOrDefault("EVENTBOT_TWILIO_AUTH_TOKEN", p.TwilioAuthToken)
	p.TwilioFromNumber = getEnvOrDefault("EVENTBOT_TWILIO_FROM_NUMBER", p.TwilioFromNumber)
	p.TwilioToNumber = getEnvOrDefault("EVENTBOT_TWILIO_TO_NUMBER", p.TwilioToNumber)
	if v := os.Getenv("EVENTBOT_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			p.CheckInterval = d
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "eventbot")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/eventbot"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "", "jsonfile":
		p.Driver = "jsonfile"
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, "events.json")
		}
	case "sqlite":
		if p.DSN == "" {
			dbFile := fmt.Sprintf("eventbot_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires a DSN")
		}
	default:
		return errors.Errorf("unsupported store driver: %q", p.Driver)
	}

	if p.TelegramToken == "" {
		return errors.New("telegram bot token is required")
	}
	if p.TelegramChatID == 0 {
		return errors.New("telegram chat id is required")
	}
	if p.CheckInterval <= 0 {
		p.CheckInterval = time.Minute
	}
	if p.PollTimeout <= 0 {
		p.PollTimeout = 10 * time.Second
	}

	return nil
}
