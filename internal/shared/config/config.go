package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv    string
	HTTP      HTTPConfig
	Postgres  PostgresConfig
	Store     StoreConfig
	Simulator SimulatorConfig
	Heartbeat HeartbeatConfig
	Hub       HubConfig
	Telegram  TelegramConfig
}

type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
}

type PostgresConfig struct {
	URL     string
	Migrate bool
}

// StoreConfig identifies the simulated point of sale in persisted lines.
type StoreConfig struct {
	ID      string
	Channel string
}

type SimulatorConfig struct {
	MinWait             time.Duration
	MaxWait             time.Duration
	CooldownOnError     time.Duration
	PersistTimeout      time.Duration
	BasketSizeWeights   []int
	UnitsPerItemWeights []int
	PriceJitterMin      float64
	PriceJitterMax      float64
}

type HeartbeatConfig struct {
	Interval time.Duration
}

type HubConfig struct {
	QueueCapacity int
	SendTimeout   time.Duration
}

// TelegramConfig enables the sale relay when both fields are set.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Enabled reports whether the Telegram relay should run.
func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// envBindings maps viper keys to environment variable names.
var envBindings = map[string]string{
	"app.env":                          "APP_ENV",
	"http.addr":                        "HTTP_ADDR",
	"http.allowedOrigins":              "HTTP_ALLOWED_ORIGINS",
	"postgres.url":                     "DATABASE_URL",
	"postgres.migrate":                 "DATABASE_MIGRATE",
	"store.id":                         "STORE_ID",
	"store.channel":                    "STORE_CHANNEL",
	"simulator.minWaitSeconds":         "SIM_MIN_WAIT_SECONDS",
	"simulator.maxWaitSeconds":         "SIM_MAX_WAIT_SECONDS",
	"simulator.cooldownOnErrorSeconds": "SIM_COOLDOWN_SECONDS",
	"simulator.persistTimeoutSeconds":  "SIM_PERSIST_TIMEOUT_SECONDS",
	"simulator.basketSizeWeights":      "SIM_BASKET_SIZE_WEIGHTS",
	"simulator.unitsPerItemWeights":    "SIM_UNITS_PER_ITEM_WEIGHTS",
	"simulator.priceJitterMin":         "SIM_PRICE_JITTER_MIN",
	"simulator.priceJitterMax":         "SIM_PRICE_JITTER_MAX",
	"heartbeat.intervalSeconds":        "HEARTBEAT_INTERVAL_SECONDS",
	"hub.perSubscriberQueueCapacity":   "HUB_QUEUE_CAPACITY",
	"hub.sendTimeoutSeconds":           "HUB_SEND_TIMEOUT_SECONDS",
	"telegram.token":                   "TELEGRAM_BOT_TOKEN",
	"telegram.chatID":                  "TELEGRAM_CHAT_ID",
}

// Load loads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	// A missing .env is fine; we then rely on OS-set env vars.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	v.SetDefault("app.env", "dev")
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.allowedOrigins", "*")
	v.SetDefault("postgres.migrate", true)
	v.SetDefault("store.id", "STORE_MAIN")
	v.SetDefault("store.channel", "Retail")
	v.SetDefault("simulator.minWaitSeconds", 40)
	v.SetDefault("simulator.maxWaitSeconds", 90)
	v.SetDefault("simulator.cooldownOnErrorSeconds", 10)
	v.SetDefault("simulator.persistTimeoutSeconds", 10)
	v.SetDefault("simulator.basketSizeWeights", "70,20,10")
	v.SetDefault("simulator.unitsPerItemWeights", "90,10")
	v.SetDefault("simulator.priceJitterMin", 0.99)
	v.SetDefault("simulator.priceJitterMax", 1.01)
	v.SetDefault("heartbeat.intervalSeconds", 5)
	v.SetDefault("hub.perSubscriberQueueCapacity", 32)
	v.SetDefault("hub.sendTimeoutSeconds", 5)

	basketWeights, err := parseWeights(v.GetString("simulator.basketSizeWeights"))
	if err != nil {
		return nil, fmt.Errorf("SIM_BASKET_SIZE_WEIGHTS: %w", err)
	}
	unitWeights, err := parseWeights(v.GetString("simulator.unitsPerItemWeights"))
	if err != nil {
		return nil, fmt.Errorf("SIM_UNITS_PER_ITEM_WEIGHTS: %w", err)
	}

	cfg := Config{
		AppEnv: v.GetString("app.env"),
		HTTP: HTTPConfig{
			Addr:           v.GetString("http.addr"),
			AllowedOrigins: splitList(v.GetString("http.allowedOrigins")),
		},
		Postgres: PostgresConfig{
			URL:     v.GetString("postgres.url"),
			Migrate: v.GetBool("postgres.migrate"),
		},
		Store: StoreConfig{
			ID:      v.GetString("store.id"),
			Channel: v.GetString("store.channel"),
		},
		Simulator: SimulatorConfig{
			MinWait:             seconds(v, "simulator.minWaitSeconds"),
			MaxWait:             seconds(v, "simulator.maxWaitSeconds"),
			CooldownOnError:     seconds(v, "simulator.cooldownOnErrorSeconds"),
			PersistTimeout:      seconds(v, "simulator.persistTimeoutSeconds"),
			BasketSizeWeights:   basketWeights,
			UnitsPerItemWeights: unitWeights,
			PriceJitterMin:      v.GetFloat64("simulator.priceJitterMin"),
			PriceJitterMax:      v.GetFloat64("simulator.priceJitterMax"),
		},
		Heartbeat: HeartbeatConfig{
			Interval: seconds(v, "heartbeat.intervalSeconds"),
		},
		Hub: HubConfig{
			QueueCapacity: v.GetInt("hub.perSubscriberQueueCapacity"),
			SendTimeout:   seconds(v, "hub.sendTimeoutSeconds"),
		},
		Telegram: TelegramConfig{
			Token:  v.GetString("telegram.token"),
			ChatID: v.GetInt64("telegram.chatID"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Postgres.URL == "" {
		return errors.New("DATABASE_URL is not set in environment or .env file")
	}
	if c.Simulator.MinWait < 0 || c.Simulator.MaxWait < c.Simulator.MinWait {
		return fmt.Errorf("SIM_MIN_WAIT_SECONDS (%s) must not exceed SIM_MAX_WAIT_SECONDS (%s)", c.Simulator.MinWait, c.Simulator.MaxWait)
	}
	if c.Simulator.CooldownOnError <= 0 {
		return errors.New("SIM_COOLDOWN_SECONDS must be positive")
	}
	if c.Simulator.PersistTimeout <= 0 {
		return errors.New("SIM_PERSIST_TIMEOUT_SECONDS must be positive")
	}
	if c.Simulator.PriceJitterMin <= 0 || c.Simulator.PriceJitterMax < c.Simulator.PriceJitterMin {
		return fmt.Errorf("invalid price jitter range [%v, %v]", c.Simulator.PriceJitterMin, c.Simulator.PriceJitterMax)
	}
	if c.Heartbeat.Interval <= 0 {
		return errors.New("HEARTBEAT_INTERVAL_SECONDS must be positive")
	}
	if c.Hub.QueueCapacity <= 0 {
		return errors.New("HUB_QUEUE_CAPACITY must be positive")
	}
	if c.Hub.SendTimeout <= 0 {
		return errors.New("HUB_SEND_TIMEOUT_SECONDS must be positive")
	}
	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetFloat64(key) * float64(time.Second))
}

// parseWeights reads a comma-separated list of non-negative integers.
func parseWeights(raw string) ([]int, error) {
	parts := splitList(raw)
	if len(parts) == 0 {
		return nil, errors.New("weights must not be empty")
	}
	weights := make([]int, 0, len(parts))
	sum := 0
	for _, part := range parts {
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", part, err)
		}
		if w < 0 {
			return nil, fmt.Errorf("weight %d must not be negative", w)
		}
		sum += w
		weights = append(weights, w)
	}
	if sum == 0 {
		return nil, errors.New("weights must not all be zero")
	}
	return weights, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
