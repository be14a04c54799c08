package config

// Configuration loaded from defaults, config.yaml, .env, environment and command flags
// Later sources win: flags > env (.env included) > config.yaml > defaults
// PRIVATE_KEY is only read from the environment, there is no flag for it

import (
	"fmt"
	"strings"
	"time"

	"pharos-bot/internal/schedule"
	"pharos-bot/internal/wallet"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Pharos   PharosConfig   `mapstructure:"pharos"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	App      AppConfig      `mapstructure:"app"`
}

type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// ChainConfig - RPC node, only used by the wallet command
type ChainConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
}

type PharosConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
	MaxRetries     int    `mapstructure:"max_retries"`
	SwapAmount     string `mapstructure:"swap_amount"`
}

type ScheduleConfig struct {
	Times        []string `mapstructure:"times"`         // "HH:MM"
	Timezone     string   `mapstructure:"timezone"`      // IANA name or Local
	PollInterval int      `mapstructure:"poll_interval"` // seconds
}

type TasksConfig struct {
	Pause int `mapstructure:"pause"` // seconds between check-in and swap
}

// TelegramConfig - run summaries, off unless both are set
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type AppConfig struct {
	LogDir string `mapstructure:"log_dir"`
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Pharos.RequestTimeout) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Schedule.PollInterval) * time.Second
}

func (c *Config) Pause() time.Duration {
	return time.Duration(c.Tasks.Pause) * time.Second
}

func (c *Config) Location() (*time.Location, error) {
	switch c.Schedule.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// flag name -> config key; --times is handled in LoadConfig
var flagKeys = map[string]string{
	"rpc-url":         "chain.rpc_url",
	"base-url":        "pharos.base_url",
	"request-timeout": "pharos.request_timeout",
	"max-retries":     "pharos.max_retries",
	"swap-amount":     "pharos.swap_amount",
	"timezone":        "schedule.timezone",
	"poll-interval":   "schedule.poll_interval",
	"pause":           "tasks.pause",
	"log-dir":         "app.log_dir",
}

// RegisterFlags adds the config flags to fs (usually cobra's persistent flags)
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("rpc-url", "", "Testnet RPC URL (env: RPC_URL)")
	fs.String("base-url", "", "Engagement backend base URL (env: BASE_URL)")
	fs.Int("request-timeout", 30, "HTTP request timeout in seconds (env: PHAROS_REQUEST_TIMEOUT)")
	fs.Int("max-retries", 0, "Retries for 429/5xx responses (env: PHAROS_MAX_RETRIES)")
	fs.String("swap-amount", "", "ETH amount sent to /api/swap (env: SWAP_AMOUNT)")
	fs.StringSlice("times", nil, "Daily run times, HH:MM (env: SCHEDULE_TIMES)")
	fs.String("timezone", "", "Timezone for run times (env: SCHEDULE_TIMEZONE)")
	fs.Int("poll-interval", 60, "Seconds between schedule checks (env: POLL_INTERVAL)")
	fs.Int("pause", 5, "Seconds between check-in and swap (env: TASK_PAUSE)")
	fs.String("log-dir", "", "Directory for app.log (env: LOG_DIR)")
}

// LoadConfig flags may be nil
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	}

	v.AutomaticEnv()
	setupEnvAliases(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Schedule.Times = stringList(v.Get("schedule.times"))
	if flags != nil {
		if f := flags.Lookup("times"); f != nil && f.Changed {
			times, _ := flags.GetStringSlice("times")
			cfg.Schedule.Times = times
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("wallet.private_key", "PRIVATE_KEY")

	v.BindEnv("chain.rpc_url", "RPC_URL")

	v.BindEnv("pharos.base_url", "BASE_URL")
	v.BindEnv("pharos.request_timeout", "PHAROS_REQUEST_TIMEOUT")
	v.BindEnv("pharos.max_retries", "PHAROS_MAX_RETRIES")
	v.BindEnv("pharos.swap_amount", "SWAP_AMOUNT")

	v.BindEnv("schedule.times", "SCHEDULE_TIMES")
	v.BindEnv("schedule.timezone", "SCHEDULE_TIMEZONE")
	v.BindEnv("schedule.poll_interval", "POLL_INTERVAL")

	v.BindEnv("tasks.pause", "TASK_PAUSE")

	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")

	v.BindEnv("app.log_dir", "LOG_DIR")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("wallet.private_key", "")

	v.SetDefault("chain.rpc_url", "https://testnet-rpc.pharosnetwork.xyz")

	v.SetDefault("pharos.base_url", "https://testnet.pharosnetwork.xyz")
	v.SetDefault("pharos.request_timeout", 30)
	v.SetDefault("pharos.max_retries", 0) // one attempt per action
	v.SetDefault("pharos.swap_amount", "0.01")

	v.SetDefault("schedule.times", []string{"09:00", "21:00"})
	v.SetDefault("schedule.timezone", "Local")
	v.SetDefault("schedule.poll_interval", 60)

	v.SetDefault("tasks.pause", 5)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("app.log_dir", "logs")
}

// bindFlags only changed flags override, so flag defaults never shadow env or config.yaml
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// stringList accepts "a,b" from env and lists from YAML
func stringList(raw interface{}) []string {
	var items []string
	switch t := raw.(type) {
	case string:
		items = strings.Split(t, ",")
	case []string:
		items = t
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Wallet.PrivateKey) == "" {
		return fmt.Errorf("invalid configuration: %w", wallet.ErrMissingKey)
	}
	if cfg.Pharos.RequestTimeout <= 0 {
		return fmt.Errorf("pharos.request_timeout must be positive, got %d", cfg.Pharos.RequestTimeout)
	}
	if cfg.Pharos.MaxRetries < 0 {
		return fmt.Errorf("pharos.max_retries must not be negative, got %d", cfg.Pharos.MaxRetries)
	}
	if cfg.Schedule.PollInterval <= 0 {
		return fmt.Errorf("schedule.poll_interval must be positive, got %d", cfg.Schedule.PollInterval)
	}
	if cfg.Tasks.Pause < 0 {
		return fmt.Errorf("tasks.pause must not be negative, got %d", cfg.Tasks.Pause)
	}
	if len(cfg.Schedule.Times) == 0 {
		return fmt.Errorf("schedule.times must list at least one HH:MM time")
	}
	for _, at := range cfg.Schedule.Times {
		if _, _, err := schedule.ParseTimeOfDay(at); err != nil {
			return fmt.Errorf("schedule.times: %w", err)
		}
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	if (cfg.Telegram.BotToken == "") != (cfg.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
