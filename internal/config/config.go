// Package config provides configuration management using viper.
// It supports loading from YAML files, an optional .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Log        LogConfig        `mapstructure:"log"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Whitelist  WhitelistConfig  `mapstructure:"whitelist"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Ops        OpsConfig        `mapstructure:"ops"`
	Reward     RewardConfig     `mapstructure:"reward"`
	Duel       DuelConfig       `mapstructure:"duel"`
	Quest      QuestConfig      `mapstructure:"quest"`
	Law        LawConfig        `mapstructure:"law"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Events     EventsConfig     `mapstructure:"events"`
	Boosts     BoostsConfig     `mapstructure:"boosts"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token       string        `mapstructure:"token" validate:"required"`
	Nickname    string        `mapstructure:"nickname" validate:"required"`
	PollTimeout time.Duration `mapstructure:"poll_timeout" validate:"gt=0"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"loglevel"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// StorageConfig selects the ledger snapshot backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=file postgres redis"`
	Path   string `mapstructure:"path" validate:"required_if=Driver file"`
	Name   string `mapstructure:"name" validate:"required"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size" validate:"min=1"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db" validate:"min=0"`
	PoolSize     int           `mapstructure:"pool_size" validate:"min=1"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// OpsConfig holds the health and metrics HTTP listener. Empty Addr disables it.
type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

// RewardConfig holds /banana reward configuration.
type RewardConfig struct {
	Cooldown            time.Duration `mapstructure:"cooldown" validate:"gt=0"`
	AcceleratedCooldown time.Duration `mapstructure:"accelerated_cooldown" validate:"gt=0,ltefield=Cooldown"`
	MinAmount           int64         `mapstructure:"min_amount" validate:"min=1"`
	MaxAmount           int64         `mapstructure:"max_amount" validate:"gtefield=MinAmount"`
	LuckyHour           int           `mapstructure:"lucky_hour" validate:"min=-1,max=23"`
	CleanupDelay        time.Duration `mapstructure:"cleanup_delay"`
}

// DuelConfig holds tic-tac-toe and rock-paper-banana duel configuration.
type DuelConfig struct {
	ProposalTimeout time.Duration `mapstructure:"proposal_timeout" validate:"gt=0"`
	MoveTimeout     time.Duration `mapstructure:"move_timeout" validate:"gt=0"`
}

// QuestConfig holds detective quest configuration.
type QuestConfig struct {
	Duration     time.Duration `mapstructure:"duration" validate:"gt=0"`
	AutoChatID   int64         `mapstructure:"auto_chat_id"`
	AutoThreadID int           `mapstructure:"auto_thread_id"`
	AutoInterval time.Duration `mapstructure:"auto_interval" validate:"gt=0"`
}

// LawConfig holds rule enforcement configuration.
type LawConfig struct {
	Duration     time.Duration `mapstructure:"duration" validate:"gt=0"`
	MuteDuration time.Duration `mapstructure:"mute_duration" validate:"gt=0"`
	FineMin      int64         `mapstructure:"fine_min" validate:"min=1"`
	FineMax      int64         `mapstructure:"fine_max" validate:"gtefield=FineMin"`
	CatalogPath  string        `mapstructure:"catalog_path"`
}

// ModerationConfig holds warn, jail and confirmation configuration.
type ModerationConfig struct {
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout" validate:"gt=0"`
	JailDefault    time.Duration `mapstructure:"jail_default" validate:"gt=0"`
	JailMax        time.Duration `mapstructure:"jail_max" validate:"gtefield=JailDefault"`
	KickDuration   time.Duration `mapstructure:"kick_duration" validate:"gt=0"`
}

// EventsConfig holds chat event and banana bomb configuration.
type EventsConfig struct {
	Bomb BombConfig `mapstructure:"bomb"`
}

// BombConfig holds banana bomb configuration.
type BombConfig struct {
	Duration       time.Duration `mapstructure:"duration" validate:"gt=0"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	PayoutInterval time.Duration `mapstructure:"payout_interval"`
	MinPayout      int64         `mapstructure:"min_payout" validate:"min=1"`
	MaxPayout      int64         `mapstructure:"max_payout" validate:"gtefield=MinPayout"`
}

// BoostsConfig holds boost sweep configuration.
type BoostsConfig struct {
	SweepDelay    time.Duration `mapstructure:"sweep_delay"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	// Load .env first so its values are visible to AutomaticEnv
	if err := godotenv.Load(filepath.Join(configPath, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, STORAGE_DRIVER, REDIS_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints on a loaded configuration.
func Validate(cfg *Config) error {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", validateLogLevel)

	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// validateLogLevel accepts any level name zerolog can parse.
func validateLogLevel(fl validator.FieldLevel) bool {
	_, err := zerolog.ParseLevel(fl.Field().String())
	return err == nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.nickname", "vanito")
	v.SetDefault("bot.poll_timeout", "10s")
	v.SetDefault("log.level", "info")

	// Storage defaults
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "data/banana_stats.json")
	v.SetDefault("storage.name", "default")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bananabot")
	v.SetDefault("database.name", "bananabot")
	v.SetDefault("database.pool_size", 5)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 5)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("redis.password", "")
	v.SetDefault("database.password", "")
	v.SetDefault("admin.ids", []int64{})
	v.SetDefault("whitelist.chats", []int64{})
	v.SetDefault("law.catalog_path", "")
	v.SetDefault("quest.auto_chat_id", 0)
	v.SetDefault("quest.auto_thread_id", 0)

	v.SetDefault("ops.addr", ":8080")

	// Reward defaults
	v.SetDefault("reward.cooldown", "3h")
	v.SetDefault("reward.accelerated_cooldown", "15m")
	v.SetDefault("reward.min_amount", 1)
	v.SetDefault("reward.max_amount", 3)
	v.SetDefault("reward.lucky_hour", -1)
	v.SetDefault("reward.cleanup_delay", "30s")

	// Game defaults
	v.SetDefault("duel.proposal_timeout", "3m")
	v.SetDefault("duel.move_timeout", "5m")
	v.SetDefault("quest.duration", "5m")
	v.SetDefault("quest.auto_interval", "6h")

	// Law defaults
	v.SetDefault("law.duration", "30m")
	v.SetDefault("law.mute_duration", "5m")
	v.SetDefault("law.fine_min", 1)
	v.SetDefault("law.fine_max", 3)

	// Moderation defaults
	v.SetDefault("moderation.confirm_timeout", "300s")
	v.SetDefault("moderation.jail_default", "60m")
	v.SetDefault("moderation.jail_max", "720h")
	v.SetDefault("moderation.kick_duration", "60s")

	// Event defaults
	v.SetDefault("events.bomb.duration", "60s")
	v.SetDefault("events.bomb.cooldown", "10m")
	v.SetDefault("events.bomb.payout_interval", "30s")
	v.SetDefault("events.bomb.min_payout", 3)
	v.SetDefault("events.bomb.max_payout", 5)

	v.SetDefault("boosts.sweep_delay", "10s")
	v.SetDefault("boosts.sweep_interval", "30m")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.Admin.IDs, userID)
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	return slices.Contains(c.Whitelist.Chats, chatID)
}
