package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// LogConfig feeds obslog.Init.
type LogConfig struct {
	Level   string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format  string `yaml:"format" env:"LOG_FORMAT" env-default:"legacy"`
	Console bool   `yaml:"console" env:"LOG_TO_CONSOLE" env-default:"true"`
	ToFile  bool   `yaml:"to_file" env:"LOG_TO_FILE" env-default:"false"`
	File    string `yaml:"file" env:"LOG_FILE" env-default:"logs/bot.log"`
	Caller  bool   `yaml:"caller" env:"LOG_CALLER" env-default:"false"`
}

type AppConfig struct {
	IrisBaseURL string `yaml:"iris_base_url" env:"IRIS_BASE_URL"`
	IrisWSURL   string `yaml:"iris_ws_url" env:"IRIS_WS_URL"`
	EgressMode  string `yaml:"egress_mode" env:"EGRESS_MODE" env-default:"http"`
	DryRun      bool   `yaml:"dry_run" env:"EGRESS_DRYRUN" env-default:"false"`

	BotPrefix string `yaml:"bot_prefix" env:"BOT_PREFIX"`

	XUserID    string `yaml:"x_user_id" env:"X_USER_ID"`
	XUserEmail string `yaml:"x_user_email" env:"X_USER_EMAIL"`
	XSessionID string `yaml:"x_session_id" env:"X_SESSION_ID"`

	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	AllowedRooms []string `yaml:"allowed_rooms" env:"ALLOWED_ROOMS" env-separator:","`

	BoardImage  bool   `yaml:"board_image" env:"BOARD_IMAGE" env-default:"true"`
	MessagesDir string `yaml:"messages_dir" env:"MESSAGES_DIR"`

	Log LogConfig `yaml:"log"`
}

// Load reads CONFIG_FILE (yaml) when set, then environment variables on top.
func Load() (*AppConfig, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

func LoadFile(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) normalize() {
	c.IrisBaseURL = strings.TrimSpace(c.IrisBaseURL)
	c.IrisWSURL = strings.TrimSpace(c.IrisWSURL)
	c.BotPrefix = strings.TrimSpace(c.BotPrefix)
	c.EgressMode = strings.ToLower(strings.TrimSpace(c.EgressMode))
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)

	rooms := c.AllowedRooms[:0]
	for _, r := range c.AllowedRooms {
		if s := strings.TrimSpace(r); s != "" {
			rooms = append(rooms, s)
		}
	}
	c.AllowedRooms = rooms
}

func (c *AppConfig) validate() error {
	if c.IrisBaseURL == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	if c.IrisWSURL == "" {
		return errors.New("IRIS_WS_URL is required")
	}
	if c.BotPrefix == "" {
		return errors.New("BOT_PREFIX is required")
	}
	switch c.EgressMode {
	case "http", "ws", "auto":
	default:
		return fmt.Errorf("EGRESS_MODE must be http, ws or auto (got %q)", c.EgressMode)
	}
	return nil
}

// RoomAllowed reports whether the bot answers in room; an empty allow-list admits every room.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

// Headers are the X-User-* headers the Iris bridge expects on every request.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

// Prefix is the command prefix; it lets the config serve as a presenter PrefixProvider.
func (c *AppConfig) Prefix() string { return c.BotPrefix }
