package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingBotToken is returned by Validate when no Telegram token is set.
var ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TelegramConfig holds bot transport configuration.
type TelegramConfig struct {
	Token              string `mapstructure:"token"`
	AdminChatID        string `mapstructure:"admin_chat_id"`
	APIURL             string `mapstructure:"api_url"`
	PollTimeout        int    `mapstructure:"poll_timeout"` // seconds
	MaxRoutines        int    `mapstructure:"max_routines"`
	DropPendingUpdates bool   `mapstructure:"drop_pending_updates"`
}

// MetadataConfig groups the movie metadata providers.
type MetadataConfig struct {
	TMDB TMDBConfig `mapstructure:"tmdb"`
	OMDB OMDBConfig `mapstructure:"omdb"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Language     string `mapstructure:"language"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// OMDBConfig holds OMDb API configuration.
type OMDBConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// YouTubeConfig holds YouTube Data API configuration.
type YouTubeConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
}

// VisionConfig holds Google Cloud Vision configuration.
type VisionConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	MaxResults int    `mapstructure:"max_results"`
}

// LimitsConfig holds upload and request limits.
type LimitsConfig struct {
	MaxFileSize      int64    `mapstructure:"max_file_size"`
	ImageExtensions  []string `mapstructure:"image_extensions"`
	VideoExtensions  []string `mapstructure:"video_extensions"`
	RequestTimeout   int      `mapstructure:"request_timeout"` // seconds
	MaxRetries       int      `mapstructure:"max_retries"`
	MaxVideoFrames   int      `mapstructure:"max_video_frames"`
	MaxImageWidth    int      `mapstructure:"max_image_width"`
	MaxImageHeight   int      `mapstructure:"max_image_height"`
	JPEGQuality      int      `mapstructure:"jpeg_quality"`
	MinVideoFileSize int64    `mapstructure:"min_video_file_size"`
}

// CacheConfig holds metadata cache configuration.
type CacheConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	MaxItems    int           `mapstructure:"max_items"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisDB     int           `mapstructure:"redis_db"`
	RedisPrefix string        `mapstructure:"redis_prefix"`
}

// SchedulerConfig holds cron expressions for background jobs.
type SchedulerConfig struct {
	HealthCheckCron string `mapstructure:"health_check_cron"`
	CacheSweepCron  string `mapstructure:"cache_sweep_cron"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telegram: TelegramConfig{
			APIURL:             "https://api.telegram.org",
			PollTimeout:        9,
			MaxRoutines:        50,
			DropPendingUpdates: true,
		},
		Metadata: MetadataConfig{
			TMDB: TMDBConfig{
				BaseURL:      "https://api.themoviedb.org/3",
				ImageBaseURL: "https://image.tmdb.org/t/p",
				Language:     "en-US",
				Timeout:      30,
			},
			OMDB: OMDBConfig{
				BaseURL: "https://www.omdbapi.com/",
				Timeout: 30,
			},
		},
		YouTube: YouTubeConfig{
			BaseURL:    "https://www.googleapis.com/youtube/v3",
			MaxResults: 10,
		},
		Vision: VisionConfig{
			BaseURL:    "https://vision.googleapis.com/v1",
			MaxResults: 10,
		},
		Limits: LimitsConfig{
			MaxFileSize:      20 * 1024 * 1024,
			ImageExtensions:  []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"},
			VideoExtensions:  []string{".mp4", ".avi", ".mov", ".mkv", ".webm"},
			RequestTimeout:   30,
			MaxRetries:       3,
			MaxVideoFrames:   5,
			MaxImageWidth:    1920,
			MaxImageHeight:   1080,
			JPEGQuality:      85,
			MinVideoFileSize: 1024,
		},
		Cache: CacheConfig{
			TTL:         15 * time.Minute,
			MaxItems:    1000,
			RedisPrefix: "filmscout:cache:",
		},
		Scheduler: SchedulerConfig{
			HealthCheckCron: "*/15 * * * *",
			CacheSweepCron:  "* * * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.filmscout")
	}

	v.SetEnvPrefix("FILMSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bot has always been configured through these bare variable names.
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"telegram.token":         {"FILMSCOUT_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"},
		"telegram.admin_chat_id": {"FILMSCOUT_TELEGRAM_ADMIN_CHAT_ID", "TELEGRAM_ADMIN_CHAT_ID"},
		"metadata.tmdb.api_key":  {"FILMSCOUT_METADATA_TMDB_API_KEY", "TMDB_API_KEY"},
		"metadata.omdb.api_key":  {"FILMSCOUT_METADATA_OMDB_API_KEY", "OMDB_API_KEY"},
		"youtube.api_key":        {"FILMSCOUT_YOUTUBE_API_KEY", "YOUTUBE_API_KEY"},
		"vision.api_key":         {"FILMSCOUT_VISION_API_KEY", "GOOGLE_VISION_API_KEY"},
		"logging.level":          {"FILMSCOUT_LOGGING_LEVEL", "LOG_LEVEL"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults mirrors Default into viper so file and env values layer on top.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", "")
	v.SetDefault("telegram.api_url", d.Telegram.APIURL)
	v.SetDefault("telegram.poll_timeout", d.Telegram.PollTimeout)
	v.SetDefault("telegram.max_routines", d.Telegram.MaxRoutines)
	v.SetDefault("telegram.drop_pending_updates", d.Telegram.DropPendingUpdates)

	v.SetDefault("metadata.tmdb.api_key", "")
	v.SetDefault("metadata.tmdb.base_url", d.Metadata.TMDB.BaseURL)
	v.SetDefault("metadata.tmdb.image_base_url", d.Metadata.TMDB.ImageBaseURL)
	v.SetDefault("metadata.tmdb.language", d.Metadata.TMDB.Language)
	v.SetDefault("metadata.tmdb.timeout", d.Metadata.TMDB.Timeout)
	v.SetDefault("metadata.omdb.api_key", "")
	v.SetDefault("metadata.omdb.base_url", d.Metadata.OMDB.BaseURL)
	v.SetDefault("metadata.omdb.timeout", d.Metadata.OMDB.Timeout)

	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.base_url", d.YouTube.BaseURL)
	v.SetDefault("youtube.max_results", d.YouTube.MaxResults)

	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", d.Vision.BaseURL)
	v.SetDefault("vision.max_results", d.Vision.MaxResults)

	v.SetDefault("limits.max_file_size", d.Limits.MaxFileSize)
	v.SetDefault("limits.image_extensions", d.Limits.ImageExtensions)
	v.SetDefault("limits.video_extensions", d.Limits.VideoExtensions)
	v.SetDefault("limits.request_timeout", d.Limits.RequestTimeout)
	v.SetDefault("limits.max_retries", d.Limits.MaxRetries)
	v.SetDefault("limits.max_video_frames", d.Limits.MaxVideoFrames)
	v.SetDefault("limits.max_image_width", d.Limits.MaxImageWidth)
	v.SetDefault("limits.max_image_height", d.Limits.MaxImageHeight)
	v.SetDefault("limits.jpeg_quality", d.Limits.JPEGQuality)
	v.SetDefault("limits.min_video_file_size", d.Limits.MinVideoFileSize)

	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.max_items", d.Cache.MaxItems)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", d.Cache.RedisPrefix)

	v.SetDefault("scheduler.health_check_cron", d.Scheduler.HealthCheckCron)
	v.SetDefault("scheduler.cache_sweep_cron", d.Scheduler.CacheSweepCron)
}

// Validate checks the settings the bot cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return ErrMissingBotToken
	}
	if c.Limits.MaxFileSize <= 0 {
		return fmt.Errorf("limits.max_file_size must be positive, got %d", c.Limits.MaxFileSize)
	}
	return nil
}

// RequestTimeout returns the shared outbound HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.Limits.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Limits.RequestTimeout) * time.Second
}

// APIStatus reports which external providers have credentials configured.
// Keys are display names in a stable order given by APIStatusOrder.
func (c *Config) APIStatus() map[string]bool {
	return map[string]bool{
		"TMDB":          c.Metadata.TMDB.APIKey != "",
		"OMDB":          c.Metadata.OMDB.APIKey != "",
		"YouTube":       c.YouTube.APIKey != "",
		"Google Vision": c.Vision.APIKey != "",
	}
}

// APIStatusOrder is the display order for APIStatus entries.
var APIStatusOrder = []string{"TMDB", "OMDB", "YouTube", "Google Vision"}

// MaxFileSizeMB returns the upload limit in whole megabytes for user messages.
func (l LimitsConfig) MaxFileSizeMB() int64 {
	return l.MaxFileSize / (1024 * 1024)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
