package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the clipper server.
type Config struct {
	Server   ServerConfig
	Jobs     JobsConfig
	Tools    ToolsConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type JobsConfig struct {
	OutputDir     string
	TTL           time.Duration
	SweepInterval time.Duration
	// MaxConcurrent bounds how many jobs run at once. 0 means unbounded.
	MaxConcurrent int
}

type ToolsConfig struct {
	YtDlpPath        string
	YtDlpFormat      string
	FFprobePath      string
	FFmpegPath       string
	FetchTimeout     time.Duration
	TitleTimeout     time.Duration
	ProbeTimeout     time.Duration
	TranscodeTimeout time.Duration
}

// DatabaseConfig is optional. An empty URL disables the job archive.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional. An empty URL disables the snapshot mirror.
type RedisConfig struct {
	URL         string
	SnapshotTTL time.Duration
}

// fileConfig is the TOML shape. Durations are whole seconds.
type fileConfig struct {
	Server struct {
		Port                int    `toml:"port"`
		Env                 string `toml:"env"`
		LogLevel            string `toml:"log_level"`
		ShutdownTimeoutSecs int    `toml:"shutdown_timeout_secs"`
	} `toml:"server"`
	Jobs struct {
		OutputDir         string `toml:"output_dir"`
		TTLSecs           int    `toml:"ttl_secs"`
		SweepIntervalSecs int    `toml:"sweep_interval_secs"`
		MaxConcurrent     *int   `toml:"max_concurrent"`
	} `toml:"jobs"`
	Tools struct {
		YtDlpPath            string `toml:"ytdlp_path"`
		YtDlpFormat          string `toml:"ytdlp_format"`
		FFprobePath          string `toml:"ffprobe_path"`
		FFmpegPath           string `toml:"ffmpeg_path"`
		FetchTimeoutSecs     int    `toml:"fetch_timeout_secs"`
		TitleTimeoutSecs     int    `toml:"title_timeout_secs"`
		ProbeTimeoutSecs     int    `toml:"probe_timeout_secs"`
		TranscodeTimeoutSecs int    `toml:"transcode_timeout_secs"`
	} `toml:"tools"`
	Database struct {
		URL                 string `toml:"url"`
		MaxOpenConns        int    `toml:"max_open_conns"`
		MaxIdleConns        int    `toml:"max_idle_conns"`
		ConnMaxLifetimeSecs int    `toml:"conn_max_lifetime_secs"`
	} `toml:"database"`
	Redis struct {
		URL             string `toml:"url"`
		SnapshotTTLSecs int    `toml:"snapshot_ttl_secs"`
	} `toml:"redis"`
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			Env:             "development",
			LogLevel:        "info",
			ShutdownTimeout: 30 * time.Second,
		},
		Jobs: JobsConfig{
			OutputDir:     "outputs",
			TTL:           time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Tools: ToolsConfig{
			YtDlpPath:        "yt-dlp",
			YtDlpFormat:      "bestvideo+bestaudio/best",
			FFprobePath:      "ffprobe",
			FFmpegPath:       "ffmpeg",
			FetchTimeout:     600 * time.Second,
			TitleTimeout:     30 * time.Second,
			ProbeTimeout:     30 * time.Second,
			TranscodeTimeout: 300 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			SnapshotTTL: 2 * time.Hour,
		},
	}
}

// Load builds a Config from defaults, the optional TOML file at path, and
// environment variables, in that order of precedence (env wins).
// Returns an error with a descriptive message if any value is invalid.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var f fileConfig
	if err := toml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setInt(&c.Server.Port, f.Server.Port)
	setString(&c.Server.Env, f.Server.Env)
	setString(&c.Server.LogLevel, f.Server.LogLevel)
	setSecs(&c.Server.ShutdownTimeout, f.Server.ShutdownTimeoutSecs)

	setString(&c.Jobs.OutputDir, f.Jobs.OutputDir)
	setSecs(&c.Jobs.TTL, f.Jobs.TTLSecs)
	setSecs(&c.Jobs.SweepInterval, f.Jobs.SweepIntervalSecs)
	if f.Jobs.MaxConcurrent != nil {
		c.Jobs.MaxConcurrent = *f.Jobs.MaxConcurrent
	}

	setString(&c.Tools.YtDlpPath, f.Tools.YtDlpPath)
	setString(&c.Tools.YtDlpFormat, f.Tools.YtDlpFormat)
	setString(&c.Tools.FFprobePath, f.Tools.FFprobePath)
	setString(&c.Tools.FFmpegPath, f.Tools.FFmpegPath)
	setSecs(&c.Tools.FetchTimeout, f.Tools.FetchTimeoutSecs)
	setSecs(&c.Tools.TitleTimeout, f.Tools.TitleTimeoutSecs)
	setSecs(&c.Tools.ProbeTimeout, f.Tools.ProbeTimeoutSecs)
	setSecs(&c.Tools.TranscodeTimeout, f.Tools.TranscodeTimeoutSecs)

	setString(&c.Database.URL, f.Database.URL)
	setInt(&c.Database.MaxOpenConns, f.Database.MaxOpenConns)
	setInt(&c.Database.MaxIdleConns, f.Database.MaxIdleConns)
	setSecs(&c.Database.ConnMaxLifetime, f.Database.ConnMaxLifetimeSecs)

	setString(&c.Redis.URL, f.Redis.URL)
	setSecs(&c.Redis.SnapshotTTL, f.Redis.SnapshotTTLSecs)
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envInt("CLIPPER_PORT", c.Server.Port)
	c.Server.Env = envString("CLIPPER_ENV", c.Server.Env)
	c.Server.LogLevel = strings.ToLower(envString("CLIPPER_LOG_LEVEL", c.Server.LogLevel))
	c.Server.ShutdownTimeout = envDurationSecs("CLIPPER_SHUTDOWN_TIMEOUT_SECS", c.Server.ShutdownTimeout)

	c.Jobs.OutputDir = envString("CLIPPER_OUTPUT_DIR", c.Jobs.OutputDir)
	c.Jobs.TTL = envDurationSecs("CLIPPER_JOB_TTL_SECS", c.Jobs.TTL)
	c.Jobs.SweepInterval = envDurationSecs("CLIPPER_SWEEP_INTERVAL_SECS", c.Jobs.SweepInterval)
	c.Jobs.MaxConcurrent = envInt("CLIPPER_MAX_CONCURRENT_JOBS", c.Jobs.MaxConcurrent)

	c.Tools.YtDlpPath = envString("CLIPPER_YTDLP_PATH", c.Tools.YtDlpPath)
	c.Tools.YtDlpFormat = envString("CLIPPER_YTDLP_FORMAT", c.Tools.YtDlpFormat)
	c.Tools.FFprobePath = envString("CLIPPER_FFPROBE_PATH", c.Tools.FFprobePath)
	c.Tools.FFmpegPath = envString("CLIPPER_FFMPEG_PATH", c.Tools.FFmpegPath)
	c.Tools.FetchTimeout = envDurationSecs("CLIPPER_FETCH_TIMEOUT_SECS", c.Tools.FetchTimeout)
	c.Tools.TitleTimeout = envDurationSecs("CLIPPER_TITLE_TIMEOUT_SECS", c.Tools.TitleTimeout)
	c.Tools.ProbeTimeout = envDurationSecs("CLIPPER_PROBE_TIMEOUT_SECS", c.Tools.ProbeTimeout)
	c.Tools.TranscodeTimeout = envDurationSecs("CLIPPER_TRANSCODE_TIMEOUT_SECS", c.Tools.TranscodeTimeout)

	c.Database.URL = envString("DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = envDuration("DATABASE_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)

	c.Redis.URL = envString("REDIS_URL", c.Redis.URL)
	c.Redis.SnapshotTTL = envDurationSecs("CLIPPER_SNAPSHOT_TTL_SECS", c.Redis.SnapshotTTL)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("CLIPPER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !validLogLevels[c.Server.LogLevel] {
		return fmt.Errorf("CLIPPER_LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Server.LogLevel)
	}

	if strings.TrimSpace(c.Jobs.OutputDir) == "" {
		return fmt.Errorf("CLIPPER_OUTPUT_DIR is required")
	}
	if c.Jobs.TTL <= 0 {
		return fmt.Errorf("CLIPPER_JOB_TTL_SECS must be positive")
	}
	if c.Jobs.SweepInterval <= 0 {
		return fmt.Errorf("CLIPPER_SWEEP_INTERVAL_SECS must be positive")
	}
	if c.Jobs.MaxConcurrent < 0 {
		return fmt.Errorf("CLIPPER_MAX_CONCURRENT_JOBS must be zero or positive, got %d", c.Jobs.MaxConcurrent)
	}

	for name, d := range map[string]time.Duration{
		"CLIPPER_FETCH_TIMEOUT_SECS":     c.Tools.FetchTimeout,
		"CLIPPER_TITLE_TIMEOUT_SECS":     c.Tools.TitleTimeout,
		"CLIPPER_PROBE_TIMEOUT_SECS":     c.Tools.ProbeTimeout,
		"CLIPPER_TRANSCODE_TIMEOUT_SECS": c.Tools.TranscodeTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Database.URL != "" &&
		!strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://")
	}
	if c.Redis.URL != "" &&
		!strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	return nil
}

// SlogLevel maps Server.LogLevel onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Server.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setSecs(dst *time.Duration, secs int) {
	if secs != 0 {
		*dst = time.Duration(secs) * time.Second
	}
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
