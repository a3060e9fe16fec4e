package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"detection-dashboard/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Backend   BackendConfig   `yaml:"backend"`
	Users     UsersConfig     `yaml:"users"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Profiling ProfilingConfig `yaml:"profiling"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// BackendConfig points at the detection history API.
type BackendConfig struct {
	URL          string        `yaml:"url"`
	ImageBaseURL string        `yaml:"image_base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	Retries      int           `yaml:"retries"`
	HistoryPages int           `yaml:"history_pages"`
}

type UsersConfig struct {
	URL          string        `yaml:"url"`
	Institution  string        `yaml:"institution"`
	PhotoBaseURL string        `yaml:"photo_base_url"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	RecentActions int64  `yaml:"recent_actions"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DashboardConfig struct {
	PageSize   int `yaml:"page_size"`
	MaxPages   int `yaml:"max_pages"`
	WindowDays int `yaml:"window_days"`
}

type ProfilingConfig struct {
	File string `yaml:"file"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Backend: BackendConfig{
			URL:          "https://api-human-detection.pptik.id",
			ImageBaseURL: "https://monja-file.pptik.id/v1/view?path=presensi/",
			Timeout:      15 * time.Second,
			Retries:      2,
			HistoryPages: 5,
		},
		Users: UsersConfig{
			URL:          "https://presensi-api.lskk.co.id/api/v1/user/public",
			Institution:  "CMb80a",
			PhotoBaseURL: "https://presensi-api.lskk.co.id",
			CacheTTL:     5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:       false,
			Addr:          "localhost:6379",
			RecentActions: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Dashboard: DashboardConfig{
			PageSize:   10,
			MaxPages:   5,
			WindowDays: 30,
		},
	}
}

// Load merges defaults, the YAML file at path (optional), a .env file in the
// working directory (optional) and the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.Backend.URL = getEnv("BACKEND_URL", cfg.Backend.URL)
	cfg.Backend.ImageBaseURL = getEnv("IMAGE_BASE_URL", cfg.Backend.ImageBaseURL)
	cfg.Backend.Timeout = parseDuration(os.Getenv("BACKEND_TIMEOUT"), cfg.Backend.Timeout)
	cfg.Backend.Retries = parseInt(os.Getenv("BACKEND_RETRIES"), cfg.Backend.Retries)
	cfg.Backend.HistoryPages = parseInt(os.Getenv("HISTORY_PAGES"), cfg.Backend.HistoryPages)

	cfg.Users.URL = getEnv("USERS_URL", cfg.Users.URL)
	cfg.Users.Institution = getEnv("USERS_INSTITUTION", cfg.Users.Institution)
	cfg.Users.PhotoBaseURL = getEnv("PHOTO_BASE_URL", cfg.Users.PhotoBaseURL)

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "true"
	}
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(os.Getenv("REDIS_DB"), cfg.Redis.DB)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Profiling.File = getEnv("PROFILING_FILE", cfg.Profiling.File)
}

// Validate checks the values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr must not be empty"))
	}
	if !strings.HasPrefix(c.Backend.URL, "http") {
		errs = append(errs, fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL))
	}
	if c.Backend.HistoryPages < 1 {
		errs = append(errs, fmt.Errorf("backend.history_pages must be at least 1, got %d", c.Backend.HistoryPages))
	}
	if c.Backend.Retries < 0 {
		errs = append(errs, fmt.Errorf("backend.retries must not be negative, got %d", c.Backend.Retries))
	}
	if c.Dashboard.PageSize < 1 {
		errs = append(errs, fmt.Errorf("dashboard.page_size must be at least 1, got %d", c.Dashboard.PageSize))
	}
	if c.Dashboard.WindowDays < 1 {
		errs = append(errs, fmt.Errorf("dashboard.window_days must be at least 1, got %d", c.Dashboard.WindowDays))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	return errors.Join(errs...)
}

// LoadProfiling reads daily profiling rows from a YAML or JSON file.
func LoadProfiling(path string) ([]models.ProfilingRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiling file: %w", err)
	}
	var rows []models.ProfilingRow
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing profiling file: %w", err)
	}
	return rows, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
