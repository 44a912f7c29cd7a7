package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration knobs for the client.
type Config struct {
	API struct {
		BaseURL        string        `mapstructure:"base_url"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
		ClientVersion  string        `mapstructure:"client_version"`
		DeviceID       string        `mapstructure:"device_id"`
	} `mapstructure:"api"`
	Listing struct {
		PageSize      int    `mapstructure:"page_size"`
		DefaultDevice string `mapstructure:"default_device"`
	} `mapstructure:"listing"`
	Storage struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Devices struct {
		File string `mapstructure:"file"`
	} `mapstructure:"devices"`
	OAuth struct {
		AuthorizeURL string        `mapstructure:"authorize_url"`
		ClientID     string        `mapstructure:"client_id"`
		RedirectURI  string        `mapstructure:"redirect_uri"`
		Scope        string        `mapstructure:"scope"`
		ListenAddr   string        `mapstructure:"listen_addr"`
		StateSecret  string        `mapstructure:"state_secret"`
		WaitTimeout  time.Duration `mapstructure:"wait_timeout"`
	} `mapstructure:"oauth"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   string `mapstructure:"file"`
	} `mapstructure:"log"`
}

// EnvPrefix prefixes every environment override, e.g. WFTOOL_API_BASE_URL.
const EnvPrefix = "wftool"

// Load reads the configuration from disk/environment using Viper. An empty
// path falls back to DefaultPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if c.Listing.PageSize <= 0 {
		return fmt.Errorf("listing.page_size must be positive, got %d", c.Listing.PageSize)
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/wftool/config.yaml or its platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "wftool", "config.yaml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "wftool")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "wftool")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://www.mibandtool.club:9073")
	v.SetDefault("api.request_timeout", "30s")
	v.SetDefault("api.client_version", "3079")
	v.SetDefault("api.device_id", "")

	v.SetDefault("listing.page_size", 20)
	v.SetDefault("listing.default_device", "o66")

	v.SetDefault("storage.path", filepath.Join(defaultDataDir(), "wftool.db"))

	v.SetDefault("devices.file", "")

	v.SetDefault("oauth.authorize_url", "https://www.bandbbs.cn/oauth2/authorize")
	v.SetDefault("oauth.client_id", "6253518017122039")
	v.SetDefault("oauth.redirect_uri", "https://api.bandbbs.cn/wftools/bandbbs.html")
	v.SetDefault("oauth.scope", "user:read user:write resource_check:read resource:read")
	v.SetDefault("oauth.listen_addr", "127.0.0.1:8765")
	v.SetDefault("oauth.state_secret", "")
	v.SetDefault("oauth.wait_timeout", "5m")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}
