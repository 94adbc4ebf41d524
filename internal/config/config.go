package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	kvalidation "github.com/pders01/kiosk/internal/validation"
)

// Source modes.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Source   SourceConfig   `mapstructure:"source"`
	Browse   BrowseConfig   `mapstructure:"browse"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Server   ServerConfig   `mapstructure:"server"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Media    MediaConfig    `mapstructure:"media"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// SourceConfig selects where the browser reads content from. In local mode
// it opens the bleve index next to the database; in remote mode it talks to
// another kiosk running "serve".
type SourceConfig struct {
	Mode        string        `mapstructure:"mode"`
	RemoteURL   string        `mapstructure:"remote_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type BrowseConfig struct {
	PageSize      int           `mapstructure:"page_size"`
	SearchLimit   int           `mapstructure:"search_limit"`
	FlashDuration time.Duration `mapstructure:"flash_duration"`
}

type IngestConfig struct {
	SourcesFile     string `mapstructure:"sources_file"`
	Workers         int    `mapstructure:"workers"`
	DefaultCategory string `mapstructure:"default_category"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Detail DetailConfig `mapstructure:"detail"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type DetailConfig struct {
	ExcerptLength    int `mapstructure:"excerpt_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

// KeyBindings are combined with Modifier, except Back which is used as is.
// Plain printable keys are reserved for typing into the search box.
type KeyBindings struct {
	Quit         string `mapstructure:"quit"`
	Search       string `mapstructure:"search"`
	ClearFilters string `mapstructure:"clear_filters"`
	NextCategory string `mapstructure:"next_category"`
	PrevCategory string `mapstructure:"prev_category"`
	NextPage     string `mapstructure:"next_page"`
	PrevPage     string `mapstructure:"prev_page"`
	Back         string `mapstructure:"back"`
	Help         string `mapstructure:"help"`
	OpenLink     string `mapstructure:"open_link"`
}

// MediaConfig lists the programs tried, in order, to open links by media
// type. Opener replaces the platform default for everything else.
type MediaConfig struct {
	Opener string   `mapstructure:"opener"`
	Video  []string `mapstructure:"video"`
	Audio  []string `mapstructure:"audio"`
	Image  []string `mapstructure:"image"`
	PDF    []string `mapstructure:"pdf"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// Validate checks ranges and required fields after loading.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Path, validation.Required),
		validation.Field(&c.Database.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := validation.ValidateStruct(&c.Source,
		validation.Field(&c.Source.Mode, validation.Required, validation.In(SourceLocal, SourceRemote)),
		validation.Field(&c.Source.RemoteURL,
			validation.When(c.Source.Mode == SourceRemote, validation.Required),
			is.URL,
		),
		validation.Field(&c.Source.HTTPTimeout, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if err := validation.ValidateStruct(&c.Browse,
		validation.Field(&c.Browse.PageSize, validation.Required, validation.Min(1), validation.Max(500)),
		validation.Field(&c.Browse.SearchLimit, validation.Required, validation.Min(1)),
		validation.Field(&c.Browse.FlashDuration, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	if err := validation.ValidateStruct(&c.Ingest,
		validation.Field(&c.Ingest.Workers, validation.Min(1), validation.Max(64)),
	); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if err := validation.ValidateStruct(&c.Keys,
		validation.Field(&c.Keys.Modifier, validation.In("ctrl", "alt")),
	); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".kiosk")

	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "kiosk.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Source: SourceConfig{
			Mode:        SourceLocal,
			HTTPTimeout: 15 * time.Second,
			UserAgent:   "kiosk/1.0 (https://github.com/pders01/kiosk)",
		},
		Browse: BrowseConfig{
			PageSize:      10,
			SearchLimit:   200,
			FlashDuration: 3 * time.Second,
		},
		Ingest: IngestConfig{
			SourcesFile:     filepath.Join(homeDir, ".config", "kiosk", "sources.toml"),
			Workers:         5,
			DefaultCategory: "General",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8420",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			Detail: DetailConfig{
				ExcerptLength:    160,
				WordWrapMaxWidth: 100,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:         "q",
				Search:       "f",
				ClearFilters: "r",
				NextCategory: "l",
				PrevCategory: "h",
				NextPage:     "n",
				PrevPage:     "p",
				Back:         "esc",
				Help:         "g",
				OpenLink:     "o",
			},
		},
		Media: MediaConfig{
			Video: []string{"mpv", "vlc"},
			Audio: []string{"mpv"},
			Image: []string{},
			PDF:   []string{},
		},
		Log: LogConfig{
			Level: "off",
			Path:  filepath.Join(dataDir, "kiosk.log"),
		},
	}
}

// settings flattens cfg into viper keys. Durations are written as strings so
// the saved TOML stays readable.
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"database.path":         cfg.Database.Path,
		"database.timeout":      cfg.Database.Timeout.String(),
		"database.search_index": cfg.Database.SearchIndex,

		"source.mode":         cfg.Source.Mode,
		"source.remote_url":   cfg.Source.RemoteURL,
		"source.http_timeout": cfg.Source.HTTPTimeout.String(),
		"source.user_agent":   cfg.Source.UserAgent,

		"browse.page_size":      cfg.Browse.PageSize,
		"browse.search_limit":   cfg.Browse.SearchLimit,
		"browse.flash_duration": cfg.Browse.FlashDuration.String(),

		"ingest.sources_file":     cfg.Ingest.SourcesFile,
		"ingest.workers":          cfg.Ingest.Workers,
		"ingest.default_category": cfg.Ingest.DefaultCategory,

		"server.addr": cfg.Server.Addr,

		"ui.colors.primary":   cfg.UI.Colors.Primary,
		"ui.colors.secondary": cfg.UI.Colors.Secondary,
		"ui.colors.accent":    cfg.UI.Colors.Accent,
		"ui.colors.text":      cfg.UI.Colors.Text,
		"ui.colors.muted":     cfg.UI.Colors.Muted,
		"ui.colors.error":     cfg.UI.Colors.Error,
		"ui.colors.success":   cfg.UI.Colors.Success,

		"ui.detail.excerpt_length":      cfg.UI.Detail.ExcerptLength,
		"ui.detail.word_wrap_max_width": cfg.UI.Detail.WordWrapMaxWidth,
		"ui.detail.word_wrap_min_width": cfg.UI.Detail.WordWrapMinWidth,

		"keys.modifier":               cfg.Keys.Modifier,
		"keys.bindings.quit":          cfg.Keys.Bindings.Quit,
		"keys.bindings.search":        cfg.Keys.Bindings.Search,
		"keys.bindings.clear_filters": cfg.Keys.Bindings.ClearFilters,
		"keys.bindings.next_category": cfg.Keys.Bindings.NextCategory,
		"keys.bindings.prev_category": cfg.Keys.Bindings.PrevCategory,
		"keys.bindings.next_page":     cfg.Keys.Bindings.NextPage,
		"keys.bindings.prev_page":     cfg.Keys.Bindings.PrevPage,
		"keys.bindings.back":          cfg.Keys.Bindings.Back,
		"keys.bindings.help":          cfg.Keys.Bindings.Help,
		"keys.bindings.open_link":     cfg.Keys.Bindings.OpenLink,

		"media.opener": cfg.Media.Opener,
		"media.video":  cfg.Media.Video,
		"media.audio":  cfg.Media.Audio,
		"media.image":  cfg.Media.Image,
		"media.pdf":    cfg.Media.PDF,

		"log.level": cfg.Log.Level,
		"log.path":  cfg.Log.Path,
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "kiosk", "config.toml")
}

// Load reads configPath, or config.toml from ~/.config/kiosk and the working
// directory when empty. Every key can be overridden from the environment,
// e.g. KIOSK_SOURCE_MODE=remote.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range settings(defaultConfig()) {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := expandPaths(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// expandPaths expands ~ and makes configured paths absolute. An explicit
// database path of ":memory:" is left alone for tests.
func expandPaths(cfg *Config) error {
	pv := kvalidation.NewPermissivePathValidator()

	for _, p := range []*string{
		&cfg.Database.Path,
		&cfg.Database.SearchIndex,
		&cfg.Ingest.SourcesFile,
		&cfg.Log.Path,
	} {
		if *p == "" || *p == ":memory:" {
			continue
		}
		clean, err := pv.Clean(*p)
		if err != nil {
			return fmt.Errorf("path %q: %w", *p, err)
		}
		*p = clean
	}
	return nil
}

func Save(config *Config, path string) error {
	v := viper.New()
	for key, value := range settings(config) {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
