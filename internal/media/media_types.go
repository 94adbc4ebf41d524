package media

import (
	_ "embed"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type Type int

const (
	TypeUnknown Type = iota
	TypeVideo
	TypeAudio
	TypeImage
	TypePDF
)

func (t Type) String() string {
	switch t {
	case TypeVideo:
		return "video"
	case TypeAudio:
		return "audio"
	case TypeImage:
		return "image"
	case TypePDF:
		return "pdf"
	default:
		return "link"
	}
}

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Video     TypeConfig                `toml:"video"`
	Audio     TypeConfig                `toml:"audio"`
	Image     TypeConfig                `toml:"image"`
	PDF       TypeConfig                `toml:"pdf"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var cfg TypesConfig
	if err := toml.Unmarshal(mediaTypesTOML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing media_types.toml: %w", err)
	}
	return &TypeDetector{config: &cfg}, nil
}

// DetectType classifies link by its file extension, then by known hosting
// URL fragments.
func (d *TypeDetector) DetectType(link string) Type {
	lower := strings.ToLower(strings.TrimSpace(link))

	p := lower
	if u, err := url.Parse(lower); err == nil {
		p = u.Path
	}
	if ext := strings.TrimPrefix(path.Ext(p), "."); ext != "" {
		for _, c := range d.ordered() {
			if slices.Contains(c.cfg.Extensions, ext) {
				return c.typ
			}
		}
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		for _, c := range d.ordered() {
			for _, pattern := range c.cfg.URLPatterns {
				if strings.Contains(lower, pattern) {
					return c.typ
				}
			}
		}
	}
	return TypeUnknown
}

type typedConfig struct {
	typ Type
	cfg TypeConfig
}

func (d *TypeDetector) ordered() []typedConfig {
	return []typedConfig{
		{TypeVideo, d.config.Video},
		{TypeAudio, d.config.Audio},
		{TypeImage, d.config.Image},
		{TypePDF, d.config.PDF},
	}
}

// DefaultOpener returns the system opener for goos.
func (d *TypeDetector) DefaultOpener(goos string) string {
	if pc, ok := d.config.Platforms[goos]; ok && pc.DefaultOpener != "" {
		return pc.DefaultOpener
	}
	if pc, ok := d.config.Platforms["fallback"]; ok && pc.DefaultOpener != "" {
		return pc.DefaultOpener
	}
	return "xdg-open"
}
