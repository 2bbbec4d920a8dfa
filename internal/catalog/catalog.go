// Package catalog loads and validates challenge catalogs.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/spookhunt/internal/digest"
	"github.com/verte-zerg/spookhunt/internal/model"
)

//go:embed default.toml
var defaultTOML []byte

// Format is a catalog file encoding.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Catalog is a validated, ordered list of challenges.
type Catalog struct {
	Challenges   []model.Challenge
	DefaultScare *model.EffectConfig
	Source       string
}

// File mirrors the on-disk layout.
type File struct {
	DefaultScare *ScareFile      `toml:"default_scare" yaml:"default_scare"`
	Challenges   []ChallengeFile `toml:"challenge" yaml:"challenges"`
}

// ChallengeFile is one challenge as written by an author.
type ChallengeFile struct {
	ID           int        `toml:"id" yaml:"id"`
	Title        string     `toml:"title" yaml:"title"`
	Prompt       string     `toml:"prompt" yaml:"prompt"`
	DownloadURL  string     `toml:"download_url" yaml:"download_url"`
	DownloadName string     `toml:"download_name" yaml:"download_name"`
	ExpectedHash string     `toml:"expected_hash" yaml:"expected_hash"`
	Pattern      string     `toml:"pattern" yaml:"pattern"`
	Hint         string     `toml:"hint" yaml:"hint"`
	HelpURL      string     `toml:"help_url" yaml:"help_url"`
	Scare        *ScareFile `toml:"scare" yaml:"scare"`
}

// ScareFile is an effect configuration as written by an author.
type ScareFile struct {
	Enabled     bool     `toml:"enabled" yaml:"enabled"`
	Probability *float64 `toml:"probability" yaml:"probability"`
	DurationMs  int      `toml:"duration_ms" yaml:"duration_ms"`
	Image       string   `toml:"image" yaml:"image"`
	Video       string   `toml:"video" yaml:"video"`
	Sound       string   `toml:"sound" yaml:"sound"`
	OverlayText string   `toml:"overlay_text" yaml:"overlay_text"`
	MazeGate    bool     `toml:"maze_gate" yaml:"maze_gate"`
}

// Config converts the file form into a model configuration.
func (s *ScareFile) Config() (*model.EffectConfig, error) {
	if s == nil {
		return nil, nil
	}
	if s.Probability != nil && (*s.Probability < 0 || *s.Probability > 1) {
		return nil, fmt.Errorf("probability %v outside [0,1]", *s.Probability)
	}
	if s.DurationMs < 0 {
		return nil, fmt.Errorf("negative duration_ms %d", s.DurationMs)
	}
	return &model.EffectConfig{
		Enabled:     s.Enabled,
		Probability: s.Probability,
		Duration:    time.Duration(s.DurationMs) * time.Millisecond,
		ImageURL:    s.Image,
		VideoURL:    s.Video,
		SoundURL:    s.Sound,
		OverlayText: s.OverlayText,
		MazeGate:    s.MazeGate,
	}, nil
}

// DefaultSource returns the built-in catalog file, a starting point for authors.
func DefaultSource() []byte {
	return append([]byte(nil), defaultTOML...)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	cat, err := Parse(defaultTOML, FormatTOML)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	cat.Source = "built-in"
	return cat
}

// FormatOf picks a format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog extension %q", filepath.Ext(path))
	}
}

// Load reads and validates the catalog at path.
func Load(path string) (*Catalog, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cat.Source = path
	return cat, nil
}

// LoadOrDefault loads path, or returns the built-in catalog when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes data and validates the result.
func Parse(data []byte, format Format) (*Catalog, error) {
	var file File
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	return file.Build()
}

// Build validates the file and converts it into a catalog.
func (f File) Build() (*Catalog, error) {
	if len(f.Challenges) == 0 {
		return nil, fmt.Errorf("catalog has no challenges")
	}
	cat := &Catalog{Challenges: make([]model.Challenge, 0, len(f.Challenges))}
	def, err := f.DefaultScare.Config()
	if err != nil {
		return nil, fmt.Errorf("default_scare: %w", err)
	}
	cat.DefaultScare = def

	seen := make(map[int]bool, len(f.Challenges))
	for i, cf := range f.Challenges {
		ch, err := cf.build()
		if err != nil {
			return nil, fmt.Errorf("challenge #%d: %w", i+1, err)
		}
		if seen[ch.ID] {
			return nil, fmt.Errorf("challenge #%d: duplicate id %d", i+1, ch.ID)
		}
		seen[ch.ID] = true
		cat.Challenges = append(cat.Challenges, ch)
	}
	return cat, nil
}

func (cf ChallengeFile) build() (model.Challenge, error) {
	if cf.ID <= 0 {
		return model.Challenge{}, fmt.Errorf("id must be positive, got %d", cf.ID)
	}
	if strings.TrimSpace(cf.Title) == "" {
		return model.Challenge{}, fmt.Errorf("id %d: title is empty", cf.ID)
	}
	ch := model.Challenge{
		ID:           cf.ID,
		Title:        cf.Title,
		Prompt:       cf.Prompt,
		DownloadURL:  cf.DownloadURL,
		DownloadName: cf.DownloadName,
		Hint:         cf.Hint,
		HelpURL:      cf.HelpURL,
	}
	if cf.Pattern != "" && cf.ExpectedHash != "" {
		return model.Challenge{}, fmt.Errorf("id %d: pattern and expected_hash are exclusive", cf.ID)
	}
	if cf.ExpectedHash != "" {
		if !digest.Valid(cf.ExpectedHash) {
			return model.Challenge{}, fmt.Errorf("id %d: expected_hash is not a lowercase sha256 hex digest", cf.ID)
		}
		ch.ExpectedHash = cf.ExpectedHash
	}
	if cf.Pattern != "" {
		re, err := regexp.Compile(cf.Pattern)
		if err != nil {
			return model.Challenge{}, fmt.Errorf("id %d: pattern: %w", cf.ID, err)
		}
		ch.Validate = func(_ context.Context, answer string) (bool, error) {
			return re.MatchString(answer), nil
		}
	}
	scare, err := cf.Scare.Config()
	if err != nil {
		return model.Challenge{}, fmt.Errorf("id %d: scare: %w", cf.ID, err)
	}
	ch.Scare = scare
	return ch, nil
}
