package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Mongo contains document store connection settings and collection names.
type Mongo struct {
	URI         string      `toml:"uri"`
	Database    string      `toml:"database"`
	Collections Collections `toml:"collections"`
}

// Collections names the persisted collections. Field names inside the
// documents are fixed; only the collection names are configurable.
type Collections struct {
	Legacy           string `toml:"legacy"`
	Embed            string `toml:"embed"`
	Audio            string `toml:"audio"`
	Progress         string `toml:"progress"`
	Tags             string `toml:"tags"`
	Priority         string `toml:"priority"`
	Status           string `toml:"status"`
	Blacklist        string `toml:"blacklist"`
	BlacklistAuthors string `toml:"blacklist_authors"`
	Hotwords         string `toml:"hotwords"`
	Corrections      string `toml:"corrections"`
}

// Language pairs a target language code with an optional duration ceiling.
// MaxDurationMinutes of zero means the language is generated for any length.
type Language struct {
	Code               string  `toml:"code"`
	MaxDurationMinutes float64 `toml:"max_duration_minutes"`
}

// IPFS contains gateway and pinning configuration for content retrieval.
type IPFS struct {
	Gateways               []string `toml:"gateways"`
	APIURL                 string   `toml:"api_url"`
	DownloadTimeoutSeconds int      `toml:"download_timeout"`
	FFmpegTimeoutSeconds   int      `toml:"ffmpeg_timeout"`
}

// Whisper configures the external speech-to-text CLI.
type Whisper struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Device         string `toml:"device"`
	ComputeType    string `toml:"compute_type"`
	TimeoutSeconds int    `toml:"timeout"`
}

// Translator configures the translation inference server.
type Translator struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout"`
	BatchSize      int    `toml:"batch_size"`
}

// Tagger configures the zero-shot tag classification server.
type Tagger struct {
	Enabled        bool     `toml:"enabled"`
	BaseURL        string   `toml:"base_url"`
	TimeoutSeconds int      `toml:"timeout"`
	Labels         []string `toml:"labels"`
	MaxTags        int      `toml:"max_tags"`
	MinConfidence  float64  `toml:"min_confidence"`
	SampleChars    int      `toml:"sample_chars"`
}

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir     string `toml:"work_dir"`
	SubtitleDir string `toml:"subtitle_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
}

// Workflow contains scheduling loop behavior.
type Workflow struct {
	PollIntervalSeconds int    `toml:"poll_interval"`
	ItemDelaySeconds    int    `toml:"item_delay"`
	StartDate           string `toml:"start_date"`
	ProcessOnly         string `toml:"process_only"`
	PrioritiseEmbed     bool   `toml:"prioritise_embed"`
	KeepLocalSubtitles  bool   `toml:"keep_local_subtitles"`
	PinSubtitles        bool   `toml:"pin_subtitles"`
	RemotePin           bool   `toml:"remote_pin"`
	RemotePinURL        string `toml:"remote_pin_url"`
	CleanupMedia        bool   `toml:"cleanup_media"`
}

// Cache configures the local media download cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	MaxGiB  int    `toml:"max_gib"`
}

// Ntfy configures optional push notifications. An empty topic disables them.
type Ntfy struct {
	Topic          string `toml:"topic"`
	TimeoutSeconds int    `toml:"timeout"`
}

// Log contains logger construction settings.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Mongo      Mongo      `toml:"mongo"`
	Languages  []Language `toml:"languages"`
	IPFS       IPFS       `toml:"ipfs"`
	Whisper    Whisper    `toml:"whisper"`
	Translator Translator `toml:"translator"`
	Tagger     Tagger     `toml:"tagger"`
	Paths      Paths      `toml:"paths"`
	Workflow   Workflow   `toml:"workflow"`
	Cache      Cache      `toml:"cache"`
	Ntfy       Ntfy       `toml:"ntfy"`
	Log        Log        `toml:"log"`

	startDate time.Time
}

// DefaultConfigPath returns the conventional config location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "subgen", "config.toml")
}

// Load reads, normalizes, and validates the configuration at path. An empty
// path falls back to DefaultConfigPath.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist (run `subgen config init`)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the working directories the process writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.SubtitleDir, c.Paths.LogDir}
	if c.Cache.Enabled {
		dirs = append(dirs, c.Cache.Dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LanguageCodes returns the configured target language codes in order.
func (c *Config) LanguageCodes() []string {
	codes := make([]string, 0, len(c.Languages))
	for _, lang := range c.Languages {
		codes = append(codes, lang.Code)
	}
	return codes
}

// EligibleLanguages filters configured languages by their duration ceiling.
func (c *Config) EligibleLanguages(mediaDuration time.Duration) []string {
	minutes := mediaDuration.Minutes()
	codes := make([]string, 0, len(c.Languages))
	for _, lang := range c.Languages {
		if lang.MaxDurationMinutes == 0 || minutes <= lang.MaxDurationMinutes {
			codes = append(codes, lang.Code)
		}
	}
	return codes
}

// StartDate returns the configured minimum source creation date, when set.
func (c *Config) StartDate() (time.Time, bool) {
	return c.startDate, !c.startDate.IsZero()
}

// PollInterval returns the service mode rescan interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalSeconds) * time.Second
}

// ItemDelay returns the fixed pause between candidates.
func (c *Config) ItemDelay() time.Duration {
	return time.Duration(c.Workflow.ItemDelaySeconds) * time.Second
}
