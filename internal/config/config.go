package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStrategy  = "double_round_robin"
	DefaultFormat    = "html"
	DefaultMaxStreak = 2
)

// Formats lists the accepted output.format values.
var Formats = []string{"html", "markdown", "text", "xlsx"}

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	return d.Decode(value.Value)
}

// Decode lets envconfig read a Date from a YYYY-MM-DD variable.
func (d *Date) Decode(value string) error {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value, err)
	}
	d.Time = t
	return nil
}

type Season struct {
	Name       string `yaml:"name"`
	AnchorDate Date   `yaml:"anchor_date"`
}

type Team struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// Labels are the headings used by the HTML, Markdown and text renderers.
// Empty values fall back to the renderer defaults.
type Labels struct {
	Circle string `yaml:"circle"`
	Round  string `yaml:"round"`
	Date   string `yaml:"date"`
	Home   string `yaml:"home"`
	Away   string `yaml:"away"`
	Bye    string `yaml:"bye"`
}

type Output struct {
	Format     string `yaml:"format"`
	DateLayout string `yaml:"date_layout"`
	Labels     Labels `yaml:"labels"`
}

type Guidelines struct {
	MaxStreak int `yaml:"max_streak"`
}

type Config struct {
	Season     Season     `yaml:"season"`
	Strategy   string     `yaml:"strategy"`
	Seed       *int64     `yaml:"seed"`
	LogLevel   string     `yaml:"log_level"`
	Teams      []Team     `yaml:"teams"`
	TeamsFile  string     `yaml:"teams_file"`
	TeamsURL   string     `yaml:"teams_url"`
	Output     Output     `yaml:"output"`
	Guidelines Guidelines `yaml:"guidelines"`
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	return load(data, nil)
}

// LoadFromFile reads and parses a YAML config file, then applies
// ROUNDROBIN_* environment overrides. A relative teams_file in the file is
// taken relative to the file's directory.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return load(data, func(c *Config) error {
		if c.TeamsFile != "" && !filepath.IsAbs(c.TeamsFile) {
			c.TeamsFile = filepath.Join(filepath.Dir(path), c.TeamsFile)
		}
		return c.ApplyEnv()
	})
}

func load(data []byte, prepare func(*Config) error) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if prepare != nil {
		if err := prepare(&cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Env holds the settings that may be overridden from the environment.
type Env struct {
	Seed       *int64 `envconfig:"SEED"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	TeamsFile  string `envconfig:"TEAMS_FILE"`
	TeamsURL   string `envconfig:"TEAMS_URL"`
	AnchorDate Date   `envconfig:"ANCHOR_DATE"`
	Format     string `envconfig:"FORMAT"`
}

// ApplyEnv overlays ROUNDROBIN_* environment variables onto the config.
// A team source set from the environment replaces any source in the file.
func (c *Config) ApplyEnv() error {
	var env Env
	if err := envconfig.Process("roundrobin", &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if env.Seed != nil {
		c.Seed = env.Seed
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.TeamsURL != "" {
		c.TeamsURL, c.TeamsFile = env.TeamsURL, ""
	} else if env.TeamsFile != "" {
		c.TeamsFile, c.TeamsURL = env.TeamsFile, ""
	}
	if !env.AnchorDate.Time.IsZero() {
		c.Season.AnchorDate = env.AnchorDate
	}
	if env.Format != "" {
		c.Output.Format = env.Format
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = DefaultStrategy
	}
	if c.Output.Format == "" {
		c.Output.Format = DefaultFormat
	}
	c.Output.Format = strings.ToLower(c.Output.Format)
	if c.Guidelines.MaxStreak == 0 {
		c.Guidelines.MaxStreak = DefaultMaxStreak
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Season.AnchorDate.Time.IsZero() {
		return fmt.Errorf("season.anchor_date is required")
	}

	if len(c.Teams) == 0 && c.TeamsFile == "" && c.TeamsURL == "" {
		return fmt.Errorf("no teams configured: list them under 'teams' or set 'teams_file' or 'teams_url'")
	}
	if c.TeamsFile != "" && c.TeamsURL != "" {
		return fmt.Errorf("'teams_file' and 'teams_url' cannot both be set")
	}

	// Check for duplicate team names
	seen := make(map[string]int)
	for i, t := range c.Teams {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			return fmt.Errorf("team %d has no title", i+1)
		}
		if prev, ok := seen[title]; ok {
			return fmt.Errorf("team %q appears twice (entries %d and %d)", title, prev, i+1)
		}
		seen[title] = i + 1
	}

	if !validFormat(c.Output.Format) {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.Output.Format, strings.Join(Formats, ", "))
	}

	if c.Guidelines.MaxStreak < 1 {
		return fmt.Errorf("guidelines.max_streak must be at least 1")
	}

	return nil
}

func validFormat(name string) bool {
	for _, f := range Formats {
		if f == name {
			return true
		}
	}
	return false
}
