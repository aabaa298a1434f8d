package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

const testConfigYAML = `
season:
  name: Premier League 2024/25
  anchor_date: "2024-11-23"

seed: 42

teams:
  - id: "1"
    title: Arsenal
  - id: "2"
    title: Aston Villa
  - title: Bournemouth
  - title: Brentford

output:
  format: Markdown
  date_layout: "2006-01-02"
  labels:
    circle: Leg
    bye: Rest

guidelines:
  max_streak: 3
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("season", func(t *testing.T) {
		if cfg.Season.Name != "Premier League 2024/25" {
			t.Errorf("name = %q", cfg.Season.Name)
		}
		if cfg.Season.AnchorDate.Time != mustDate("2024-11-23") {
			t.Errorf("anchor date = %v, want 2024-11-23", cfg.Season.AnchorDate.Time)
		}
	})

	t.Run("seed", func(t *testing.T) {
		if cfg.Seed == nil || *cfg.Seed != 42 {
			t.Errorf("seed = %v, want 42", cfg.Seed)
		}
	})

	t.Run("teams", func(t *testing.T) {
		if len(cfg.Teams) != 4 {
			t.Fatalf("teams = %d, want 4", len(cfg.Teams))
		}
		if cfg.Teams[1].ID != "2" || cfg.Teams[1].Title != "Aston Villa" {
			t.Errorf("second team = %+v", cfg.Teams[1])
		}
		if cfg.Teams[2].ID != "" {
			t.Errorf("Bournemouth id = %q, want empty", cfg.Teams[2].ID)
		}
	})

	t.Run("output", func(t *testing.T) {
		if cfg.Output.Format != "markdown" {
			t.Errorf("format = %q, want markdown", cfg.Output.Format)
		}
		if cfg.Output.DateLayout != "2006-01-02" {
			t.Errorf("date layout = %q", cfg.Output.DateLayout)
		}
		if cfg.Output.Labels.Circle != "Leg" || cfg.Output.Labels.Bye != "Rest" {
			t.Errorf("labels = %+v", cfg.Output.Labels)
		}
		if cfg.Output.Labels.Round != "" {
			t.Errorf("round label = %q, want empty", cfg.Output.Labels.Round)
		}
	})

	t.Run("guidelines", func(t *testing.T) {
		if cfg.Guidelines.MaxStreak != 3 {
			t.Errorf("max streak = %d, want 3", cfg.Guidelines.MaxStreak)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	yaml := `
season:
  anchor_date: "2024-11-23"
teams_file: teams.json
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Strategy != DefaultStrategy {
		t.Errorf("strategy = %q, want %q", cfg.Strategy, DefaultStrategy)
	}
	if cfg.Output.Format != DefaultFormat {
		t.Errorf("format = %q, want %q", cfg.Output.Format, DefaultFormat)
	}
	if cfg.Guidelines.MaxStreak != DefaultMaxStreak {
		t.Errorf("max streak = %d, want %d", cfg.Guidelines.MaxStreak, DefaultMaxStreak)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.Seed != nil {
		t.Errorf("seed = %d, want unset", *cfg.Seed)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing anchor date",
			yaml: `
teams: [{title: A}, {title: B}]
`,
			want: "anchor_date is required",
		},
		{
			name: "bad anchor date",
			yaml: `
season:
  anchor_date: "23/11/2024"
teams: [{title: A}, {title: B}]
`,
			want: "invalid date",
		},
		{
			name: "no team source",
			yaml: `
season:
  anchor_date: "2024-11-23"
`,
			want: "no teams configured",
		},
		{
			name: "file and url",
			yaml: `
season:
  anchor_date: "2024-11-23"
teams_file: teams.json
teams_url: https://example.com/teams.json
`,
			want: "cannot both be set",
		},
		{
			name: "duplicate team titles",
			yaml: `
season:
  anchor_date: "2024-11-23"
teams: [{title: Arsenal}, {title: Chelsea}, {title: " Arsenal "}]
`,
			want: `team "Arsenal" appears twice (entries 1 and 3)`,
		},
		{
			name: "untitled team",
			yaml: `
season:
  anchor_date: "2024-11-23"
teams: [{title: Arsenal}, {id: "7"}]
`,
			want: "team 2 has no title",
		},
		{
			name: "unknown format",
			yaml: `
season:
  anchor_date: "2024-11-23"
teams: [{title: A}, {title: B}]
output:
  format: pdf
`,
			want: `unknown output format "pdf"`,
		},
		{
			name: "negative max streak",
			yaml: `
season:
  anchor_date: "2024-11-23"
teams: [{title: A}, {title: B}]
guidelines:
  max_streak: -1
`,
			want: "max_streak must be at least 1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to contain %q", err, tc.want)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roundrobin.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Teams) != 4 {
		t.Errorf("teams = %d, want 4", len(cfg.Teams))
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}

	t.Run("same defaults and validation as bytes", func(t *testing.T) {
		cfg, err := LoadFromFile(writeConfig(t, `
season:
  anchor_date: "2024-11-23"
teams: [{title: A}, {title: B}]
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Strategy != DefaultStrategy || cfg.Guidelines.MaxStreak != DefaultMaxStreak {
			t.Errorf("defaults not applied: %+v", cfg)
		}

		_, err = LoadFromFile(writeConfig(t, `
season:
  anchor_date: "2024-11-23"
teams: [{title: A}, {title: B}]
output:
  format: pdf
`))
		if err == nil || !strings.Contains(err.Error(), `unknown output format "pdf"`) {
			t.Errorf("error = %v, want unknown format", err)
		}
	})
}

func TestLoadFromFileEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
season:
  anchor_date: "2024-11-23"
seed: 1
teams_file: teams.json
`)

	t.Run("seed, date and level", func(t *testing.T) {
		t.Setenv("ROUNDROBIN_SEED", "99")
		t.Setenv("ROUNDROBIN_ANCHOR_DATE", "2025-08-16")
		t.Setenv("ROUNDROBIN_LOG_LEVEL", "debug")
		t.Setenv("ROUNDROBIN_FORMAT", "XLSX")

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Seed == nil || *cfg.Seed != 99 {
			t.Errorf("seed = %v, want 99", cfg.Seed)
		}
		if cfg.Season.AnchorDate.Time != mustDate("2025-08-16") {
			t.Errorf("anchor date = %v, want 2025-08-16", cfg.Season.AnchorDate.Time)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("log level = %q, want debug", cfg.LogLevel)
		}
		if cfg.Output.Format != "xlsx" {
			t.Errorf("format = %q, want xlsx", cfg.Output.Format)
		}
	})

	t.Run("url replaces file", func(t *testing.T) {
		t.Setenv("ROUNDROBIN_TEAMS_URL", "https://example.com/teams.json")

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TeamsURL != "https://example.com/teams.json" || cfg.TeamsFile != "" {
			t.Errorf("teams_url = %q, teams_file = %q", cfg.TeamsURL, cfg.TeamsFile)
		}
	})

	t.Run("invalid seed", func(t *testing.T) {
		t.Setenv("ROUNDROBIN_SEED", "lucky")

		_, err := LoadFromFile(path)
		if err == nil || !strings.Contains(err.Error(), "ROUNDROBIN_SEED") {
			t.Errorf("error = %v, want ROUNDROBIN_SEED complaint", err)
		}
	})

	t.Run("invalid anchor date", func(t *testing.T) {
		t.Setenv("ROUNDROBIN_ANCHOR_DATE", "tomorrow")

		if _, err := LoadFromFile(path); err == nil {
			t.Error("expected error for invalid ROUNDROBIN_ANCHOR_DATE")
		}
	})
}

func TestLoadFromFileResolvesTeamsFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("relative to the config file", func(t *testing.T) {
		path := writeConfig(t, `
season:
  anchor_date: "2024-11-23"
teams_file: data/teams.json
`)
		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join(filepath.Dir(path), "data", "teams.json")
		if cfg.TeamsFile != want {
			t.Errorf("teams_file = %q, want %q", cfg.TeamsFile, want)
		}
	})

	t.Run("absolute path kept", func(t *testing.T) {
		abs := filepath.Join(dir, "teams.json")
		cfg, err := LoadFromFile(writeConfig(t, `
season:
  anchor_date: "2024-11-23"
teams_file: `+abs+`
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TeamsFile != abs {
			t.Errorf("teams_file = %q, want %q", cfg.TeamsFile, abs)
		}
	})

	t.Run("environment path used as given", func(t *testing.T) {
		t.Setenv("ROUNDROBIN_TEAMS_FILE", "teams.json")
		cfg, err := LoadFromFile(writeConfig(t, `
season:
  anchor_date: "2024-11-23"
teams_file: data/teams.json
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TeamsFile != "teams.json" {
			t.Errorf("teams_file = %q, want teams.json", cfg.TeamsFile)
		}
	})

	t.Run("bytes are not resolved", func(t *testing.T) {
		cfg, err := LoadFromBytes([]byte(`
season:
  anchor_date: "2024-11-23"
teams_file: data/teams.json
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TeamsFile != "data/teams.json" {
			t.Errorf("teams_file = %q, want data/teams.json", cfg.TeamsFile)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	seed := int64(5)
	base := func() *Config {
		return &Config{
			Seed:   &seed,
			Season: Season{AnchorDate: Date{Time: mustDate("2024-11-23")}},
		}
	}

	t.Run("unset variables change nothing", func(t *testing.T) {
		cfg := base()
		if err := cfg.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv() error: %v", err)
		}
		if cfg.Seed == nil || *cfg.Seed != 5 {
			t.Errorf("seed = %v, want 5", cfg.Seed)
		}
		if cfg.Season.AnchorDate.Time != mustDate("2024-11-23") {
			t.Errorf("anchor date = %v, want 2024-11-23", cfg.Season.AnchorDate.Time)
		}
	})

	t.Run("typed values decoded", func(t *testing.T) {
		t.Setenv("ROUNDROBIN_SEED", "-3")
		t.Setenv("ROUNDROBIN_ANCHOR_DATE", "2025-01-04")
		cfg := base()
		if err := cfg.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv() error: %v", err)
		}
		if cfg.Seed == nil || *cfg.Seed != -3 {
			t.Errorf("seed = %v, want -3", cfg.Seed)
		}
		if cfg.Season.AnchorDate.Time != mustDate("2025-01-04") {
			t.Errorf("anchor date = %v, want 2025-01-04", cfg.Season.AnchorDate.Time)
		}
		if seed != 5 {
			t.Errorf("file seed overwritten in place: %d", seed)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		t.Setenv("ROUNDROBIN_ANCHOR_DATE", "04/01/2025")
		err := base().ApplyEnv()
		if err == nil || !strings.Contains(err.Error(), "ROUNDROBIN_ANCHOR_DATE") {
			t.Errorf("error = %v, want ROUNDROBIN_ANCHOR_DATE complaint", err)
		}
	})
}
