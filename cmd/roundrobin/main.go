package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derekprior/roundrobin/internal/config"
	"github.com/derekprior/roundrobin/internal/excel"
	"github.com/derekprior/roundrobin/internal/logging"
	"github.com/derekprior/roundrobin/internal/render"
	"github.com/derekprior/roundrobin/internal/schedule"
	"github.com/derekprior/roundrobin/internal/strategy"
	"github.com/derekprior/roundrobin/internal/teams"
	"github.com/derekprior/roundrobin/internal/validator"
)

const (
	defaultConfigFile   = "config.yaml"
	defaultWorkbookFile = "schedule.xlsx"
)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

type generateOptions struct {
	configPath string
	output     string
	format     string
	seed       *int64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "roundrobin",
		Short: "Double round robin tournament schedule generator",
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var opts generateOptions
	var seed int64
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			opts.configPath = configPath
			if cmd.Flags().Changed("seed") {
				opts.seed = &seed
			}
			return runGenerate(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	generateCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout, or schedule.xlsx for xlsx)")
	generateCmd.Flags().StringVar(&opts.format, "format", "", "Output format: html, markdown, text or xlsx (default: output.format from config)")
	generateCmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle seed for a reproducible schedule")

	var maxStreak int
	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule workbook and refresh its team sheets",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-streak") {
				if configPath, err := resolveConfigPath(configFile); err == nil {
					cfg, err := config.LoadFromFile(configPath)
					if err != nil {
						return fmt.Errorf("loading config: %w", err)
					}
					maxStreak = cfg.Guidelines.MaxStreak
				}
			}
			return runValidate(cmd.OutOrStdout(), args[0], maxStreak)
		},
	}
	validateCmd.Flags().IntVar(&maxStreak, "max-streak", config.DefaultMaxStreak, "Longest run of home or away games before warning")

	scheduleCmd.AddCommand(generateCmd, validateCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd)
	return rootCmd
}

func runInit(out io.Writer, outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Round Robin Tournament Configuration
# ====================================
# This file defines the parameters for generating a double round robin.

# Season sets the anchor date. Round 1 of the first circle is played one
# week after it; every later round follows a week after the previous one,
# with a free week between the circles.
season:
  name: "Premier League"
  anchor_date: "2024-11-23"

# Strategy determines how fixtures are generated.
# "double_round_robin" pairs every team with every other team once per
# circle using the circle method; the second circle swaps home and away.
strategy: double_round_robin

# Seed makes the team shuffle reproducible. Leave it out for a fresh draw
# on every run. ROUNDROBIN_SEED or --seed override it.
# seed: 42

# log_level: info

# Teams can be listed inline, or loaded from a JSON document shaped like
#   {"teams": [{"id": 1, "title": "Liverpool"}, ...]}
# via teams_file or teams_url (set at most one of the two). A team without
# an id gets a stable one derived from its title.
#
# teams_file: teams.json
# teams_url: https://example.com/teams.json
teams:
  - { id: "1", title: "Liverpool" }
  - { id: "2", title: "Chelsea" }
  - { id: "3", title: "Tottenham Hotspur" }
  - { id: "4", title: "Arsenal" }
  - { id: "5", title: "Manchester United" }
  - { id: "6", title: "Everton" }
  - { id: "7", title: "Leicester City" }
  - { id: "8", title: "West Ham United" }
  - { id: "9", title: "Watford" }
  - { id: "10", title: "Bournemouth" }
  - { id: "11", title: "Burnley" }
  - { id: "12", title: "Southampton" }
  - { id: "13", title: "Brighton and Hove Albion" }
  - { id: "14", title: "Norwich City" }
  - { id: "15", title: "Sheffield United" }
  - { id: "16", title: "Fulham" }
  - { id: "17", title: "Stoke City" }
  - { id: "18", title: "Middlesbrough" }
  - { id: "19", title: "Swansea City" }
  - { id: "20", title: "Derby County" }

# Output controls the document written by "schedule generate".
# Formats: html, markdown, text, xlsx.
output:
  format: html
  date_layout: "02 January 2006"   # Go reference layout
  labels:
    circle: "Circle"
    round: "Round"
    date: "Date"
    home: "Home"
    away: "Away"
    bye: "Bye"

# Guidelines are soft constraints. Violations are reported as warnings,
# not errors.
guidelines:
  max_streak: 2    # Longest run of consecutive home or away games
`

func runGenerate(ctx context.Context, opts generateOptions, stdout, stderr io.Writer) error {
	cfg, err := config.LoadFromFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(stderr, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	format := cfg.Output.Format
	if opts.format != "" {
		format = strings.ToLower(opts.format)
	}
	seed := cfg.Seed
	if opts.seed != nil {
		seed = opts.seed
	}
	if seed == nil {
		s := time.Now().UnixNano()
		seed = &s
	}

	list, err := teams.FromConfig(cfg).Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("teams loaded", logging.FieldSource, teamSource(cfg), logging.FieldTeams, len(list))

	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return err
	}

	sched, err := strat.Generate(list, strategy.NewRand(seed))
	if err != nil {
		var invalid *strategy.InvalidInputError
		if errors.As(err, &invalid) {
			return fmt.Errorf("cannot build a schedule: %w", err)
		}
		return fmt.Errorf("generating schedule: %w", err)
	}
	logger.Info("schedule generated", logging.FieldSeed, *seed, logging.FieldRounds, sched.Rounds(), logging.FieldCircles, strategy.Circles)

	circles := schedule.Format(sched, cfg.Season.AnchorDate.Time)

	// Keep the report off stdout when the document goes there.
	report := stdout
	if opts.output == "" && format != "xlsx" {
		report = stderr
	}
	printReport(report, sched, cfg.Guidelines.MaxStreak)

	if format == "xlsx" {
		path := opts.output
		if path == "" {
			path = defaultWorkbookFile
		}
		f, err := excel.Generate(circles)
		if err != nil {
			return fmt.Errorf("generating Excel: %w", err)
		}
		if err := f.SaveAs(path); err != nil {
			return fmt.Errorf("saving file: %w", err)
		}
		logger.Debug("workbook written", logging.FieldOutput, path)
		fmt.Fprintf(report, "\n✓ Schedule saved to %s\n", path)
		return nil
	}

	rf, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
	renderOpts := render.Options{
		DateLayout: cfg.Output.DateLayout,
		Labels:     render.Labels(cfg.Output.Labels),
	}

	if opts.output == "" {
		return render.Write(stdout, rf, circles, renderOpts)
	}

	fh, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := render.Write(fh, rf, circles, renderOpts); err != nil {
		fh.Close()
		return fmt.Errorf("writing %s: %w", rf, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	logger.Debug("document written", logging.FieldFormat, string(rf), logging.FieldOutput, opts.output)
	fmt.Fprintf(report, "\n✓ Schedule saved to %s\n", opts.output)
	return nil
}

func teamSource(cfg *config.Config) string {
	switch {
	case cfg.TeamsURL != "":
		return cfg.TeamsURL
	case cfg.TeamsFile != "":
		return cfg.TeamsFile
	}
	return "inline"
}

func printReport(out io.Writer, sched *strategy.Schedule, maxStreak int) {
	fmt.Fprintf(out, "✓ %d matches in %d rounds across %d circles\n",
		len(sched.Fixtures), sched.Rounds()*strategy.Circles, strategy.Circles)

	metrics := schedule.Metrics(sched)
	fmt.Fprintln(out, "\nPer Team Metrics:")
	fmt.Fprintf(out, "  %-25s %6s %5s %5s %5s %7s\n", "Team", "Games", "Home", "Away", "Byes", "Streak")
	for _, team := range sched.Teams {
		m := metrics[team.ID]
		fmt.Fprintf(out, "  %-25s %6d %5d %5d %5d %7d\n", team.Title, m.Games, m.Home, m.Away, m.Byes, m.LongestStreak)
	}

	warnings := schedule.Warnings(sched, maxStreak)
	if len(warnings) > 0 {
		fmt.Fprintf(out, "\nGuideline violations (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(out, "  ⚠ %s\n", w)
		}
	} else {
		fmt.Fprintln(out, "\n✓ No guideline violations")
	}
}

func runValidate(out io.Writer, schedulePath string, maxStreak int) error {
	violations, err := validator.Validate(schedulePath, maxStreak)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errs := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errs++
			fmt.Fprintf(out, "✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Fprintf(out, "⚠ Guideline violation: %s\n", v.Message)
		}
	}

	fmt.Fprintf(out, "\nValidation complete: %d rule violations, %d guideline violations\n", errs, warnings)

	// Regenerate team sheets from master schedule
	if err := excel.UpdateTeamSheets(schedulePath); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Fprintf(out, "✓ Team sheets updated in %s\n", schedulePath)

	if errs > 0 {
		return fmt.Errorf("%d constraint violations found", errs)
	}
	return nil
}
