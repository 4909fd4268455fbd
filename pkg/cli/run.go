package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uiscript/pkg/config"
	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/executor"
	"github.com/devicelab-dev/uiscript/pkg/logger"
	"github.com/devicelab-dev/uiscript/pkg/report"
	"github.com/devicelab-dev/uiscript/pkg/validator"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run scenarios against a target",
	ArgsUsage: "<scenario-file-folder-or-glob>...",
	Description: `Run one or more scenario files. Without arguments the scenarios listed
in config.yaml are run.

Reports are generated in the output directory:
  - Default: <home>/reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)

Examples:
  uiscript --license-key demo run scenarios/
  uiscript --license-key demo run scenarios/ --parallel 2 --junit
  uiscript -t wda --bundle-id com.example.Viewer run scenarios/ -e NEW_PAGE=Add
  uiscript -t appium --caps caps.json run scenarios/bookmarks.yaml`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Variables (KEY=VALUE), override config labels and env",
		},
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include scenarios with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude scenarios with these tags",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},
		&cli.BoolFlag{
			Name:  "junit",
			Usage: "Also write junit-report.xml",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Number of simulated apps to run scenarios on (sample target)",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining scenarios after the first failure",
		},
		&cli.IntFlag{
			Name:  "find-timeout",
			Usage: "Element lookup timeout in ms",
		},
		&cli.IntFlag{
			Name:  "wait-timeout",
			Usage: "Wait condition timeout in ms",
		},
		&cli.IntFlag{
			Name:  "animation-delay",
			Usage: "Time in ms before presented elements settle (sample target)",
		},
	},
	Action: runScenarios,
}

// RunConfig holds the complete run configuration.
type RunConfig struct {
	Paths       []string
	IncludeTags []string
	ExcludeTags []string

	OutputDir  string
	JUnit      bool
	Verbose    bool
	StopOnFail bool

	Targets        *TargetConfig
	Parallel       int
	AnimationDelay time.Duration

	Runner executor.Config
}

func runScenarios(c *cli.Context) error {
	cfg, err := buildRunConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	suite, err := executeRun(ctx, cfg)
	if err != nil {
		return err
	}
	if !suite.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

func buildRunConfig(c *cli.Context) (*RunConfig, error) {
	ws, err := loadWorkspace(c)
	if err != nil {
		return nil, err
	}
	targets, err := resolveTarget(c, ws)
	if err != nil {
		return nil, err
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = ws.Scenarios
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one scenario file or folder is required")
	}

	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("flatten"))
	if err != nil {
		return nil, err
	}

	runner := ws.RunnerConfig()
	for k, v := range parseEnvVars(c.StringSlice("env")) {
		runner.Vars[k] = v
	}
	if ms := c.Int("find-timeout"); ms > 0 {
		runner.FindTimeout = time.Duration(ms) * time.Millisecond
	}
	if ms := c.Int("wait-timeout"); ms > 0 {
		runner.WaitTimeout = time.Duration(ms) * time.Millisecond
	}

	includeTags := c.StringSlice("include-tags")
	if len(includeTags) == 0 {
		includeTags = ws.IncludeTags
	}
	excludeTags := c.StringSlice("exclude-tags")
	if len(excludeTags) == 0 {
		excludeTags = ws.ExcludeTags
	}

	parallel := c.Int("parallel")
	if parallel > 1 && targets.Target != config.TargetSample {
		return nil, fmt.Errorf("--parallel applies to the sample target; list several --wda-url values instead")
	}

	return &RunConfig{
		Paths:          paths,
		IncludeTags:    includeTags,
		ExcludeTags:    excludeTags,
		OutputDir:      outputDir,
		JUnit:          c.Bool("junit"),
		Verbose:        c.Bool("verbose"),
		StopOnFail:     c.Bool("stop-on-fail"),
		Targets:        targets,
		Parallel:       parallel,
		AnimationDelay: time.Duration(c.Int("animation-delay")) * time.Millisecond,
		Runner:         runner,
	}, nil
}

// resolveOutputDir determines the output directory based on flags.
//   - No --output: <home>/reports/<timestamp>/
//   - --output given: <output>/<timestamp>/
//   - --output + --flatten: <output>/
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = config.GetReportsDir()
	}
	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

// executeRun validates, runs and reports. A non-nil suite is returned
// whenever scenarios ran, even if some failed.
func executeRun(ctx context.Context, cfg *RunConfig) (*core.SuiteResult, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	closeLog, err := initLogging(filepath.Join(cfg.OutputDir, "uiscript.log"), cfg.Verbose)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	} else {
		defer closeLog()
	}

	logger.Info("=== Run started ===")
	logger.Info("Output directory: %s", cfg.OutputDir)
	logger.Info("Target: %s", cfg.Targets.Target)

	result := validator.New(cfg.IncludeTags, cfg.ExcludeTags).ValidateAll(cfg.Paths)
	if !result.IsValid() {
		printValidationErrors(result.Errors)
		return nil, fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}
	if len(result.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found")
	}
	fmt.Printf("\n%sSetup%s\n", color(colorBold), color(colorReset))
	printSetupSuccess(fmt.Sprintf("Found %d scenario(s)", len(result.Scenarios)))

	workers, err := createWorkers(ctx, cfg.Targets, cfg.Parallel, cfg.AnimationDelay)
	if err != nil {
		logger.Error("Target setup failed: %v", err)
		return nil, err
	}
	printSetupSuccess(fmt.Sprintf("Connected %d %s target(s)", len(workers), cfg.Targets.Target))

	runnerCfg := cfg.Runner
	progress := newProgress(os.Stdout, len(result.Scenarios))
	runnerCfg.OnScenarioStart = progress.scenarioStart
	runnerCfg.OnStepComplete = progress.stepComplete
	runnerCfg.OnScenarioEnd = progress.scenarioEnd

	suite, err := executor.NewSuite(workers, executor.SuiteConfig{
		Name:       "uiscript",
		Runner:     runnerCfg,
		StopOnFail: cfg.StopOnFail,
	}).Run(ctx, result.Scenarios)
	if err != nil {
		logger.Error("Suite failed: %v", err)
		if suite == nil {
			return nil, err
		}
	}
	logger.Info("Suite completed: %d passed, %d failed, %d skipped",
		suite.PassedScenarios, suite.FailedScenarios, suite.SkippedScenarios)

	printSummary(os.Stdout, suite)

	if _, err := report.Write(cfg.OutputDir, suite, report.BuilderConfig{
		RunnerVersion: Version,
		Target:        cfg.Targets.Target,
		App:           report.App{ID: cfg.Targets.BundleID},
	}); err != nil {
		return suite, fmt.Errorf("write report: %w", err)
	}
	fmt.Println("  Reports:")
	fmt.Printf("    JSON:   %s\n", filepath.Join(cfg.OutputDir, "report.json"))
	if cfg.JUnit {
		if err := report.GenerateJUnit(cfg.OutputDir); err != nil {
			return suite, fmt.Errorf("write junit report: %w", err)
		}
		fmt.Printf("    JUnit:  %s\n", filepath.Join(cfg.OutputDir, "junit-report.xml"))
	}
	fmt.Println()
	return suite, nil
}

// initLogging logs to logPath, and to stderr as well when verbose.
func initLogging(logPath string, verbose bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, err
	}
	if !verbose {
		if err := logger.Init(logPath); err != nil {
			return nil, err
		}
		return logger.Close, nil
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //#nosec G302 G304 -- log path chosen by uiscript
	if err != nil {
		return nil, err
	}
	logger.InitWriter(io.MultiWriter(f, os.Stderr))
	return func() {
		logger.Close()
		f.Close()
	}, nil
}

// initHomeLog logs commands that have no report directory to
// <home>/logs/uiscript.log. A log that cannot be opened is not fatal.
func initHomeLog(c *cli.Context) func() {
	closeLog, err := initLogging(config.GetLogPath(), c.Bool("verbose"))
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: Failed to initialize logger: %v\n", err)
		return func() {}
	}
	return closeLog
}

// progress prints live results. Workers report concurrently, so every
// write holds the lock.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	started int
}

func newProgress(w io.Writer, total int) *progress {
	return &progress{w: w, total: total}
}

func (p *progress) scenarioStart(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started++
	fmt.Fprintf(p.w, "\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), p.started, p.total, color(colorReset),
		color(colorBold), name, color(colorReset))
}

func (p *progress) stepComplete(scenarioName string, r *core.StepResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ms := r.Duration.Milliseconds()
	dur := formatDuration(ms)
	switch r.Status {
	case core.StatusPassed:
		durColor := ""
		if ms >= slowThresholdMs {
			durColor = color(colorYellow)
		}
		fmt.Fprintf(p.w, "    %s✓%s %s %s(%s)%s\n",
			color(colorGreen), color(colorReset), r.Description, durColor, dur, color(colorReset))
	case core.StatusWarned:
		fmt.Fprintf(p.w, "    %s⚠%s %s (%s)\n", color(colorYellow), color(colorReset), r.Description, dur)
		if r.Error != "" {
			fmt.Fprintf(p.w, "      %s╰─%s optional: %s\n", color(colorGray), color(colorReset), r.Error)
		}
	default:
		fmt.Fprintf(p.w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), r.Description, dur)
		if r.Error != "" {
			fmt.Fprintf(p.w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), r.Error)
		}
		if !r.Location.IsZero() {
			fmt.Fprintf(p.w, "      %s   at %s%s\n", color(colorGray), r.Location, color(colorReset))
		}
	}
}

func (p *progress) scenarioEnd(r *core.ScenarioResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.Success() {
		fmt.Fprintf(p.w, "  %s✓%s %s %s%s%s\n",
			color(colorGreen), color(colorReset), r.Name, color(colorGray), formatDuration(r.Duration.Milliseconds()), color(colorReset))
		return
	}
	fmt.Fprintf(p.w, "  %s✗%s %s %s%s%s\n",
		color(colorRed), color(colorReset), r.Name, color(colorGray), formatDuration(r.Duration.Milliseconds()), color(colorReset))
}
