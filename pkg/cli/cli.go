// Package cli provides the command-line interface for uiscript.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to workspace config.yaml (default: ./config.yaml if present)",
		EnvVars: []string{"UISCRIPT_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   "Target to drive (sample, wda, appium)",
		EnvVars: []string{"UISCRIPT_TARGET"},
	},
	&cli.StringFlag{
		Name:    "bundle-id",
		Usage:   "Bundle ID of the app under test (wda, appium)",
		EnvVars: []string{"UISCRIPT_BUNDLE_ID"},
	},
	&cli.StringFlag{
		Name:    "license-key",
		Usage:   "License key for the sample app",
		EnvVars: []string{"UISCRIPT_LICENSE_KEY"},
	},
	&cli.StringFlag{
		Name:    "wda-url",
		Usage:   "WebDriverAgent URL (can be comma-separated, one target each)",
		EnvVars: []string{"UISCRIPT_WDA_URL"},
	},
	&cli.StringFlag{
		Name:    "simulator",
		Usage:   "iOS simulator (name or UDID) to boot before connecting to WebDriverAgent",
		EnvVars: []string{"UISCRIPT_SIMULATOR"},
	},
	&cli.UintFlag{
		Name:    "wda-port",
		Usage:   "WebDriverAgent port on localhost",
		EnvVars: []string{"UISCRIPT_WDA_PORT"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		Value:   "http://127.0.0.1:4723",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "caps",
		Usage:   "Appium capabilities JSON file",
		EnvVars: []string{"UISCRIPT_CAPS"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"UISCRIPT_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "uiscript",
		Usage:   "Run scripted UI scenarios against an app",
		Version: Version,
		Description: `uiscript runs YAML scenarios (find element, wait, act, assert) against
a simulated sample app, WebDriverAgent or an Appium server.

Examples:
  uiscript --license-key demo run scenarios/
  uiscript --target wda --bundle-id com.example.Viewer run scenarios/ -e NEW_PAGE=Add
  uiscript validate scenarios/
  uiscript labels scenarios/
  uiscript -t wda --simulator "iPhone 15" --bundle-id com.example.Viewer run scenarios/`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			validateCommand,
			labelsCommand,
			hierarchyCommand,
			simulatorsCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
