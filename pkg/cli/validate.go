package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uiscript/pkg/validator"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Parse and check scenario files without running them",
	ArgsUsage: "<scenario-file-folder-or-glob>...",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include scenarios with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude scenarios with these tags",
		},
	},
	Action: validateScenarios,
}

func validateScenarios(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		ws, err := loadWorkspace(c)
		if err != nil {
			return err
		}
		paths = ws.Scenarios
	}
	if len(paths) == 0 {
		return fmt.Errorf("at least one scenario file or folder is required")
	}

	result := validator.New(c.StringSlice("include-tags"), c.StringSlice("exclude-tags")).ValidateAll(paths)
	w := c.App.Writer
	for i, sc := range result.Scenarios {
		fmt.Fprintf(w, "  %s✓%s %s (%s, %d steps)\n",
			color(colorGreen), color(colorReset), sc.Name, result.Files[i], len(sc.Steps))
	}
	if !result.IsValid() {
		for _, err := range result.Errors {
			fmt.Fprintf(w, "  %s✗%s %v\n", color(colorRed), color(colorReset), err)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}
	fmt.Fprintf(w, "%d scenario(s) valid\n", len(result.Scenarios))
	return nil
}
