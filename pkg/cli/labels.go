package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uiscript/pkg/validator"
)

var labelsCommand = &cli.Command{
	Name:      "labels",
	Usage:     "List the ${NAME} variables scenarios use and where each resolves",
	ArgsUsage: "<scenario-file-folder-or-glob>...",
	Description: `Labels differ between app builds, so scenarios refer to them through
variables. This command shows every variable each scenario references and
whether config.yaml (labels, env), the scenario's own env header or -e
supplies it.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Variables (KEY=VALUE)",
		},
	},
	Action: listLabels,
}

func listLabels(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = ws.Scenarios
	}
	if len(paths) == 0 {
		return fmt.Errorf("at least one scenario file or folder is required")
	}

	result := validator.New(nil, nil).ValidateAll(paths)
	if !result.IsValid() {
		printValidationErrors(result.Errors)
		return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}

	cliEnv := parseEnvVars(c.StringSlice("env"))
	w := c.App.Writer
	missingTotal := 0
	for i, file := range result.Files {
		sc := result.Scenarios[i]
		refs, err := validator.References(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s%s (%s)\n", color(colorBold), sc.Name, color(colorReset), file)
		if len(refs) == 0 {
			fmt.Fprintln(w, "  no variables")
			continue
		}
		for _, name := range refs {
			value, source := lookupVariable(name, cliEnv, ws.Env, ws.Labels, sc.Env)
			if source == "" {
				missingTotal++
				fmt.Fprintf(w, "  %s✗%s %-24s unresolved\n", color(colorRed), color(colorReset), name)
				continue
			}
			fmt.Fprintf(w, "  %s✓%s %-24s %q (%s)\n", color(colorGreen), color(colorReset), name, value, source)
		}
	}

	if len(ws.Labels) > 0 {
		names := make([]string, 0, len(ws.Labels))
		for k := range ws.Labels {
			names = append(names, k)
		}
		sort.Strings(names)
		fmt.Fprintf(w, "\nconfig labels: %s\n", strings.Join(names, ", "))
	}
	if missingTotal > 0 {
		return fmt.Errorf("%d unresolved variable reference(s)", missingTotal)
	}
	return nil
}

// lookupVariable resolves name in precedence order: -e flags, config env,
// config labels, then the scenario env header, which only supplies defaults.
func lookupVariable(name string, cliEnv, configEnv, labels, scenarioEnv map[string]string) (value, source string) {
	sources := []struct {
		name string
		vars map[string]string
	}{
		{"-e", cliEnv},
		{"config env", configEnv},
		{"config labels", labels},
		{"scenario env", scenarioEnv},
	}
	for _, s := range sources {
		if v, ok := s.vars[name]; ok {
			return v, s.name
		}
	}
	return "", ""
}
