package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/fixture"
	"github.com/devicelab-dev/uiscript/pkg/sampleapp"
)

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Print the target's element tree as JSON",
	Description: `Connects to the target and prints the element tree queries run against.
Useful for finding the labels and types to put in a scenario.

Examples:
  uiscript --license-key demo hierarchy --fixture emptyBookmarks
  uiscript -t wda --bundle-id com.example.Viewer hierarchy --launch`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "launch",
			Usage: "Relaunch the app before capturing",
		},
		&cli.StringFlag{
			Name:  "fixture",
			Usage: "Fixture to show (sample target)",
		},
	},
	Action: printHierarchy,
}

func printHierarchy(c *cli.Context) error {
	ws, err := loadWorkspace(c)
	if err != nil {
		return err
	}
	tc, err := resolveTarget(c, ws)
	if err != nil {
		return err
	}
	if len(tc.WDAURLs) > 1 {
		tc.WDAURLs = tc.WDAURLs[:1]
	}
	defer initHomeLog(c)()

	ctx, cancel := context.WithTimeout(c.Context, simulatorBootTimeout+2*time.Minute)
	defer cancel()

	workers, err := createWorkers(ctx, tc, 1, 0)
	if err != nil {
		return err
	}
	defer closeWorkers(workers)
	target := workers[0].Target

	if name := c.String("fixture"); name != "" {
		app, ok := target.(*sampleapp.App)
		if !ok {
			return fmt.Errorf("--fixture only applies to the sample target")
		}
		fx, err := fixture.Factory{}.Build(name)
		if err != nil {
			return err
		}
		fx.Load(app)
	}
	if c.Bool("launch") {
		if err := target.Launch(ctx); err != nil {
			return err
		}
	}

	src, ok := target.(core.ArtifactSource)
	if !ok {
		return fmt.Errorf("%s target cannot capture its element tree", tc.Target)
	}
	data, err := src.Hierarchy(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
