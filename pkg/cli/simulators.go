package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uiscript/pkg/simulator"
)

var simulatorsCommand = &cli.Command{
	Name:  "simulators",
	Usage: "List available iOS simulators (for --simulator)",
	Action: func(c *cli.Context) error {
		defer initHomeLog(c)()
		return listSimulators(c, simulator.NewManager())
	},
}

func listSimulators(c *cli.Context, sims *simulator.Manager) error {
	devices, err := sims.List(c.Context)
	if err != nil {
		return err
	}
	w := c.App.Writer
	if len(devices) == 0 {
		fmt.Fprintln(w, "No iOS simulators available")
		return nil
	}
	for _, d := range devices {
		state := d.State
		if d.Booted() {
			state = color(colorGreen) + state + color(colorReset)
		}
		fmt.Fprintf(w, "  %-28s iOS %-6s %s  %s\n", d.Name, d.OSVersion, d.UDID, state)
	}
	return nil
}
