package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// xcrun is the default Runner.
func xcrun(ctx context.Context, args ...string) ([]byte, error) {
	if _, err := exec.LookPath("xcrun"); err != nil {
		return nil, fmt.Errorf("xcrun not found; install Xcode Command Line Tools: xcode-select --install")
	}
	return exec.CommandContext(ctx, "xcrun", args...).CombinedOutput() //#nosec G204 -- fixed binary, simctl arguments
}

// simctlDevicesOutput is the JSON from xcrun simctl list devices -j.
type simctlDevicesOutput struct {
	Devices map[string][]simctlDevice `json:"devices"`
}

type simctlDevice struct {
	Name        string `json:"name"`
	UDID        string `json:"udid"`
	State       string `json:"state"`
	IsAvailable bool   `json:"isAvailable"`
}

// parseDevices decodes simctl JSON, keeping available iOS devices sorted
// by OS version (newest first) and name.
func parseDevices(data []byte) ([]Device, error) {
	var out simctlDevicesOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse simctl output: %w", err)
	}

	var devices []Device
	for runtime, list := range out.Devices {
		if !strings.Contains(runtime, "iOS-") {
			continue
		}
		version := extractOSVersion(runtime)
		for _, d := range list {
			if !d.IsAvailable {
				continue
			}
			devices = append(devices, Device{
				Name:      d.Name,
				UDID:      d.UDID,
				Runtime:   runtime,
				OSVersion: version,
				State:     d.State,
			})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		if a.OSVersion != b.OSVersion {
			return compareVersions(a.OSVersion, b.OSVersion) > 0
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UDID < b.UDID
	})
	return devices, nil
}

// extractOSVersion turns "com.apple.CoreSimulator.SimRuntime.iOS-17-2" into "17.2".
func extractOSVersion(runtime string) string {
	idx := strings.LastIndex(runtime, "iOS-")
	if idx == -1 {
		return ""
	}
	return strings.ReplaceAll(runtime[idx+len("iOS-"):], "-", ".")
}

// compareVersions compares dotted numeric versions.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}
