package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "UISCRIPT_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the uiscript home directory: $UISCRIPT_HOME, else <home>
// when the binary is installed as <home>/bin/uiscript, else the working
// directory. The result is cached for the life of the process.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetReportsDir returns <home>/reports, where runs write unless --output
// is given.
func GetReportsDir() string {
	return filepath.Join(GetHome(), "reports")
}

// GetLogPath returns <home>/logs/uiscript.log, used by commands that run
// outside a report directory.
func GetLogPath() string {
	return filepath.Join(GetHome(), "logs", "uiscript.log")
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}
	if execPath, err := os.Executable(); err == nil {
		if home, ok := homeFromExecutable(execPath); ok {
			return home
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// homeFromExecutable returns <home> for a binary at <home>/bin/<name>.
func homeFromExecutable(execPath string) (string, bool) {
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	binDir := filepath.Dir(execPath)
	if filepath.Base(binDir) != "bin" {
		return "", false
	}
	return filepath.Dir(binDir), true
}

// ResetHome clears the cached home directory. Tests only.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
