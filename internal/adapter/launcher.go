package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Launcher opens page image URLs in an external viewer
type Launcher struct {
	command string   // configured viewer command, empty for system default
	args    []string // additional arguments for the viewer
	logger  *slog.Logger

	// start runs the command without waiting; replaced in tests
	start func(name string, args ...string) error
}

// NewLauncher creates a launcher for the configured viewer command
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		logger:  logger,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Launch opens url in the configured viewer or the system default handler
func (l *Launcher) Launch(url string) error {
	if l.command != "" {
		return l.launchConfigured(url)
	}
	return l.launchDefault(url)
}

func (l *Launcher) launchConfigured(url string) error {
	args := append(append([]string{}, l.args...), url)
	l.logger.Info("launching viewer", "command", l.command, "args", args)

	// On macOS GUI apps are usually not in PATH
	if runtime.GOOS == "darwin" && !strings.Contains(l.command, string(filepath.Separator)) {
		if _, err := exec.LookPath(l.command); err != nil {
			cmdArgs := []string{"-a", l.command}
			if len(l.args) > 0 {
				cmdArgs = append(cmdArgs, "--args")
				cmdArgs = append(cmdArgs, l.args...)
			}
			cmdArgs = append(cmdArgs, url)
			l.logger.Info("using macOS 'open -a' to launch GUI app", "app", l.command)
			return l.run("open", cmdArgs...)
		}
	}

	return l.run(l.command, args...)
}

// launchDefault opens the URL using the system default handler
func (l *Launcher) launchDefault(url string) error {
	name, args := defaultOpener(runtime.GOOS)
	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)
	return l.run(name, append(args, url)...)
}

func defaultOpener(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "cmd", []string{"/c", "start", ""}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", nil
	}
}

func (l *Launcher) run(name string, args ...string) error {
	if err := l.start(name, args...); err != nil {
		l.logger.Error("failed to launch viewer", "error", err, "command", name)
		return fmt.Errorf("failed to launch %s: %w", name, err)
	}
	return nil
}
