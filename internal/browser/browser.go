package browser

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// System opens URLs with the platform's default handler.
type System struct {
	goos    string
	command func(name string, args ...string) *exec.Cmd
}

// NewSystem returns an opener for the running platform.
func NewSystem() *System {
	return &System{goos: runtime.GOOS, command: exec.Command}
}

// Open starts the browser and returns without waiting for it.
func (s *System) Open(url string) error {
	cmd, err := s.commandFor(url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %q: %w", url, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (s *System) commandFor(url string) (*exec.Cmd, error) {
	u := strings.TrimSpace(url)
	if u == "" {
		return nil, fmt.Errorf("url is required")
	}
	switch s.goos {
	case "darwin":
		return s.command("open", u), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return s.command("xdg-open", u), nil
	case "windows":
		return s.command("rundll32", "url.dll,FileProtocolHandler", u), nil
	default:
		return nil, fmt.Errorf("opening a browser is not supported on %s", s.goos)
	}
}
