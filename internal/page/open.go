package page

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// startCommand launches a detached process. Replaced in tests.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start() //nolint:gosec // G204: fixed opener with a file URL
}

// OpenInBrowser opens a local file in the system browser.
func OpenInBrowser(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	url := "file://" + filepath.ToSlash(abs)

	var name string
	var args []string
	switch runtime.GOOS {
	case "windows":
		name, args = "cmd", []string{"/c", "start", "", url}
	case "darwin":
		name, args = "open", []string{url}
	default:
		name, args = "xdg-open", []string{url}
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("could not open browser (open %s manually): %w", url, err)
	}
	return nil
}
