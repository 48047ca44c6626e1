package browser

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// launch starts the platform opener. Replaced in tests.
var launch = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens an http or https URL in the default browser.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	return start(rawURL)
}

// OpenFile opens a local file, such as a rendered panel, in the default
// browser.
func OpenFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("opening %s: is a directory", path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return start(u.String())
}

func start(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return launch("open", target)
	case "windows":
		// Use rundll32 instead of cmd /c start to avoid shell interpretation
		return launch("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return launch("xdg-open", target)
	}
}
